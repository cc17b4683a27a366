package blockmap

import (
	"fmt"

	"github.com/annel0/mapclip/internal/physics"
)

// Ref дескриптор объекта в цепочках ячеек (индекс слота объекта на уровне)
type Ref int32

// NoRef пустая ссылка
const NoRef Ref = -1

const (
	cellUnlinked int32 = -1
	cellOffMap   int32 = -2
)

type chainLink struct {
	prev, next Ref
	cell       int32
}

func (idx *Index) link(ref Ref) *chainLink {
	for int(ref) >= len(idx.links) {
		idx.links = append(idx.links, chainLink{prev: NoRef, next: NoRef, cell: cellUnlinked})
	}
	return &idx.links[ref]
}

// LinkThing вставляет объект в голову цепочки ячейки, содержащей (x,y).
// Объект за пределами сетки считается связанным, но ни в одной цепочке не лежит.
func (idx *Index) LinkThing(ref Ref, x, y float64) error {
	if ref < 0 {
		return fmt.Errorf("link ref %d: invalid handle", ref)
	}

	ln := idx.link(ref)
	if ln.cell != cellUnlinked {
		return fmt.Errorf("link ref %d: %w", ref, ErrDoubleLink)
	}

	b := idx.Block(x, y)
	if !idx.Contains(b.X, b.Y) {
		ln.cell = cellOffMap
		ln.prev, ln.next = NoRef, NoRef
		return nil
	}

	c := int32(b.Index(idx.Width))
	head := idx.heads[c]

	ln.cell = c
	ln.prev = NoRef
	ln.next = head
	if head != NoRef {
		idx.links[head].prev = ref
	}
	idx.heads[c] = ref
	return nil
}

// UnlinkThing убирает объект из цепочки. Для несвязанного объекта ничего не делает.
func (idx *Index) UnlinkThing(ref Ref) {
	if ref < 0 || int(ref) >= len(idx.links) {
		return
	}

	ln := &idx.links[ref]
	switch ln.cell {
	case cellUnlinked:
		return
	case cellOffMap:
		ln.cell = cellUnlinked
		return
	}

	if ln.next != NoRef {
		idx.links[ln.next].prev = ln.prev
	}
	if ln.prev != NoRef {
		idx.links[ln.prev].next = ln.next
	} else {
		idx.heads[ln.cell] = ln.next
	}

	ln.prev, ln.next = NoRef, NoRef
	ln.cell = cellUnlinked
}

// IsLinked сообщает, связан ли объект с сеткой
func (idx *Index) IsLinked(ref Ref) bool {
	return ref >= 0 && int(ref) < len(idx.links) && idx.links[ref].cell != cellUnlinked
}

// ThingsInBlock возвращает объекты ячейки в порядке цепочки
func (idx *Index) ThingsInBlock(bx, by int) []Ref {
	var out []Ref
	idx.BlockThings(bx, by, func(r Ref) bool {
		out = append(out, r)
		return true
	})
	return out
}

// BlockThings обходит цепочку ячейки. fn может отвязать текущий объект.
func (idx *Index) BlockThings(bx, by int, fn func(Ref) bool) bool {
	if !idx.Contains(bx, by) {
		return true
	}

	for r := idx.heads[by*idx.Width+bx]; r != NoRef; {
		next := idx.links[r].next
		if !fn(r) {
			return false
		}
		r = next
	}
	return true
}

// BoxThings обходит объекты всех ячеек под прямоугольником
func (idx *Index) BoxThings(box physics.BBox, fn func(Ref) bool) bool {
	x1, x2, y1, y2, ok := idx.cellRange(box)
	if !ok {
		return true
	}

	for bx := x1; bx <= x2; bx++ {
		for by := y1; by <= y2; by++ {
			if !idx.BlockThings(bx, by, fn) {
				return false
			}
		}
	}
	return true
}
