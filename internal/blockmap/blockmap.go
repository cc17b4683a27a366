// Package blockmap реализует равномерную сетку 128x128 над геометрией уровня:
// статические списки линий на ячейку и динамические цепочки объектов.
package blockmap

import (
	"errors"
	"fmt"
	"math"

	"github.com/annel0/mapclip/internal/physics"
	"github.com/annel0/mapclip/internal/vec"
)

const (
	// Unit размер стороны ячейки в мировых единицах
	Unit = 128.0
	// Margin отступ начала сетки от минимальной точки уровня
	Margin = 8.0
	// End завершает список линий каждой ячейки
	End int32 = -1
)

var (
	// ErrDoubleLink объект уже находится в цепочке ячейки
	ErrDoubleLink = errors.New("blockmap: thing is already linked")
	// ErrOutOfBounds линия выходит за границы, по которым строилась сетка
	ErrOutOfBounds = errors.New("blockmap: segment is outside of the level bounds")
)

// Segment линия уровня в виде отрезка; индекс в срезе - номер линии
type Segment struct {
	X1, Y1 float64
	X2, Y2 float64
}

// Index сетка уровня
type Index struct {
	Origin        vec.Vec2Float
	Width, Height int

	// offsets[c]..offsets[c+1]-1 - линии ячейки c, за ними End
	offsets []int32
	lines   []int32

	// поколение запроса и метки линий для дедупликации
	validcount uint32
	lineTags   []uint32

	heads []Ref
	links []chainLink
}

// Build строит сетку по отрезкам и ограничивающему прямоугольнику уровня
func Build(segs []Segment, bounds physics.BBox) (*Index, error) {
	origin := vec.Vec2Float{X: math.Floor(bounds.Left) - Margin, Y: math.Floor(bounds.Bottom) - Margin}

	idx := &Index{Origin: origin}
	idx.Width = idx.BlockX(bounds.Right) + 1
	idx.Height = idx.BlockY(bounds.Top) + 1

	cells := idx.Width * idx.Height
	perCell := make([][]int32, cells)

	for i, s := range segs {
		if !bounds.Expand(0.5).ContainsPoint(s.X1, s.Y1) || !bounds.Expand(0.5).ContainsPoint(s.X2, s.Y2) {
			return nil, fmt.Errorf("line %d: %w", i, ErrOutOfBounds)
		}
		idx.addLine(perCell, int32(i), s)
	}

	// склеиваем списки в один массив с завершающим End на каждую ячейку
	total := cells
	for _, l := range perCell {
		total += len(l)
	}

	idx.offsets = make([]int32, cells+1)
	idx.lines = make([]int32, 0, total)
	for c, l := range perCell {
		idx.offsets[c] = int32(len(idx.lines))
		idx.lines = append(idx.lines, l...)
		idx.lines = append(idx.lines, End)
	}
	idx.offsets[cells] = int32(len(idx.lines))

	idx.lineTags = make([]uint32, len(segs))
	idx.heads = make([]Ref, cells)
	for i := range idx.heads {
		idx.heads[i] = NoRef
	}

	return idx, nil
}

// addLine растеризует линию во все ячейки, которые она задевает.
// Строка и столбец обрабатываются отдельно, общий случай идёт по ячейкам
// ведущей оси и для каждой вычисляет точный диапазон ячеек по другой.
func (idx *Index) addLine(perCell [][]int32, line int32, s Segment) {
	x0, y0 := s.X1-idx.Origin.X, s.Y1-idx.Origin.Y
	x1, y1 := s.X2-idx.Origin.X, s.Y2-idx.Origin.Y

	add := func(bx, by int) {
		if bx < 0 || bx >= idx.Width || by < 0 || by >= idx.Height {
			return
		}
		c := by*idx.Width + bx
		perCell[c] = append(perCell[c], line)
	}

	bx0, bx1 := cellOf(x0), cellOf(x1)
	by0, by1 := cellOf(y0), cellOf(y1)

	if by0 == by1 {
		for bx := min(bx0, bx1); bx <= max(bx0, bx1); bx++ {
			add(bx, by0)
		}
		return
	}
	if bx0 == bx1 {
		for by := min(by0, by1); by <= max(by0, by1); by++ {
			add(bx0, by)
		}
		return
	}

	if math.Abs(x1-x0) >= math.Abs(y1-y0) {
		stepCells(x0, y0, x1, y1, add)
		return
	}
	stepCells(y0, x0, y1, x1, func(by, bx int) { add(bx, by) })
}

// stepCells идёт по ячейкам ведущей оси a от меньшего конца к большему.
// В каждой ячейке отрезок занимает [lo, hi) по a, диапазон по b берётся на
// этих границах; правая граница не включается, чтобы проход точно через
// угол не цеплял соседнюю ячейку.
func stepCells(a0, b0, a1, b1 float64, fn func(ca, cb int)) {
	if a1 < a0 {
		a0, a1 = a1, a0
		b0, b1 = b1, b0
	}
	slope := (b1 - b0) / (a1 - a0)

	for ca := cellOf(a0); ca <= cellOf(a1); ca++ {
		lo := math.Max(a0, float64(ca)*Unit)
		hi := a1
		if next := float64(ca+1) * Unit; next <= a1 {
			hi = math.Nextafter(next, lo)
		}

		c1 := cellOf(b0 + slope*(lo-a0))
		c2 := cellOf(b0 + slope*(hi-a0))
		if c1 > c2 {
			c1, c2 = c2, c1
		}
		for cb := c1; cb <= c2; cb++ {
			fn(ca, cb)
		}
	}
}

func cellOf(v float64) int {
	return int(math.Floor(v / Unit))
}

// BlockX номер столбца для мировой координаты x
func (idx *Index) BlockX(x float64) int {
	return int(math.Floor((x - idx.Origin.X) / Unit))
}

// BlockY номер строки для мировой координаты y
func (idx *Index) BlockY(y float64) int {
	return int(math.Floor((y - idx.Origin.Y) / Unit))
}

// Block координаты ячейки для точки
func (idx *Index) Block(x, y float64) vec.Vec2 {
	return vec.BlockOf(vec.Vec2Float{X: x, Y: y}, idx.Origin, Unit)
}

// Contains проверяет, лежит ли ячейка внутри сетки
func (idx *Index) Contains(bx, by int) bool {
	return vec.Vec2{X: bx, Y: by}.In(idx.Width, idx.Height)
}

// CellBox мировые границы ячейки
func (idx *Index) CellBox(bx, by int) physics.BBox {
	left := idx.Origin.X + float64(bx)*Unit
	bottom := idx.Origin.Y + float64(by)*Unit
	return physics.BBox{Left: left, Right: left + Unit, Bottom: bottom, Top: bottom + Unit}
}

// LinesInBlock возвращает линии ячейки (без завершающего End).
// Для ячеек вне сетки возвращается пустой список.
func (idx *Index) LinesInBlock(bx, by int) []int32 {
	if !idx.Contains(bx, by) {
		return nil
	}
	c := by*idx.Width + bx
	return idx.lines[idx.offsets[c] : idx.offsets[c+1]-1]
}

// NewQuery начинает новое поколение: каждая линия будет выдана BlockLines не более одного раза
func (idx *Index) NewQuery() {
	idx.validcount++
	if idx.validcount == 0 {
		// переполнение счётчика: сбрасываем метки, чтобы старые не совпали с новыми
		for i := range idx.lineTags {
			idx.lineTags[i] = 0
		}
		idx.validcount = 1
	}
}

// BlockLines вызывает fn для ещё не посещённых в текущем поколении линий ячейки.
// Возвращает false, если fn прервала обход.
func (idx *Index) BlockLines(bx, by int, fn func(line int) bool) bool {
	for _, l := range idx.LinesInBlock(bx, by) {
		if idx.lineTags[l] == idx.validcount {
			continue
		}
		idx.lineTags[l] = idx.validcount

		if !fn(int(l)) {
			return false
		}
	}
	return true
}

// BoxLines начинает новое поколение и обходит линии всех ячеек, покрытых прямоугольником
func (idx *Index) BoxLines(box physics.BBox, fn func(line int) bool) bool {
	idx.NewQuery()

	x1, x2, y1, y2, ok := idx.cellRange(box)
	if !ok {
		return true
	}

	for bx := x1; bx <= x2; bx++ {
		for by := y1; by <= y2; by++ {
			if !idx.BlockLines(bx, by, fn) {
				return false
			}
		}
	}
	return true
}

// cellRange диапазон ячеек под прямоугольником, обрезанный по сетке
func (idx *Index) cellRange(box physics.BBox) (x1, x2, y1, y2 int, ok bool) {
	x1 = max(idx.BlockX(box.Left), 0)
	x2 = min(idx.BlockX(box.Right), idx.Width-1)
	y1 = max(idx.BlockY(box.Bottom), 0)
	y2 = min(idx.BlockY(box.Top), idx.Height-1)
	return x1, x2, y1, y2, x1 <= x2 && y1 <= y2
}

// Stats сводка по сетке для инструментов
type Stats struct {
	Width, Height int
	Cells         int
	EmptyCells    int
	Entries       int
	LongestList   int
}

// Stats считает статистику списков линий
func (idx *Index) Stats() Stats {
	st := Stats{Width: idx.Width, Height: idx.Height, Cells: idx.Width * idx.Height}
	for by := 0; by < idx.Height; by++ {
		for bx := 0; bx < idx.Width; bx++ {
			n := len(idx.LinesInBlock(bx, by))
			if n == 0 {
				st.EmptyCells++
			}
			st.Entries += n
			st.LongestList = max(st.LongestList, n)
		}
	}
	return st
}
