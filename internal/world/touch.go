package world

import (
	"errors"
	"fmt"

	"github.com/annel0/mapclip/internal/blockmap"
	"github.com/annel0/mapclip/internal/physics"
)

// touchID индекс узла в арене касаний
type touchID int32

const noTouch touchID = -1

// touchNode связывает объект с сектором, который задевает его футпринт.
// Узел одновременно лежит в списке объекта и в списке сектора.
// Мёртвый узел (thing == NoThing) остаётся в обоих списках до конца цикла перелинковки.
type touchNode struct {
	thing  ThingID
	sector *Sector

	thingPrev, thingNext touchID
	secPrev, secNext     touchID
}

// UnsetPosition отвязывает объект от сетки и помечает его узлы касаний мёртвыми.
// Для неразмещённого объекта ничего не делает.
func (lvl *Level) UnsetPosition(t *Thing) {
	if !t.placed {
		return
	}

	for n := t.touchHead; n != noTouch; n = lvl.touch[n].thingNext {
		lvl.touch[n].thing = NoThing
	}

	lvl.Blockmap.UnlinkThing(blockmap.Ref(t.ID))
	t.placed = false
}

// SetPosition связывает объект с сектором под центром, со всеми секторами,
// которые задевает футпринт, и с ячейкой сетки.
func (lvl *Level) SetPosition(t *Thing) error {
	if t.placed {
		return Contractf("SetPosition", "thing %d is already placed", t.ID)
	}

	sec := lvl.PointInSector(t.Pos.X, t.Pos.Y)
	if sec == nil {
		return fmt.Errorf("thing %d at (%.1f, %.1f): %w", t.ID, t.Pos.X, t.Pos.Y, ErrOutsideMap)
	}
	t.Sector = sec

	needed := lvl.touchedSectors(t, sec)
	lvl.metrics.moves.Inc()

	// сначала оживляем мёртвые узлы, уже указывающие на нужный сектор
	var missing []*Sector
	for _, s := range needed {
		if n := lvl.findDeadNode(t, s); n != noTouch {
			lvl.touch[n].thing = t.ID
			lvl.metrics.hits.Inc()
			continue
		}
		missing = append(missing, s)
	}

	// затем перенаправляем оставшиеся мёртвые узлы, и только потом берём новые
	for _, s := range missing {
		if n := lvl.findDeadNode(t, nil); n != noTouch {
			lvl.unlinkFromSector(n)
			lvl.touch[n].thing = t.ID
			lvl.linkToSector(n, s)
			lvl.metrics.misses.Inc()
			continue
		}

		n := lvl.allocTouch()
		lvl.touch[n].thing = t.ID
		lvl.linkToThing(n, t)
		lvl.linkToSector(n, s)
	}

	lvl.pruneDeadNodes(t)

	if err := lvl.Blockmap.LinkThing(blockmap.Ref(t.ID), t.Pos.X, t.Pos.Y); err != nil {
		if errors.Is(err, blockmap.ErrDoubleLink) {
			return Contractf("SetPosition", "thing %d: %v", t.ID, err)
		}
		return err
	}

	t.placed = true
	return nil
}

// ChangePosition единственный допустимый способ переместить размещённый объект
func (lvl *Level) ChangePosition(t *Thing, x, y, z float64) error {
	lvl.UnsetPosition(t)

	t.Pos.X, t.Pos.Y, t.Pos.Z = x, y, z

	return lvl.SetPosition(t)
}

// touchedSectors сектор под центром плюс сектора по обе стороны каждой линии,
// задевающей футпринт. Без повторов.
func (lvl *Level) touchedSectors(t *Thing, sec *Sector) []*Sector {
	out := []*Sector{sec}
	add := func(s *Sector) {
		if s == nil {
			return
		}
		for _, have := range out {
			if have == s {
				return
			}
		}
		out = append(out, s)
	}

	box := t.Box()
	lvl.LinesInBox(box, func(l *Line) bool {
		if physics.SegmentIntersectsBox(l.V1.X, l.V1.Y, l.V2.X, l.V2.Y, box) {
			add(l.Front)
			add(l.Back)
		}
		return true
	})
	return out
}

// findDeadNode ищет мёртвый узел объекта; sec == nil означает любой сектор
func (lvl *Level) findDeadNode(t *Thing, sec *Sector) touchID {
	for n := t.touchHead; n != noTouch; n = lvl.touch[n].thingNext {
		node := &lvl.touch[n]
		if node.thing == NoThing && (sec == nil || node.sector == sec) {
			return n
		}
	}
	return noTouch
}

// pruneDeadNodes отдаёт все оставшиеся мёртвые узлы объекта в список свободных
func (lvl *Level) pruneDeadNodes(t *Thing) {
	for n := t.touchHead; n != noTouch; {
		next := lvl.touch[n].thingNext
		if lvl.touch[n].thing == NoThing {
			lvl.releaseTouch(n, t)
		}
		n = next
	}
}

// releaseAllNodes освобождает все узлы объекта (при удалении)
func (lvl *Level) releaseAllNodes(t *Thing) {
	for n := t.touchHead; n != noTouch; {
		next := lvl.touch[n].thingNext
		lvl.releaseTouch(n, t)
		n = next
	}
	t.touchHead = noTouch
}

func (lvl *Level) allocTouch() touchID {
	if n := lvl.touchFree; n != noTouch {
		lvl.touchFree = lvl.touch[n].thingNext
		lvl.touch[n] = touchNode{thing: NoThing, thingPrev: noTouch, thingNext: noTouch, secPrev: noTouch, secNext: noTouch}
		lvl.metrics.reused.Inc()
		return n
	}

	lvl.touch = append(lvl.touch, touchNode{thing: NoThing, thingPrev: noTouch, thingNext: noTouch, secPrev: noTouch, secNext: noTouch})
	lvl.metrics.allocs.Inc()
	return touchID(len(lvl.touch) - 1)
}

func (lvl *Level) releaseTouch(n touchID, t *Thing) {
	lvl.unlinkFromSector(n)
	lvl.unlinkFromThing(n, t)

	node := &lvl.touch[n]
	node.thing = NoThing
	node.sector = nil
	node.thingPrev = noTouch
	node.thingNext = lvl.touchFree
	lvl.touchFree = n

	lvl.metrics.frees.Inc()
}

func (lvl *Level) linkToThing(n touchID, t *Thing) {
	node := &lvl.touch[n]
	node.thingPrev = noTouch
	node.thingNext = t.touchHead
	if t.touchHead != noTouch {
		lvl.touch[t.touchHead].thingPrev = n
	}
	t.touchHead = n
}

func (lvl *Level) unlinkFromThing(n touchID, t *Thing) {
	node := &lvl.touch[n]
	if node.thingNext != noTouch {
		lvl.touch[node.thingNext].thingPrev = node.thingPrev
	}
	if node.thingPrev != noTouch {
		lvl.touch[node.thingPrev].thingNext = node.thingNext
	} else {
		t.touchHead = node.thingNext
	}
	node.thingPrev, node.thingNext = noTouch, noTouch
}

func (lvl *Level) linkToSector(n touchID, sec *Sector) {
	node := &lvl.touch[n]
	node.sector = sec
	node.secPrev = noTouch
	node.secNext = sec.touchHead
	if sec.touchHead != noTouch {
		lvl.touch[sec.touchHead].secPrev = n
	}
	sec.touchHead = n
}

func (lvl *Level) unlinkFromSector(n touchID) {
	node := &lvl.touch[n]
	sec := node.sector
	if sec == nil {
		return
	}

	if node.secNext != noTouch {
		lvl.touch[node.secNext].secPrev = node.secPrev
	}
	if node.secPrev != noTouch {
		lvl.touch[node.secPrev].secNext = node.secNext
	} else {
		sec.touchHead = node.secNext
	}
	node.secPrev, node.secNext = noTouch, noTouch
	node.sector = nil
}

// SectorThings обходит живые объекты, касающиеся сектора. Список снимается
// заранее, поэтому fn может перемещать и удалять объекты.
func (lvl *Level) SectorThings(sec *Sector, fn func(*Thing) bool) bool {
	var ids []ThingID
	for n := sec.touchHead; n != noTouch; n = lvl.touch[n].secNext {
		if id := lvl.touch[n].thing; id != NoThing {
			ids = append(ids, id)
		}
	}

	for _, id := range ids {
		t := lvl.thing(id)
		if t == nil {
			continue
		}
		if !fn(t) {
			return false
		}
	}
	return true
}

// ThingSectors сектора, которых касается объект
func (lvl *Level) ThingSectors(t *Thing) []*Sector {
	var out []*Sector
	for n := t.touchHead; n != noTouch; n = lvl.touch[n].thingNext {
		if node := &lvl.touch[n]; node.thing != NoThing {
			out = append(out, node.sector)
		}
	}
	return out
}

// TouchStats число узлов в арене и в списке свободных
func (lvl *Level) TouchStats() (total, free int) {
	for n := lvl.touchFree; n != noTouch; n = lvl.touch[n].thingNext {
		free++
	}
	return len(lvl.touch), free
}
