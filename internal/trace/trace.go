// Package trace прокладывает отрезок через сетку уровня, собирает пересечения
// с линиями и объектами и отдаёт их посетителю в порядке удаления от начала.
package trace

import (
	"math"
	"sort"

	"github.com/annel0/mapclip/internal/blockmap"
	"github.com/annel0/mapclip/internal/logging"
	"github.com/annel0/mapclip/internal/physics"
	"github.com/annel0/mapclip/internal/world"
)

// Flags что собирать при трассировке
type Flags uint8

const (
	AddLines Flags = 1 << iota
	AddThings
	// EarlyOut прерывает трассировку на первой односторонней линии
	EarlyOut
)

// Intercept пересечение трассы с линией или объектом
type Intercept struct {
	Frac  float64
	Line  *world.Line
	Thing *world.Thing
}

// Control решение посетителя
type Control uint8

const (
	Continue Control = iota
	Stop
)

// Visitor получает пересечения по возрастанию Frac
type Visitor func(in *Intercept) Control

// Tracer держит буферы пересечений для вложенных трассировок
type Tracer struct {
	lvl *world.Level
	log *logging.Logger

	maxCells int
	maxDepth int

	stack [][]Intercept
	depth int
}

// New создаёт трассировщик уровня
func New(lvl *world.Level) *Tracer {
	cfg := lvl.Config()
	return &Tracer{
		lvl:      lvl,
		log:      lvl.Logger(),
		maxCells: cfg.GetMaxTraceCells(),
		maxDepth: cfg.GetMaxTraceDepth(),
	}
}

// Depth текущая вложенность трассировок
func (tr *Tracer) Depth() int {
	return tr.depth
}

// PathTraverse трассирует отрезок (x1,y1)-(x2,y2). Возвращает false, если
// посетитель остановил обход или EarlyOut встретил одностороннюю линию.
func (tr *Tracer) PathTraverse(x1, y1, x2, y2 float64, flags Flags, visit Visitor) (bool, error) {
	return tr.PathTraverseMax(x1, y1, x2, y2, flags, 1, visit)
}

// PathTraverseMax то же, но пересечения дальше maxFrac посетителю не отдаются
func (tr *Tracer) PathTraverseMax(x1, y1, x2, y2 float64, flags Flags, maxFrac float64, visit Visitor) (bool, error) {
	if tr.depth >= tr.maxDepth {
		return false, world.Contractf("PathTraverse", "nesting depth %d exceeds limit %d", tr.depth+1, tr.maxDepth)
	}

	level := tr.depth
	if len(tr.stack) <= level {
		tr.stack = append(tr.stack, nil)
	}
	tr.depth++
	defer func() { tr.depth-- }()

	div := physics.DivLine{X: x1, Y: y1, DX: x2 - x1, DY: y2 - y1}

	buf, ok := tr.collect(tr.stack[level][:0], div, flags)
	tr.stack[level] = buf
	if !ok {
		return false, nil
	}

	sort.SliceStable(buf, func(i, j int) bool { return buf[i].Frac < buf[j].Frac })

	for i := range buf {
		if buf[i].Frac > maxFrac {
			break
		}
		if visit(&buf[i]) == Stop {
			return false, nil
		}
	}
	return true, nil
}

// collect обходит ячейки вдоль трассы и собирает пересечения
func (tr *Tracer) collect(buf []Intercept, trace physics.DivLine, flags Flags) ([]Intercept, bool) {
	bm := tr.lvl.Blockmap
	bm.NewQuery()

	earlyout := flags&EarlyOut != 0
	cells := 0

	ok := tr.walk(trace, func(bx, by int) bool {
		cells++

		if flags&AddLines != 0 {
			stop := false
			bm.BlockLines(bx, by, func(i int) bool {
				l := tr.lvl.Lines[i]
				frac, hit := lineIntercept(trace, l)
				if !hit {
					return true
				}
				if earlyout && frac < 1 && !l.TwoSided() {
					stop = true
					return false
				}
				buf = append(buf, Intercept{Frac: frac, Line: l})
				return true
			})
			if stop {
				return false
			}
		}

		if flags&AddThings != 0 {
			bm.BlockThings(bx, by, func(r blockmap.Ref) bool {
				t, err := tr.lvl.Thing(world.ThingID(r))
				if err != nil {
					return true
				}
				if frac, hit := thingIntercept(trace, t); hit {
					buf = append(buf, Intercept{Frac: frac, Thing: t})
				}
				return true
			})
		}
		return true
	})

	if cells >= tr.maxCells {
		tr.log.Debug("трасса (%.1f,%.1f)+(%.1f,%.1f) упёрлась в предел ячеек %d",
			trace.X, trace.Y, trace.DX, trace.DY, tr.maxCells)
	}
	return buf, ok
}

// walk перебирает ячейки, которые пересекает отрезок, от начала к концу.
// Начало обхода сдвигается с границ ячеек, сама трасса не меняется.
func (tr *Tracer) walk(trace physics.DivLine, fn func(bx, by int) bool) bool {
	bm := tr.lvl.Blockmap

	sx, sy := trace.X, trace.Y
	if math.Mod(sx-bm.Origin.X, blockmap.Unit) == 0 {
		sx += 0.1
	}
	if math.Mod(sy-bm.Origin.Y, blockmap.Unit) == 0 {
		sy += 0.1
	}

	gx1 := (sx - bm.Origin.X) / blockmap.Unit
	gy1 := (sy - bm.Origin.Y) / blockmap.Unit
	gx2 := (trace.X + trace.DX - bm.Origin.X) / blockmap.Unit
	gy2 := (trace.Y + trace.DY - bm.Origin.Y) / blockmap.Unit

	bx, by := int(math.Floor(gx1)), int(math.Floor(gy1))
	ex, ey := int(math.Floor(gx2)), int(math.Floor(gy2))

	stepX, tMaxX, tDeltaX := ddaAxis(gx1, gx2-gx1, bx)
	stepY, tMaxY, tDeltaY := ddaAxis(gy1, gy2-gy1, by)

	for count := 0; count < tr.maxCells; count++ {
		if !fn(bx, by) {
			return false
		}

		if bx == ex && by == ey {
			break
		}
		if tMaxX > 1 && tMaxY > 1 {
			break
		}

		if tMaxX < tMaxY {
			tMaxX += tDeltaX
			bx += stepX
		} else {
			tMaxY += tDeltaY
			by += stepY
		}
	}
	return true
}

// ddaAxis шаг, параметр первой границы и расстояние между границами по одной оси
func ddaAxis(start, d float64, cell int) (step int, tMax, tDelta float64) {
	switch {
	case d > 0:
		return 1, (float64(cell+1) - start) / d, 1 / d
	case d < 0:
		return -1, (start - float64(cell)) / -d, 1 / -d
	default:
		return 0, math.Inf(1), math.Inf(1)
	}
}

// lineIntercept пересекает трассу с линией. Для длинных трасс стороны концов
// линии считаются относительно трассы, для коротких - наоборот.
func lineIntercept(trace physics.DivLine, l *world.Line) (float64, bool) {
	div := l.DivLine()

	var s1, s2 int
	if math.Abs(trace.DX) > 16 || math.Abs(trace.DY) > 16 {
		s1 = physics.PointOnDivLineSide(l.V1.X, l.V1.Y, trace)
		s2 = physics.PointOnDivLineSide(l.V2.X, l.V2.Y, trace)
	} else {
		s1 = physics.PointOnDivLineSide(trace.X, trace.Y, div)
		s2 = physics.PointOnDivLineSide(trace.X+trace.DX, trace.Y+trace.DY, div)
	}
	if s1 == s2 {
		return 0, false
	}

	frac := physics.InterceptVector(trace, div)
	if frac < 0 || frac > 1 {
		return 0, false
	}
	return frac, true
}

// thingIntercept проверяет диагональ футпринта, поперечную трассе
func thingIntercept(trace physics.DivLine, t *world.Thing) (float64, bool) {
	r := t.Radius
	x1, x2 := t.Pos.X-r, t.Pos.X+r
	y1, y2 := t.Pos.Y-r, t.Pos.Y+r

	if (trace.DX >= 0) == (trace.DY >= 0) {
		y1, y2 = y2, y1
	}

	if physics.PointOnDivLineSide(x1, y1, trace) == physics.PointOnDivLineSide(x2, y2, trace) {
		return 0, false
	}

	div := physics.DivLine{X: x1, Y: y1, DX: x2 - x1, DY: y2 - y1}
	frac := physics.InterceptVector(trace, div)
	if frac < 0 || frac > 1 {
		return 0, false
	}
	return frac, true
}
