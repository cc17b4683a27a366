package clip

import (
	"github.com/annel0/mapclip/internal/physics"
	"github.com/annel0/mapclip/internal/trace"
	"github.com/annel0/mapclip/internal/vec"
	"github.com/annel0/mapclip/internal/world"
)

// noHit доля пути, означающая "ни одна линия не задета"
const noHit = 1.0001

// slideAttempts сколько раз пробуем прижаться к стене, прежде чем идти лесенкой
const slideAttempts = 2

// SlideMove двигает объект к (x,y), а упёршись в стену, скользит вдоль неё.
// Вызывается после неудачного TryMove. false - не удалось сдвинуться совсем.
func (c *Clipper) SlideMove(t *world.Thing, x, y float64) (bool, error) {
	dx, dy := x-t.Pos.X, y-t.Pos.Y

	for attempt := 0; attempt < slideAttempts; attempt++ {
		best, line, err := c.slideTrace(t, dx, dy)
		if err != nil {
			return false, err
		}
		if best == noHit || line == nil {
			break
		}

		// подходим вплотную к стене
		frac := best - 0.01
		if frac > 0 {
			ok, err := c.TryMove(t, t.Pos.X+dx*frac, t.Pos.Y+dy*frac)
			if err != nil {
				return false, err
			}
			if !ok {
				break
			}
		}

		// остаток хода направляем вдоль стены
		frac = 1 - (best + 0.01)
		if frac > 1 {
			frac = 1
		}
		if frac <= 0 {
			return false, nil
		}

		dx, dy = slideAlong(line, dx*frac, dy*frac)

		ok, err := c.TryMove(t, t.Pos.X+dx, t.Pos.Y+dy)
		if err != nil || ok {
			return ok, err
		}
	}

	return c.stairStep(t, dx, dy)
}

// stairStep сначала по y, потом по x
func (c *Clipper) stairStep(t *world.Thing, dx, dy float64) (bool, error) {
	ok, err := c.TryMove(t, t.Pos.X, t.Pos.Y+dy)
	if err != nil || ok {
		return ok, err
	}
	return c.TryMove(t, t.Pos.X+dx, t.Pos.Y)
}

// slideTrace пускает три трассы от ведущих углов футпринта и находит ближайшую
// линию, которая не пропустит объект
func (c *Clipper) slideTrace(t *world.Thing, dx, dy float64) (float64, *world.Line, error) {
	leadX, trailX := t.Pos.X+t.Radius, t.Pos.X-t.Radius
	if dx <= 0 {
		leadX, trailX = trailX, leadX
	}
	leadY, trailY := t.Pos.Y+t.Radius, t.Pos.Y-t.Radius
	if dy <= 0 {
		leadY, trailY = trailY, leadY
	}

	best := noHit
	var bestLine *world.Line

	visit := func(in *trace.Intercept) trace.Control {
		l := in.Line
		if l == nil {
			return trace.Continue
		}

		if !l.TwoSided() {
			// одностороннюю линию с обратной стороны не видно
			if l.PointSide(t.Pos.X, t.Pos.Y) != 0 {
				return trace.Continue
			}
		} else if linePassable(t, l) && slideFits(t, l) {
			return trace.Continue
		}

		if in.Frac < best {
			best = in.Frac
			bestLine = l
		}
		return trace.Stop
	}

	corners := [3][2]float64{
		{leadX, leadY},
		{trailX, leadY},
		{leadX, trailY},
	}
	for _, p := range corners {
		if _, err := c.tracer.PathTraverse(p[0], p[1], p[0]+dx, p[1]+dy, trace.AddLines, visit); err != nil {
			return 0, nil, err
		}
	}

	return best, bestLine, nil
}

// slideFits объект пролезает хотя бы в один промежуток линии
func slideFits(t *world.Thing, l *world.Line) bool {
	for _, g := range l.Gaps {
		if g.Height() < t.Height {
			continue
		}
		if t.Pos.Z+t.Height > g.Ceil {
			continue
		}
		if t.Pos.Z+t.StepSize < g.Floor {
			continue
		}
		return true
	}
	return false
}

// slideAlong проецирует ход на направление линии
func slideAlong(l *world.Line, dx, dy float64) (float64, float64) {
	switch l.Slope {
	case physics.SlopeHorizontal:
		return dx, 0
	case physics.SlopeVertical:
		return 0, dy
	}

	along := vec.Vec2Float{X: dx, Y: dy}.Project(vec.Vec2Float{X: l.DX, Y: l.DY})
	return along.X, along.Y
}
