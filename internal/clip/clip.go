// Package clip проверяет и выполняет перемещения объектов по карте:
// относительная и абсолютная проверка позиции, шаг, скольжение вдоль стен,
// телепортация и движение полов и потолков.
package clip

import (
	"math"

	"github.com/annel0/mapclip/internal/gap"
	"github.com/annel0/mapclip/internal/logging"
	"github.com/annel0/mapclip/internal/physics"
	"github.com/annel0/mapclip/internal/trace"
	"github.com/annel0/mapclip/internal/world"
	"github.com/prometheus/client_golang/prometheus"
)

// Clipper движок перемещений одного уровня
type Clipper struct {
	lvl    *world.Level
	tracer *trace.Tracer
	hooks  Hooks
	log    *logging.Logger

	true3d      bool
	passMissile bool
	crushDamage int

	metrics *moveMetrics
}

// New создаёт клиппер. hooks == nil означает NopHooks.
func New(lvl *world.Level, hooks Hooks, reg prometheus.Registerer) *Clipper {
	if hooks == nil {
		hooks = NopHooks{}
	}

	cfg := lvl.Config()
	return &Clipper{
		lvl:         lvl,
		tracer:      trace.New(lvl),
		hooks:       hooks,
		log:         lvl.Logger(),
		true3d:      cfg.GetTrue3DGameplay(),
		passMissile: cfg.PassMissile,
		crushDamage: cfg.GetCrushDamage(),
		metrics:     newMoveMetrics(reg),
	}
}

// Tracer трассировщик клиппера, его можно разделять с проверкой видимости
func (c *Clipper) Tracer() *trace.Tracer {
	return c.tracer
}

// move накопитель относительной проверки для одной точки назначения
type move struct {
	x, y, z float64
	box     physics.BBox
	sector  *world.Sector

	floorZ, ceilZ, dropoffZ float64
	above, below            *world.Thing

	specials []*world.Line
}

// crossesBox линия действительно задевает прямоугольник: пересекаются рамки
// (касание краем не считается) и прямая проходит через прямоугольник
func crossesBox(l *world.Line, box physics.BBox) bool {
	if box.Right <= l.Box.Left || box.Left >= l.Box.Right ||
		box.Top <= l.Box.Bottom || box.Bottom >= l.Box.Top {
		return false
	}
	return l.BoxSide(box) == -1
}

// checkRelPosition проверяет, может ли объект стоять в (x,y), и собирает
// пол, потолок и пересекаемые линии. Объект не двигается, но хуки касаний вызываются.
func (c *Clipper) checkRelPosition(t *world.Thing, x, y float64) (move, bool) {
	m := move{
		x:   x,
		y:   y,
		z:   t.Pos.Z,
		box: physics.BoxAround(x, y, t.Radius),
	}

	m.sector = c.lvl.PointInSector(x, y)
	if m.sector == nil {
		return m, false
	}

	_, m.floorZ, m.ceilZ = c.lvl.ComputeThingGap(t, m.sector, m.z)
	m.dropoffZ = m.floorZ

	if t.Has(world.ThingNoClip) {
		return m, true
	}

	if !t.Any(world.ThingNoClip | world.ThingCorpse) {
		ok := c.lvl.ThingsInBox(m.box, func(other *world.Thing) bool {
			return c.checkRelThing(t, other, &m)
		})
		if !ok {
			return m, false
		}
	}

	ok := c.lvl.LinesInBox(m.box, func(l *world.Line) bool {
		return c.checkRelLine(t, l, &m)
	})
	return m, ok
}

func (c *Clipper) checkRelThing(t, other *world.Thing, m *move) bool {
	if other == t {
		return true
	}
	if !other.Any(world.ThingSolid | world.ThingSpecial | world.ThingShootable | world.ThingTouchy) {
		return true
	}

	if !physics.CheckBoxCollision(m.x, m.y, t.Radius, other.Pos.X, other.Pos.Y, other.Radius) {
		return true
	}

	if c.true3d && !other.Has(world.ThingSpecial) {
		top := other.Top()

		// над ним
		if m.z >= top {
			if top > m.floorZ && !other.Has(world.ThingMissile) {
				m.floorZ = top
				m.below = other
			}
			return true
		}

		// под ним
		if m.z+t.Height <= other.Pos.Z {
			if other.Pos.Z < m.ceilZ && !other.Has(world.ThingMissile) {
				m.ceilZ = other.Pos.Z
				m.above = other
			}
			return true
		}

		if top > m.floorZ && other.Has(world.ThingClimbable) &&
			(t.Kind == world.KindPlayer || t.Kind == world.KindMonster) &&
			t.Any(world.ThingDropoff|world.ThingEdgeWalker) &&
			m.z+t.StepSize >= top {
			m.floorZ = top
			m.below = other
			return true
		}
	}

	solid := other.Has(world.ThingSolid)

	if t.Has(world.ThingSkullFly) && solid {
		c.hooks.SlammedInto(t, other)
		return false
	}

	if t.Has(world.ThingMissile) {
		if m.z > other.Top() || m.z+t.Height < other.Pos.Z {
			return true
		}
		if t.Source != nil && t.Source == other {
			return true
		}
		if other.Has(world.ThingPassMissile) && c.passMissile {
			return true
		}
		if !other.Has(world.ThingShootable) {
			return !solid
		}
		if !c.hooks.MissileContact(t, other) {
			return true
		}
		return t.Has(world.ThingTunnel)
	}

	if t.Has(world.ThingPickup) && other.Has(world.ThingSpecial) {
		c.hooks.TouchSpecial(other, t)
	}

	if other.Has(world.ThingTouchy) && t.Has(world.ThingSolid) {
		c.hooks.TouchyContact(other, t)
		return !solid
	}

	return !solid || other.Has(world.ThingNoClip) || !t.Has(world.ThingSolid)
}

// linePassable флаги линии пропускают объект
func linePassable(t *world.Thing, l *world.Line) bool {
	if t.Has(world.ThingCrossLines) {
		return !(l.Has(world.LineShootBlock) && t.Has(world.ThingMissile))
	}
	if l.Has(world.LineBlocking) {
		return false
	}
	return !(l.Has(world.LineBlockMonsters) && t.Kind == world.KindMonster)
}

func (c *Clipper) checkRelLine(t *world.Thing, l *world.Line, m *move) bool {
	if !crossesBox(l, m.box) {
		return true
	}

	if !l.TwoSided() || !linePassable(t, l) {
		return false
	}

	if l.Special != 0 {
		m.specials = append(m.specials, l)
	}

	if i := gap.FindBest(l.Gaps, m.z, m.z+t.Height); i >= 0 {
		g := l.Gaps[i]
		if g.Floor >= m.floorZ {
			m.floorZ = g.Floor
			m.below = nil
		}
		if g.Ceil < m.ceilZ {
			m.ceilZ = g.Ceil
		}
		if g.Floor < m.dropoffZ {
			m.dropoffZ = g.Floor
		}
	} else {
		m.ceilZ = m.floorZ
	}
	return true
}

// CheckAbsolutePosition проверяет, поместится ли объект в точке (x,y,z).
// z может быть OnFloorZ/OnCeilingZ - тогда высота у объектов и линий не сравнивается.
// Ничего не меняет и хуков не вызывает.
func (c *Clipper) CheckAbsolutePosition(t *world.Thing, x, y, z float64) bool {
	if t.Has(world.ThingNoClip) {
		return true
	}

	sentinel := z == world.OnFloorZ || z == world.OnCeilingZ
	box := physics.BoxAround(x, y, t.Radius)

	ok := c.lvl.ThingsInBox(box, func(other *world.Thing) bool {
		if other == t || !other.Any(world.ThingSolid|world.ThingShootable) {
			return true
		}

		if !physics.CheckBoxCollision(x, y, t.Radius, other.Pos.X, other.Pos.Y, other.Radius) {
			return true
		}

		if !sentinel && (t.Has(world.ThingMissile) || c.true3d) {
			if z >= other.Top() || z+t.Height <= other.Pos.Z {
				return true
			}
		}

		if t.Source != nil && t.Source == other {
			return true
		}

		solid := other.Has(world.ThingSolid)
		if t.Has(world.ThingMissile) {
			if other.Has(world.ThingPassMissile) && c.passMissile {
				return true
			}
			if !other.Has(world.ThingShootable) {
				return !solid
			}
			return t.Has(world.ThingTunnel)
		}

		return !solid || other.Has(world.ThingNoClip) || !t.Has(world.ThingSolid)
	})
	if !ok {
		return false
	}

	return c.lvl.LinesInBox(box, func(l *world.Line) bool {
		if !crossesBox(l, box) {
			return true
		}
		if !l.TwoSided() || len(l.Gaps) == 0 {
			return false
		}
		if !linePassable(t, l) {
			return false
		}

		for _, g := range l.Gaps {
			if sentinel {
				if g.Height() >= t.Height {
					return true
				}
				continue
			}
			if g.Floor <= z && z+t.Height <= g.Ceil {
				return true
			}
		}
		return false
	})
}

// TryMove пытается перевести объект в (x,y) на текущей высоте. false - ход
// отклонён геометрией, объект остался на месте. Ошибка означает нарушение контракта.
func (c *Clipper) TryMove(t *world.Thing, x, y float64) (bool, error) {
	m, ok := c.checkRelPosition(t, x, y)
	if m.sector == nil {
		c.metrics.record(resultOffMap)
		return false, nil
	}
	if !ok {
		c.metrics.record(resultBlocked)
		return false, nil
	}

	if !t.Has(world.ThingNoClip) {
		if result := c.rejectMove(t, &m); result != "" {
			c.metrics.record(result)
			return false, nil
		}
	}

	oldX, oldY := t.Pos.X, t.Pos.Y

	t.FloorZ = m.floorZ
	t.CeilZ = m.ceilZ
	t.DropoffZ = m.dropoffZ

	z := t.Pos.Z
	if t.Any(world.ThingTeleport | world.ThingNoClip) {
		if z <= m.floorZ {
			z = m.floorZ
		} else if z+t.Height > m.ceilZ {
			z = m.ceilZ - t.Height
		}
	}

	if err := c.lvl.ChangePosition(t, x, y, z); err != nil {
		return false, err
	}

	t.Above = m.above
	t.Below = m.below

	if !t.Any(world.ThingTeleport | world.ThingNoClip) {
		for i := len(m.specials) - 1; i >= 0; i-- {
			l := m.specials[i]

			side := l.PointSide(t.Pos.X, t.Pos.Y)
			oldSide := l.PointSide(oldX, oldY)
			if side == oldSide {
				continue
			}

			if t.Has(world.ThingMissile) {
				c.hooks.ShootSpecialLine(l, oldSide, t.Source)
			} else {
				c.hooks.CrossSpecialLine(l, oldSide, t)
			}
		}
	}

	c.metrics.record(resultOK)
	return true, nil
}

// rejectMove высотные проверки шага. Пустая строка - ход допустим.
func (c *Clipper) rejectMove(t *world.Thing, m *move) string {
	fellOffThing := t.Below != nil && m.below == nil

	if m.ceilZ-m.floorZ < t.Height {
		return resultNoRoom
	}

	if !t.Has(world.ThingTeleport) {
		if m.z+t.Height > m.ceilZ {
			return resultCeiling
		}

		step := t.StepSize
		if t.Has(world.ThingCorpse) {
			step = 0
		}
		if m.z+step < m.floorZ {
			return resultStepUp
		}
	}

	if !fellOffThing && !t.Any(world.ThingTeleport|world.ThingDropoff|world.ThingFloat) &&
		m.z-t.StepSize > m.floorZ {
		return resultStepDown
	}

	if !fellOffThing &&
		!t.Any(world.ThingDropoff|world.ThingFloat|world.ThingEdgeWalker|world.ThingWaterWalker) &&
		m.floorZ-m.dropoffZ > t.StepSize &&
		t.FloorZ-t.DropoffZ <= t.StepSize {
		return resultDropoff
	}

	return ""
}

// ThingHeightClip заново определяет пол и потолок объекта на месте, после
// движения плоскостей. Стоявший на полу объект остаётся на полу, упёршийся в
// потолок опускается. false - объект больше не помещается по высоте.
func (c *Clipper) ThingHeightClip(t *world.Thing) bool {
	onFloor := math.Abs(t.Pos.Z-t.FloorZ) < 1

	m, _ := c.checkRelPosition(t, t.Pos.X, t.Pos.Y)
	if m.sector == nil {
		return false
	}

	t.FloorZ = m.floorZ
	t.CeilZ = m.ceilZ
	t.DropoffZ = m.dropoffZ
	t.Above = m.above
	t.Below = m.below

	// z не участвует в связях с сеткой и секторами, перелинковка не нужна
	if onFloor {
		t.Pos.Z = t.FloorZ
	} else if t.Pos.Z+t.Height > t.CeilZ {
		t.Pos.Z = t.CeilZ - t.Height
	}

	return t.CeilZ-t.FloorZ >= t.Height
}

// TeleportMove ставит объект в (x,y,z), расталкивая стоящих там через хук Stomp.
// Линии не проверяются. false - место занято и хук отказал.
func (c *Clipper) TeleportMove(t *world.Thing, x, y, z float64) (bool, error) {
	sec := c.lvl.PointInSector(x, y)
	if sec == nil {
		c.metrics.record(resultOffMap)
		return false, nil
	}

	z, floorZ, ceilZ := c.lvl.ComputeThingGap(t, sec, z)
	box := physics.BoxAround(x, y, t.Radius)

	ok := c.lvl.ThingsInBox(box, func(other *world.Thing) bool {
		if other == t || !other.Has(world.ThingShootable) {
			return true
		}

		if !physics.CheckBoxCollision(x, y, t.Radius, other.Pos.X, other.Pos.Y, other.Radius) {
			return true
		}

		if c.true3d {
			if z >= other.Top() {
				floorZ = math.Max(floorZ, other.Top())
				return true
			}
			if z+t.Height <= other.Pos.Z {
				ceilZ = math.Min(ceilZ, other.Pos.Z)
				return true
			}
		}

		return c.hooks.Stomp(other, t)
	})
	if !ok {
		c.metrics.record(resultBlocked)
		return false, nil
	}

	t.FloorZ = floorZ
	t.CeilZ = ceilZ
	t.DropoffZ = floorZ

	if err := c.lvl.ChangePosition(t, x, y, z); err != nil {
		return false, err
	}

	c.log.Debug("объект %d телепортирован в (%.1f, %.1f, %.1f)", t.ID, x, y, z)
	c.metrics.record(resultOK)
	return true, nil
}
