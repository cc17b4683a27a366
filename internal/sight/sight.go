// Package sight отвечает на вопрос "видит ли один объект другой" с учётом
// стен, перепадов пола и потолка и плит внутри секторов.
package sight

import (
	"github.com/annel0/mapclip/internal/gap"
	"github.com/annel0/mapclip/internal/physics"
	"github.com/annel0/mapclip/internal/trace"
	"github.com/annel0/mapclip/internal/world"
	"github.com/prometheus/client_golang/prometheus"
)

// minFrac пересечения ближе к глазу игнорируются
const minFrac = 0.0001

// pointSlack полувысота точки в CheckSightToPoint
const pointSlack = 1.0

// wallIntercept место, где луч входит в следующий сектор; sector - тот,
// что обращён к смотрящему
type wallIntercept struct {
	frac   float64
	sector *world.Sector
}

// Checker проверка видимости на одном уровне
type Checker struct {
	lvl     *world.Level
	tracer  *trace.Tracer
	metrics *sightMetrics
}

// sightState накопитель одной проверки: глаза, конус видимости относительно
// глаз и пройденные стены
type sightState struct {
	srcZ      float64
	top       float64
	bottom    float64
	exfloors  bool
	intercept []wallIntercept
}

func newSightState(src *world.Thing, bottom, top float64) *sightState {
	eye := eyeZ(src)
	return &sightState{
		srcZ:      eye,
		bottom:    bottom - eye,
		top:       top - eye,
		intercept: make([]wallIntercept, 0, 8),
	}
}

// New создаёт проверку видимости. tr можно разделить с клиппером, nil - свой трассировщик.
func New(lvl *world.Level, tr *trace.Tracer, reg prometheus.Registerer) *Checker {
	if tr == nil {
		tr = trace.New(lvl)
	}
	return &Checker{
		lvl:     lvl,
		tracer:  tr,
		metrics: newSightMetrics(reg),
	}
}

// eyeZ высота глаз
func eyeZ(t *world.Thing) float64 {
	return t.Pos.Z + t.Height*t.ViewHeight
}

// CheckSight видит ли src объект dest. Результат несимметричен: глаза
// смотрящего выше его ног, а цель рассматривается целиком.
func (c *Checker) CheckSight(src, dest *world.Thing) (bool, error) {
	if dest.Has(world.ThingInvisible) {
		return c.metrics.done(resultInvisible, false), nil
	}
	if src.Sector == nil || dest.Sector == nil {
		return false, world.Contractf("CheckSight", "thing %d or %d is not placed", src.ID, dest.ID)
	}

	if c.rejected(src.Sector, dest.Sector) {
		return c.metrics.done(resultReject, false), nil
	}

	st := newSightState(src, dest.Pos.Z, dest.Top())

	dx, dy := dest.Pos.X-src.Pos.X, dest.Pos.Y-src.Pos.Y
	if !st.withinSightSlope(src, dx, dy) {
		return c.metrics.done(resultSlope, false), nil
	}

	crossed, ok, err := st.traceWalls(c.tracer, src.Pos.X, src.Pos.Y, dest.Pos.X, dest.Pos.Y, src.Sector, dest.Sector)
	if err != nil || !ok {
		return c.metrics.done(resultBlocked, false), err
	}

	if crossed == 0 && src.Sector == dest.Sector {
		visible := sameSector(src.Sector, st.srcZ, dest.Pos.Z, dest.Top())
		return c.metrics.done(visibility(visible), visible), nil
	}

	if !st.exfloors {
		return c.metrics.done(resultVisible, true), nil
	}

	for _, h := range sampleHeights(dest) {
		slope := h - st.srcZ
		if slope > st.top || slope < st.bottom {
			continue
		}
		if st.checkIntercepts(slope) {
			return c.metrics.done(resultVisible, true), nil
		}
	}
	return c.metrics.done(resultBlocked, false), nil
}

// CheckSightToPoint видит ли src точку (x,y,z)
func (c *Checker) CheckSightToPoint(src *world.Thing, x, y, z float64) (bool, error) {
	if src.Sector == nil {
		return false, world.Contractf("CheckSightToPoint", "thing %d is not placed", src.ID)
	}

	sec := c.lvl.PointInSector(x, y)
	if sec == nil {
		return c.metrics.done(resultBlocked, false), nil
	}
	if c.rejected(src.Sector, sec) {
		return c.metrics.done(resultReject, false), nil
	}

	st := newSightState(src, z-pointSlack, z+pointSlack)

	if !st.withinSightSlope(src, x-src.Pos.X, y-src.Pos.Y) {
		return c.metrics.done(resultSlope, false), nil
	}

	crossed, ok, err := st.traceWalls(c.tracer, src.Pos.X, src.Pos.Y, x, y, src.Sector, sec)
	if err != nil || !ok {
		return c.metrics.done(resultBlocked, false), err
	}

	var visible bool
	switch {
	case crossed == 0 && src.Sector == sec:
		visible = sameSector(sec, st.srcZ, z, z)
	case !st.exfloors:
		visible = true
	default:
		visible = st.checkIntercepts(z - st.srcZ)
	}
	return c.metrics.done(visibility(visible), visible), nil
}

// CheckSightApproxVert грубая проверка только по вертикали: не загораживают
// ли плиты сектора смотрящего промежуток между глазами и целью. Стены не учитываются.
func (c *Checker) CheckSightApproxVert(src, dest *world.Thing) bool {
	if src.Sector == nil {
		return false
	}
	return sameSector(src.Sector, eyeZ(src), dest.Pos.Z, dest.Top())
}

func (c *Checker) rejected(s1, s2 *world.Sector) bool {
	if c.lvl.Reject == nil {
		return false
	}
	if c.lvl.Reject.Hidden(s1.ID, s2.ID) {
		c.metrics.reject.WithLabelValues("hit").Inc()
		return true
	}
	c.metrics.reject.WithLabelValues("miss").Inc()
	return false
}

// withinSightSlope цель попадает в вертикальный угол обзора смотрящего.
// Нулевой SightSlope означает "без ограничения".
func (st *sightState) withinSightSlope(src *world.Thing, dx, dy float64) bool {
	if src.SightSlope <= 0 {
		return true
	}
	if physics.ApproxSlope(dx, dy, st.top) < -src.SightSlope {
		return false
	}
	return physics.ApproxSlope(dx, dy, st.bottom) <= src.SightSlope
}

// traceWalls проходит по линиям между точками, сужая конус видимости.
// Возвращает число пересечённых линий и false, если обзор закрыт.
func (st *sightState) traceWalls(tr *trace.Tracer, x1, y1, x2, y2 float64, from, to *world.Sector) (int, bool, error) {
	st.exfloors = from.HasExtrafloors() || to.HasExtrafloors()

	crossed := 0
	visit := func(in *trace.Intercept) trace.Control {
		l := in.Line
		if l == nil || in.Frac < minFrac {
			return trace.Continue
		}
		crossed++

		if !l.TwoSided() || l.Blocked || l.Has(world.LineSightBlock) {
			return trace.Stop
		}
		if l.Slider != nil && !l.Slider.SeeThrough && !l.Slider.Moving {
			return trace.Stop
		}

		near, far := l.Front, l.Back
		if l.PointSide(x1, y1) != 0 {
			near, far = far, near
		}

		if near.FloorZ != far.FloorZ {
			openBottom := max(near.FloorZ, far.FloorZ)
			if slope := (openBottom - st.srcZ) / in.Frac; slope > st.bottom {
				st.bottom = slope
			}
		}
		if near.CeilZ != far.CeilZ {
			openTop := min(near.CeilZ, far.CeilZ)
			if slope := (openTop - st.srcZ) / in.Frac; slope < st.top {
				st.top = slope
			}
		}

		if st.top <= st.bottom {
			return trace.Stop
		}

		if near.HasExtrafloors() || far.HasExtrafloors() {
			st.exfloors = true
		}
		st.intercept = append(st.intercept, wallIntercept{frac: in.Frac, sector: near})
		return trace.Continue
	}

	ok, err := tr.PathTraverse(x1, y1, x2, y2, trace.AddLines, visit)
	if err != nil || !ok {
		return crossed, false, err
	}

	st.intercept = append(st.intercept, wallIntercept{frac: 1, sector: to})
	return crossed, true, nil
}

// checkIntercepts луч с заданным наклоном на каждом участке между
// пересечениями остаётся внутри какого-то промежутка видимости
func (st *sightState) checkIntercepts(slope float64) bool {
	last := st.srcZ
	for _, in := range st.intercept {
		cur := st.srcZ + slope*in.frac
		if !insideSomeGap(in.sector.SightGaps, last, cur) {
			return false
		}
		last = cur
	}
	return true
}

func insideSomeGap(gaps gap.List, z1, z2 float64) bool {
	for _, g := range gaps {
		if g.Floor <= z1 && z1 <= g.Ceil && g.Floor <= z2 && z2 <= g.Ceil {
			return true
		}
	}
	return false
}

// sameSector вертикальный отрезок от глаз до ближайшей точки цели [lo,hi]
// должен целиком лежать в одном промежутке видимости
func sameSector(sec *world.Sector, eye, lo, hi float64) bool {
	var z1, z2 float64
	switch {
	case eye < lo:
		z1, z2 = eye, lo
	case eye > hi:
		z1, z2 = hi, eye
	default:
		return true
	}

	for _, g := range sec.SightGaps {
		if g.Floor <= z1 && z2 <= g.Ceil {
			return true
		}
	}
	return false
}

// sampleHeights высоты цели, на которые пробуем посмотреть сквозь плиты
func sampleHeights(t *world.Thing) []float64 {
	z, h := t.Pos.Z, t.Height
	switch t.Kind {
	case world.KindPlayer:
		return []float64{z, z + h*0.25, z + h*0.5, z + h*0.75, z + h}
	case world.KindMonster:
		return []float64{z, z + h*0.5, z + h}
	default:
		return []float64{z + h*0.5}
	}
}

func visibility(visible bool) string {
	if visible {
		return resultVisible
	}
	return resultBlocked
}
