// Package bench гоняет по уровню толпу объектов: шаги со скольжением,
// проверки видимости и давилку в одном из секторов.
package bench

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/annel0/mapclip/internal/clip"
	"github.com/annel0/mapclip/internal/logging"
	"github.com/annel0/mapclip/internal/observability"
	"github.com/annel0/mapclip/internal/sight"
	"github.com/annel0/mapclip/internal/world"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	speed         = 8.0
	spawnAttempts = 32
	sightPerTick  = 8
	crushStep     = 4.0
	crushDepth    = 128.0
)

// Options параметры прогона
type Options struct {
	Things     int
	Seed       int64
	Registerer prometheus.Registerer
	Logger     *logging.Logger
}

// Report итог прогона
type Report struct {
	RunID   uuid.UUID
	Level   string
	Ticks   int
	Things  int
	Elapsed time.Duration

	Moves       int
	Slides      int
	Blocked     int
	SightChecks int
	Visible     int
	PlaneMoves  int
	PlaneStops  int

	Crushed  int
	Specials int
	Touches  int
}

// Runner состояние прогона на одном уровне
type Runner struct {
	lvl     *world.Level
	clipper *clip.Clipper
	sight   *sight.Checker
	hooks   *hookCounters
	rng     *rand.Rand
	log     *logging.Logger

	movers []*world.Thing

	crusher *world.Sector
	crushDh float64
	travel  float64

	report Report
}

// NewRunner расставляет объекты по уровню
func NewRunner(lvl *world.Level, opts Options) (*Runner, error) {
	log := opts.Logger
	if log == nil {
		log = logging.GetBenchLogger()
	}

	hooks := &hookCounters{}
	c := clip.New(lvl, hooks, opts.Registerer)
	r := &Runner{
		lvl:     lvl,
		clipper: c,
		sight:   sight.New(lvl, c.Tracer(), opts.Registerer),
		hooks:   hooks,
		rng:     rand.New(rand.NewSource(opts.Seed)),
		log:     log,
		crushDh: -crushStep,
		report: Report{
			RunID: uuid.New(),
			Level: lvl.Name,
		},
	}

	for i := 0; i < opts.Things; i++ {
		if err := r.spawn(i); err != nil {
			return nil, err
		}
	}
	r.report.Things = len(r.movers)

	if len(lvl.Sectors) > 0 {
		r.crusher = lvl.Sectors[0]
	}

	log.Info("🏃 Прогон %s: %d объектов на уровне %q", r.report.RunID, len(r.movers), lvl.Name)
	return r, nil
}

// spawn ставит объект в случайную свободную точку. Неудачные попытки молча повторяются.
func (r *Runner) spawn(n int) error {
	b := r.lvl.Bounds

	def := world.ThingDef{
		Kind:   world.KindMonster,
		Z:      world.OnFloorZ,
		Radius: 16 + float64(r.rng.Intn(3))*4,
		Height: 56,
		Flags:  world.ThingSolid | world.ThingShootable,
	}
	if n%10 == 0 {
		def.Kind = world.KindPlayer
		def.Flags |= world.ThingPickup
	}

	for attempt := 0; attempt < spawnAttempts; attempt++ {
		def.X = b.Left + r.rng.Float64()*(b.Right-b.Left)
		def.Y = b.Bottom + r.rng.Float64()*(b.Top-b.Bottom)

		t, err := r.lvl.SpawnThing(def)
		if errors.Is(err, world.ErrOutsideMap) {
			continue
		}
		if err != nil {
			return err
		}

		if !r.clipper.CheckAbsolutePosition(t, t.Pos.X, t.Pos.Y, t.Pos.Z) {
			if err := r.lvl.RemoveThing(t); err != nil {
				return err
			}
			continue
		}

		r.heading(t)
		r.movers = append(r.movers, t)
		return nil
	}

	r.log.Debug("объект %d не удалось поставить за %d попыток", n, spawnAttempts)
	return nil
}

// heading новое случайное направление движения
func (r *Runner) heading(t *world.Thing) {
	a := r.rng.Float64() * 2 * math.Pi
	t.Mom.X, t.Mom.Y = speed*math.Cos(a), speed*math.Sin(a)
}

// Run выполняет ticks тиков. Ошибка означает нарушение контракта ядра.
func (r *Runner) Run(ctx context.Context, ticks int) (Report, error) {
	ctx, span := observability.Tracer("bench").Start(ctx, "bench.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", r.report.RunID.String()),
		attribute.Int("run.ticks", ticks),
		attribute.Int("run.things", len(r.movers)),
	)

	start := time.Now()
	for tick := 0; tick < ticks; tick++ {
		if err := ctx.Err(); err != nil {
			return r.finish(start), err
		}
		if err := r.tick(); err != nil {
			span.RecordError(err)
			return r.finish(start), fmt.Errorf("tick %d: %w", tick, err)
		}
		r.report.Ticks++

		if (tick+1)%100 == 0 {
			r.log.Debug("тик %d: %d шагов, %d упёрлись", tick+1, r.report.Moves, r.report.Blocked)
		}
	}

	rep := r.finish(start)
	r.log.Info("✅ Прогон %s завершён за %s: %d тиков", rep.RunID, rep.Elapsed, rep.Ticks)
	return rep, nil
}

func (r *Runner) finish(start time.Time) Report {
	r.report.Elapsed = time.Since(start)
	r.report.Crushed = r.hooks.crushed
	r.report.Specials = r.hooks.specials
	r.report.Touches = r.hooks.touches
	return r.report
}

func (r *Runner) tick() error {
	for _, t := range r.movers {
		if err := r.step(t); err != nil {
			return err
		}
	}

	if err := r.look(); err != nil {
		return err
	}
	return r.crush()
}

// step шаг по направлению; в стену - скольжение, не вышло - новое направление
func (r *Runner) step(t *world.Thing) error {
	if !t.Placed() || t.Has(world.ThingCorpse) {
		return nil
	}

	next := t.Pos.XY().Add(t.Mom.XY())
	ok, err := r.clipper.TryMove(t, next.X, next.Y)
	if err != nil {
		return err
	}
	if ok {
		r.report.Moves++
		return nil
	}

	ok, err = r.clipper.SlideMove(t, next.X, next.Y)
	if err != nil {
		return err
	}
	if ok {
		r.report.Slides++
		return nil
	}

	r.report.Blocked++
	r.heading(t)
	return nil
}

// look несколько случайных проверок видимости за тик
func (r *Runner) look() error {
	if len(r.movers) < 2 {
		return nil
	}

	for i := 0; i < sightPerTick; i++ {
		a := r.movers[r.rng.Intn(len(r.movers))]
		b := r.movers[r.rng.Intn(len(r.movers))]
		if a == b || !a.Placed() || !b.Placed() {
			continue
		}

		visible, err := r.sight.CheckSight(a, b)
		if err != nil {
			return err
		}
		r.report.SightChecks++
		if visible {
			r.report.Visible++
		}
	}
	return nil
}

// crush двигает потолок первого сектора вниз и вверх. Упёрлись в объект без
// урона - откат и разворот.
func (r *Runner) crush() error {
	if r.crusher == nil {
		return nil
	}

	dh := r.crushDh
	if !r.clipper.CheckPlaneMove(r.crusher, true, dh) {
		r.report.PlaneStops++
		r.crushDh = -r.crushDh
		return nil
	}

	nofit, err := r.clipper.MovePlane(r.crusher, true, dh, true)
	if err != nil {
		return err
	}
	r.report.PlaneMoves++

	if nofit {
		r.report.PlaneStops++
		if _, err := r.clipper.MovePlane(r.crusher, true, -dh, false); err != nil {
			return err
		}
		r.crushDh = -r.crushDh
		return nil
	}

	r.travel += dh
	if r.travel <= -crushDepth || r.travel >= 0 {
		r.crushDh = -r.crushDh
	}
	return nil
}

// hookCounters считает игровые события; раздавленный объект становится трупом
type hookCounters struct {
	clip.NopHooks

	crushed  int
	specials int
	touches  int
}

func (h *hookCounters) TouchSpecial(special, toucher *world.Thing) {
	h.touches++
}

func (h *hookCounters) CrossSpecialLine(l *world.Line, side int, t *world.Thing) {
	h.specials++
}

func (h *hookCounters) Crush(t *world.Thing, damage int) {
	h.crushed++
	t.Flags |= world.ThingCorpse
}
