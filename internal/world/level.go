package world

import (
	"context"
	"fmt"
	"math"

	"github.com/annel0/mapclip/internal/blockmap"
	"github.com/annel0/mapclip/internal/config"
	"github.com/annel0/mapclip/internal/logging"
	"github.com/annel0/mapclip/internal/observability"
	"github.com/annel0/mapclip/internal/physics"
	"github.com/annel0/mapclip/internal/reject"
	"github.com/annel0/mapclip/internal/vec"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SectorDef описание сектора
type SectorDef struct {
	Floor float64
	Ceil  float64
	Tag   int
}

// ExtrafloorDef превращает линию в источник плиты для секторов с тем же тегом.
// Управляющий сектор - передний сектор линии.
type ExtrafloorDef struct {
	Flags ExtrafloorFlags
}

// SliderDef линия с раздвижной дверью
type SliderDef struct {
	SeeThrough bool
}

// LineDef описание линии. Back = -1 для односторонней.
type LineDef struct {
	V1, V2  int
	Front   int
	Back    int
	Flags   LineFlags
	Special int
	Tag     int

	Extrafloor *ExtrafloorDef
	Slider     *SliderDef
}

// LevelDef полная геометрия уровня
type LevelDef struct {
	Name     string
	Vertices []vec.Vec2Float
	Sectors  []SectorDef
	Lines    []LineDef
	Things   []ThingDef

	// Reject готовая таблица в раскладке REJECT; nil - строить или обойтись без неё
	Reject      []byte
	BuildReject bool
}

// Options зависимости уровня
type Options struct {
	Physics    *config.PhysicsConfig
	Registerer prometheus.Registerer
	Logger     *logging.Logger
}

// Level владеет геометрией, сеткой, ареной объектов и узлов касаний
type Level struct {
	ID   uuid.UUID
	Name string

	Vertices    []vec.Vec2Float
	Lines       []*Line
	Sectors     []*Sector
	Extrafloors []*Extrafloor
	Things      []*Thing

	Blockmap *blockmap.Index
	Reject   *reject.Matrix
	Bounds   physics.BBox

	freeThings []ThingID

	touch     []touchNode
	touchFree touchID

	maxRadius float64

	cfg     *config.PhysicsConfig
	log     *logging.Logger
	metrics *touchMetrics
}

// NewLevel строит уровень: сектора, линии, плиты, промежутки, сетку и объекты
func NewLevel(ctx context.Context, def LevelDef, opts Options) (*Level, error) {
	_, span := observability.Tracer("world").Start(ctx, "world.NewLevel",
		trace.WithAttributes(attribute.String("level.name", def.Name)))
	defer span.End()

	lvl, err := buildLevel(def, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("level.id", lvl.ID.String()),
		attribute.Int("level.lines", len(lvl.Lines)),
		attribute.Int("level.sectors", len(lvl.Sectors)),
		attribute.Int("level.things", len(def.Things)),
	)
	return lvl, nil
}

func buildLevel(def LevelDef, opts Options) (*Level, error) {
	if len(def.Sectors) == 0 {
		return nil, fmt.Errorf("level %q has no sectors", def.Name)
	}
	if len(def.Lines) == 0 {
		return nil, fmt.Errorf("level %q has no lines", def.Name)
	}

	cfg := opts.Physics
	if cfg == nil {
		cfg = &config.PhysicsConfig{}
	}
	log := opts.Logger
	if log == nil {
		log = logging.GetWorldLogger()
	}

	lvl := &Level{
		ID:        uuid.New(),
		Name:      def.Name,
		Vertices:  append([]vec.Vec2Float(nil), def.Vertices...),
		touchFree: noTouch,
		maxRadius: cfg.GetMaxThingRadius(),
		cfg:       cfg,
		log:       log,
		metrics:   newTouchMetrics(opts.Registerer),
	}

	for i, sd := range def.Sectors {
		lvl.Sectors = append(lvl.Sectors, &Sector{
			ID:        i,
			FloorZ:    sd.Floor,
			CeilZ:     sd.Ceil,
			Tag:       sd.Tag,
			touchHead: noTouch,
		})
	}

	if err := lvl.buildLines(def.Lines); err != nil {
		return nil, err
	}
	if err := lvl.buildBlockmap(); err != nil {
		return nil, err
	}
	if err := lvl.buildExtrafloors(def.Lines); err != nil {
		return nil, err
	}

	for _, l := range lvl.Lines {
		computeLineGaps(l)
	}
	for _, s := range lvl.Sectors {
		s.SightGaps = s.sightGaps()
	}

	if err := lvl.buildReject(def); err != nil {
		return nil, err
	}

	for i, td := range def.Things {
		if _, err := lvl.SpawnThing(td); err != nil {
			return nil, fmt.Errorf("thing %d: %w", i, err)
		}
	}

	log.Info("🗺️ Уровень %q (%s) построен: %d линий, %d секторов, %d плит, сетка %dx%d",
		lvl.Name, lvl.ID, len(lvl.Lines), len(lvl.Sectors), len(lvl.Extrafloors),
		lvl.Blockmap.Width, lvl.Blockmap.Height)
	return lvl, nil
}

func (lvl *Level) sector(idx int) (*Sector, error) {
	if idx < 0 || idx >= len(lvl.Sectors) {
		return nil, fmt.Errorf("sector index %d out of range [0,%d)", idx, len(lvl.Sectors))
	}
	return lvl.Sectors[idx], nil
}

func (lvl *Level) buildLines(defs []LineDef) error {
	for i, ld := range defs {
		if ld.V1 < 0 || ld.V1 >= len(lvl.Vertices) || ld.V2 < 0 || ld.V2 >= len(lvl.Vertices) {
			return fmt.Errorf("line %d: vertex index out of range", i)
		}

		v1, v2 := lvl.Vertices[ld.V1], lvl.Vertices[ld.V2]
		if v1 == v2 {
			return fmt.Errorf("line %d: zero length", i)
		}

		front, err := lvl.sector(ld.Front)
		if err != nil {
			return fmt.Errorf("line %d front: %w", i, err)
		}

		var back *Sector
		if ld.Back >= 0 {
			if back, err = lvl.sector(ld.Back); err != nil {
				return fmt.Errorf("line %d back: %w", i, err)
			}
		}

		l := &Line{
			ID:      i,
			V1:      v1,
			V2:      v2,
			DX:      v2.X - v1.X,
			DY:      v2.Y - v1.Y,
			Front:   front,
			Back:    back,
			Flags:   ld.Flags,
			Special: ld.Special,
			Tag:     ld.Tag,
		}
		l.Box = physics.EmptyBox()
		l.Box.AddPoint(v1.X, v1.Y)
		l.Box.AddPoint(v2.X, v2.Y)
		l.Slope = physics.ClassifySlope(l.DX, l.DY)

		if back != nil {
			l.Flags |= LineTwoSided
		} else {
			l.Flags &^= LineTwoSided
		}
		if ld.Slider != nil {
			l.Slider = &Slider{SeeThrough: ld.Slider.SeeThrough}
		}

		front.Lines = append(front.Lines, l)
		if back != nil && back != front {
			back.Lines = append(back.Lines, l)
		}

		lvl.Lines = append(lvl.Lines, l)
	}
	return nil
}

func (lvl *Level) buildBlockmap() error {
	bounds := physics.EmptyBox()
	for _, v := range lvl.Vertices {
		bounds.AddPoint(v.X, v.Y)
	}
	lvl.Bounds = bounds

	segs := make([]blockmap.Segment, len(lvl.Lines))
	for i, l := range lvl.Lines {
		segs[i] = blockmap.Segment{X1: l.V1.X, Y1: l.V1.Y, X2: l.V2.X, Y2: l.V2.Y}
	}

	bm, err := blockmap.Build(segs, bounds)
	if err != nil {
		return fmt.Errorf("blockmap: %w", err)
	}
	lvl.Blockmap = bm
	return nil
}

func (lvl *Level) buildExtrafloors(defs []LineDef) error {
	for i, ld := range defs {
		if ld.Extrafloor == nil {
			continue
		}
		if ld.Tag == 0 {
			return fmt.Errorf("line %d: extrafloor line needs a non-zero tag", i)
		}

		line := lvl.Lines[i]
		ctrl := line.Front

		for _, sec := range lvl.Sectors {
			if sec.Tag != ld.Tag {
				continue
			}

			ef := &Extrafloor{
				ID:      len(lvl.Extrafloors),
				Sector:  sec,
				Control: ctrl,
				Line:    line,
				Flags:   ld.Extrafloor.Flags,
			}
			refreshExtrafloor(ef)

			if err := addExtrafloor(sec, ef); err != nil {
				return fmt.Errorf("line %d: %w", i, err)
			}

			ctrl.Controls = append(ctrl.Controls, ef)
			lvl.Extrafloors = append(lvl.Extrafloors, ef)
		}
	}
	return nil
}

func (lvl *Level) buildReject(def LevelDef) error {
	switch {
	case def.Reject != nil:
		m, err := reject.FromBytes(len(lvl.Sectors), def.Reject)
		if err != nil {
			return err
		}
		lvl.Reject = m
	case def.BuildReject:
		var links [][2]int
		for _, l := range lvl.Lines {
			if l.TwoSided() {
				links = append(links, [2]int{l.Front.ID, l.Back.ID})
			}
		}
		lvl.Reject = reject.Build(len(lvl.Sectors), links)
	}
	return nil
}

// Config физические параметры уровня
func (lvl *Level) Config() *config.PhysicsConfig {
	return lvl.cfg
}

// Logger логгер уровня
func (lvl *Level) Logger() *logging.Logger {
	return lvl.log
}

// MaxRadius наибольший радиус объекта; на столько расширяются запросы к сетке
func (lvl *Level) MaxRadius() float64 {
	return lvl.maxRadius
}

// SpawnThing создаёт объект, ставит его в выбранный промежуток и размещает на карте
func (lvl *Level) SpawnThing(def ThingDef) (*Thing, error) {
	sec := lvl.PointInSector(def.X, def.Y)
	if sec == nil {
		return nil, fmt.Errorf("spawn at (%.1f, %.1f): %w", def.X, def.Y, ErrOutsideMap)
	}

	t := &Thing{
		Kind:       def.Kind,
		Pos:        vec.Vec3Float{X: def.X, Y: def.Y},
		Radius:     def.Radius,
		Height:     def.Height,
		StepSize:   def.StepSize,
		ViewHeight: def.ViewHeight,
		SightSlope: def.SightSlope,
		Flags:      def.Flags,
		touchHead:  noTouch,
	}
	if t.StepSize == 0 {
		t.StepSize = lvl.cfg.GetDefaultStepSize()
	}
	if t.ViewHeight == 0 {
		t.ViewHeight = lvl.cfg.GetDefaultViewHeight()
	}

	t.Pos.Z, t.FloorZ, t.CeilZ = lvl.ComputeThingGap(t, sec, def.Z)
	t.DropoffZ = t.FloorZ

	t.ID = lvl.allocThing(t)
	lvl.maxRadius = math.Max(lvl.maxRadius, t.Radius)

	if err := lvl.SetPosition(t); err != nil {
		lvl.Things[t.ID] = nil
		lvl.freeThings = append(lvl.freeThings, t.ID)
		return nil, err
	}

	lvl.log.Debug("объект %d (%s) создан в секторе %d на высоте %.1f", t.ID, t.Kind, sec.ID, t.Pos.Z)
	return t, nil
}

func (lvl *Level) allocThing(t *Thing) ThingID {
	if n := len(lvl.freeThings); n > 0 {
		id := lvl.freeThings[n-1]
		lvl.freeThings = lvl.freeThings[:n-1]
		lvl.Things[id] = t
		return id
	}
	lvl.Things = append(lvl.Things, t)
	return ThingID(len(lvl.Things) - 1)
}

func (lvl *Level) thing(id ThingID) *Thing {
	if id < 0 || int(id) >= len(lvl.Things) {
		return nil
	}
	return lvl.Things[id]
}

// Thing возвращает живой объект по дескриптору
func (lvl *Level) Thing(id ThingID) (*Thing, error) {
	t := lvl.thing(id)
	if t == nil {
		return nil, fmt.Errorf("thing %d: %w", id, ErrUnknownThing)
	}
	return t, nil
}

// RemoveThing убирает объект с карты навсегда: отвязывает, освобождает узлы
// касаний и слот, стирает ссылки на него у соседей.
func (lvl *Level) RemoveThing(t *Thing) error {
	if lvl.thing(t.ID) != t {
		return Contractf("RemoveThing", "thing %d is not alive on level %s", t.ID, lvl.ID)
	}

	lvl.UnsetPosition(t)
	lvl.releaseAllNodes(t)

	for _, other := range lvl.Things {
		if other == nil {
			continue
		}
		if other.Above == t {
			other.Above = nil
		}
		if other.Below == t {
			other.Below = nil
		}
		if other.Source == t {
			other.Source = nil
		}
	}

	lvl.Things[t.ID] = nil
	lvl.freeThings = append(lvl.freeThings, t.ID)
	t.ID = NoThing
	return nil
}

// LiveThings число живых объектов
func (lvl *Level) LiveThings() int {
	return len(lvl.Things) - len(lvl.freeThings)
}

// ThingsInBox обходит объекты, чьи центры лежат в ячейках под прямоугольником,
// расширенным на наибольший радиус
func (lvl *Level) ThingsInBox(box physics.BBox, fn func(*Thing) bool) bool {
	return lvl.Blockmap.BoxThings(box.Expand(lvl.maxRadius), func(r blockmap.Ref) bool {
		t := lvl.thing(ThingID(r))
		if t == nil {
			return true
		}
		return fn(t)
	})
}

// LinesInBox обходит линии ячеек под прямоугольником, каждую один раз
func (lvl *Level) LinesInBox(box physics.BBox, fn func(*Line) bool) bool {
	return lvl.Blockmap.BoxLines(box, func(i int) bool {
		return fn(lvl.Lines[i])
	})
}

// PointInSector находит сектор, содержащий точку: луч в +X до ближайшей линии,
// сторона этой линии даёт сектор. nil - точка вне карты.
func (lvl *Level) PointInSector(x, y float64) *Sector {
	bm := lvl.Blockmap

	by := bm.BlockY(y)
	if by < 0 || by >= bm.Height {
		return nil
	}
	bx := max(bm.BlockX(x), 0)

	best := math.Inf(1)
	var hit *Line

	bm.NewQuery()
	for cx := bx; cx < bm.Width; cx++ {
		bm.BlockLines(cx, by, func(i int) bool {
			l := lvl.Lines[i]

			// полуоткрытое правило: вершина на луче считается один раз
			if (l.V1.Y > y) == (l.V2.Y > y) {
				return true
			}

			xi := l.V1.X + (y-l.V1.Y)*l.DX/l.DY
			if xi >= x && xi < best {
				best = xi
				hit = l
			}
			return true
		})

		// ближе пересечений в следующих столбцах уже не будет
		if hit != nil && best <= bm.CellBox(cx, by).Right {
			break
		}
	}

	if hit == nil {
		return nil
	}
	if hit.PointSide(x, y) == 0 {
		return hit.Front
	}
	return hit.Back
}
