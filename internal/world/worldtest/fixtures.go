// Package worldtest собирает небольшие уровни для тестов пакетов ядра.
package worldtest

import (
	"context"
	"io"
	"testing"

	"github.com/annel0/mapclip/internal/config"
	"github.com/annel0/mapclip/internal/logging"
	"github.com/annel0/mapclip/internal/vec"
	"github.com/annel0/mapclip/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// Builder накапливает геометрию уровня
type Builder struct {
	def   world.LevelDef
	verts map[vec.Vec2Float]int
}

// NewBuilder создаёт пустой построитель
func NewBuilder(name string) *Builder {
	return &Builder{
		def:   world.LevelDef{Name: name},
		verts: make(map[vec.Vec2Float]int),
	}
}

// Sector добавляет сектор и возвращает его индекс
func (b *Builder) Sector(floor, ceil float64, tag int) int {
	b.def.Sectors = append(b.def.Sectors, world.SectorDef{Floor: floor, Ceil: ceil, Tag: tag})
	return len(b.def.Sectors) - 1
}

// Vertex добавляет вершину, повторные координаты переиспользуются
func (b *Builder) Vertex(x, y float64) int {
	v := vec.Vec2Float{X: x, Y: y}
	if i, ok := b.verts[v]; ok {
		return i
	}
	b.def.Vertices = append(b.def.Vertices, v)
	b.verts[v] = len(b.def.Vertices) - 1
	return b.verts[v]
}

// Line добавляет линию; front справа по направлению (x1,y1)->(x2,y2), back = -1 для стены
func (b *Builder) Line(x1, y1, x2, y2 float64, front, back int) *world.LineDef {
	b.def.Lines = append(b.def.Lines, world.LineDef{
		V1:    b.Vertex(x1, y1),
		V2:    b.Vertex(x2, y2),
		Front: front,
		Back:  back,
	})
	return &b.def.Lines[len(b.def.Lines)-1]
}

// Room обводит прямоугольник стенами по часовой стрелке (сектор внутри)
func (b *Builder) Room(x1, y1, x2, y2 float64, sec int) {
	b.Line(x1, y1, x1, y2, sec, -1)
	b.Line(x1, y2, x2, y2, sec, -1)
	b.Line(x2, y2, x2, y1, sec, -1)
	b.Line(x2, y1, x1, y1, sec, -1)
}

// Thing добавляет объект для спавна при построении
func (b *Builder) Thing(td world.ThingDef) {
	b.def.Things = append(b.def.Things, td)
}

// Def возвращает описание уровня
func (b *Builder) Def() world.LevelDef {
	return b.def
}

// Build строит уровень с тихим логгером и отдельным реестром метрик
func Build(t testing.TB, def world.LevelDef) *world.Level {
	t.Helper()

	lvl, err := world.NewLevel(context.Background(), def, Options())
	require.NoError(t, err, "уровень %q должен строиться", def.Name)
	return lvl
}

// Options зависимости уровня для тестов
func Options() world.Options {
	return world.Options{
		Physics:    &config.PhysicsConfig{},
		Registerer: prometheus.NewRegistry(),
		Logger:     logging.NewWriterLogger("world", io.Discard, logging.ERROR),
	}
}

// TwoRooms две комнаты 256x256 с общей стеной x=256 (линия 2).
// Левая (сектор 0): пол 0, потолок 128. Правая (сектор 1): пол backFloor, потолок 128.
func TwoRooms(backFloor float64) world.LevelDef {
	b := NewBuilder("two-rooms")
	left := b.Sector(0, 128, 0)
	right := b.Sector(backFloor, 128, 0)

	b.Line(0, 0, 0, 256, left, -1)
	b.Line(0, 256, 256, 256, left, -1)
	b.Line(256, 256, 256, 0, left, right)
	b.Line(256, 0, 0, 0, left, -1)

	b.Line(256, 256, 512, 256, right, -1)
	b.Line(512, 256, 512, 0, right, -1)
	b.Line(512, 0, 256, 0, right, -1)

	return b.Def()
}

// ExtrafloorRoom комната 256x256 (сектор 0, пол 0, потолок 256, тег 5) со сплошной
// толстой плитой 64..96 (управляющий сектор 1) и водой 16..32 (сектор 2).
func ExtrafloorRoom() world.LevelDef {
	b := NewBuilder("extrafloor-room")
	room := b.Sector(0, 256, 5)
	slab := b.Sector(64, 96, 0)
	water := b.Sector(16, 32, 0)

	b.Room(0, 0, 256, 256, room)

	b.Room(300, 0, 364, 64, slab)
	ld := &b.def.Lines[len(b.def.Lines)-4]
	ld.Tag = 5
	ld.Extrafloor = &world.ExtrafloorDef{Flags: world.ExfloorThick}

	b.Room(400, 0, 464, 64, water)
	ld = &b.def.Lines[len(b.def.Lines)-4]
	ld.Tag = 5
	ld.Extrafloor = &world.ExtrafloorDef{Flags: world.ExfloorThick | world.ExfloorLiquid | world.ExfloorWater}

	return b.Def()
}

// SlabRooms геометрия TwoRooms(0) с потолком 256, в левой комнате (тег 5)
// сплошная плита 64..96 из управляющего сектора 2
func SlabRooms() world.LevelDef {
	b := NewBuilder("slab-rooms")
	left := b.Sector(0, 256, 5)
	right := b.Sector(0, 256, 0)
	slab := b.Sector(64, 96, 0)

	b.Line(0, 0, 0, 256, left, -1)
	b.Line(0, 256, 256, 256, left, -1)
	b.Line(256, 256, 256, 0, left, right)
	b.Line(256, 0, 0, 0, left, -1)

	b.Line(256, 256, 512, 256, right, -1)
	b.Line(512, 256, 512, 0, right, -1)
	b.Line(512, 0, 256, 0, right, -1)

	b.Room(600, 0, 664, 64, slab)
	ld := &b.def.Lines[len(b.def.Lines)-4]
	ld.Tag = 5
	ld.Extrafloor = &world.ExtrafloorDef{Flags: world.ExfloorThick}

	return b.Def()
}

// Fence открытое поле (-256,-256)-(512,256), пол 0, потолок 256,
// с непроходимой двусторонней перегородкой x=128 от y=-64 до y=64 (линия 4).
func Fence() world.LevelDef {
	b := NewBuilder("fence")
	field := b.Sector(0, 256, 0)

	b.Room(-256, -256, 512, 256, field)
	fence := b.Line(128, -64, 128, 64, field, field)
	fence.Flags = world.LineBlocking

	return b.Def()
}

// Field пустое поле 1024x1024, пол 0, потолок 256
func Field() world.LevelDef {
	b := NewBuilder("field")
	b.Room(0, 0, 1024, 1024, b.Sector(0, 256, 0))
	return b.Def()
}
