// Package mapgen строит синтетические уровни: сетку квадратных комнат с
// разной высотой пола и потолка, колоннами, перегородками и мостом-плитой.
package mapgen

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/annel0/mapclip/internal/util"
	"github.com/annel0/mapclip/internal/vec"
	"github.com/annel0/mapclip/internal/world"
)

// BridgeTag тег комнаты с мостом
const BridgeTag = 1

// Generator параметры генерации
type Generator struct {
	Seed         int64
	RoomsX       int
	RoomsY       int
	RoomSize     float64 // сторона комнаты
	NoiseScale   float64 // шаг шума между соседними комнатами
	MaxStep      float64 // разброс высоты пола в обе стороны
	CeilBase     float64 // минимальная высота комнаты
	PillarChance float64 // доля комнат с колонной в центре
	FenceChance  float64 // доля непроходимых перегородок между комнатами
	Bridge       bool    // добавить толстую плиту в центральную комнату
}

// NewGenerator создаёт генератор с настройками по умолчанию
func NewGenerator(seed int64, roomsX, roomsY int) *Generator {
	return &Generator{
		Seed:         seed,
		RoomsX:       roomsX,
		RoomsY:       roomsY,
		RoomSize:     256,
		NoiseScale:   0.35,
		MaxStep:      32,
		CeilBase:     160,
		PillarChance: 0.3,
		FenceChance:  0.15,
		Bridge:       true,
	}
}

// builder вершины с переиспользованием совпадающих координат
type builder struct {
	def   world.LevelDef
	verts map[vec.Vec2Float]int
}

func (b *builder) vertex(x, y float64) int {
	v := vec.Vec2Float{X: x, Y: y}
	if i, ok := b.verts[v]; ok {
		return i
	}
	b.def.Vertices = append(b.def.Vertices, v)
	b.verts[v] = len(b.def.Vertices) - 1
	return b.verts[v]
}

func (b *builder) line(x1, y1, x2, y2 float64, front, back int) *world.LineDef {
	b.def.Lines = append(b.def.Lines, world.LineDef{
		V1:    b.vertex(x1, y1),
		V2:    b.vertex(x2, y2),
		Front: front,
		Back:  back,
	})
	return &b.def.Lines[len(b.def.Lines)-1]
}

// Room номер сектора комнаты (i, j)
func (g *Generator) Room(i, j int) int {
	return j*g.RoomsX + i
}

// Center центр комнаты (i, j)
func (g *Generator) Center(i, j int) (float64, float64) {
	return (float64(i) + 0.5) * g.RoomSize, (float64(j) + 0.5) * g.RoomSize
}

// BridgeRoom комната, в которой лежит мост
func (g *Generator) BridgeRoom() (int, int) {
	return g.RoomsX / 2, g.RoomsY / 2
}

// Generate строит описание уровня. Один и тот же сид даёт один и тот же уровень.
func (g *Generator) Generate() (world.LevelDef, error) {
	if g.RoomsX < 1 || g.RoomsY < 1 {
		return world.LevelDef{}, fmt.Errorf("mapgen: need at least one room, got %dx%d", g.RoomsX, g.RoomsY)
	}
	if g.RoomSize < 64 {
		return world.LevelDef{}, fmt.Errorf("mapgen: room size %.0f is too small", g.RoomSize)
	}

	noise := util.NewNoise2D(g.Seed)
	rng := rand.New(rand.NewSource(g.Seed))

	b := &builder{
		def: world.LevelDef{
			Name:        fmt.Sprintf("mapgen-%d-%dx%d", g.Seed, g.RoomsX, g.RoomsY),
			BuildReject: true,
		},
		verts: make(map[vec.Vec2Float]int),
	}

	// Сектора: высоты из шума, квантованные по 8
	for j := 0; j < g.RoomsY; j++ {
		for i := 0; i < g.RoomsX; i++ {
			nx, ny := float64(i)*g.NoiseScale, float64(j)*g.NoiseScale
			floor := quantize((noise.At(nx, ny)-0.5)*2*g.MaxStep, 8)
			ceil := floor + g.CeilBase + quantize(noise.At(nx+100, ny+100)*64, 8)

			b.def.Sectors = append(b.def.Sectors, world.SectorDef{Floor: floor, Ceil: ceil})
		}
	}

	s := g.RoomSize
	for j := 0; j < g.RoomsY; j++ {
		for i := 0; i < g.RoomsX; i++ {
			room := g.Room(i, j)
			x1, y1 := float64(i)*s, float64(j)*s
			x2, y2 := x1+s, y1+s

			// левую и нижнюю стороны соседних комнат уже провели соседи
			if i == 0 {
				b.line(x1, y1, x1, y2, room, -1)
			}
			if j == 0 {
				b.line(x2, y1, x1, y1, room, -1)
			}

			if j == g.RoomsY-1 {
				b.line(x1, y2, x2, y2, room, -1)
			} else {
				g.decorate(rng, b.line(x1, y2, x2, y2, room, g.Room(i, j+1)))
			}
			if i == g.RoomsX-1 {
				b.line(x2, y2, x2, y1, room, -1)
			} else {
				g.decorate(rng, b.line(x2, y2, x2, y1, room, g.Room(i+1, j)))
			}

			if rng.Float64() < g.PillarChance {
				g.pillar(b, room, x1+s/2, y1+s/2)
			}
		}
	}

	if g.Bridge {
		g.bridge(b)
	}
	return b.def, nil
}

// decorate иногда превращает проход между комнатами в перегородку
func (g *Generator) decorate(rng *rand.Rand, ld *world.LineDef) {
	switch r := rng.Float64(); {
	case r < g.FenceChance:
		ld.Flags |= world.LineBlocking
	case r < g.FenceChance*1.5:
		ld.Flags |= world.LineSightBlock
	}
}

// pillar квадратная колонна: стены смотрят наружу, внутри сектора нет
func (g *Generator) pillar(b *builder, room int, cx, cy float64) {
	h := g.RoomSize / 8
	x1, y1, x2, y2 := cx-h, cy-h, cx+h, cy+h

	b.line(x1, y1, x2, y1, room, -1)
	b.line(x2, y1, x2, y2, room, -1)
	b.line(x2, y2, x1, y2, room, -1)
	b.line(x1, y2, x1, y1, room, -1)
}

// bridge толстая плита над полом центральной комнаты. Управляющий сектор
// лежит справа от сетки и ни с чем не соединён.
func (g *Generator) bridge(b *builder) {
	bi, bj := g.BridgeRoom()
	target := &b.def.Sectors[g.Room(bi, bj)]
	target.Tag = BridgeTag

	bottom := target.Floor + 64
	ctrl := len(b.def.Sectors)
	b.def.Sectors = append(b.def.Sectors, world.SectorDef{Floor: bottom, Ceil: bottom + 16})

	x1 := float64(g.RoomsX)*g.RoomSize + g.RoomSize/2
	x2, y1, y2 := x1+64, 0.0, 64.0

	first := len(b.def.Lines)
	b.line(x1, y1, x1, y2, ctrl, -1)
	b.line(x1, y2, x2, y2, ctrl, -1)
	b.line(x2, y2, x2, y1, ctrl, -1)
	b.line(x2, y1, x1, y1, ctrl, -1)

	ld := &b.def.Lines[first]
	ld.Tag = BridgeTag
	ld.Extrafloor = &world.ExtrafloorDef{Flags: world.ExfloorThick}
}

func quantize(v, step float64) float64 {
	return math.Round(v/step) * step
}
