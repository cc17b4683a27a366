package mapgen

import (
	"math"
	"testing"

	"github.com/annel0/mapclip/internal/world"
	"github.com/annel0/mapclip/internal/world/worldtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_BuildsLevel(t *testing.T) {
	g := NewGenerator(42, 4, 3)
	def, err := g.Generate()
	require.NoError(t, err)

	lvl := worldtest.Build(t, def)
	require.Len(t, lvl.Sectors, 4*3+1, "комнаты и управляющий сектор моста")

	for j := 0; j < g.RoomsY; j++ {
		for i := 0; i < g.RoomsX; i++ {
			x, y := float64(i)*g.RoomSize+16, float64(j)*g.RoomSize+16
			sec := lvl.PointInSector(x, y)
			require.NotNil(t, sec, "угол комнаты (%d,%d)", i, j)
			assert.Equal(t, g.Room(i, j), sec.ID)

			sd := def.Sectors[sec.ID]
			assert.Zero(t, math.Mod(sd.Floor, 8), "пол квантован")
			assert.GreaterOrEqual(t, sd.Ceil-sd.Floor, g.CeilBase)
			assert.LessOrEqual(t, math.Abs(sd.Floor), g.MaxStep)
		}
	}
}

func TestGenerate_Bridge(t *testing.T) {
	g := NewGenerator(7, 3, 3)
	def, err := g.Generate()
	require.NoError(t, err)

	lvl := worldtest.Build(t, def)
	bi, bj := g.BridgeRoom()
	room := lvl.Sectors[g.Room(bi, bj)]
	require.True(t, room.HasExtrafloors())
	require.Len(t, lvl.Extrafloors, 1)

	ctrl := lvl.Sectors[len(lvl.Sectors)-1]
	require.NotNil(t, lvl.Reject)
	assert.True(t, lvl.Reject.Hidden(room.ID, ctrl.ID), "управляющий сектор ни с чем не связан")
	assert.False(t, lvl.Reject.Hidden(g.Room(0, 0), g.Room(2, 2)))

	// под мостом помещается обычный объект
	x, y := float64(bi)*g.RoomSize+16, float64(bj)*g.RoomSize+16
	th, err := lvl.SpawnThing(world.ThingDef{X: x, Y: y, Z: world.OnFloorZ, Radius: 16, Height: 56})
	require.NoError(t, err)
	assert.Equal(t, room.FloorZ, th.Pos.Z)
	assert.Equal(t, room.FloorZ+64, th.CeilZ)
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := NewGenerator(99, 5, 5).Generate()
	require.NoError(t, err)
	b, err := NewGenerator(99, 5, 5).Generate()
	require.NoError(t, err)
	assert.Equal(t, a, b, "один сид - один уровень")

	c, err := NewGenerator(100, 5, 5).Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestGenerate_NoBridge(t *testing.T) {
	g := NewGenerator(1, 1, 1)
	g.Bridge = false
	g.PillarChance = 1

	def, err := g.Generate()
	require.NoError(t, err)
	assert.Len(t, def.Sectors, 1)
	assert.Len(t, def.Lines, 8, "четыре стены и колонна")

	lvl := worldtest.Build(t, def)
	cx, cy := g.Center(0, 0)
	assert.Nil(t, lvl.PointInSector(cx, cy), "внутри колонны сектора нет")
}

func TestGenerate_BadSize(t *testing.T) {
	_, err := NewGenerator(1, 0, 3).Generate()
	require.Error(t, err)

	g := NewGenerator(1, 2, 2)
	g.RoomSize = 16
	_, err = g.Generate()
	require.Error(t, err)
}
