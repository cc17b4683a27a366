package world_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/annel0/mapclip/internal/gap"
	"github.com/annel0/mapclip/internal/logging"
	"github.com/annel0/mapclip/internal/vec"
	"github.com/annel0/mapclip/internal/world"
	"github.com/annel0/mapclip/internal/world/worldtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevel_Basics(t *testing.T) {
	lvl := worldtest.Build(t, worldtest.TwoRooms(64))

	assert.Len(t, lvl.Sectors, 2)
	assert.Len(t, lvl.Lines, 7)
	assert.NotEmpty(t, lvl.ID.String(), "уровень получает идентификатор")

	shared := lvl.Lines[2]
	assert.True(t, shared.TwoSided())
	assert.True(t, shared.Has(world.LineTwoSided), "флаг двусторонности выставляется по заднему сектору")
	assert.Len(t, lvl.Sectors[0].Lines, 4)
	assert.Len(t, lvl.Sectors[1].Lines, 4)
}

func TestNewLevel_Errors(t *testing.T) {
	def := worldtest.TwoRooms(0)
	def.Lines[0].V2 = 99
	_, err := world.NewLevel(context.Background(), def, worldtest.Options())
	assert.Error(t, err, "индекс вершины вне диапазона")

	def = worldtest.TwoRooms(0)
	def.Lines[2].Back = 7
	_, err = world.NewLevel(context.Background(), def, worldtest.Options())
	assert.Error(t, err, "индекс сектора вне диапазона")

	_, err = world.NewLevel(context.Background(), world.LevelDef{Name: "empty"}, worldtest.Options())
	assert.Error(t, err)
}

func TestPointInSector(t *testing.T) {
	lvl := worldtest.Build(t, worldtest.TwoRooms(64))

	tests := []struct {
		name string
		x, y float64
		want int
	}{
		{"левая комната", 100, 100, 0},
		{"правая комната", 300, 100, 1},
		{"у общей стены слева", 250, 10, 0},
		{"у дальней стены", 500, 240, 1},
		{"левее карты", -50, 100, -1},
		{"правее карты", 600, 100, -1},
		{"ниже карты", 100, -300, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sec := lvl.PointInSector(tt.x, tt.y)
			if tt.want < 0 {
				assert.Nil(t, sec)
				return
			}
			require.NotNil(t, sec)
			assert.Equal(t, tt.want, sec.ID)
		})
	}
}

func TestLineGaps_TwoSided(t *testing.T) {
	lvl := worldtest.Build(t, worldtest.TwoRooms(64))

	shared := lvl.Lines[2]
	assert.False(t, shared.Blocked)
	assert.Equal(t, gap.List{{Floor: 64, Ceil: 128}}, shared.Gaps, "пересечение 0..128 и 64..128")

	wall := lvl.Lines[0]
	assert.True(t, wall.Blocked, "односторонняя линия закрыта")
	assert.Empty(t, wall.Gaps)
}

func TestLineGaps_ClosedDoor(t *testing.T) {
	lvl := worldtest.Build(t, worldtest.TwoRooms(0))
	right := lvl.Sectors[1]

	require.True(t, world.CheckPlaneMove(right, true, -128))
	changes := lvl.ShiftPlane(right, true, -128)

	require.Len(t, changes, 1)
	assert.Equal(t, -128.0, changes[0].CeilDelta)
	assert.False(t, changes[0].Widening())

	shared := lvl.Lines[2]
	assert.True(t, shared.Blocked, "потолок опустился до пола - закрытая дверь")
	assert.Empty(t, shared.Gaps)
	assert.Empty(t, right.SightGaps)
}

func TestLineGaps_Slider(t *testing.T) {
	def := worldtest.TwoRooms(0)
	def.Lines[2].Slider = &world.SliderDef{}
	lvl := worldtest.Build(t, def)
	door := lvl.Lines[2]

	assert.False(t, door.Blocked)
	assert.Empty(t, door.Gaps, "неподвижная раздвижная дверь закрыта")

	require.NoError(t, lvl.SetSlider(door, true, 1, 40, 100))
	assert.Empty(t, door.Gaps, "открыта меньше чем наполовину")

	require.NoError(t, lvl.SetSlider(door, true, 1, 60, 100))
	assert.Equal(t, gap.List{{Floor: 0, Ceil: 128}}, door.Gaps)

	require.NoError(t, lvl.SetSlider(door, true, -1, 60, 100))
	assert.Empty(t, door.Gaps, "при закрытии порог 75%")

	err := lvl.SetSlider(lvl.Lines[0], true, 1, 0, 0)
	assert.True(t, world.IsContractError(err))
}

func TestExtrafloors_Gaps(t *testing.T) {
	lvl := worldtest.Build(t, worldtest.ExtrafloorRoom())
	room := lvl.Sectors[0]

	require.Len(t, room.Extrafloors(), 1)
	require.Len(t, room.Liquids(), 1)
	assert.Len(t, lvl.Extrafloors, 2)

	assert.Equal(t, gap.List{{Floor: 0, Ceil: 64}, {Floor: 96, Ceil: 256}}, room.Gaps(nil))

	walker := &world.Thing{Flags: world.ThingWaterWalker}
	assert.Equal(t,
		gap.List{{Floor: 0, Ceil: 16}, {Floor: 32, Ceil: 64}, {Floor: 96, Ceil: 256}},
		room.Gaps(walker), "по воде можно ходить")

	assert.Equal(t,
		gap.List{{Floor: 0, Ceil: 16}, {Floor: 32, Ceil: 64}, {Floor: 96, Ceil: 256}},
		room.SightGaps, "непрозрачная вода загораживает обзор")
}

func TestExtrafloors_Ordering(t *testing.T) {
	b := worldtest.NewBuilder("stack")
	room := b.Sector(0, 512, 7)
	high := b.Sector(300, 320, 0)
	low := b.Sector(100, 120, 0)

	b.Room(0, 0, 256, 256, room)
	b.Room(300, 0, 364, 64, high)
	b.Room(400, 0, 464, 64, low)

	def := b.Def()
	for _, i := range []int{4, 8} {
		def.Lines[i].Tag = 7
		def.Lines[i].Extrafloor = &world.ExtrafloorDef{Flags: world.ExfloorThick}
	}

	lvl := worldtest.Build(t, def)
	efs := lvl.Sectors[0].Extrafloors()
	require.Len(t, efs, 2)
	assert.Equal(t, 100.0, efs[0].Bottom, "плиты упорядочены снизу вверх")
	assert.Equal(t, 300.0, efs[1].Bottom)
	assert.Same(t, efs[1], lvl.Sectors[0].TopEF)
	assert.Same(t, efs[0], efs[1].Lower)
}

func TestExtrafloors_LoadErrors(t *testing.T) {
	tests := []struct {
		name        string
		floor, ceil float64
	}{
		{"в полу", -10, 20},
		{"в потолке", 200, 300},
		{"в другой плите", 80, 110},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := worldtest.ExtrafloorRoom()

			def.Sectors = append(def.Sectors, world.SectorDef{Floor: tt.floor, Ceil: tt.ceil})
			ctrl := len(def.Sectors) - 1

			base := len(def.Vertices)
			def.Vertices = append(def.Vertices, vec.Vec2Float{X: 600, Y: 0}, vec.Vec2Float{X: 600, Y: 64})
			def.Lines = append(def.Lines, world.LineDef{
				V1: base, V2: base + 1, Front: ctrl, Back: -1, Tag: 5,
				Extrafloor: &world.ExtrafloorDef{Flags: world.ExfloorThick},
			})

			_, err := world.NewLevel(context.Background(), def, worldtest.Options())
			assert.Error(t, err)
		})
	}
}

func TestExtrafloorFits(t *testing.T) {
	sec := &world.Sector{FloorZ: 0, CeilZ: 128}
	assert.Equal(t, world.FitOK, world.ExtrafloorFits(sec, 10, 20))
	assert.Equal(t, world.StuckInCeiling, world.ExtrafloorFits(sec, 100, 130))
	assert.Equal(t, world.StuckInFloor, world.ExtrafloorFits(sec, -1, 20))
}

func TestComputeThingGap(t *testing.T) {
	lvl := worldtest.Build(t, worldtest.ExtrafloorRoom())
	room := lvl.Sectors[0]
	thing := &world.Thing{Height: 56}

	z, f, c := lvl.ComputeThingGap(thing, room, world.OnFloorZ)
	assert.Equal(t, 0.0, z)
	assert.Equal(t, 0.0, f)
	assert.Equal(t, 64.0, c)

	z, f, c = lvl.ComputeThingGap(thing, room, 100)
	assert.Equal(t, 100.0, z)
	assert.Equal(t, 96.0, f, "объект над плитой стоит на ней")
	assert.Equal(t, 256.0, c)

	z, _, c = lvl.ComputeThingGap(thing, room, world.OnCeilingZ)
	assert.Equal(t, 200.0, z)
	assert.Equal(t, 256.0, c)
}

func TestComputeThingGap_ClosedSector(t *testing.T) {
	lvl := worldtest.Build(t, worldtest.TwoRooms(0))
	right := lvl.Sectors[1]
	lvl.ShiftPlane(right, true, -128)

	_, f, c := lvl.ComputeThingGap(&world.Thing{Height: 16}, right, 0)
	assert.Equal(t, 0.0, f, "застрявший объект получает пол сектора")
	assert.Equal(t, 0.0, c)
}

func TestPlaneMove_ControlSector(t *testing.T) {
	lvl := worldtest.Build(t, worldtest.ExtrafloorRoom())
	room, slab := lvl.Sectors[0], lvl.Sectors[1]

	require.True(t, world.CheckPlaneMove(slab, false, 8))
	changes := lvl.ShiftPlane(slab, false, 8)

	require.Len(t, changes, 2)
	assert.Same(t, room, changes[1].Sector)
	assert.Equal(t, 8.0, changes[1].CeilDelta, "низ толстой плиты ограничивает пространство под ней сверху")
	assert.True(t, changes[1].Widening())

	assert.Equal(t, gap.List{{Floor: 0, Ceil: 72}, {Floor: 96, Ceil: 256}}, room.Gaps(nil))

	assert.False(t, world.CheckPlaneMove(slab, true, 200), "верх плиты упёрся бы в потолок")
	assert.False(t, world.CheckPlaneMove(slab, false, 40), "низ плиты выше её верха")
	assert.False(t, world.CheckPlaneMove(room, false, 80), "пол поднялся бы выше плиты")
	assert.True(t, world.CheckPlaneMove(room, false, 0))
}

func loggedLevel(t *testing.T, def world.LevelDef) (*world.Level, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	opts := worldtest.Options()
	opts.Logger = logging.NewWriterLogger("world", &buf, logging.DEBUG)

	lvl, err := world.NewLevel(context.Background(), def, opts)
	require.NoError(t, err)
	return lvl, &buf
}

func TestRecomputeGaps_WarnsWhenSlabFillsSector(t *testing.T) {
	b := worldtest.NewBuilder("filled")
	room := b.Sector(0, 128, 5)
	slab := b.Sector(0, 64, 0)
	b.Room(0, 0, 256, 256, room)
	b.Room(300, 0, 364, 64, slab)

	def := b.Def()
	ld := &def.Lines[len(def.Lines)-4]
	ld.Tag = 5
	ld.Extrafloor = &world.ExtrafloorDef{Flags: world.ExfloorThick}

	lvl, log := loggedLevel(t, def)
	owner := lvl.Sectors[room]

	lvl.ShiftPlane(lvl.Sectors[slab], true, 32)
	require.Equal(t, gap.List{{Floor: 96, Ceil: 128}}, owner.Gaps(nil))
	assert.NotContains(t, log.String(), "[WARN]", "промежуток ещё есть")

	lvl.ShiftPlane(lvl.Sectors[slab], true, 32)
	assert.Empty(t, owner.Gaps(nil))
	assert.Empty(t, owner.SightGaps)
	assert.Equal(t, 1, bytes.Count(log.Bytes(), []byte("[WARN]")), "одно предупреждение на пересчёт")
	assert.Contains(t, log.String(), "сектор 0 открыт")
}

func TestShiftPlane_WarnsWhenClosedOnThings(t *testing.T) {
	lvl, log := loggedLevel(t, worldtest.TwoRooms(0))
	left := lvl.Sectors[0]

	_, err := lvl.SpawnThing(world.ThingDef{Kind: world.KindMonster, X: 100, Y: 100, Radius: 16, Height: 56})
	require.NoError(t, err)

	lvl.ShiftPlane(lvl.Sectors[1], true, -128)
	assert.NotContains(t, log.String(), "[WARN]", "в закрытом правом секторе никого нет")

	lvl.ShiftPlane(left, true, -128)
	require.True(t, left.Closed())
	assert.Contains(t, log.String(), "[WARN] [world] сектор 0 закрылся")
	assert.Contains(t, log.String(), "объекты: 1")
}

func TestReject(t *testing.T) {
	def := worldtest.ExtrafloorRoom()
	def.BuildReject = true
	lvl := worldtest.Build(t, def)

	require.NotNil(t, lvl.Reject)
	assert.True(t, lvl.Reject.Hidden(0, 1), "управляющий сектор не связан с комнатой")
	assert.False(t, lvl.Reject.Hidden(0, 0))

	def = worldtest.TwoRooms(0)
	def.Reject = []byte{0x00}
	_, err := world.NewLevel(context.Background(), def, worldtest.Options())
	assert.NoError(t, err)

	def.Reject = []byte{0x00, 0x00}
	_, err = world.NewLevel(context.Background(), def, worldtest.Options())
	assert.Error(t, err, "размер таблицы не совпадает с числом секторов")
}
