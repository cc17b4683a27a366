package clip

import (
	"testing"

	"github.com/annel0/mapclip/internal/world"
	"github.com/annel0/mapclip/internal/world/worldtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlideMove_AlongWall(t *testing.T) {
	c, lvl, _ := newClipper(t, worldtest.Field())
	th := spawn(t, lvl, world.ThingDef{X: 1000, Y: 500, Flags: world.ThingSolid})

	ok, err := c.TryMove(th, 1040, 540)
	require.NoError(t, err)
	require.False(t, ok, "прямо в стену нельзя")

	ok, err = c.SlideMove(th, 1040, 540)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.InDelta(t, 1007.6, th.Pos.X, 0.05, "объект прижат к стене")
	assert.InDelta(t, 539.2, th.Pos.Y, 0.05, "остаток хода ушёл вдоль стены")
	assert.Less(t, th.Pos.X+th.Radius, 1024.0)
}

func TestSlideMove_StairStep(t *testing.T) {
	c, lvl, _ := newClipper(t, worldtest.Field())
	th := spawn(t, lvl, world.ThingDef{X: 500, Y: 500, Flags: world.ThingSolid})
	spawn(t, lvl, world.ThingDef{X: 540, Y: 500, Flags: world.ThingSolid})

	// линий на пути нет, мешает только объект справа
	ok, err := c.SlideMove(th, 520, 520)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 500.0, th.Pos.X, "сначала пробуем сдвиг по y")
	assert.Equal(t, 520.0, th.Pos.Y)
}

func TestSlideAlong(t *testing.T) {
	lvl := worldtest.Build(t, worldtest.Field())
	vertical := lvl.Lines[0]

	dx, dy := slideAlong(vertical, 10, 20)
	assert.Equal(t, 0.0, dx)
	assert.Equal(t, 20.0, dy)

	b := worldtest.NewBuilder("diag")
	sec := b.Sector(0, 128, 0)
	b.Line(0, 0, 0, 256, sec, -1)
	b.Line(0, 256, 256, 0, sec, -1)
	b.Line(256, 0, 0, 0, sec, -1)
	diag := worldtest.Build(t, b.Def()).Lines[1]

	dx, dy = slideAlong(diag, 10, 0)
	assert.InDelta(t, 5.0, dx, 1e-9, "проекция на диагональ")
	assert.InDelta(t, -5.0, dy, 1e-9)
}

func TestMovePlane_Crush(t *testing.T) {
	c, lvl, rec := newClipper(t, worldtest.TwoRooms(0))
	right := lvl.Sectors[1]
	victim := spawn(t, lvl, world.ThingDef{X: 400, Y: 100, Flags: world.ThingSolid | world.ThingShootable})

	nofit, err := c.MovePlane(right, true, -64, true)
	require.NoError(t, err)
	assert.False(t, nofit, "64 хватает на высоту 56")
	assert.Equal(t, 64.0, victim.CeilZ)

	nofit, err = c.MovePlane(right, true, -16, true)
	require.NoError(t, err)
	assert.True(t, nofit)
	assert.Equal(t, []int{10}, rec.crushDamages, "урон из конфигурации")
	assert.Equal(t, 0.0, victim.Pos.Z)

	nofit, err = c.MovePlane(right, true, -8, false)
	require.NoError(t, err)
	assert.True(t, nofit, "без crush объект всё равно мешает")
	assert.Len(t, rec.crushDamages, 1)

	nofit, err = c.MovePlane(right, true, 88, true)
	require.NoError(t, err)
	assert.False(t, nofit, "потолок поднимается - пространство только растёт")
	assert.Equal(t, 128.0, victim.CeilZ)
}

func TestMovePlane_CorpsesAndDropped(t *testing.T) {
	c, lvl, _ := newClipper(t, worldtest.TwoRooms(0))
	right := lvl.Sectors[1]

	corpse := spawn(t, lvl, world.ThingDef{X: 300, Y: 50, Flags: world.ThingSolid | world.ThingCorpse})
	dropped := spawn(t, lvl, world.ThingDef{X: 400, Y: 50, Flags: world.ThingSpecial | world.ThingDropped})
	spawn(t, lvl, world.ThingDef{X: 400, Y: 200, Flags: world.ThingSpecial})
	deadPlayer := spawn(t, lvl, world.ThingDef{Kind: world.KindPlayer, X: 300, Y: 200, Flags: world.ThingCorpse})

	nofit, err := c.MovePlane(right, true, -100, false)
	require.NoError(t, err)
	assert.True(t, nofit, "труп игрока мешает")

	assert.Equal(t, 0.0, corpse.Height, "труп сплющен")
	assert.False(t, corpse.Has(world.ThingSolid))
	assert.Equal(t, world.NoThing, dropped.ID, "брошенный предмет удалён")
	assert.Equal(t, 3, lvl.LiveThings(), "обычный предмет остаётся")
	assert.True(t, deadPlayer.Placed())
}

func TestMovePlane_Extrafloor(t *testing.T) {
	c, lvl, _ := newClipper(t, worldtest.ExtrafloorRoom())
	room, slab := lvl.Sectors[0], lvl.Sectors[1]
	under := spawn(t, lvl, world.ThingDef{X: 128, Y: 128, Flags: world.ThingSolid | world.ThingShootable})
	require.Equal(t, 64.0, under.CeilZ)

	assert.False(t, c.CheckPlaneMove(slab, true, 200))
	nofit, err := c.MovePlane(slab, true, 200, false)
	require.NoError(t, err)
	assert.True(t, nofit, "запрещённый сдвиг не выполняется")
	assert.Equal(t, 96.0, slab.CeilZ)

	nofit, err = c.MovePlane(slab, false, -16, false)
	require.NoError(t, err)
	assert.True(t, nofit, "низ плиты опустился на голову")
	assert.Equal(t, 48.0, under.CeilZ)
	assert.Equal(t, 0.0, under.Pos.Z)

	nofit, err = c.MovePlane(room, false, -8, false)
	require.NoError(t, err)
	assert.False(t, nofit, "пол опустился, под плитой снова хватает места")
	assert.Equal(t, -8.0, under.Pos.Z, "стоявший на полу опускается вместе с ним")
}
