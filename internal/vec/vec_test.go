package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockOf(t *testing.T) {
	origin := Vec2Float{X: -8, Y: -8}

	assert.Equal(t, Vec2{X: 0, Y: 0}, BlockOf(Vec2Float{X: 0, Y: 0}, origin, 128), "точка у начала должна попасть в блок 0,0")
	assert.Equal(t, Vec2{X: 1, Y: 0}, BlockOf(Vec2Float{X: 120, Y: 5}, origin, 128))
	assert.Equal(t, Vec2{X: -1, Y: -1}, BlockOf(Vec2Float{X: -9, Y: -9}, origin, 128), "левее начала сетки блок отрицательный")
}

func TestVec2_InAndIndex(t *testing.T) {
	v := Vec2{X: 2, Y: 3}
	assert.True(t, v.In(4, 4))
	assert.False(t, v.In(2, 4))
	assert.Equal(t, 14, v.Index(4))
}

func TestVec2Float_Project(t *testing.T) {
	move := Vec2Float{X: 10, Y: 10}

	got := move.Project(Vec2Float{X: 0, Y: 64})
	assert.InDelta(t, 0, got.X, 1e-9)
	assert.InDelta(t, 10, got.Y, 1e-9)

	assert.Equal(t, Vec2Float{}, move.Project(Vec2Float{}), "проекция на нулевой вектор должна быть нулевой")
}

func TestVec3Float_XY(t *testing.T) {
	p := Vec3Float{X: 3, Y: 4, Z: 40}
	assert.Equal(t, Vec2Float{X: 4, Y: 6}, p.XY().Add(Vec2Float{X: 1, Y: 2}))
}
