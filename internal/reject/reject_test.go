package reject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix_SetAndQuery(t *testing.T) {
	m := New(5)

	assert.False(t, m.Hidden(1, 3), "новая матрица ничего не скрывает")

	m.SetHidden(1, 3, true)
	assert.True(t, m.Hidden(1, 3))
	assert.False(t, m.Hidden(3, 1), "матрица несимметрична")

	m.SetHidden(1, 3, false)
	assert.False(t, m.Hidden(1, 3))
}

func TestMatrix_BitLayout(t *testing.T) {
	m := New(3)
	m.SetHidden(0, 1, true) // бит 1
	m.SetHidden(2, 2, true) // бит 8

	assert.Equal(t, []byte{0x02, 0x01}, m.Bytes())
}

func TestFromBytes(t *testing.T) {
	m, err := FromBytes(3, []byte{0x02, 0x01})
	require.NoError(t, err)

	assert.True(t, m.Hidden(0, 1))
	assert.True(t, m.Hidden(2, 2))
	assert.Equal(t, 2, m.HiddenPairs())

	_, err = FromBytes(3, []byte{0x00})
	assert.ErrorIs(t, err, ErrSize)
}

func TestMatrix_NilAndOutOfRange(t *testing.T) {
	var m *Matrix
	assert.False(t, m.Hidden(0, 0), "отсутствующая матрица ничего не скрывает")
	assert.Equal(t, 0, m.Sectors())

	m = New(2)
	assert.False(t, m.Hidden(-1, 5))
}

func TestBuild_Components(t *testing.T) {
	// 0-1-2 связаны, 3 отдельно
	m := Build(4, [][2]int{{0, 1}, {1, 2}})

	assert.False(t, m.Hidden(0, 2))
	assert.False(t, m.Hidden(2, 0))
	assert.True(t, m.Hidden(0, 3))
	assert.True(t, m.Hidden(3, 1))
	assert.False(t, m.Hidden(3, 3))
	assert.Equal(t, 6, m.HiddenPairs())
}
