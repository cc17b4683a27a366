package blockmap

import (
	"testing"

	"github.com/annel0/mapclip/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex(t *testing.T) *Index {
	t.Helper()

	segs := []Segment{
		{X1: 0, Y1: 0, X2: 512, Y2: 0},   // горизонтальная вдоль низа
		{X1: 128, Y1: 0, X2: 128, Y2: 256}, // вертикальная
		{X1: 0, Y1: 0, X2: 256, Y2: 256},   // диагональ
	}
	idx, err := Build(segs, physics.BBox{Left: 0, Right: 512, Bottom: 0, Top: 256})
	require.NoError(t, err)
	return idx
}

func TestBuild_Geometry(t *testing.T) {
	idx := testIndex(t)

	assert.Equal(t, -8.0, idx.Origin.X, "начало сетки смещено на 8 единиц")
	assert.Equal(t, -8.0, idx.Origin.Y)
	assert.Equal(t, 5, idx.Width)
	assert.Equal(t, 3, idx.Height)
}

func TestBuild_Rasterisation(t *testing.T) {
	idx := testIndex(t)

	assert.Equal(t, []int32{0, 2}, idx.LinesInBlock(0, 0))
	assert.Equal(t, []int32{0, 1}, idx.LinesInBlock(1, 0))
	assert.Equal(t, []int32{1, 2}, idx.LinesInBlock(1, 1))
	assert.Equal(t, []int32{1}, idx.LinesInBlock(1, 2))
	assert.Equal(t, []int32{2}, idx.LinesInBlock(2, 2))
	assert.Equal(t, []int32{0}, idx.LinesInBlock(4, 0))
	assert.Empty(t, idx.LinesInBlock(3, 2))

	assert.Nil(t, idx.LinesInBlock(-1, 0), "ячейка вне сетки пуста")
	assert.Nil(t, idx.LinesInBlock(9, 9))
}

func TestBuild_DiagonalsCoverEveryCell(t *testing.T) {
	tests := []struct {
		name string
		seg  Segment
	}{
		{"крутая почти вертикальная", Segment{X1: 125, Y1: 2000, X2: 115, Y2: 0}},
		{"крутая вверх вправо", Segment{X1: 10, Y1: 5, X2: 300, Y2: 1900}},
		{"крутая вверх влево", Segment{X1: 1500, Y1: 30, X2: 1390, Y2: 1950}},
		{"пологая", Segment{X1: 3, Y1: 700, X2: 1900, Y2: 60}},
		{"около 45 градусов", Segment{X1: 7, Y1: 11, X2: 1013, Y2: 1003}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := Build([]Segment{tt.seg}, physics.BBox{Left: 0, Right: 2048, Bottom: 0, Top: 2048})
			require.NoError(t, err)

			const samples = 4000
			for i := 0; i <= samples; i++ {
				f := float64(i) / samples
				x := tt.seg.X1 + f*(tt.seg.X2-tt.seg.X1)
				y := tt.seg.Y1 + f*(tt.seg.Y2-tt.seg.Y1)
				b := idx.Block(x, y)
				require.Contains(t, idx.LinesInBlock(b.X, b.Y), int32(0),
					"точка (%.2f, %.2f) в ячейке %v, а линии в ней нет", x, y, b)
			}
		})
	}
}

func TestBoxLines_SteepWall(t *testing.T) {
	segs := []Segment{
		{X1: 0, Y1: 0, X2: 0, Y2: 2000},
		{X1: 0, Y1: 2000, X2: 125, Y2: 2000},
		{X1: 125, Y1: 2000, X2: 115, Y2: 0},
		{X1: 115, Y1: 0, X2: 0, Y2: 0},
	}
	idx, err := Build(segs, physics.BBox{Left: 0, Right: 125, Bottom: 0, Top: 2000})
	require.NoError(t, err)

	box := physics.BoxAround(112, 950, 7.9)
	require.True(t, physics.SegmentIntersectsBox(125, 2000, 115, 0, box))

	var got []int
	idx.BoxLines(box, func(l int) bool {
		got = append(got, l)
		return true
	})
	assert.Contains(t, got, 2, "стена у правого края ячейки должна найтись")
}

func TestBuild_SentinelLayout(t *testing.T) {
	idx := testIndex(t)

	ends := 0
	for _, v := range idx.lines {
		if v == End {
			ends++
		}
	}
	assert.Equal(t, idx.Width*idx.Height, ends, "каждый список завершается End")
}

func TestBuild_OutOfBounds(t *testing.T) {
	_, err := Build([]Segment{{X1: 0, Y1: 0, X2: 900, Y2: 0}}, physics.BBox{Right: 256, Top: 256})
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestBoxLines_Deduplicates(t *testing.T) {
	idx := testIndex(t)

	seen := map[int]int{}
	ok := idx.BoxLines(physics.BBox{Left: 0, Right: 200, Bottom: 0, Top: 200}, func(l int) bool {
		seen[l]++
		return true
	})

	assert.True(t, ok)
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 1}, seen, "линия, лежащая в нескольких ячейках, выдаётся один раз")

	// новое поколение снова выдаёт те же линии
	count := 0
	idx.BoxLines(physics.BBox{Left: 0, Right: 200, Bottom: 0, Top: 200}, func(int) bool {
		count++
		return true
	})
	assert.Equal(t, 3, count)
}

func TestBoxLines_StopsEarly(t *testing.T) {
	idx := testIndex(t)

	calls := 0
	ok := idx.BoxLines(physics.BBox{Left: 0, Right: 500, Bottom: 0, Top: 250}, func(int) bool {
		calls++
		return false
	})
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
}

func TestThingChains(t *testing.T) {
	idx := testIndex(t)

	require.NoError(t, idx.LinkThing(0, 10, 10))
	require.NoError(t, idx.LinkThing(1, 20, 20))
	require.NoError(t, idx.LinkThing(2, 300, 10))

	assert.Equal(t, []Ref{1, 0}, idx.ThingsInBlock(0, 0), "новый объект встаёт в голову цепочки")
	assert.Equal(t, []Ref{2}, idx.ThingsInBlock(2, 0))

	err := idx.LinkThing(0, 50, 50)
	assert.ErrorIs(t, err, ErrDoubleLink, "повторная привязка - нарушение контракта")

	idx.UnlinkThing(1)
	assert.Equal(t, []Ref{0}, idx.ThingsInBlock(0, 0))
	assert.False(t, idx.IsLinked(1))

	idx.UnlinkThing(1)
	assert.Equal(t, []Ref{0}, idx.ThingsInBlock(0, 0), "повторная отвязка безопасна")

	require.NoError(t, idx.LinkThing(1, 30, 30))
	assert.Equal(t, []Ref{1, 0}, idx.ThingsInBlock(0, 0))
}

func TestThingChains_OffMap(t *testing.T) {
	idx := testIndex(t)

	require.NoError(t, idx.LinkThing(3, -1000, 0))
	assert.True(t, idx.IsLinked(3), "объект вне карты считается привязанным")

	found := false
	idx.BoxThings(physics.BBox{Left: -2000, Right: 2000, Bottom: -2000, Top: 2000}, func(r Ref) bool {
		found = found || r == 3
		return true
	})
	assert.False(t, found, "объект вне карты не лежит ни в одной ячейке")

	idx.UnlinkThing(3)
	assert.False(t, idx.IsLinked(3))
}

func TestBlockThings_AllowsUnlinkDuringIteration(t *testing.T) {
	idx := testIndex(t)
	for i := 0; i < 4; i++ {
		require.NoError(t, idx.LinkThing(Ref(i), 10, 10))
	}

	visited := 0
	idx.BlockThings(0, 0, func(r Ref) bool {
		visited++
		idx.UnlinkThing(r)
		return true
	})

	assert.Equal(t, 4, visited)
	assert.Empty(t, idx.ThingsInBlock(0, 0))
}

func TestStats(t *testing.T) {
	st := testIndex(t).Stats()

	assert.Equal(t, 15, st.Cells)
	assert.Equal(t, 2, st.LongestList)
	assert.Equal(t, 5+3+3, st.Entries)
}
