package gap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase(t *testing.T) {
	assert.Equal(t, List{{Floor: 0, Ceil: 128}}, Base(0, 128))
	assert.Empty(t, Base(64, 64), "закрытый сектор не имеет промежутков")
	assert.Empty(t, Base(80, 10))
}

func TestRemoveSolid_SplitsAroundExtrafloor(t *testing.T) {
	got := RemoveSolid(Base(0, 96), 32, 64)

	require.Len(t, got, 2)
	assert.Equal(t, Gap{Floor: 0, Ceil: 32}, got[0])
	assert.Equal(t, Gap{Floor: 64, Ceil: 96}, got[1])
}

func TestRemoveSolid_Cases(t *testing.T) {
	cases := []struct {
		name   string
		in     List
		z1, z2 float64
		want   List
	}{
		{"полное перекрытие", List{{0, 64}}, -10, 100, List{}},
		{"без пересечения", List{{0, 64}}, 64, 80, List{{0, 64}}},
		{"срез снизу", List{{0, 64}}, -10, 16, List{{16, 64}}},
		{"срез сверху", List{{0, 64}}, 48, 70, List{{0, 48}}},
		{"пустые отбрасываются", List{{10, 10}, {20, 40}}, 100, 110, List{{20, 40}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RemoveSolid(tc.in, tc.z1, tc.z2))
		})
	}
}

func TestRestrict_LineOpening(t *testing.T) {
	front := Base(0, 128)
	back := Base(64, 128)

	assert.Equal(t, List{{Floor: 64, Ceil: 128}}, Restrict(front, back), "проём линии - пересечение секторов")
}

func TestRestrict_MultipleGaps(t *testing.T) {
	a := List{{0, 32}, {64, 128}}
	b := List{{16, 80}}

	assert.Equal(t, List{{16, 32}, {64, 80}}, Restrict(a, b))
	assert.Empty(t, Restrict(a, List{{40, 50}}), "без общих высот проёма нет")
}

func TestFindBest(t *testing.T) {
	gaps := List{{0, 32}, {64, 128}, {160, 256}}

	assert.Equal(t, -1, FindBest(nil, 0, 10), "пустой список")
	assert.Equal(t, 0, FindBest(List{{0, 8}}, 100, 200), "единственный промежуток выбирается всегда")

	assert.Equal(t, 1, FindBest(gaps, 70, 110), "вмещает без смещения")
	assert.Equal(t, 2, FindBest(gaps, 0, 80), "единственный достаточный по высоте")
	assert.Equal(t, 2, FindBest(gaps, 150, 190), "из достаточных - ближайший пол")
	assert.Equal(t, 0, FindBest(gaps, 10, 200), "никакой не подходит - ближайший пол")
}

func TestFindBest_AlwaysValidForNonEmpty(t *testing.T) {
	gaps := List{{0, 16}, {20, 24}, {100, 101}}

	for z := -50.0; z < 300; z += 7 {
		for h := 1.0; h < 200; h += 33 {
			idx := FindBest(gaps, z, z+h)
			assert.True(t, idx >= 0 && idx < len(gaps), "индекс должен быть валидным для z=%v h=%v", z, h)
		}
	}
}
