// Package gap реализует алгебру вертикальных интервалов: свободные по высоте
// промежутки сектора или линии и выбор подходящего промежутка для объекта.
package gap

import (
	"fmt"
	"math"
)

// Gap проходимый по вертикали интервал [Floor, Ceil]
type Gap struct {
	Floor float64
	Ceil  float64
}

// Height высота промежутка
func (g Gap) Height() float64 {
	return g.Ceil - g.Floor
}

// Empty пустой промежуток (потолок не выше пола)
func (g Gap) Empty() bool {
	return g.Ceil <= g.Floor
}

// Contains проверяет, помещается ли [z1,z2] в промежуток целиком
func (g Gap) Contains(z1, z2 float64) bool {
	return z1 >= g.Floor && z2 <= g.Ceil
}

func (g Gap) String() string {
	return fmt.Sprintf("[%.1f..%.1f]", g.Floor, g.Ceil)
}

// List упорядоченный снизу вверх список промежутков
type List []Gap

// Base возвращает список из одного промежутка [floor,ceil].
// Закрытый сектор (floor >= ceil) не имеет промежутков.
func Base(floor, ceil float64) List {
	if floor >= ceil {
		return nil
	}
	return List{{Floor: floor, Ceil: ceil}}
}

// RemoveSolid вычитает сплошной слой [z1,z2] из каждого промежутка списка.
// Пустые промежутки отбрасываются, частично перекрытые обрезаются или делятся на два.
func RemoveSolid(l List, z1, z2 float64) List {
	out := make(List, 0, len(l)+1)

	for _, g := range l {
		if g.Empty() {
			continue
		}

		// слой перекрывает промежуток полностью
		if z1 <= g.Floor && z2 >= g.Ceil {
			continue
		}

		// нет пересечения
		if z1 >= g.Ceil || z2 <= g.Floor {
			out = append(out, g)
			continue
		}

		if z1 > g.Floor {
			out = append(out, Gap{Floor: g.Floor, Ceil: z1})
		}
		if z2 < g.Ceil {
			out = append(out, Gap{Floor: z2, Ceil: g.Ceil})
		}
	}

	return out
}

// Restrict попарно пересекает два списка, пустые пересечения отбрасываются
func Restrict(a, b List) List {
	out := make(List, 0, len(a))

	for _, s := range b {
		if s.Empty() {
			continue
		}
		for _, d := range a {
			if d.Empty() {
				continue
			}

			f := math.Max(s.Floor, d.Floor)
			c := math.Min(s.Ceil, d.Ceil)
			if f < c {
				out = append(out, Gap{Floor: f, Ceil: c})
			}
		}
	}

	return out
}

// FindBest выбирает промежуток для объекта со ступнями на z1 и макушкой на z2.
//
// Порядок выбора при двух и более промежутках:
//  1. промежуток, вмещающий [z1,z2] без вертикального смещения;
//  2. единственный промежуток достаточной высоты;
//  3. среди нескольких достаточных - с полом ближе всего к z1;
//  4. если не подходит ни один - ближайший по полу.
//
// Возвращает -1 только для пустого списка.
func FindBest(l List, z1, z2 float64) int {
	switch len(l) {
	case 0:
		return -1
	case 1:
		return 0
	}

	fitNum := 0
	fitLast := -1

	fitClosest := -1
	fitMinDist := math.MaxFloat64

	nofitClosest := -1
	nofitMinDist := math.MaxFloat64

	for i, g := range l {
		if g.Contains(z1, z2) {
			return i
		}

		dist := math.Abs(z1 - g.Floor)

		if z2-z1 <= g.Height() {
			fitNum++
			fitLast = i
			if dist < fitMinDist {
				fitMinDist = dist
				fitClosest = i
			}
		} else if dist < nofitMinDist {
			nofitMinDist = dist
			nofitClosest = i
		}
	}

	switch {
	case fitNum == 1:
		return fitLast
	case fitNum > 1:
		return fitClosest
	default:
		return nofitClosest
	}
}
