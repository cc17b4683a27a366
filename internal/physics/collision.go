package physics

import "math"

// BBox ограничивающий прямоугольник в мировых координатах
type BBox struct {
	Left, Right float64
	Bottom, Top float64
}

// BoxAround создаёт квадрат со стороной 2*r вокруг точки (x,y), как у футпринта объекта
func BoxAround(x, y, r float64) BBox {
	return BBox{Left: x - r, Right: x + r, Bottom: y - r, Top: y + r}
}

// EmptyBox возвращает "вывернутый" прямоугольник, к которому удобно добавлять точки
func EmptyBox() BBox {
	return BBox{
		Left: math.Inf(1), Right: math.Inf(-1),
		Bottom: math.Inf(1), Top: math.Inf(-1),
	}
}

// AddPoint расширяет прямоугольник до точки
func (b *BBox) AddPoint(x, y float64) {
	b.Left = math.Min(b.Left, x)
	b.Right = math.Max(b.Right, x)
	b.Bottom = math.Min(b.Bottom, y)
	b.Top = math.Max(b.Top, y)
}

// Expand возвращает прямоугольник, расширенный на d во все стороны
func (b BBox) Expand(d float64) BBox {
	return BBox{Left: b.Left - d, Right: b.Right + d, Bottom: b.Bottom - d, Top: b.Top + d}
}

// Intersects проверяет пересечение двух прямоугольников (касание считается пересечением)
func (b BBox) Intersects(o BBox) bool {
	return b.Left <= o.Right && o.Left <= b.Right &&
		b.Bottom <= o.Top && o.Bottom <= b.Top
}

// ContainsPoint проверяет, лежит ли точка внутри прямоугольника
func (b BBox) ContainsPoint(x, y float64) bool {
	return x >= b.Left && x <= b.Right && y >= b.Bottom && y <= b.Top
}

// CheckBoxCollision проверяет перекрытие футпринтов двух объектов.
// В отличие от Intersects касание краями не считается столкновением.
func CheckBoxCollision(x1, y1, r1, x2, y2, r2 float64) bool {
	blockdist := r1 + r2
	return math.Abs(x1-x2) < blockdist && math.Abs(y1-y2) < blockdist
}

// SegmentIntersectsBox проверяет, задевает ли отрезок (x1,y1)-(x2,y2) прямоугольник.
// Отрезок, целиком лежащий внутри прямоугольника, тоже считается пересекающим.
// Используется отсечение Лианга-Барски по четырём сторонам.
func SegmentIntersectsBox(x1, y1, x2, y2 float64, b BBox) bool {
	t0, t1 := 0.0, 1.0
	dx := x2 - x1
	dy := y2 - y1

	clip := func(p, q float64) bool {
		if p == 0 {
			// отрезок параллелен стороне: решает только положение начала
			return q >= 0
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return false
			}
			if r < t1 {
				t1 = r
			}
		}
		return true
	}

	return clip(-dx, x1-b.Left) &&
		clip(dx, b.Right-x1) &&
		clip(-dy, y1-b.Bottom) &&
		clip(dy, b.Top-y1)
}

// ApproxDistance грубая оценка расстояния без квадратного корня
func ApproxDistance(dx, dy float64) float64 {
	dx = math.Abs(dx)
	dy = math.Abs(dy)
	if dy > dx {
		return dy + dx/2
	}
	return dx + dy/2
}

// ApproxSlope грубая оценка наклона dz к горизонтальному смещению
func ApproxSlope(dx, dy, dz float64) float64 {
	dist := ApproxDistance(dx, dy)
	if dist < 1.0/32.0 {
		dist = 1.0 / 32.0
	}
	return dz / dist
}
