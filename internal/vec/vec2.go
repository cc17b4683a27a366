package vec

import "math"

// Vec2 целочисленные координаты ячейки сетки (блока)
type Vec2 struct {
	X, Y int
}

// BlockOf возвращает координаты блока для мировой точки относительно начала сетки
func BlockOf(p Vec2Float, origin Vec2Float, unit float64) Vec2 {
	return Vec2{
		X: int(math.Floor((p.X - origin.X) / unit)),
		Y: int(math.Floor((p.Y - origin.Y) / unit)),
	}
}

// In проверяет, лежит ли ячейка внутри сетки width x height
func (v Vec2) In(width, height int) bool {
	return v.X >= 0 && v.X < width && v.Y >= 0 && v.Y < height
}

// Index линейный индекс ячейки в сетке шириной width
func (v Vec2) Index(width int) int {
	return v.Y*width + v.X
}
