package vec

// Vec3Float позиция или импульс объекта (X,Y в плоскости карты, Z высота)
type Vec3Float struct {
	X float64
	Y float64
	Z float64
}

// XY отбрасывает высоту
func (v Vec3Float) XY() Vec2Float {
	return Vec2Float{X: v.X, Y: v.Y}
}
