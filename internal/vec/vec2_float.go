package vec

// Vec2Float точка или смещение на плоскости карты
type Vec2Float struct {
	X, Y float64
}

// Add складывает два вектора
func (v Vec2Float) Add(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X + other.X, Y: v.Y + other.Y}
}

// Mul умножает вектор на скаляр
func (v Vec2Float) Mul(scalar float64) Vec2Float {
	return Vec2Float{X: v.X * scalar, Y: v.Y * scalar}
}

// Dot скалярное произведение
func (v Vec2Float) Dot(other Vec2Float) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Project проецирует вектор на направление dir.
// Для нулевого dir возвращается нулевой вектор.
func (v Vec2Float) Project(dir Vec2Float) Vec2Float {
	l2 := dir.Dot(dir)
	if l2 == 0 {
		return Vec2Float{}
	}
	return dir.Mul(v.Dot(dir) / l2)
}
