package util

import (
	"github.com/aquilax/go-perlin"
)

// Noise2D генератор шума Перлина со своим сидом
type Noise2D struct {
	p *perlin.Perlin
}

// NewNoise2D создаёт генератор шума с указанным сидом
func NewNoise2D(seed int64) *Noise2D {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &Noise2D{p: perlin.NewPerlin(alpha, beta, n, seed)}
}

// At возвращает значение шума для указанных координат (от 0 до 1)
func (n *Noise2D) At(x, y float64) float64 {
	// Получаем значение шума (примерно от -1 до 1)
	v := (n.p.Noise2D(x, y) + 1.0) / 2.0
	return min(max(v, 0), 1)
}
