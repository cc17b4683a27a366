// Package reject хранит матрицу видимости "сектор-сектор" в раскладке REJECT:
// бит s1*n+s2 установлен, если из сектора s1 заведомо не видно сектор s2.
package reject

import (
	"errors"
	"fmt"
)

// ErrSize длина данных не соответствует числу секторов
var ErrSize = errors.New("reject: data size does not match sector count")

// Matrix битовая матрица скрытых пар секторов
type Matrix struct {
	n    int
	bits []byte
}

// New создаёт пустую матрицу (все пары видимы)
func New(numSectors int) *Matrix {
	return &Matrix{n: numSectors, bits: make([]byte, size(numSectors))}
}

// FromBytes оборачивает готовую таблицу. Данные копируются.
func FromBytes(numSectors int, data []byte) (*Matrix, error) {
	want := size(numSectors)
	if len(data) != want {
		return nil, fmt.Errorf("%d sectors need %d bytes, got %d: %w", numSectors, want, len(data), ErrSize)
	}

	bits := make([]byte, want)
	copy(bits, data)
	return &Matrix{n: numSectors, bits: bits}, nil
}

func size(n int) int {
	return (n*n + 7) / 8
}

// Sectors число секторов
func (m *Matrix) Sectors() int {
	if m == nil {
		return 0
	}
	return m.n
}

// Hidden true, если s2 заведомо не виден из s1. Пустая матрица ничего не скрывает.
func (m *Matrix) Hidden(s1, s2 int) bool {
	if m == nil || s1 < 0 || s2 < 0 || s1 >= m.n || s2 >= m.n {
		return false
	}
	p := s1*m.n + s2
	return m.bits[p>>3]&(1<<(p&7)) != 0
}

// SetHidden выставляет или снимает бит пары
func (m *Matrix) SetHidden(s1, s2 int, hidden bool) {
	if s1 < 0 || s2 < 0 || s1 >= m.n || s2 >= m.n {
		return
	}
	p := s1*m.n + s2
	if hidden {
		m.bits[p>>3] |= 1 << (p & 7)
	} else {
		m.bits[p>>3] &^= 1 << (p & 7)
	}
}

// Bytes копия таблицы в раскладке REJECT
func (m *Matrix) Bytes() []byte {
	out := make([]byte, len(m.bits))
	copy(out, m.bits)
	return out
}

// HiddenPairs число скрытых упорядоченных пар
func (m *Matrix) HiddenPairs() int {
	count := 0
	for s1 := 0; s1 < m.n; s1++ {
		for s2 := 0; s2 < m.n; s2++ {
			if m.Hidden(s1, s2) {
				count++
			}
		}
	}
	return count
}

// Build строит консервативную матрицу: пары секторов из разных компонент
// связности графа двусторонних линий помечаются скрытыми, всё остальное видимо.
func Build(numSectors int, links [][2]int) *Matrix {
	parent := make([]int, numSectors)
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	for _, l := range links {
		a, b := l[0], l[1]
		if a < 0 || b < 0 || a >= numSectors || b >= numSectors {
			continue
		}
		if ra, rb := find(a), find(b); ra != rb {
			parent[ra] = rb
		}
	}

	m := New(numSectors)
	for s1 := 0; s1 < numSectors; s1++ {
		r1 := find(s1)
		for s2 := 0; s2 < numSectors; s2++ {
			if find(s2) != r1 {
				m.SetHidden(s1, s2, true)
			}
		}
	}
	return m
}
