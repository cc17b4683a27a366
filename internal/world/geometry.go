package world

import (
	"github.com/annel0/mapclip/internal/gap"
	"github.com/annel0/mapclip/internal/physics"
	"github.com/annel0/mapclip/internal/vec"
)

// LineFlags флаги линии
type LineFlags uint16

const (
	LineBlocking LineFlags = 1 << iota
	LineBlockMonsters
	LineTwoSided
	LineSightBlock
	LineShootBlock
)

// Slider состояние горизонтальной раздвижной двери на линии
type Slider struct {
	SeeThrough bool

	// Moving true, пока дверь открывается или закрывается
	Moving    bool
	Direction int // >0 открывается, <0 закрывается
	Opening   float64
	Target    float64
}

// Line линия карты между двумя вершинами
type Line struct {
	ID     int
	V1, V2 vec.Vec2Float
	DX, DY float64
	Box    physics.BBox
	Slope  physics.SlopeType

	Front *Sector
	Back  *Sector

	Flags   LineFlags
	Special int
	Tag     int
	Slider  *Slider

	// Gaps проходимые промежутки между передним и задним сектором
	Gaps gap.List
	// Blocked линия закрыта (односторонняя или закрытая дверь)
	Blocked bool
}

// Has проверяет наличие флага
func (l *Line) Has(f LineFlags) bool {
	return l.Flags&f != 0
}

// TwoSided есть ли у линии задний сектор
func (l *Line) TwoSided() bool {
	return l.Front != nil && l.Back != nil
}

// DivLine линия в виде бесконечной прямой
func (l *Line) DivLine() physics.DivLine {
	return physics.DivLine{X: l.V1.X, Y: l.V1.Y, DX: l.DX, DY: l.DY}
}

// PointSide 0 - точка спереди (справа), 1 - сзади
func (l *Line) PointSide(x, y float64) int {
	return physics.PointOnDivLineSide(x, y, l.DivLine())
}

// BoxSide сторона прямоугольника относительно линии, -1 если линия его пересекает
func (l *Line) BoxSide(box physics.BBox) int {
	return physics.BoxOnLineSide(box, l.DivLine(), l.Slope)
}

// ExtrafloorFlags тип дополнительного пола
type ExtrafloorFlags uint8

const (
	ExfloorThick ExtrafloorFlags = 1 << iota
	ExfloorLiquid
	ExfloorSeeThrough
	ExfloorWater
)

// Extrafloor горизонтальная плита внутри сектора, высоты берутся из управляющего сектора
type Extrafloor struct {
	ID      int
	Sector  *Sector // сектор, в котором лежит плита
	Control *Sector
	Line    *Line
	Flags   ExtrafloorFlags

	Bottom float64
	Top    float64

	Higher *Extrafloor
	Lower  *Extrafloor
}

// Has проверяет наличие флага
func (ef *Extrafloor) Has(f ExtrafloorFlags) bool {
	return ef.Flags&f != 0
}

// Sector выпуклая или невыпуклая область карты с полом и потолком
type Sector struct {
	ID     int
	FloorZ float64
	CeilZ  float64
	Tag    int

	Lines []*Line

	// цепочки плит снизу вверх
	BottomEF, TopEF   *Extrafloor
	BottomLiq, TopLiq *Extrafloor

	// Controls плиты, высоты которых задаёт этот сектор
	Controls []*Extrafloor

	// SightGaps промежутки, сквозь которые видно
	SightGaps gap.List

	touchHead touchID
}

// Closed пол не ниже потолка
func (s *Sector) Closed() bool {
	return s.CeilZ <= s.FloorZ
}

// HasExtrafloors есть ли в секторе хотя бы одна плита
func (s *Sector) HasExtrafloors() bool {
	return s.BottomEF != nil || s.BottomLiq != nil
}

// Extrafloors возвращает сплошные плиты снизу вверх
func (s *Sector) Extrafloors() []*Extrafloor {
	var out []*Extrafloor
	for ef := s.BottomEF; ef != nil; ef = ef.Higher {
		out = append(out, ef)
	}
	return out
}

// Liquids возвращает жидкие плиты снизу вверх
func (s *Sector) Liquids() []*Extrafloor {
	var out []*Extrafloor
	for ef := s.BottomLiq; ef != nil; ef = ef.Higher {
		out = append(out, ef)
	}
	return out
}
