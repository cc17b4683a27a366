package physics

// DivLine бесконечная прямая, заданная точкой и направлением
type DivLine struct {
	X, Y   float64
	DX, DY float64
}

// SlopeType класс наклона линии, ускоряет проверку "прямоугольник против линии"
type SlopeType uint8

const (
	SlopeHorizontal SlopeType = iota
	SlopeVertical
	SlopePositive
	SlopeNegative
)

// String возвращает имя класса наклона
func (s SlopeType) String() string {
	switch s {
	case SlopeHorizontal:
		return "horizontal"
	case SlopeVertical:
		return "vertical"
	case SlopePositive:
		return "positive"
	case SlopeNegative:
		return "negative"
	default:
		return "unknown"
	}
}

// ClassifySlope определяет класс наклона по направлению
func ClassifySlope(dx, dy float64) SlopeType {
	switch {
	case dx == 0:
		return SlopeVertical
	case dy == 0:
		return SlopeHorizontal
	case dy/dx > 0:
		return SlopePositive
	default:
		return SlopeNegative
	}
}

// PointOnDivLineSide возвращает 0, если точка справа (спереди) от линии, и 1, если слева (сзади).
// Для точки, лежащей ровно на линии, результат не определён.
func PointOnDivLineSide(x, y float64, div DivLine) int {
	if div.DX == 0 {
		if (x <= div.X) != (div.DY > 0) {
			return 0
		}
		return 1
	}

	if div.DY == 0 {
		if (y <= div.Y) != (div.DX < 0) {
			return 0
		}
		return 1
	}

	dx := x - div.X
	dy := y - div.Y

	left := dx * div.DY
	right := dy * div.DX

	if right < left {
		return 0
	}
	return 1
}

// BoxOnDivLineSide считает линию бесконечной.
// Возвращает сторону 0 или 1, либо -1, если прямоугольник пересекает линию.
func BoxOnDivLineSide(box BBox, div DivLine) int {
	return BoxOnLineSide(box, div, ClassifySlope(div.DX, div.DY))
}

// BoxOnLineSide то же самое, но с заранее вычисленным классом наклона
func BoxOnLineSide(box BBox, div DivLine, slope SlopeType) int {
	var p1, p2 int

	switch slope {
	case SlopeHorizontal:
		p1 = boolToSide(box.Top > div.Y)
		p2 = boolToSide(box.Bottom > div.Y)
		if div.DX < 0 {
			p1 ^= 1
			p2 ^= 1
		}

	case SlopeVertical:
		p1 = boolToSide(box.Right < div.X)
		p2 = boolToSide(box.Left < div.X)
		if div.DY < 0 {
			p1 ^= 1
			p2 ^= 1
		}

	case SlopePositive:
		p1 = PointOnDivLineSide(box.Left, box.Top, div)
		p2 = PointOnDivLineSide(box.Right, box.Bottom, div)

	case SlopeNegative:
		p1 = PointOnDivLineSide(box.Right, box.Top, div)
		p2 = PointOnDivLineSide(box.Left, box.Bottom, div)
	}

	if p1 == p2 {
		return p1
	}
	return -1
}

// InterceptVector возвращает долю пути вдоль trace, на которой она пересекает div.
// Для параллельных линий возвращает 0.
func InterceptVector(trace, div DivLine) float64 {
	den := div.DY*trace.DX - div.DX*trace.DY
	if den == 0 {
		return 0
	}

	num := (div.X-trace.X)*div.DY + (trace.Y-div.Y)*div.DX
	return num / den
}

func boolToSide(b bool) int {
	if b {
		return 1
	}
	return 0
}
