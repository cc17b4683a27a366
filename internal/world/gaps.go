package world

import (
	"fmt"
	"slices"

	"github.com/annel0/mapclip/internal/gap"
)

// Gaps строит промежутки сектора для перемещения объекта t (t может быть nil).
// Сплошные плиты вычитаются всегда, водные - только для ходящих по воде.
func (s *Sector) Gaps(t *Thing) gap.List {
	l := gap.Base(s.FloorZ, s.CeilZ)
	if l == nil {
		return nil
	}

	for ef := s.BottomEF; ef != nil; ef = ef.Higher {
		l = gap.RemoveSolid(l, ef.Bottom, ef.Top)
	}

	if t == nil || !t.Has(ThingWaterWalker) {
		return l
	}

	for ef := s.BottomLiq; ef != nil; ef = ef.Higher {
		if ef.Has(ExfloorWater) {
			l = gap.RemoveSolid(l, ef.Bottom, ef.Top)
		}
	}
	return l
}

// sightGaps промежутки видимости: вычитаются все непрозрачные плиты, включая жидкие
func (s *Sector) sightGaps() gap.List {
	l := gap.Base(s.FloorZ, s.CeilZ)
	if l == nil {
		return nil
	}

	for ef := s.BottomEF; ef != nil; ef = ef.Higher {
		if !ef.Has(ExfloorSeeThrough) {
			l = gap.RemoveSolid(l, ef.Bottom, ef.Top)
		}
	}
	for ef := s.BottomLiq; ef != nil; ef = ef.Higher {
		if !ef.Has(ExfloorSeeThrough) {
			l = gap.RemoveSolid(l, ef.Bottom, ef.Top)
		}
	}
	return l
}

// computeLineGaps пересчитывает Gaps и Blocked линии
func computeLineGaps(l *Line) {
	l.Blocked = true
	l.Gaps = nil

	front, back := l.Front, l.Back
	if front == nil || back == nil {
		return
	}

	// закрытая дверь
	if back.CeilZ <= front.FloorZ || front.CeilZ <= back.FloorZ {
		return
	}

	l.Blocked = false

	if l.Slider != nil {
		sl := l.Slider
		if !sl.Moving {
			return
		}
		if sl.Direction > 0 && sl.Opening < sl.Target*0.5 {
			return
		}
		if sl.Direction < 0 && sl.Opening < sl.Target*0.75 {
			return
		}
	}

	l.Gaps = gap.Restrict(front.Gaps(nil), back.Gaps(nil))
}

// ComputeThingGap выбирает промежуток сектора для объекта с ногами на z.
// Возвращает итоговую z (сентинелы OnFloorZ/OnCeilingZ разрешаются) и границы промежутка.
// Если промежутка нет (объект застрял), пол и потолок равны полу сектора.
func (lvl *Level) ComputeThingGap(t *Thing, sec *Sector, z float64) (nz, floor, ceil float64) {
	gaps := sec.Gaps(t)

	switch z {
	case OnFloorZ:
		z = sec.FloorZ
	case OnCeilingZ:
		z = sec.CeilZ - t.Height
	}

	i := gap.FindBest(gaps, z, z+t.Height)
	if i < 0 {
		if !sec.Closed() {
			lvl.log.Warn("сектор %d без промежутков при открытой высоте %.1f..%.1f", sec.ID, sec.FloorZ, sec.CeilZ)
		}
		return z, sec.FloorZ, sec.FloorZ
	}

	return z, gaps[i].Floor, gaps[i].Ceil
}

// ExtrafloorFit результат проверки размещения сплошной плиты
type ExtrafloorFit int

const (
	FitOK ExtrafloorFit = iota
	StuckInCeiling
	StuckInFloor
	StuckInExtrafloor
)

func (f ExtrafloorFit) String() string {
	switch f {
	case FitOK:
		return "ok"
	case StuckInCeiling:
		return "stuck in ceiling"
	case StuckInFloor:
		return "stuck in floor"
	default:
		return "stuck in another extrafloor"
	}
}

// ExtrafloorFits проверяет, помещается ли сплошная плита [z1,z2] в сектор
func ExtrafloorFits(sec *Sector, z1, z2 float64) ExtrafloorFit {
	if z2 > sec.CeilZ {
		return StuckInCeiling
	}
	if z1 < sec.FloorZ {
		return StuckInFloor
	}

	for ef := sec.BottomEF; ef != nil; ef = ef.Higher {
		if z2 > ef.Bottom && z1 < ef.Top {
			return StuckInExtrafloor
		}
	}
	return FitOK
}

// addExtrafloor вставляет плиту в цепочку сектора по высоте низа.
// Жидкости не проверяются на пересечения.
func addExtrafloor(sec *Sector, ef *Extrafloor) error {
	if ef.Top < ef.Bottom {
		return fmt.Errorf("bad extrafloor in sector %d: z range is %.0f / %.0f", sec.ID, ef.Bottom, ef.Top)
	}

	bottom, top := &sec.BottomEF, &sec.TopEF
	if ef.Has(ExfloorLiquid) {
		bottom, top = &sec.BottomLiq, &sec.TopLiq
	} else if fit := ExtrafloorFits(sec, ef.Bottom, ef.Top); fit != FitOK {
		return fmt.Errorf("extrafloor with z range of %.0f / %.0f is %s of sector %d", ef.Bottom, ef.Top, fit, sec.ID)
	}

	// cur - ближайшая более высокая плита
	var cur *Extrafloor
	for cur = *bottom; cur != nil; cur = cur.Higher {
		if cur.Bottom > ef.Bottom {
			break
		}
	}

	ef.Higher = cur
	if cur != nil {
		ef.Lower = cur.Lower
		cur.Lower = ef
	} else {
		ef.Lower = *top
		*top = ef
	}

	if ef.Lower != nil {
		ef.Lower.Higher = ef
	} else {
		*bottom = ef
	}
	return nil
}

// refreshExtrafloor берёт высоты плиты из управляющего сектора
func refreshExtrafloor(ef *Extrafloor) {
	ef.Bottom = ef.Control.FloorZ
	if ef.Has(ExfloorThick) {
		ef.Top = ef.Control.CeilZ
	} else {
		ef.Top = ef.Bottom
	}
}

// recomputeAroundSector пересчитывает промежутки линий сектора и его промежутки видимости
func recomputeAroundSector(sec *Sector) {
	for _, l := range sec.Lines {
		computeLineGaps(l)
	}
	sec.SightGaps = sec.sightGaps()
}

// RecomputeGaps обновляет всё, что зависит от высот сектора: плиты, которыми он
// управляет, промежутки линий вокруг него и вокруг секторов с этими плитами.
// Открытый сектор, оставшийся без промежутков, попадает в лог один раз за пересчёт.
func (lvl *Level) RecomputeGaps(sec *Sector) {
	touched := []*Sector{sec}
	recomputeAroundSector(sec)

	for _, ef := range sec.Controls {
		refreshExtrafloor(ef)
		recomputeAroundSector(ef.Sector)
		if !slices.Contains(touched, ef.Sector) {
			touched = append(touched, ef.Sector)
		}
	}

	for _, s := range touched {
		if !s.Closed() && len(s.Gaps(nil)) == 0 {
			lvl.log.Warn("сектор %d открыт (%.1f..%.1f), но плиты не оставили промежутков",
				s.ID, s.FloorZ, s.CeilZ)
		}
	}
}
