package world

// PlaneChange сектор, пространство которого изменилось при сдвиге плоскости.
// FloorDelta и CeilDelta - насколько сдвинулись нижняя и верхняя границы.
type PlaneChange struct {
	Sector     *Sector
	FloorDelta float64
	CeilDelta  float64
}

// Widening пространство только расширилось
func (pc PlaneChange) Widening() bool {
	return pc.FloorDelta <= 0 && pc.CeilDelta >= 0
}

// SetSlider обновляет состояние раздвижной двери и промежутки линии
func (lvl *Level) SetSlider(l *Line, moving bool, direction int, opening, target float64) error {
	if l.Slider == nil {
		return Contractf("SetSlider", "line %d has no slider", l.ID)
	}

	l.Slider.Moving = moving
	l.Slider.Direction = direction
	l.Slider.Opening = opening
	l.Slider.Target = target

	computeLineGaps(l)
	return nil
}

// CheckPlaneMove проверяет, можно ли сдвинуть пол или потолок сектора на dh,
// не задев плиты внутри сектора и не пробив соседние плиты у управляемых им секторов.
// Объекты не учитываются.
func CheckPlaneMove(sec *Sector, ceiling bool, dh float64) bool {
	if dh == 0 {
		return true
	}

	if ceiling && dh < 0 && sec.TopEF != nil && sec.CeilZ+dh < sec.TopEF.Top {
		return false
	}
	if !ceiling && dh > 0 && sec.BottomEF != nil && sec.FloorZ+dh > sec.BottomEF.Bottom {
		return false
	}

	// управляющий сектор не должен выворачиваться
	if len(sec.Controls) > 0 {
		if ceiling && sec.CeilZ+dh < sec.FloorZ {
			return false
		}
		if !ceiling && sec.FloorZ+dh > sec.CeilZ {
			return false
		}
	}

	for _, ef := range sec.Controls {
		if ef.Has(ExfloorLiquid) {
			continue
		}

		above := ef.Sector.CeilZ
		if ef.Higher != nil {
			above = ef.Higher.Bottom
		}
		below := ef.Sector.FloorZ
		if ef.Lower != nil {
			below = ef.Lower.Top
		}

		thick := ef.Has(ExfloorThick)
		switch {
		case !ceiling && !thick:
			h := ef.Top + dh
			if dh > 0 && h > above {
				return false
			}
			if dh < 0 && h < below {
				return false
			}

		case ceiling && thick:
			h := ef.Top + dh
			if dh < 0 && h < ef.Bottom {
				return false
			}
			if dh > 0 && h > above {
				return false
			}

		case !ceiling && thick:
			h := ef.Bottom + dh
			if dh > 0 && h > ef.Top {
				return false
			}
			if dh < 0 && h < below {
				return false
			}
		}
	}
	return true
}

// ShiftPlane сдвигает пол или потолок, пересчитывает промежутки и возвращает
// пространства, которые изменились. Проверку CheckPlaneMove делает вызывающий.
func (lvl *Level) ShiftPlane(sec *Sector, ceiling bool, dh float64) []PlaneChange {
	if dh == 0 {
		return nil
	}

	if ceiling {
		sec.CeilZ += dh
	} else {
		sec.FloorZ += dh
	}

	lvl.RecomputeGaps(sec)

	changes := make([]PlaneChange, 0, 1+len(sec.Controls))
	if ceiling {
		changes = append(changes, PlaneChange{Sector: sec, CeilDelta: dh})
	} else {
		changes = append(changes, PlaneChange{Sector: sec, FloorDelta: dh})
	}

	for _, ef := range sec.Controls {
		if ef.Has(ExfloorLiquid) {
			continue
		}

		thick := ef.Has(ExfloorThick)
		switch {
		case !ceiling && !thick:
			// тонкая плита: сверху пространство сжимается при подъёме, снизу - при опускании
			if dh > 0 {
				changes = append(changes, PlaneChange{Sector: ef.Sector, FloorDelta: dh})
			} else {
				changes = append(changes, PlaneChange{Sector: ef.Sector, CeilDelta: dh})
			}
		case ceiling && thick:
			changes = append(changes, PlaneChange{Sector: ef.Sector, FloorDelta: dh})
		case !ceiling && thick:
			changes = append(changes, PlaneChange{Sector: ef.Sector, CeilDelta: dh})
		}
	}

	lvl.log.Debug("сектор %d: %s сдвинут на %.1f, затронуто пространств: %d",
		sec.ID, planeName(ceiling), dh, len(changes))

	if sec.Closed() {
		crossing := 0
		lvl.SectorThings(sec, func(*Thing) bool {
			crossing++
			return true
		})
		if crossing > 0 {
			lvl.log.Warn("сектор %d закрылся (%.1f..%.1f), его пересекают объекты: %d",
				sec.ID, sec.FloorZ, sec.CeilZ, crossing)
		}
	}
	return changes
}

func planeName(ceiling bool) string {
	if ceiling {
		return "потолок"
	}
	return "пол"
}
