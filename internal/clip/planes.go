package clip

import "github.com/annel0/mapclip/internal/world"

// CheckPlaneMove можно ли сдвинуть пол или потолок сектора на dh без учёта объектов
func (c *Clipper) CheckPlaneMove(sec *world.Sector, ceiling bool, dh float64) bool {
	return world.CheckPlaneMove(sec, ceiling, dh)
}

// MovePlane сдвигает пол или потолок сектора на dh и подгоняет по высоте все
// объекты в затронутых пространствах. nofit - кто-то не поместился; с crush
// такие объекты получают урон через хук Crush. Сдвиг, запрещённый плитами,
// не выполняется и тоже даёт nofit.
func (c *Clipper) MovePlane(sec *world.Sector, ceiling bool, dh float64, crush bool) (nofit bool, err error) {
	if !world.CheckPlaneMove(sec, ceiling, dh) {
		return true, nil
	}

	for _, change := range c.lvl.ShiftPlane(sec, ceiling, dh) {
		widening := change.Widening()

		c.lvl.SectorThings(change.Sector, func(t *world.Thing) bool {
			stuck, rerr := c.changeSectorThing(t, widening, crush)
			if rerr != nil {
				err = rerr
				return false
			}
			if stuck {
				nofit = true
			}
			return true
		})
		if err != nil {
			return nofit, err
		}
	}

	if nofit {
		c.log.Debug("сектор %d: после сдвига на %.1f не все объекты поместились", sec.ID, dh)
	}
	return nofit, nil
}

// changeSectorThing подгоняет объект под изменившееся пространство.
// true - объект мешает движению плоскости.
func (c *Clipper) changeSectorThing(t *world.Thing, widening, crush bool) (bool, error) {
	if c.ThingHeightClip(t) {
		return false, nil
	}

	// брошенные предметы просто исчезают
	if t.Has(world.ThingDropped) {
		return false, c.lvl.RemoveThing(t)
	}

	if t.Has(world.ThingCorpse) {
		if t.Kind == world.KindPlayer {
			return !widening, nil
		}
		// труп сплющивается и больше никому не мешает
		t.Flags &^= world.ThingSolid
		t.Height = 0
		t.Radius = 0
		return false, nil
	}

	if !t.Has(world.ThingShootable) || t.Has(world.ThingNoClip) {
		return false, nil
	}

	if crush {
		c.hooks.Crush(t, c.crushDamage)
	}
	return !widening, nil
}
