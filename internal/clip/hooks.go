package clip

import "github.com/annel0/mapclip/internal/world"

// Hooks игровые реакции на контакты. Клиппер только решает, можно ли двигаться,
// а что происходит при касании, определяет вызывающая сторона.
type Hooks interface {
	// TouchSpecial объект с Pickup задел предмет
	TouchSpecial(special, toucher *world.Thing)
	// TouchyContact кто-то задел объект с Touchy
	TouchyContact(touchy, mover *world.Thing)
	// MissileContact снаряд задел цель. false - снаряд пролетает насквозь.
	MissileContact(missile, target *world.Thing) bool
	// SlammedInto летящий объект врезался в препятствие
	SlammedInto(mover, target *world.Thing)
	// CrossSpecialLine объект пересёк линию со спецэффектом; side - сторона до пересечения
	CrossSpecialLine(l *world.Line, side int, t *world.Thing)
	// ShootSpecialLine снаряд пересёк линию со спецэффектом, source - стрелявший
	ShootSpecialLine(l *world.Line, side int, source *world.Thing)
	// Stomp телепорт хочет занять место жертвы. false запрещает телепортацию.
	Stomp(victim, mover *world.Thing) bool
	// Crush объект зажат движущейся плоскостью
	Crush(t *world.Thing, damage int)
}

// NopHooks ничего не делает: снаряды всегда попадают, телепорт всегда разрешён
type NopHooks struct{}

func (NopHooks) TouchSpecial(special, toucher *world.Thing) {}
func (NopHooks) TouchyContact(touchy, mover *world.Thing) {}
func (NopHooks) MissileContact(missile, target *world.Thing) bool { return true }
func (NopHooks) SlammedInto(mover, target *world.Thing) {}
func (NopHooks) CrossSpecialLine(l *world.Line, side int, t *world.Thing) {}
func (NopHooks) ShootSpecialLine(l *world.Line, side int, s *world.Thing) {}
func (NopHooks) Stomp(victim, mover *world.Thing) bool { return true }
func (NopHooks) Crush(t *world.Thing, damage int) {}
