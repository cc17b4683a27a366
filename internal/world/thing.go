package world

import (
	"math"

	"github.com/annel0/mapclip/internal/physics"
	"github.com/annel0/mapclip/internal/vec"
)

// ThingID индекс слота объекта на уровне
type ThingID int32

// NoThing пустой дескриптор объекта
const NoThing ThingID = -1

const (
	// OnFloorZ при спавне ставит объект на пол выбранного промежутка
	OnFloorZ = -math.MaxFloat64
	// OnCeilingZ при спавне подвешивает объект под потолок
	OnCeilingZ = math.MaxFloat64
)

// Kind влияет на правила линий (BlockMonsters) и на выборку высот при проверке видимости
type Kind uint8

const (
	KindOther Kind = iota
	KindMonster
	KindPlayer
)

func (k Kind) String() string {
	switch k {
	case KindMonster:
		return "monster"
	case KindPlayer:
		return "player"
	default:
		return "other"
	}
}

// ThingFlags свойства объекта, которые читает клиппер
type ThingFlags uint32

const (
	ThingSolid ThingFlags = 1 << iota
	ThingShootable
	ThingSpecial // подбираемый предмет
	ThingNoClip
	ThingPickup // может подбирать предметы
	ThingMissile
	ThingDropoff // может сходить с уступов
	ThingFloat
	ThingTeleport
	ThingCorpse
	ThingTouchy
	ThingSkullFly
	ThingDropped
	ThingPassMissile
	ThingCrossLines
	ThingWaterWalker
	ThingClimbable
	ThingTunnel
	ThingEdgeWalker
	ThingInvisible
)

// Thing подвижный объект уровня
type Thing struct {
	ID   ThingID
	Kind Kind

	Pos vec.Vec3Float
	Mom vec.Vec3Float

	Radius     float64
	Height     float64
	StepSize   float64
	ViewHeight float64 // доля высоты, на которой находятся "глаза"
	SightSlope float64 // 0 - без ограничения вертикального обзора

	Flags ThingFlags

	// производные от последнего принятого перемещения
	FloorZ   float64
	CeilZ    float64
	DropoffZ float64
	Above    *Thing
	Below    *Thing

	// Source владелец снаряда, его снаряд не задевает
	Source *Thing

	Sector *Sector

	touchHead touchID
	placed    bool
}

// Has проверяет наличие всех флагов f
func (t *Thing) Has(f ThingFlags) bool {
	return t.Flags&f == f
}

// Any проверяет наличие хотя бы одного из флагов f
func (t *Thing) Any(f ThingFlags) bool {
	return t.Flags&f != 0
}

// Placed сообщает, связан ли объект с сеткой и секторами
func (t *Thing) Placed() bool {
	return t.placed
}

// Box футпринт объекта
func (t *Thing) Box() physics.BBox {
	return physics.BoxAround(t.Pos.X, t.Pos.Y, t.Radius)
}

// Top высота макушки
func (t *Thing) Top() float64 {
	return t.Pos.Z + t.Height
}

// ThingDef описание объекта для спавна
type ThingDef struct {
	Kind       Kind
	X, Y, Z    float64
	Radius     float64
	Height     float64
	StepSize   float64
	ViewHeight float64
	SightSlope float64
	Flags      ThingFlags
}
