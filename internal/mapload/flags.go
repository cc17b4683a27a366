package mapload

import (
	"fmt"

	"github.com/annel0/mapclip/internal/world"
)

// flagName имя флага в документе
type flagName[F ~uint8 | ~uint16 | ~uint32] struct {
	name string
	flag F
}

var lineFlagNames = []flagName[world.LineFlags]{
	{"blocking", world.LineBlocking},
	{"block_monsters", world.LineBlockMonsters},
	{"sight_block", world.LineSightBlock},
	{"shoot_block", world.LineShootBlock},
}

var thingFlagNames = []flagName[world.ThingFlags]{
	{"solid", world.ThingSolid},
	{"shootable", world.ThingShootable},
	{"special", world.ThingSpecial},
	{"noclip", world.ThingNoClip},
	{"pickup", world.ThingPickup},
	{"missile", world.ThingMissile},
	{"dropoff", world.ThingDropoff},
	{"float", world.ThingFloat},
	{"teleport", world.ThingTeleport},
	{"corpse", world.ThingCorpse},
	{"touchy", world.ThingTouchy},
	{"skullfly", world.ThingSkullFly},
	{"dropped", world.ThingDropped},
	{"pass_missile", world.ThingPassMissile},
	{"cross_lines", world.ThingCrossLines},
	{"water_walker", world.ThingWaterWalker},
	{"climbable", world.ThingClimbable},
	{"tunnel", world.ThingTunnel},
	{"edge_walker", world.ThingEdgeWalker},
	{"invisible", world.ThingInvisible},
}

var extrafloorFlagNames = []flagName[world.ExtrafloorFlags]{
	{"thick", world.ExfloorThick},
	{"liquid", world.ExfloorLiquid},
	{"see_through", world.ExfloorSeeThrough},
	{"water", world.ExfloorWater},
}

var kindNames = map[string]world.Kind{
	"":        world.KindOther,
	"other":   world.KindOther,
	"monster": world.KindMonster,
	"player":  world.KindPlayer,
}

func parseFlags[F ~uint8 | ~uint16 | ~uint32](table []flagName[F], names []string) (F, error) {
	var out F
next:
	for _, n := range names {
		for _, fn := range table {
			if fn.name == n {
				out |= fn.flag
				continue next
			}
		}
		return 0, fmt.Errorf("unknown flag %q", n)
	}
	return out, nil
}

func flagNames[F ~uint8 | ~uint16 | ~uint32](table []flagName[F], flags F) []string {
	var out []string
	for _, fn := range table {
		if flags&fn.flag != 0 {
			out = append(out, fn.name)
		}
	}
	return out
}

func parseKind(s string) (world.Kind, error) {
	k, ok := kindNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown thing kind %q", s)
	}
	return k, nil
}
