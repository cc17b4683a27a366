package mapload

import (
	"encoding/hex"
	"fmt"

	"github.com/annel0/mapclip/internal/vec"
	"github.com/annel0/mapclip/internal/world"
	"gopkg.in/yaml.v3"
)

// document YAML представление уровня
type document struct {
	Name        string       `yaml:"name"`
	Vertices    [][2]float64 `yaml:"vertices"`
	Sectors     []sectorDoc  `yaml:"sectors"`
	Lines       []lineDoc    `yaml:"lines"`
	Things      []thingDoc   `yaml:"things,omitempty"`
	Reject      string       `yaml:"reject,omitempty"`
	BuildReject bool         `yaml:"build_reject,omitempty"`
}

type sectorDoc struct {
	Floor float64 `yaml:"floor"`
	Ceil  float64 `yaml:"ceil"`
	Tag   int     `yaml:"tag,omitempty"`
}

type lineDoc struct {
	V1         int            `yaml:"v1"`
	V2         int            `yaml:"v2"`
	Front      int            `yaml:"front"`
	Back       *int           `yaml:"back,omitempty"`
	Flags      []string       `yaml:"flags,omitempty,flow"`
	Special    int            `yaml:"special,omitempty"`
	Tag        int            `yaml:"tag,omitempty"`
	Extrafloor *extrafloorDoc `yaml:"extrafloor,omitempty"`
	Slider     *sliderDoc     `yaml:"slider,omitempty"`
}

type extrafloorDoc struct {
	Flags []string `yaml:"flags,flow"`
}

type sliderDoc struct {
	SeeThrough bool `yaml:"see_through,omitempty"`
}

type thingDoc struct {
	Kind       string   `yaml:"kind,omitempty"`
	X          float64  `yaml:"x"`
	Y          float64  `yaml:"y"`
	Z          zValue   `yaml:"z,omitempty"`
	Radius     float64  `yaml:"radius"`
	Height     float64  `yaml:"height"`
	StepSize   float64  `yaml:"step_size,omitempty"`
	ViewHeight float64  `yaml:"view_height,omitempty"`
	SightSlope float64  `yaml:"sight_slope,omitempty"`
	Flags      []string `yaml:"flags,omitempty,flow"`
}

// zValue высота спавна: число или "floor" / "ceiling"
type zValue float64

func (z *zValue) UnmarshalYAML(n *yaml.Node) error {
	switch n.Value {
	case "floor":
		*z = zValue(world.OnFloorZ)
		return nil
	case "ceiling":
		*z = zValue(world.OnCeilingZ)
		return nil
	}

	var f float64
	if err := n.Decode(&f); err != nil {
		return fmt.Errorf("z: %w", err)
	}
	*z = zValue(f)
	return nil
}

func (z zValue) MarshalYAML() (interface{}, error) {
	switch float64(z) {
	case world.OnFloorZ:
		return "floor", nil
	case world.OnCeilingZ:
		return "ceiling", nil
	}
	return float64(z), nil
}

func (z zValue) IsZero() bool {
	return z == 0
}

// levelDef переводит документ в описание уровня. Индексы не проверяются:
// это делает world.NewLevel.
func (d *document) levelDef() (world.LevelDef, error) {
	def := world.LevelDef{
		Name:        d.Name,
		BuildReject: d.BuildReject,
	}

	for _, v := range d.Vertices {
		def.Vertices = append(def.Vertices, vec.Vec2Float{X: v[0], Y: v[1]})
	}
	for _, s := range d.Sectors {
		def.Sectors = append(def.Sectors, world.SectorDef{Floor: s.Floor, Ceil: s.Ceil, Tag: s.Tag})
	}

	for i, ld := range d.Lines {
		flags, err := parseFlags(lineFlagNames, ld.Flags)
		if err != nil {
			return def, fmt.Errorf("line %d: %w", i, err)
		}

		out := world.LineDef{
			V1:      ld.V1,
			V2:      ld.V2,
			Front:   ld.Front,
			Back:    -1,
			Flags:   flags,
			Special: ld.Special,
			Tag:     ld.Tag,
		}
		if ld.Back != nil {
			out.Back = *ld.Back
		}
		if ld.Extrafloor != nil {
			ef, err := parseFlags(extrafloorFlagNames, ld.Extrafloor.Flags)
			if err != nil {
				return def, fmt.Errorf("line %d extrafloor: %w", i, err)
			}
			out.Extrafloor = &world.ExtrafloorDef{Flags: ef}
		}
		if ld.Slider != nil {
			out.Slider = &world.SliderDef{SeeThrough: ld.Slider.SeeThrough}
		}
		def.Lines = append(def.Lines, out)
	}

	for i, td := range d.Things {
		kind, err := parseKind(td.Kind)
		if err != nil {
			return def, fmt.Errorf("thing %d: %w", i, err)
		}
		flags, err := parseFlags(thingFlagNames, td.Flags)
		if err != nil {
			return def, fmt.Errorf("thing %d: %w", i, err)
		}

		def.Things = append(def.Things, world.ThingDef{
			Kind:       kind,
			X:          td.X,
			Y:          td.Y,
			Z:          float64(td.Z),
			Radius:     td.Radius,
			Height:     td.Height,
			StepSize:   td.StepSize,
			ViewHeight: td.ViewHeight,
			SightSlope: td.SightSlope,
			Flags:      flags,
		})
	}

	if d.Reject != "" {
		data, err := hex.DecodeString(d.Reject)
		if err != nil {
			return def, fmt.Errorf("reject: %w", err)
		}
		def.Reject = data
	}
	return def, nil
}

// fromLevelDef обратное преобразование для сохранения сгенерированных уровней
func fromLevelDef(def world.LevelDef) *document {
	d := &document{
		Name:        def.Name,
		BuildReject: def.BuildReject,
	}

	for _, v := range def.Vertices {
		d.Vertices = append(d.Vertices, [2]float64{v.X, v.Y})
	}
	for _, s := range def.Sectors {
		d.Sectors = append(d.Sectors, sectorDoc{Floor: s.Floor, Ceil: s.Ceil, Tag: s.Tag})
	}

	for _, ld := range def.Lines {
		out := lineDoc{
			V1:      ld.V1,
			V2:      ld.V2,
			Front:   ld.Front,
			Flags:   flagNames(lineFlagNames, ld.Flags),
			Special: ld.Special,
			Tag:     ld.Tag,
		}
		if ld.Back >= 0 {
			back := ld.Back
			out.Back = &back
		}
		if ld.Extrafloor != nil {
			out.Extrafloor = &extrafloorDoc{Flags: flagNames(extrafloorFlagNames, ld.Extrafloor.Flags)}
		}
		if ld.Slider != nil {
			out.Slider = &sliderDoc{SeeThrough: ld.Slider.SeeThrough}
		}
		d.Lines = append(d.Lines, out)
	}

	for _, td := range def.Things {
		d.Things = append(d.Things, thingDoc{
			Kind:       td.Kind.String(),
			X:          td.X,
			Y:          td.Y,
			Z:          zValue(td.Z),
			Radius:     td.Radius,
			Height:     td.Height,
			StepSize:   td.StepSize,
			ViewHeight: td.ViewHeight,
			SightSlope: td.SightSlope,
			Flags:      flagNames(thingFlagNames, td.Flags),
		})
	}

	if def.Reject != nil {
		d.Reject = hex.EncodeToString(def.Reject)
	}
	return d
}
