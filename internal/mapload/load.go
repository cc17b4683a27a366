// Package mapload читает и пишет YAML документы уровней (опционально сжатые zstd)
// и переводит их в world.LevelDef. Перед разбором документ проверяется JSON схемой.
package mapload

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/annel0/mapclip/internal/logging"
	"github.com/annel0/mapclip/internal/observability"
	"github.com/annel0/mapclip/internal/world"
	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gopkg.in/yaml.v3"
)

// CompressedExt расширение сжатых документов
const CompressedExt = ".zst"

// ErrSchema документ не соответствует схеме уровня
var ErrSchema = errors.New("mapload: level document violates schema")

//go:embed level.schema.json
var schemaSource string

var levelSchema = jsonschema.MustCompileString("level.schema.json", schemaSource)

// Load читает документ уровня из файла. Файлы с расширением .zst распаковываются.
func Load(ctx context.Context, path string) (world.LevelDef, error) {
	_, span := observability.Tracer("mapload").Start(ctx, "mapload.Load")
	defer span.End()
	span.SetAttributes(attribute.String("level.path", path))

	def, size, err := load(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return world.LevelDef{}, err
	}

	span.SetAttributes(
		attribute.String("level.name", def.Name),
		attribute.Int("level.bytes", size),
		attribute.Int("level.lines", len(def.Lines)),
	)
	logging.GetMapLoadLogger().Info("📂 Загружен уровень %q из %s: %d вершин, %d линий, %d секторов, %d объектов",
		def.Name, path, len(def.Vertices), len(def.Lines), len(def.Sectors), len(def.Things))
	return def, nil
}

func load(path string) (world.LevelDef, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return world.LevelDef{}, 0, fmt.Errorf("read level %s: %w", path, err)
	}

	if strings.HasSuffix(path, CompressedExt) {
		if data, err = decompress(data); err != nil {
			return world.LevelDef{}, 0, fmt.Errorf("decompress level %s: %w", path, err)
		}
	}

	def, err := Parse(data)
	if err != nil {
		return world.LevelDef{}, 0, fmt.Errorf("level %s: %w", path, err)
	}
	return def, len(data), nil
}

// Parse проверяет YAML документ схемой и переводит его в описание уровня
func Parse(data []byte) (world.LevelDef, error) {
	if err := Validate(data); err != nil {
		return world.LevelDef{}, err
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return world.LevelDef{}, fmt.Errorf("decode level: %w", err)
	}
	return doc.levelDef()
}

// Validate проверяет документ схемой уровня. Нарушения оборачивают ErrSchema.
func Validate(data []byte) error {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse level yaml: %w", err)
	}

	// схема работает с JSON значениями, YAML дерево переводим через JSON
	js, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(js))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}

	if err := levelSchema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}

// Encode сериализует описание уровня в YAML
func Encode(def world.LevelDef) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fromLevelDef(def)); err != nil {
		return nil, fmt.Errorf("encode level %q: %w", def.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save пишет описание уровня в файл; при расширении .zst документ сжимается
func Save(ctx context.Context, path string, def world.LevelDef) error {
	_, span := observability.Tracer("mapload").Start(ctx, "mapload.Save")
	defer span.End()
	span.SetAttributes(attribute.String("level.path", path), attribute.String("level.name", def.Name))

	data, err := Encode(def)
	if err == nil && strings.HasSuffix(path, CompressedExt) {
		data, err = compress(data)
	}
	if err == nil {
		err = os.WriteFile(path, data, 0o644)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("save level %s: %w", path, err)
	}

	span.SetAttributes(attribute.Int("level.bytes", len(data)))
	logging.GetMapLoadLogger().Info("💾 Уровень %q сохранён в %s (%d байт)", def.Name, path, len(data))
	return nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

func compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}
