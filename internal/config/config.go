package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации.
// Нулевые значения полей означают "взять из окружения или по умолчанию".
type Config struct {
	Physics   PhysicsConfig   `yaml:"physics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Bench     BenchConfig     `yaml:"bench"`
}

// PhysicsConfig параметры ядра столкновений
type PhysicsConfig struct {
	MaxTraceCells     int      `yaml:"max_trace_cells"`
	MaxTraceDepth     int      `yaml:"max_trace_depth"`
	DefaultStepSize   float64  `yaml:"default_step_size"`
	DefaultViewHeight float64  `yaml:"default_view_height"`
	True3DGameplay    *bool    `yaml:"true_3d_gameplay"`
	PassMissile       bool     `yaml:"pass_missile"`
	CrushDamage       int      `yaml:"crush_damage"`
	MaxThingRadius    *float64 `yaml:"max_thing_radius"`
}

// LoggingConfig параметры логирования
type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
	File  bool   `yaml:"file"`

	// Components уровни отдельных компонентов, например world: debug
	Components map[string]string `yaml:"components"`
}

// TelemetryConfig параметры OpenTelemetry
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// BenchConfig параметры нагрузочного прогона clipbench
type BenchConfig struct {
	Seed      int64  `yaml:"seed"`
	Things    int    `yaml:"things"`
	Ticks     int    `yaml:"ticks"`
	RoomsX    int    `yaml:"rooms_x"`
	RoomsY    int    `yaml:"rooms_y"`
	LevelPath string `yaml:"level_path"`
}

// GetMaxTraceCells предел числа ячеек, проходимых одной трассировкой
func (p *PhysicsConfig) GetMaxTraceCells() int {
	return getIntWithEnvFallback(p.MaxTraceCells, "MAPCLIP_MAX_TRACE_CELLS", 256)
}

// GetMaxTraceDepth предел вложенности трассировок
func (p *PhysicsConfig) GetMaxTraceDepth() int {
	return getIntWithEnvFallback(p.MaxTraceDepth, "MAPCLIP_MAX_TRACE_DEPTH", 4)
}

// GetDefaultStepSize высота ступеньки для объектов без собственной
func (p *PhysicsConfig) GetDefaultStepSize() float64 {
	return getFloatWithEnvFallback(p.DefaultStepSize, "MAPCLIP_STEP_SIZE", 24)
}

// GetDefaultViewHeight доля высоты, на которой находятся "глаза"
func (p *PhysicsConfig) GetDefaultViewHeight() float64 {
	return getFloatWithEnvFallback(p.DefaultViewHeight, "MAPCLIP_VIEW_HEIGHT", 0.75)
}

// GetTrue3DGameplay включает проверки "над/под" объектом
func (p *PhysicsConfig) GetTrue3DGameplay() bool {
	if p.True3DGameplay != nil {
		return *p.True3DGameplay
	}
	if envVal := os.Getenv("MAPCLIP_TRUE3D"); envVal != "" {
		if v, err := strconv.ParseBool(envVal); err == nil {
			return v
		}
	}
	return true
}

// GetCrushDamage урон за тик раздавливания по умолчанию
func (p *PhysicsConfig) GetCrushDamage() int {
	return getIntWithEnvFallback(p.CrushDamage, "MAPCLIP_CRUSH_DAMAGE", 10)
}

// GetMaxThingRadius начальный запас при поиске объектов в соседних ячейках
func (p *PhysicsConfig) GetMaxThingRadius() float64 {
	if p.MaxThingRadius != nil {
		return *p.MaxThingRadius
	}
	return 32
}

// GetServiceName имя сервиса для трассировки
func (t *TelemetryConfig) GetServiceName() string {
	if t.ServiceName != "" {
		return t.ServiceName
	}
	if envVal := os.Getenv("MAPCLIP_SERVICE_NAME"); envVal != "" {
		return envVal
	}
	return "mapclip"
}

// GetSampleRatio доля записываемых трасс, (0, 1]
func (t *TelemetryConfig) GetSampleRatio() float64 {
	r := getFloatWithEnvFallback(t.SampleRatio, "MAPCLIP_TRACE_SAMPLE_RATIO", 1)
	if r > 1 {
		return 1
	}
	return r
}

// GetThings число объектов в прогоне
func (b *BenchConfig) GetThings() int {
	return getIntWithEnvFallback(b.Things, "MAPCLIP_BENCH_THINGS", 200)
}

// GetTicks число тиков прогона
func (b *BenchConfig) GetTicks() int {
	return getIntWithEnvFallback(b.Ticks, "MAPCLIP_BENCH_TICKS", 350)
}

// GetRooms размер сетки комнат генерируемого уровня
func (b *BenchConfig) GetRooms() (int, int) {
	return getIntWithEnvFallback(b.RoomsX, "MAPCLIP_BENCH_ROOMS_X", 6),
		getIntWithEnvFallback(b.RoomsY, "MAPCLIP_BENCH_ROOMS_Y", 6)
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configVal int, envVar string, defaultVal int) int {
	// Если значение задано в конфиге и больше 0, используем его
	if configVal > 0 {
		return configVal
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}

	// Используем дефолтное значение
	return defaultVal
}

// getFloatWithEnvFallback то же для дробных значений
func getFloatWithEnvFallback(configVal float64, envVar string, defaultVal float64) float64 {
	if configVal > 0 {
		return configVal
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.ParseFloat(envVal, 64); err == nil && v > 0 {
			return v
		}
	}

	return defaultVal
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать путь из ENV MAPCLIP_CONFIG;
// если и он не задан, возвращает пустой конфиг (все значения по умолчанию).
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("MAPCLIP_CONFIG")
		if path == "" {
			return &Config{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	return &cfg, nil
}
