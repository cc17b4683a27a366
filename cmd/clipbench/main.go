package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/annel0/mapclip/internal/bench"
	"github.com/annel0/mapclip/internal/config"
	"github.com/annel0/mapclip/internal/logging"
	"github.com/annel0/mapclip/internal/mapgen"
	"github.com/annel0/mapclip/internal/mapload"
	"github.com/annel0/mapclip/internal/observability"
	"github.com/annel0/mapclip/internal/world"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (default: $MAPCLIP_CONFIG)")
		levelPath  = flag.String("level", "", "Level document (.yaml or .yaml.zst); empty - generate")
		savePath   = flag.String("save", "", "Write the generated level to this path")
		seed       = flag.Int64("seed", 0, "Random seed (overrides config)")
		things     = flag.Int("things", 0, "Number of things (overrides config)")
		ticks      = flag.Int("ticks", 0, "Number of ticks (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	applyFlags(cfg, *levelPath, *seed, *things, *ticks)

	if err := setupLogging(cfg.Logging); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer func() { _ = logging.GetLoggerManager().CloseAll() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry)
		if err != nil {
			logging.Warn("⚠️ Трассировка отключена: %v", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	logging.Info("🎮 Запуск clipbench")
	if err := run(ctx, cfg, *savePath); err != nil {
		if world.IsContractError(err) {
			logging.Fatal("нарушение контракта ядра: %v", err)
		}
		logging.Fatal("%v", err)
	}
}

func applyFlags(cfg *config.Config, levelPath string, seed int64, things, ticks int) {
	if levelPath != "" {
		cfg.Bench.LevelPath = levelPath
	}
	if seed != 0 {
		cfg.Bench.Seed = seed
	}
	if things > 0 {
		cfg.Bench.Things = things
	}
	if ticks > 0 {
		cfg.Bench.Ticks = ticks
	}
}

func setupLogging(lc config.LoggingConfig) error {
	if lc.File {
		dir := lc.Dir
		if dir == "" {
			dir = "logs"
		}
		logging.EnableFileOutput(dir)
	}
	if err := logging.InitDefaultLogger("clipbench"); err != nil {
		return err
	}

	return logging.GetLoggerManager().Configure(lc.Level, lc.Components)
}

func run(ctx context.Context, cfg *config.Config, savePath string) error {
	def, err := levelDef(ctx, cfg.Bench, savePath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	lvl, err := world.NewLevel(ctx, def, world.Options{
		Physics:    &cfg.Physics,
		Registerer: reg,
		Logger:     logging.GetWorldLogger(),
	})
	if err != nil {
		return fmt.Errorf("build level: %w", err)
	}

	runner, err := bench.NewRunner(lvl, bench.Options{
		Things:     cfg.Bench.GetThings(),
		Seed:       cfg.Bench.Seed,
		Registerer: reg,
	})
	if err != nil {
		return fmt.Errorf("spawn things: %w", err)
	}

	stats := observability.NewProcessStats()
	rep, err := runner.Run(ctx, cfg.Bench.GetTicks())
	if err != nil && ctx.Err() == nil {
		return err
	}

	printReport(rep)
	printCounters(reg)
	printProcess(stats)
	return nil
}

// levelDef загружает уровень из файла или генерирует новый
func levelDef(ctx context.Context, bc config.BenchConfig, savePath string) (world.LevelDef, error) {
	if bc.LevelPath != "" {
		return mapload.Load(ctx, bc.LevelPath)
	}

	rx, ry := bc.GetRooms()
	def, err := mapgen.NewGenerator(bc.Seed, rx, ry).Generate()
	if err != nil {
		return def, err
	}
	logging.Info("🧱 Сгенерирован уровень %q: %d секторов, %d линий", def.Name, len(def.Sectors), len(def.Lines))

	if savePath != "" {
		if err := mapload.Save(ctx, savePath, def); err != nil {
			return def, err
		}
	}
	return def, nil
}

func printReport(rep bench.Report) {
	fmt.Printf("run %s on %q: %d ticks, %d things, %s\n", rep.RunID, rep.Level, rep.Ticks, rep.Things, rep.Elapsed)
	fmt.Printf("  moves:   %d ok, %d slid, %d blocked\n", rep.Moves, rep.Slides, rep.Blocked)
	fmt.Printf("  sight:   %d checks, %d visible\n", rep.SightChecks, rep.Visible)
	fmt.Printf("  planes:  %d moves, %d stops, %d crushed\n", rep.PlaneMoves, rep.PlaneStops, rep.Crushed)
	fmt.Printf("  hooks:   %d special lines, %d pickups\n", rep.Specials, rep.Touches)
}

func printCounters(reg *prometheus.Registry) {
	values, err := observability.CounterValues(reg)
	if err != nil {
		logging.Warn("не удалось снять метрики: %v", err)
		return
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println("counters:")
	for _, k := range keys {
		fmt.Printf("  %-56s %.0f\n", k, values[k])
	}
}

func printProcess(stats *observability.ProcessStats) {
	cpu, err := stats.CPUPercent()
	if err != nil {
		logging.Warn("не удалось получить CPU: %v", err)
	}
	rss, err := stats.RSSMB()
	if err != nil {
		logging.Warn("не удалось получить RSS: %v", err)
	}
	heap := stats.HeapStats()

	fmt.Printf("process: cpu %.1f%%, rss %.1f MB, heap %.1f MB, gc %v, uptime %s\n",
		cpu, rss, heap["heap_alloc_mb"], heap["num_gc"], stats.Uptime())
}
