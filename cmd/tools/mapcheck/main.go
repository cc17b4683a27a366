package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/annel0/mapclip/internal/config"
	"github.com/annel0/mapclip/internal/logging"
	"github.com/annel0/mapclip/internal/mapload"
	"github.com/annel0/mapclip/internal/world"
)

func main() {
	var (
		strict      = flag.Bool("strict", false, "Treat warnings as errors")
		buildReject = flag.Bool("build-reject", false, "Build a reject table when the document has none")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] level.yaml[.zst]...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// в выводе только отчёт, логи уровня - только ошибки
	logging.GetLoggerManager().SetGlobalLevel(logging.ERROR)

	failed := false
	for _, path := range flag.Args() {
		warnings, err := check(context.Background(), path, *buildReject, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %s: %v\n", path, err)
			failed = true
			continue
		}
		if warnings > 0 && *strict {
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}

// check загружает и строит уровень, печатает статистику. Возвращает число предупреждений.
func check(ctx context.Context, path string, buildReject bool, w io.Writer) (int, error) {
	def, err := mapload.Load(ctx, path)
	if err != nil {
		return 0, err
	}
	if buildReject && def.Reject == nil {
		def.BuildReject = true
	}

	lvl, err := world.NewLevel(ctx, def, world.Options{
		Physics: &config.PhysicsConfig{},
		Logger:  logging.GetWorldLogger(),
	})
	if err != nil {
		return 0, err
	}

	fmt.Fprintf(w, "%s: level %q\n", path, lvl.Name)
	fmt.Fprintf(w, "  geometry:  %d vertices, %d lines, %d sectors, %d extrafloors, %d things\n",
		len(lvl.Vertices), len(lvl.Lines), len(lvl.Sectors), len(lvl.Extrafloors), lvl.LiveThings())

	st := lvl.Blockmap.Stats()
	fmt.Fprintf(w, "  blockmap:  %dx%d cells (%d empty), %d entries, longest list %d\n",
		st.Width, st.Height, st.EmptyCells, st.Entries, st.LongestList)

	twoSided, blocked, multiGap := 0, 0, 0
	for _, l := range lvl.Lines {
		if !l.TwoSided() {
			continue
		}
		twoSided++
		if l.Blocked {
			blocked++
		}
		if len(l.Gaps) > 1 {
			multiGap++
		}
	}
	fmt.Fprintf(w, "  gaps:      %d two-sided lines, %d closed, %d with several gaps\n", twoSided, blocked, multiGap)

	if lvl.Reject != nil {
		n := lvl.Reject.Sectors()
		fmt.Fprintf(w, "  reject:    %d of %d sector pairs hidden\n", lvl.Reject.HiddenPairs(), n*n)
	} else {
		fmt.Fprintf(w, "  reject:    none\n")
	}

	warnings := 0
	for _, s := range lvl.Sectors {
		switch {
		case len(s.Lines) == 0:
			fmt.Fprintf(w, "  ⚠️ sector %d has no lines\n", s.ID)
			warnings++
		case s.Closed() && len(s.Controls) == 0:
			fmt.Fprintf(w, "  ⚠️ sector %d is closed (floor %.0f, ceiling %.0f)\n", s.ID, s.FloorZ, s.CeilZ)
			warnings++
		case len(s.SightGaps) == 0 && len(s.Controls) == 0:
			fmt.Fprintf(w, "  ⚠️ sector %d has no visible space\n", s.ID)
			warnings++
		}
	}
	return warnings, nil
}
