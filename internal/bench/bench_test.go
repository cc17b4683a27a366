package bench

import (
	"context"
	"strings"
	"testing"

	"github.com/annel0/mapclip/internal/mapgen"
	"github.com/annel0/mapclip/internal/observability"
	"github.com/annel0/mapclip/internal/world"
	"github.com/annel0/mapclip/internal/world/worldtest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_GeneratedLevel(t *testing.T) {
	def, err := mapgen.NewGenerator(3, 3, 3).Generate()
	require.NoError(t, err)
	lvl := worldtest.Build(t, def)

	reg := prometheus.NewRegistry()
	r, err := NewRunner(lvl, Options{Things: 30, Seed: 3, Registerer: reg})
	require.NoError(t, err)
	require.NotZero(t, r.report.Things)

	rep, err := r.Run(context.Background(), 40)
	require.NoError(t, err)

	assert.Equal(t, 40, rep.Ticks)
	assert.Positive(t, rep.PlaneMoves)
	assert.LessOrEqual(t, rep.PlaneMoves, 40)
	assert.Positive(t, rep.SightChecks)
	assert.Positive(t, rep.Moves)
	assert.LessOrEqual(t, rep.Moves+rep.Slides+rep.Blocked, 40*rep.Things)

	values, err := observability.CounterValues(reg)
	require.NoError(t, err)
	// скольжение может сделать несколько удачных TryMove за один шаг
	assert.GreaterOrEqual(t, values[`mapclip_clip_moves_total{result="ok"}`], float64(rep.Moves+rep.Slides))
	assert.Equal(t, float64(rep.SightChecks), sumPrefix(values, "mapclip_sight_checks_total"))
}

func sumPrefix(values map[string]float64, prefix string) float64 {
	var sum float64
	for k, v := range values {
		if strings.HasPrefix(k, prefix) {
			sum += v
		}
	}
	return sum
}

func TestRunner_Crusher(t *testing.T) {
	lvl := worldtest.Build(t, worldtest.TwoRooms(0))
	r, err := NewRunner(lvl, Options{Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)

	th, err := lvl.SpawnThing(world.ThingDef{
		Kind: world.KindMonster, X: 100, Y: 100, Radius: 16, Height: 56,
		Flags: world.ThingSolid | world.ThingShootable,
	})
	require.NoError(t, err)
	r.movers = append(r.movers, th)

	rep, err := r.Run(context.Background(), 25)
	require.NoError(t, err)

	// на тике 18 потолок 52 не пропускает высоту 56
	assert.Equal(t, 1, rep.Crushed)
	assert.Equal(t, 1, rep.PlaneStops)
	assert.Equal(t, 25, rep.PlaneMoves)
	assert.True(t, th.Has(world.ThingCorpse))
	assert.Equal(t, 80.0, lvl.Sectors[0].CeilZ, "после отката потолок пошёл вверх")
	assert.Equal(t, 19, rep.Moves, "труп больше не ходит")
}

func TestRunner_Cancelled(t *testing.T) {
	lvl := worldtest.Build(t, worldtest.Field())
	r, err := NewRunner(lvl, Options{Things: 5, Seed: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := r.Run(ctx, 10)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, rep.Ticks)
}
