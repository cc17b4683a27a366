package clip

import (
	"github.com/annel0/mapclip/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// исходы попытки перемещения
const (
	resultOK       = "ok"
	resultBlocked  = "blocked"
	resultOffMap   = "off_map"
	resultNoRoom   = "no_room"
	resultCeiling  = "ceiling"
	resultStepUp   = "step_up"
	resultStepDown = "step_down"
	resultDropoff  = "dropoff"
)

type moveMetrics struct {
	moves *prometheus.CounterVec
}

func newMoveMetrics(reg prometheus.Registerer) *moveMetrics {
	return &moveMetrics{
		moves: observability.RegisterCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: observability.Namespace,
			Subsystem: "clip",
			Name:      "moves_total",
			Help:      "Попытки перемещения объектов по исходу.",
		}, []string{"result"})),
	}
}

func (m *moveMetrics) record(result string) {
	m.moves.WithLabelValues(result).Inc()
}
