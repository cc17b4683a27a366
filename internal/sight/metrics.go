package sight

import (
	"github.com/annel0/mapclip/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultVisible   = "visible"
	resultBlocked   = "blocked"
	resultReject    = "reject"
	resultInvisible = "invisible"
	resultSlope     = "out_of_slope"
)

type sightMetrics struct {
	checks *prometheus.CounterVec
	reject *prometheus.CounterVec
}

func newSightMetrics(reg prometheus.Registerer) *sightMetrics {
	return &sightMetrics{
		checks: observability.RegisterCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: observability.Namespace,
			Subsystem: "sight",
			Name:      "checks_total",
			Help:      "Проверки видимости по исходу.",
		}, []string{"result"})),
		reject: observability.RegisterCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: observability.Namespace,
			Subsystem: "sight",
			Name:      "reject_total",
			Help:      "Обращения к таблице отсечения: hit - пара заведомо невидима.",
		}, []string{"outcome"})),
	}
}

func (m *sightMetrics) done(result string, visible bool) bool {
	m.checks.WithLabelValues(result).Inc()
	return visible
}
