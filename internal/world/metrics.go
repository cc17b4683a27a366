package world

import (
	"github.com/annel0/mapclip/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// touchMetrics счётчики перелинковки узлов касаний
type touchMetrics struct {
	moves  prometheus.Counter
	hits   prometheus.Counter
	misses prometheus.Counter
	allocs prometheus.Counter
	reused prometheus.Counter
	frees  prometheus.Counter
}

func newTouchMetrics(reg prometheus.Registerer) *touchMetrics {
	counter := func(name, help string) prometheus.Counter {
		return observability.RegisterCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: observability.Namespace,
			Subsystem: "touch",
			Name:      name,
			Help:      help,
		}))
	}

	return &touchMetrics{
		moves:  counter("moves_total", "Число установок позиции объектов."),
		hits:   counter("hits_total", "Мёртвые узлы, переиспользованные для того же сектора."),
		misses: counter("misses_total", "Мёртвые узлы, перенаправленные на другой сектор."),
		allocs: counter("allocs_total", "Новые узлы, выделенные в арене."),
		reused: counter("reused_total", "Узлы, взятые из списка свободных."),
		frees:  counter("frees_total", "Узлы, возвращённые в список свободных."),
	}
}
