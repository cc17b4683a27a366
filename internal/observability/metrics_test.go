package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newCounter() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "test_total",
		Help:      "Тестовый счётчик.",
	})
}

func TestRegisterCounter_ReusesExisting(t *testing.T) {
	reg := prometheus.NewRegistry()

	a := RegisterCounter(reg, newCounter())
	b := RegisterCounter(reg, newCounter())

	a.Inc()
	b.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(a), "второй счётчик должен совпасть с первым")
}

func TestRegisterCounter_NilRegistry(t *testing.T) {
	c := RegisterCounter(nil, newCounter())
	c.Add(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(c))
}

func TestRegisterCounterVec(t *testing.T) {
	reg := prometheus.NewRegistry()
	opts := prometheus.CounterOpts{Namespace: Namespace, Name: "vec_total", Help: "Тест."}

	a := RegisterCounterVec(reg, prometheus.NewCounterVec(opts, []string{"result"}))
	b := RegisterCounterVec(reg, prometheus.NewCounterVec(opts, []string{"result"}))

	a.WithLabelValues("ok").Inc()
	b.WithLabelValues("ok").Inc()
	assert.Equal(t, 2.0, testutil.ToFloat64(a.WithLabelValues("ok")))
}
