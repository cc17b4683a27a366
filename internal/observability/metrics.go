package observability

import (
	"errors"

	"github.com/annel0/mapclip/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace общий префикс метрик
const Namespace = "mapclip"

// RegisterCounter регистрирует счётчик в reg. Если такой счётчик уже есть
// (например, второй уровень в том же процессе), возвращается существующий.
// reg == nil означает "не регистрировать".
func RegisterCounter(reg prometheus.Registerer, c prometheus.Counter) prometheus.Counter {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
		logging.Warn("не удалось зарегистрировать метрику: %v", err)
	}
	return c
}

// RegisterCounterVec то же для векторов счётчиков
func RegisterCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		logging.Warn("не удалось зарегистрировать метрику: %v", err)
	}
	return c
}
