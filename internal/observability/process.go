package observability

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats потребление ресурсов текущим процессом
type ProcessStats struct {
	StartTime time.Time
}

// NewProcessStats начинает отсчёт времени работы
func NewProcessStats() *ProcessStats {
	return &ProcessStats{
		StartTime: time.Now(),
	}
}

// Uptime время с момента создания
func (ps *ProcessStats) Uptime() time.Duration {
	return time.Since(ps.StartTime)
}

// CPUPercent использование CPU процессом в процентах
func (ps *ProcessStats) CPUPercent() (float64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		// Если не удалось получить метрику процесса, попробуем системную
		cpuPercents, err := cpu.Percent(100*time.Millisecond, false)
		if err != nil || len(cpuPercents) == 0 {
			return 0, err
		}
		return cpuPercents[0], nil
	}
	return cpuPercent, nil
}

// RSSMB резидентная память процесса в MB
func (ps *ProcessStats) RSSMB() (float64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return float64(mem.RSS) / 1024 / 1024, nil
}

// HeapStats статистика кучи Go
func (ps *ProcessStats) HeapStats() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"alloc_mb":       float64(m.Alloc) / 1024 / 1024,
		"total_alloc_mb": float64(m.TotalAlloc) / 1024 / 1024,
		"heap_alloc_mb":  float64(m.HeapAlloc) / 1024 / 1024,
		"num_gc":         m.NumGC,
	}
}

// CounterValues снимает значения всех счётчиков с префиксом Namespace.
// Ключ - имя метрики с метками в виде name{k="v"}.
func CounterValues(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), Namespace+"_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}

			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			sort.Strings(labels)

			key := mf.GetName()
			if len(labels) > 0 {
				key += "{" + strings.Join(labels, ",") + "}"
			}
			out[key] = m.GetCounter().GetValue()
		}
	}
	return out, nil
}
