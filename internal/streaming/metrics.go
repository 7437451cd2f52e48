package streaming

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics счётчики стриминга террейна.
//
// Метрики:
// * terrain_active_chunks, terrain_pool_idle, terrain_pool_live (gauge)
// * terrain_cycles_total, terrain_interrupts_total (counter)
// * terrain_chunks_generated_total, terrain_chunks_evicted_total, terrain_chunk_failures_total (counter)
// * terrain_compile_seconds (histogram)
type Metrics struct {
	ActiveChunks   prometheus.Gauge
	PoolIdle       prometheus.Gauge
	PoolLive       prometheus.Gauge
	Cycles         prometheus.Counter
	Interrupts     prometheus.Counter
	Generated      prometheus.Counter
	Evicted        prometheus.Counter
	Failures       prometheus.Counter
	CompileSeconds prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в reg (при nil без регистрации)
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ActiveChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "terrain_active_chunks",
			Help: "Количество активных чанков.",
		}),
		PoolIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "terrain_pool_idle",
			Help: "Контейнеры, лежащие в пуле.",
		}),
		PoolLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "terrain_pool_live",
			Help: "Созданные и не уничтоженные контейнеры.",
		}),
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terrain_cycles_total",
			Help: "Запущенные циклы стриминга.",
		}),
		Interrupts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terrain_interrupts_total",
			Help: "Циклы, прерванные сменой центра.",
		}),
		Generated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terrain_chunks_generated_total",
			Help: "Активированные чанки.",
		}),
		Evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terrain_chunks_evicted_total",
			Help: "Чанки, возвращённые в пул.",
		}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "terrain_chunk_failures_total",
			Help: "Чанки, пропущенные из-за ошибки.",
		}),
		CompileSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "terrain_compile_seconds",
			Help:    "Время генерации одного чанка.",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}

	if reg != nil {
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ActiveChunks, m.PoolIdle, m.PoolLive,
		m.Cycles, m.Interrupts, m.Generated, m.Evicted, m.Failures,
		m.CompileSeconds,
	}
}
