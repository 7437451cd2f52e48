package api

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ServerMetrics метрики процесса и хост-цикла
type ServerMetrics struct {
	StartTime time.Time

	mu        sync.Mutex
	ticks     uint64
	tickTotal time.Duration
	tickMax   time.Duration
	overruns  uint64
}

// TickStats сводка по кадрам хост-цикла
type TickStats struct {
	Count    uint64  `json:"count"`
	AvgMs    float64 `json:"avg_ms"`
	MaxMs    float64 `json:"max_ms"`
	Overruns uint64  `json:"overruns"` // Кадры, превысившие бюджет стриминга
}

// NewServerMetrics создает новый экземпляр метрик
func NewServerMetrics() *ServerMetrics {
	return &ServerMetrics{
		StartTime: time.Now(),
	}
}

// ObserveTick учитывает длительность работы стриминга за кадр
func (sm *ServerMetrics) ObserveTick(spent, budget time.Duration) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.ticks++
	sm.tickTotal += spent
	if spent > sm.tickMax {
		sm.tickMax = spent
	}
	if budget > 0 && spent > budget {
		sm.overruns++
	}
}

// TickStats возвращает сводку по кадрам
func (sm *ServerMetrics) TickStats() TickStats {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	stats := TickStats{
		Count:    sm.ticks,
		MaxMs:    float64(sm.tickMax) / float64(time.Millisecond),
		Overruns: sm.overruns,
	}
	if sm.ticks > 0 {
		stats.AvgMs = float64(sm.tickTotal) / float64(sm.ticks) / float64(time.Millisecond)
	}
	return stats
}

// GetUptime возвращает время работы сервера
func (sm *ServerMetrics) GetUptime() string {
	return formatUptime(time.Since(sm.StartTime))
}

func formatUptime(uptime time.Duration) string {
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// GetMemoryUsage возвращает использование памяти в MB
func (sm *ServerMetrics) GetMemoryUsage() (float64, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.Alloc) / 1024 / 1024, nil
}

// GetCPUUsage возвращает использование CPU процессом в процентах
func (sm *ServerMetrics) GetCPUUsage() (float64, error) {
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
