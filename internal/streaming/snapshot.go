package streaming

import (
	"time"

	"github.com/annel0/voxel-terrain/internal/pool"
	"github.com/annel0/voxel-terrain/internal/vec"
)

// State состояние цикла стриминга
type State int

const (
	StateIdle State = iota
	StateDiffing
	StateEvicting
	StateGenerating
	StateInterrupted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDiffing:
		return "diffing"
	case StateEvicting:
		return "evicting"
	case StateGenerating:
		return "generating"
	case StateInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// MarshalText для JSON
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot неизменяемый снимок менеджера для чтения из других горутин
type Snapshot struct {
	State      State      `json:"state"`
	Center     vec.Vec2   `json:"center"`
	Active     []vec.Vec2 `json:"active"`
	Pending    int        `json:"pending"`
	InFlight   int        `json:"in_flight"`
	Workers    int64      `json:"workers_busy"` // Занятые воркеры Executor
	Pool       pool.Stats `json:"pool"`
	Cycles     uint64     `json:"cycles"`
	Interrupts uint64     `json:"interrupts"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
