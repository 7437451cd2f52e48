package streaming

import (
	"github.com/alitto/pond/v2"
)

// Executor выполняет компиляцию чанков вне управляющего потока.
// nil вместо Executor означает кооперативную генерацию в управляющем потоке.
type Executor interface {
	Submit(task func())
}

// PondExecutor пул воркеров фиксированного размера поверх pond
type PondExecutor struct {
	pool pond.Pool
}

// NewPondExecutor создаёт пул на workers горутин
func NewPondExecutor(workers int) *PondExecutor {
	if workers <= 0 {
		workers = 1
	}
	return &PondExecutor{pool: pond.NewPool(workers)}
}

// Submit ставит задачу в очередь пула
func (e *PondExecutor) Submit(task func()) {
	e.pool.Submit(task)
}

// Stop дожидается выполнения поставленных задач и останавливает пул
func (e *PondExecutor) Stop() {
	e.pool.StopAndWait()
}

// Running количество выполняющихся задач
func (e *PondExecutor) Running() int64 {
	return e.pool.RunningWorkers()
}
