package api

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// ViewerFeed последняя позиция наблюдателя: пишут HTTP обработчики,
// читает хост-цикл раз за кадр
type ViewerFeed struct {
	mu      sync.RWMutex
	pos     mgl32.Vec3
	version uint64
}

// NewViewerFeed создаёт фид с начальной позицией
func NewViewerFeed(initial mgl32.Vec3) *ViewerFeed {
	return &ViewerFeed{pos: initial}
}

// Set запоминает новую позицию
func (f *ViewerFeed) Set(pos mgl32.Vec3) {
	f.mu.Lock()
	f.pos = pos
	f.version++
	f.mu.Unlock()
}

// Latest возвращает позицию и номер обновления
func (f *ViewerFeed) Latest() (mgl32.Vec3, uint64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.pos, f.version
}
