package streaming

import (
	"errors"

	"github.com/annel0/voxel-terrain/internal/mesh"
	"github.com/annel0/voxel-terrain/internal/vec"
	"github.com/google/uuid"
)

// ErrAlreadyLoading контейнер уже генерирует чанк
var ErrAlreadyLoading = errors.New("чанк уже генерируется")

// ResourceFactory создаёт и уничтожает ресурсы движка, стоящие за контейнером.
// Вызывается только из хуков пула.
type ResourceFactory interface {
	Instantiate() (any, error)
	Destroy(res any) error
	Attach(res any) // Активировать и прикрепить к миру
	Detach(res any) // Деактивировать и открепить
}

// SurfaceSink регистрирует поверхности чанка в рендере и физике.
// Apply получает nil в бакетах, которые не нужно активировать.
type SurfaceSink interface {
	Apply(res any, coord vec.Vec2, set *mesh.ChunkMeshSet) error
	Hide(res any)
}

// ChunkContainer переиспользуемый слот пула, владеющий ресурсами одного чанка.
// Собственной мировой позиции у него нет: Coord меняется при каждой выдаче из пула.
type ChunkContainer struct {
	ID       uuid.UUID
	Coord    vec.Vec2
	Resource any

	loading  bool
	bound    bool
	surfaces *mesh.ChunkMeshSet
}

func newContainer(res any) *ChunkContainer {
	return &ChunkContainer{ID: uuid.New(), Resource: res}
}

// Loading сообщает, что для контейнера идёт генерация
func (c *ChunkContainer) Loading() bool {
	return c.loading
}

// Bound возвращает координату, к которой привязан контейнер
func (c *ChunkContainer) Bound() (vec.Vec2, bool) {
	return c.Coord, c.bound
}

// Surfaces последний активированный набор мешей
func (c *ChunkContainer) Surfaces() *mesh.ChunkMeshSet {
	return c.surfaces
}

// BeginGeneration привязывает контейнер к координате и помечает загрузку.
// Повторный вызов до Activate/Reset отклоняется.
func (c *ChunkContainer) BeginGeneration(coord vec.Vec2) error {
	if c.loading {
		return ErrAlreadyLoading
	}
	c.loading = true
	c.bound = true
	c.Coord = coord
	return nil
}

// Activate завершает генерацию
func (c *ChunkContainer) Activate(set *mesh.ChunkMeshSet) {
	c.surfaces = set
	c.loading = false
}

// Reset отвязывает контейнер перед возвратом в пул
func (c *ChunkContainer) Reset() {
	c.Coord = vec.Vec2{}
	c.loading = false
	c.bound = false
	c.surfaces = nil
}
