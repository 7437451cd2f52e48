package app

import (
	"fmt"

	"github.com/annel0/voxel-terrain/internal/config"
	"github.com/annel0/voxel-terrain/internal/logging"
	"github.com/annel0/voxel-terrain/internal/mesh"
	"github.com/annel0/voxel-terrain/internal/streaming"
	"github.com/annel0/voxel-terrain/internal/util"
	"github.com/annel0/voxel-terrain/internal/world"
	"github.com/prometheus/client_golang/prometheus"
)

// Terrain неизменяемые после старта части генератора: реестр блоков,
// каталог граней, компилятор и шум. Разделяются всеми компиляциями без блокировок.
type Terrain struct {
	Config   *config.Config
	Registry *world.BlockRegistry
	Catalog  *mesh.Catalog
	Compiler *mesh.Compiler
	Noise    *util.PerlinSource
}

// Build собирает генератор из конфигурации. Любая ошибка здесь фатальна:
// без целостного каталога террейн построить нельзя.
func Build(cfg *config.Config) (*Terrain, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	blocks, err := cfg.BlockTypeConfigs()
	if err != nil {
		return nil, err
	}
	reg, err := world.NewBlockRegistry(blocks)
	if err != nil {
		return nil, fmt.Errorf("реестр блоков: %w", err)
	}

	cat, err := mesh.Build(reg, cfg.Blocks.Tile())
	if err != nil {
		return nil, fmt.Errorf("каталог граней: %w", err)
	}

	compiler, err := mesh.NewCompiler(reg, cat, cfg.Classifier())
	if err != nil {
		return nil, err
	}

	logging.GetMeshLogger().Info("🧱 Каталог граней собран: %d записей, чанк %dx%d, сид %d",
		cat.Len(), cfg.Terrain.ChunkSize, cfg.Terrain.ChunkHeight, cfg.Terrain.Seed)

	return &Terrain{
		Config:   cfg,
		Registry: reg,
		Catalog:  cat,
		Compiler: compiler,
		Noise:    util.NewPerlinSource(cfg.Terrain.Seed, cfg.NoiseParams()),
	}, nil
}

// ManagerDeps внешние участники для менеджера стриминга
type ManagerDeps struct {
	Factory    streaming.ResourceFactory
	Sink       streaming.SurfaceSink
	Executor   streaming.Executor
	Registerer prometheus.Registerer
}

// NewManager создаёт менеджер стриминга с размерами из конфигурации
func (t *Terrain) NewManager(deps ManagerDeps) (*streaming.Manager, error) {
	return streaming.NewManager(streaming.Options{
		ChunkSize:    t.Config.Terrain.ChunkSize,
		ViewDistance: t.Config.Terrain.ViewDistance,
		PoolCapacity: t.Config.Streaming.PoolCapacity,
	}, streaming.Deps{
		Compiler:   t.Compiler,
		Noise:      t.Noise,
		Factory:    deps.Factory,
		Sink:       deps.Sink,
		Executor:   deps.Executor,
		Registerer: deps.Registerer,
	})
}

// NewExecutor пул воркеров по конфигурации; nil при workers = 0
func (t *Terrain) NewExecutor() *streaming.PondExecutor {
	if t.Config.Streaming.Workers <= 0 {
		return nil
	}
	return streaming.NewPondExecutor(t.Config.Streaming.Workers)
}
