package mesh

import (
	"fmt"
	"time"

	"github.com/annel0/voxel-terrain/internal/world"
	"github.com/go-gl/mathgl/mgl32"
)

// ChunkMeshSet результат компиляции чанка. nil-бакет означает
// «поверхность не активировать», а не пустой меш.
type ChunkMeshSet struct {
	Opaque      *Fragment // Непрозрачный рендер
	Transparent *Fragment // Прозрачный рендер
	Collider    *Fragment // Коллизии, без UV
	Voxels      int       // Сколько вокселей дали геометрию
}

// Empty сообщает, что чанк не дал ни одной поверхности
func (s *ChunkMeshSet) Empty() bool {
	return s == nil || (s.Opaque == nil && s.Transparent == nil && s.Collider == nil)
}

// Compiler превращает карту высот чанка в меши.
// Чистая функция от карты высот, каталога и реестра: общих изменяемых
// данных нет, поэтому компиляцию можно выполнять в воркерах.
type Compiler struct {
	registry   *world.BlockRegistry
	catalog    *Catalog
	classifier world.Classifier
}

// NewCompiler создаёт компилятор мешей
func NewCompiler(reg *world.BlockRegistry, cat *Catalog, cls world.Classifier) (*Compiler, error) {
	if reg == nil || cat == nil {
		return nil, fmt.Errorf("компилятору нужны реестр блоков и каталог")
	}
	if cls.ChunkHeight <= 0 {
		return nil, fmt.Errorf("некорректная высота чанка %d", cls.ChunkHeight)
	}
	return &Compiler{registry: reg, catalog: cat, classifier: cls}, nil
}

// Classifier возвращает классификатор компилятора
func (c *Compiler) Classifier() world.Classifier {
	return c.classifier
}

// Compile компилирует чанк целиком за один вызов
func (c *Compiler) Compile(hm *world.Heightmap) *ChunkMeshSet {
	job := c.NewJob(hm)
	for job.Step(time.Time{}) {
	}
	return job.Result()
}

// NewJob создаёт возобновляемую задачу компиляции
func (c *Compiler) NewJob(hm *world.Heightmap) *CompileJob {
	return &CompileJob{
		compiler:    c,
		hm:          hm,
		opaque:      builder{withUV: true},
		transparent: builder{withUV: true},
		collider:    builder{withUV: false},
	}
}

// CompileJob компиляция чанка, которую можно прерывать между колонками.
// Step обрабатывает колонки (x, z) пока не истечёт deadline.
type CompileJob struct {
	compiler *Compiler
	hm       *world.Heightmap
	column   int
	voxels   int
	done     bool
	result   *ChunkMeshSet

	opaque      builder
	transparent builder
	collider    builder
}

// Step продвигает компиляцию. Нулевой deadline снимает ограничение по времени.
// Возвращает true, если работа ещё осталась.
func (j *CompileJob) Step(deadline time.Time) bool {
	if j.done {
		return false
	}

	edge := j.hm.Edge
	total := edge * edge
	for j.column < total {
		x, z := j.column/edge, j.column%edge
		j.compileColumn(x, z)
		j.column++

		if j.column < total && !deadline.IsZero() && time.Now().After(deadline) {
			return true
		}
	}

	j.result = &ChunkMeshSet{
		Opaque:      j.opaque.build(),
		Transparent: j.transparent.build(),
		Collider:    j.collider.build(),
		Voxels:      j.voxels,
	}
	j.done = true
	return false
}

// Done сообщает о завершении компиляции
func (j *CompileJob) Done() bool {
	return j.done
}

// Result возвращает результат; до завершения nil
func (j *CompileJob) Result() *ChunkMeshSet {
	return j.result
}

// Progress доля обработанных колонок
func (j *CompileJob) Progress() float64 {
	total := j.hm.Edge * j.hm.Edge
	if total == 0 {
		return 1
	}
	return float64(j.column) / float64(total)
}

func (j *CompileJob) compileColumn(x, z int) {
	c := j.compiler
	for y := 0; y < c.classifier.ChunkHeight; y++ {
		bt := c.classifier.Classify(j.hm, x, y, z)
		if bt == world.BlockAir || bt == world.BlockNone {
			continue
		}

		mask := j.faceMask(bt, x, y, z)
		if mask == MaskEnclosed {
			continue
		}

		frag, ok := c.catalog.Lookup(bt, mask)
		if !ok {
			continue
		}
		cfg, _ := c.registry.Get(bt)

		offset := mgl32.Vec3{float32(x), float32(y), float32(z)}
		if cfg.Transparent {
			j.transparent.add(frag, offset)
		} else {
			j.opaque.add(frag, offset)
		}
		if cfg.Solid {
			j.collider.add(frag, offset)
		}
		j.voxels++
	}
}

// faceMask собирает маску скрытых граней: сосед того же слоя скрывает грань
func (j *CompileJob) faceMask(bt world.BlockType, x, y, z int) FaceMask {
	c := j.compiler
	var mask FaceMask
	for f, d := range FaceOffsets {
		nb := c.classifier.Classify(j.hm, x+d[0], y+d[1], z+d[2])
		if c.registry.SameLayer(bt, nb) {
			mask |= 1 << f
		}
	}
	return mask
}
