package export

import (
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/voxel-terrain/internal/mesh"
	"github.com/annel0/voxel-terrain/internal/vec"
)

// slot ресурс контейнера без движка: просто запоминает, что на нём показано
type slot struct {
	id       int
	attached bool
	coord    vec.Vec2
	set      *mesh.ChunkMeshSet
}

// Recorder фабрика ресурсов и приёмник поверхностей для работы без рендера.
// Запоминает показанные наборы мешей, чтобы потом выгрузить их в файл.
type Recorder struct {
	mu      sync.Mutex
	next    int
	visible map[vec.Vec2]*slot
}

// NewRecorder создаёт пустой Recorder
func NewRecorder() *Recorder {
	return &Recorder{visible: make(map[vec.Vec2]*slot)}
}

func (r *Recorder) Instantiate() (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	return &slot{id: r.next}, nil
}

func (r *Recorder) Destroy(res any) error {
	if _, ok := res.(*slot); !ok {
		return fmt.Errorf("чужой ресурс %T", res)
	}
	return nil
}

func (r *Recorder) Attach(res any) { res.(*slot).attached = true }
func (r *Recorder) Detach(res any) { res.(*slot).attached = false }

func (r *Recorder) Apply(res any, coord vec.Vec2, set *mesh.ChunkMeshSet) error {
	s, ok := res.(*slot)
	if !ok {
		return fmt.Errorf("чужой ресурс %T", res)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s.set != nil && s.coord != coord {
		delete(r.visible, s.coord)
	}
	s.coord = coord
	s.set = set
	r.visible[coord] = s
	return nil
}

func (r *Recorder) Hide(res any) {
	s := res.(*slot)

	r.mu.Lock()
	defer r.mu.Unlock()
	if s.set != nil && r.visible[s.coord] == s {
		delete(r.visible, s.coord)
	}
	s.set = nil
}

// Chunks показанные сейчас чанки, упорядоченные по x, затем z
func (r *Recorder) Chunks() []ChunkMesh {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ChunkMesh, 0, len(r.visible))
	for coord, s := range r.visible {
		out = append(out, ChunkMesh{Coord: coord, Set: s.set})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Coord.X != out[j].Coord.X {
			return out[i].Coord.X < out[j].Coord.X
		}
		return out[i].Coord.Z < out[j].Coord.Z
	})
	return out
}
