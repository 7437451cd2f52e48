package world

import (
	"fmt"
	"math"

	"github.com/annel0/voxel-terrain/internal/util"
	"github.com/annel0/voxel-terrain/internal/vec"
)

// Heightmap поле высот чанка с отступом в одну клетку с каждой стороны.
// Индексы (px, pz) лежат в [0, Edge+2); клетка (px, pz) соответствует
// мировой колонке origin + (px-1, pz-1).
type Heightmap struct {
	Origin  vec.Vec2
	Edge    int
	Heights []int
}

// Size возвращает длину стороны с учётом отступа
func (h *Heightmap) Size() int {
	return h.Edge + 2
}

// At возвращает высоту по индексам с отступом
func (h *Heightmap) At(px, pz int) int {
	return h.Heights[px*h.Size()+pz]
}

// Column возвращает высоту колонки по локальным координатам чанка.
// Допустимы x, z в [-1, Edge].
func (h *Heightmap) Column(x, z int) int {
	return h.At(x+1, z+1)
}

// BuildHeightmap семплирует шум по мировым координатам чанка вместе с отступом.
// Высота = floor((noise+1)/2 * maxHeight). Кэш между переиспользованиями
// контейнера не ведётся: другая позиция даёт другие высоты.
func BuildHeightmap(noise util.NoiseSource, origin vec.Vec2, edge, maxHeight int) (*Heightmap, error) {
	if noise == nil {
		return nil, fmt.Errorf("источник шума не задан")
	}
	if edge <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("некорректный размер чанка: edge=%d height=%d", edge, maxHeight)
	}

	size := edge + 2
	hm := &Heightmap{
		Origin:  origin,
		Edge:    edge,
		Heights: make([]int, size*size),
	}

	for px := 0; px < size; px++ {
		for pz := 0; pz < size; pz++ {
			wx := float64(origin.X + px - 1)
			wz := float64(origin.Z + pz - 1)
			n := noise.Noise2D(wx, wz)
			hm.Heights[px*size+pz] = int(math.Floor((n + 1) / 2 * float64(maxHeight)))
		}
	}

	return hm, nil
}
