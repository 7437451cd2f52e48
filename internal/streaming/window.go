package streaming

import (
	"sort"

	"github.com/annel0/voxel-terrain/internal/vec"
)

// InnerWindow координаты чанков квадратного окна загрузки вокруг center
// в порядке x, затем z
func InnerWindow(center vec.Vec2, viewDistance, edge int) []vec.Vec2 {
	radius := viewDistance * edge
	side := 2*viewDistance + 1
	coords := make([]vec.Vec2, 0, side*side)
	for x := center.X - radius; x <= center.X+radius; x += edge {
		for z := center.Z - radius; z <= center.Z+radius; z += edge {
			coords = append(coords, vec.Vec2{X: x, Z: z})
		}
	}
	return coords
}

// InOuterWindow проверяет, что чанк ещё удерживается: окно выгрузки
// на одно ребро шире окна загрузки
func InOuterWindow(coord, center vec.Vec2, viewDistance, edge int) bool {
	reach := viewDistance*edge + edge
	return coord.X >= center.X-reach && coord.X <= center.X+reach &&
		coord.Z >= center.Z-reach && coord.Z <= center.Z+reach
}

// Plan результат сравнения активных чанков с окнами
type Plan struct {
	Evict   []vec.Vec2 // Вне окна выгрузки
	Pending []vec.Vec2 // Нет в активных, от ближних к дальним
}

// Diff строит план цикла. Evict упорядочен по координатам,
// Pending устойчиво отсортирован по манхэттенскому расстоянию до center.
func Diff(active map[vec.Vec2]*ChunkContainer, center vec.Vec2, viewDistance, edge int) Plan {
	var plan Plan
	for coord := range active {
		if !InOuterWindow(coord, center, viewDistance, edge) {
			plan.Evict = append(plan.Evict, coord)
		}
	}
	sort.Slice(plan.Evict, func(i, j int) bool {
		return lessCoord(plan.Evict[i], plan.Evict[j])
	})

	for _, coord := range InnerWindow(center, viewDistance, edge) {
		if _, ok := active[coord]; !ok {
			plan.Pending = append(plan.Pending, coord)
		}
	}
	sort.SliceStable(plan.Pending, func(i, j int) bool {
		return plan.Pending[i].Manhattan(center) < plan.Pending[j].Manhattan(center)
	})
	return plan
}

func lessCoord(a, b vec.Vec2) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Z < b.Z
}

func sortCoords(coords []vec.Vec2) {
	sort.Slice(coords, func(i, j int) bool { return lessCoord(coords[i], coords[j]) })
}
