package vec

import "fmt"

// Vec2 представляет горизонтальные координаты (x, z) в блоках.
// Используется как координата чанка: начало чанка всегда кратно длине ребра.
type Vec2 struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// ChunkOrigin переводит мировую позицию в координаты чанка.
// Значения сначала усекаются к нулю, затем округляются вниз до кратного edge.
// Для ребра, равного степени двойки, это совпадает с маскированием старших бит.
func ChunkOrigin(x, z float32, edge int) Vec2 {
	return Vec2{X: floorToMultiple(int(x), edge), Z: floorToMultiple(int(z), edge)}
}

func floorToMultiple(v, edge int) int {
	q := v / edge
	if v%edge != 0 && v < 0 {
		q--
	}
	return q * edge
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Z: v.Z + other.Z}
}

// Manhattan возвращает манхэттенское расстояние до другой точки
func (v Vec2) Manhattan(other Vec2) int {
	return abs(v.X-other.X) + abs(v.Z-other.Z)
}

// String возвращает строковое представление в виде "(x,z)"
func (v Vec2) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Z)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
