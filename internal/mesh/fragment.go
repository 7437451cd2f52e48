package mesh

import "github.com/go-gl/mathgl/mgl32"

// Fragment кусок геометрии: вершины, индексы треугольников и UV.
// Индексы локальны (начинаются с 0) до слияния. UV может отсутствовать
// у мешей коллизий.
type Fragment struct {
	Vertices  []mgl32.Vec3
	Triangles []int32
	UV        []mgl32.Vec2
}

// VertexCount количество вершин
func (f *Fragment) VertexCount() int {
	if f == nil {
		return 0
	}
	return len(f.Vertices)
}

// Translate возвращает копию фрагмента, сдвинутую на offset.
// Индексы и UV не меняются и разделяются с исходником.
func (f *Fragment) Translate(offset mgl32.Vec3) *Fragment {
	vertices := make([]mgl32.Vec3, len(f.Vertices))
	for i, v := range f.Vertices {
		vertices[i] = v.Add(offset)
	}
	return &Fragment{
		Vertices:  vertices,
		Triangles: f.Triangles,
		UV:        f.UV,
	}
}

// Merge склеивает фрагменты в один, сдвигая индексы на накопленное число вершин.
// Пустой список даёт nil.
func Merge(frags []*Fragment, withUV bool) *Fragment {
	var b builder
	b.withUV = withUV
	for _, f := range frags {
		b.add(f, mgl32.Vec3{})
	}
	return b.build()
}

// builder накапливает фрагменты одного бакета
type builder struct {
	withUV    bool
	fragments int
	vertices  []mgl32.Vec3
	triangles []int32
	uv        []mgl32.Vec2
}

func (b *builder) add(f *Fragment, offset mgl32.Vec3) {
	if f == nil || len(f.Vertices) == 0 {
		return
	}

	base := int32(len(b.vertices))
	for _, v := range f.Vertices {
		b.vertices = append(b.vertices, v.Add(offset))
	}
	for _, t := range f.Triangles {
		b.triangles = append(b.triangles, t+base)
	}
	if b.withUV {
		b.uv = append(b.uv, f.UV...)
	}
	b.fragments++
}

func (b *builder) build() *Fragment {
	if b.fragments == 0 {
		return nil
	}
	out := &Fragment{
		Vertices:  b.vertices,
		Triangles: b.triangles,
	}
	if b.withUV {
		out.UV = b.uv
	}
	return out
}
