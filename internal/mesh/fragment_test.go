package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quad(uv float32) *Fragment {
	return &Fragment{
		Vertices:  []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Triangles: []int32{0, 1, 2, 2, 3, 0},
		UV:        []mgl32.Vec2{{uv, 0}, {uv, 1}, {uv, 2}, {uv, 3}},
	}
}

func TestMergeRebasesIndices(t *testing.T) {
	merged := Merge([]*Fragment{quad(0), quad(1)}, true)
	require.NotNil(t, merged)

	assert.Len(t, merged.Vertices, 8)
	assert.Equal(t, []int32{0, 1, 2, 2, 3, 0, 4, 5, 6, 6, 7, 4}, merged.Triangles)
	require.Len(t, merged.UV, 8)
	assert.Equal(t, float32(1), merged.UV[4].X())
}

func TestMergeWithoutUV(t *testing.T) {
	merged := Merge([]*Fragment{quad(0)}, false)
	require.NotNil(t, merged)
	assert.Nil(t, merged.UV)
}

func TestMergeEmptyIsNil(t *testing.T) {
	assert.Nil(t, Merge(nil, true))
	assert.Nil(t, Merge([]*Fragment{{}}, true))
}

func TestTranslate(t *testing.T) {
	src := quad(0)
	moved := src.Translate(mgl32.Vec3{2, 3, 4})

	assert.Equal(t, mgl32.Vec3{3, 3, 4}, moved.Vertices[1])
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, src.Vertices[1], "исходный фрагмент не меняется")
	assert.Equal(t, src.Triangles, moved.Triangles)
	assert.Equal(t, 4, moved.VertexCount())

	var nilFrag *Fragment
	assert.Equal(t, 0, nilFrag.VertexCount())
}
