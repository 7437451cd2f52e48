package streaming

import (
	"testing"

	"github.com/annel0/voxel-terrain/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInnerWindow(t *testing.T) {
	got := InnerWindow(vec.Vec2{}, 1, 16)
	want := []vec.Vec2{
		{X: -16, Z: -16}, {X: -16, Z: 0}, {X: -16, Z: 16},
		{X: 0, Z: -16}, {X: 0, Z: 0}, {X: 0, Z: 16},
		{X: 16, Z: -16}, {X: 16, Z: 0}, {X: 16, Z: 16},
	}
	assert.Equal(t, want, got)

	assert.Len(t, InnerWindow(vec.Vec2{X: 32, Z: -64}, 5, 16), 121)
	assert.Equal(t, []vec.Vec2{{X: 8, Z: 8}}, InnerWindow(vec.Vec2{X: 8, Z: 8}, 0, 8))
}

func TestInOuterWindow(t *testing.T) {
	center := vec.Vec2{X: 16}
	assert.True(t, InOuterWindow(vec.Vec2{X: -16}, center, 1, 16))
	assert.True(t, InOuterWindow(vec.Vec2{X: 48, Z: 32}, center, 1, 16))
	assert.False(t, InOuterWindow(vec.Vec2{X: -32}, center, 1, 16))
	assert.False(t, InOuterWindow(vec.Vec2{X: 16, Z: 48}, center, 1, 16))
	assert.False(t, InOuterWindow(vec.Vec2{X: 64}, center, 1, 16))
}

func TestDiffNearestFirst(t *testing.T) {
	plan := Diff(map[vec.Vec2]*ChunkContainer{}, vec.Vec2{}, 1, 16)
	assert.Empty(t, plan.Evict)

	want := []vec.Vec2{
		{X: 0, Z: 0},
		{X: -16, Z: 0}, {X: 0, Z: -16}, {X: 0, Z: 16}, {X: 16, Z: 0},
		{X: -16, Z: -16}, {X: -16, Z: 16}, {X: 16, Z: -16}, {X: 16, Z: 16},
	}
	assert.Equal(t, want, plan.Pending)
}

func TestDiffEvictsOutsideOuterWindowOnly(t *testing.T) {
	active := map[vec.Vec2]*ChunkContainer{
		{X: -32, Z: 0}:  {},
		{X: -16, Z: 0}:  {},
		{X: 0, Z: 0}:    {},
		{X: 16, Z: 64}:  {},
		{X: -32, Z: 16}: {},
	}
	center := vec.Vec2{X: 16}
	plan := Diff(active, center, 1, 16)

	assert.Equal(t, []vec.Vec2{{X: -32, Z: 0}, {X: -32, Z: 16}, {X: 16, Z: 64}}, plan.Evict)
	require.Len(t, plan.Pending, 8)
	assert.NotContains(t, plan.Pending, vec.Vec2{X: 0, Z: 0})
	assert.Equal(t, vec.Vec2{X: 16, Z: 0}, plan.Pending[0])
	for i := 1; i < len(plan.Pending); i++ {
		assert.LessOrEqual(t, plan.Pending[i-1].Manhattan(center), plan.Pending[i].Manhattan(center))
	}
}
