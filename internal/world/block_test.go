package world

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlockType(t *testing.T) {
	for _, bt := range ClassifiedTypes {
		parsed, err := ParseBlockType(bt.String())
		require.NoError(t, err)
		assert.Equal(t, bt, parsed)
	}

	parsed, err := ParseBlockType("  Snow ")
	require.NoError(t, err)
	assert.Equal(t, BlockSnow, parsed)

	_, err = ParseBlockType("lava")
	assert.Error(t, err, "неизвестное имя должно давать ошибку")
	assert.Equal(t, "block(42)", BlockType(42).String())
}

func TestNewBlockRegistryDefault(t *testing.T) {
	reg, err := NewBlockRegistry(DefaultBlocks())
	require.NoError(t, err)

	grass, ok := reg.Get(BlockGrass)
	require.True(t, ok)
	assert.True(t, grass.Solid)
	assert.False(t, grass.Transparent)

	_, ok = reg.Get(BlockNone)
	assert.False(t, ok, "BlockNone не имеет конфигурации")
	assert.Len(t, reg.Types(), 5)

	assert.True(t, reg.SameLayer(BlockSand, BlockSnow), "твёрдые блоки одного слоя сливаются")
	assert.False(t, reg.SameLayer(BlockWater, BlockSand))
	assert.False(t, reg.SameLayer(BlockSand, BlockNone))
}

func TestNewBlockRegistryRejectsBadConfig(t *testing.T) {
	blocks := DefaultBlocks()

	_, err := NewBlockRegistry(append(blocks, BlockTypeConfig{Type: BlockSand}))
	assert.True(t, errors.Is(err, ErrDuplicateBlockConfig), "дубликат: %v", err)

	_, err = NewBlockRegistry(blocks[:4])
	assert.True(t, errors.Is(err, ErrMissingBlockConfig), "нет снега: %v", err)

	_, err = NewBlockRegistry(append(blocks, BlockTypeConfig{Type: BlockType(99)}))
	assert.Error(t, err)

	_, err = NewBlockRegistry(append(blocks, BlockTypeConfig{Type: BlockNone}))
	assert.Error(t, err)
}
