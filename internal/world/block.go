package world

import (
	"errors"
	"fmt"
	"strings"
)

// BlockType перечисление типов вокселей
type BlockType uint8

const (
	BlockNone  BlockType = iota // Вне вертикальных границ чанка
	BlockAir                    // Пустота, в меш не попадает
	BlockWater                  // Вода ниже уровня моря
	BlockSand                   // Нижний ярус
	BlockGrass                  // Средний ярус
	BlockSnow                   // Верхний ярус

	blockTypeCount // всегда последний
)

var blockTypeNames = [blockTypeCount]string{
	BlockNone:  "none",
	BlockAir:   "air",
	BlockWater: "water",
	BlockSand:  "sand",
	BlockGrass: "grass",
	BlockSnow:  "snow",
}

// String возвращает имя типа блока
func (t BlockType) String() string {
	if t < blockTypeCount {
		return blockTypeNames[t]
	}
	return fmt.Sprintf("block(%d)", uint8(t))
}

// Valid проверяет, что тип входит в известный набор
func (t BlockType) Valid() bool {
	return t < blockTypeCount
}

// ParseBlockType разбирает имя типа блока (без учёта регистра)
func ParseBlockType(name string) (BlockType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range blockTypeNames {
		if n == name {
			return BlockType(i), nil
		}
	}
	return BlockNone, fmt.Errorf("неизвестный тип блока %q", name)
}

// ClassifiedTypes типы, которые может вернуть Classifier внутри чанка.
// Для каждого из них обязана существовать конфигурация.
var ClassifiedTypes = []BlockType{BlockAir, BlockWater, BlockSand, BlockGrass, BlockSnow}

// Tile смещение тайла в атласе текстур (в тайлах)
type Tile struct {
	X, Y int
}

// BlockTypeConfig статические атрибуты типа блока
type BlockTypeConfig struct {
	Type        BlockType
	TileTop     Tile
	TileSides   Tile
	TileBottom  Tile
	Solid       bool // Попадает в меш коллизий
	Transparent bool // Рисуется прозрачным мешем вместо непрозрачного
	Layer       int  // Группа слияния: грани между соседями одного слоя скрываются
}

var (
	ErrMissingBlockConfig   = errors.New("отсутствует конфигурация типа блока")
	ErrDuplicateBlockConfig = errors.New("повторная конфигурация типа блока")
)

// DefaultBlocks таблица блоков по умолчанию
func DefaultBlocks() []BlockTypeConfig {
	return []BlockTypeConfig{
		{Type: BlockAir, Layer: 0},
		{
			Type:        BlockWater,
			TileTop:     Tile{X: 0, Y: 15},
			TileSides:   Tile{X: 0, Y: 15},
			TileBottom:  Tile{X: 0, Y: 15},
			Transparent: true,
			Layer:       1,
		},
		{
			Type:       BlockSand,
			TileTop:    Tile{X: 2, Y: 14},
			TileSides:  Tile{X: 2, Y: 14},
			TileBottom: Tile{X: 2, Y: 14},
			Solid:      true,
			Layer:      2,
		},
		{
			Type:       BlockGrass,
			TileTop:    Tile{X: 0, Y: 14},
			TileSides:  Tile{X: 3, Y: 15},
			TileBottom: Tile{X: 2, Y: 15},
			Solid:      true,
			Layer:      2,
		},
		{
			Type:       BlockSnow,
			TileTop:    Tile{X: 2, Y: 11},
			TileSides:  Tile{X: 4, Y: 11},
			TileBottom: Tile{X: 2, Y: 15},
			Solid:      true,
			Layer:      2,
		},
	}
}
