package world

// Пороговые значения по умолчанию для ярусов рельефа (в блоках)
const (
	DefaultWaterLevel = 10 // Ниже - вода над поверхностью
	DefaultGrassAbove = 15 // Выше - трава
	DefaultSnowAbove  = 30 // Выше - снег
)

// Classifier определяет тип блока по полю высот
type Classifier struct {
	ChunkHeight int
	WaterLevel  int
	GrassAbove  int
	SnowAbove   int
}

// NewClassifier создаёт классификатор с порогами по умолчанию
func NewClassifier(chunkHeight int) Classifier {
	return Classifier{
		ChunkHeight: chunkHeight,
		WaterLevel:  DefaultWaterLevel,
		GrassAbove:  DefaultGrassAbove,
		SnowAbove:   DefaultSnowAbove,
	}
}

// Classify возвращает тип блока в локальной точке чанка.
// x и z допускаются в [-1, Edge] благодаря отступу карты высот;
// y вне [0, ChunkHeight) даёт BlockNone: между чанками по вертикали
// грани не отсекаются.
func (c Classifier) Classify(hm *Heightmap, x, y, z int) BlockType {
	if y < 0 || y >= c.ChunkHeight {
		return BlockNone
	}

	if hm.Column(x, z) < y {
		if y < c.WaterLevel {
			return BlockWater
		}
		return BlockAir
	}

	switch {
	case y > c.SnowAbove:
		return BlockSnow
	case y > c.GrassAbove:
		return BlockGrass
	default:
		return BlockSand
	}
}
