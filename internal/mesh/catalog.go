package mesh

import (
	"errors"
	"fmt"

	"github.com/annel0/voxel-terrain/internal/world"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrUnknownBlockType тип блока отсутствует в каталоге
var ErrUnknownBlockType = errors.New("неизвестный тип блока")

// Catalog заранее собранные фрагменты для всех пар (тип блока, маска граней).
// После Build не изменяется и читается из любых горутин без синхронизации.
type Catalog struct {
	tileSize mgl32.Vec2
	entries  map[world.BlockType]*[MaskCount]*Fragment
}

// Build собирает каталог: для каждой из 64 масок склеивает видимые грани
// и считает UV для каждого типа блока по его тайлам верх/бок/низ.
// Маска без видимых граней записи не получает.
func Build(reg *world.BlockRegistry, tileSize mgl32.Vec2) (*Catalog, error) {
	if reg == nil {
		return nil, fmt.Errorf("реестр блоков не задан")
	}
	if tileSize.X() <= 0 || tileSize.Y() <= 0 {
		return nil, fmt.Errorf("некорректный размер тайла %v", tileSize)
	}

	types := reg.Types()
	configs := make([]world.BlockTypeConfig, 0, len(types))
	for _, t := range types {
		cfg, ok := reg.Get(t)
		if !ok || !t.Valid() {
			return nil, fmt.Errorf("%w: %v", ErrUnknownBlockType, t)
		}
		configs = append(configs, cfg)
	}

	cat := &Catalog{
		tileSize: tileSize,
		entries:  make(map[world.BlockType]*[MaskCount]*Fragment, len(configs)),
	}
	for _, cfg := range configs {
		cat.entries[cfg.Type] = new([MaskCount]*Fragment)
	}

	for m := 0; m < MaskCount; m++ {
		mask := FaceMask(m)

		var (
			vertices  []mgl32.Vec3
			triangles []int32
			uvs       = make([][]mgl32.Vec2, len(configs))
		)

		for f := FaceFront; f < FaceCount; f++ {
			if mask.Hidden(f) {
				continue
			}

			offset := int32(len(vertices))
			vertices = append(vertices, faceVertices[f][:]...)
			for _, t := range faceTriangles {
				triangles = append(triangles, t+offset)
			}

			for i, cfg := range configs {
				tile := tileFor(cfg, f)
				for _, uv := range faceUV {
					uvs[i] = append(uvs[i], mgl32.Vec2{
						(uv.X() + float32(tile.X)) * tileSize.X(),
						(uv.Y() + float32(tile.Y)) * tileSize.Y(),
					})
				}
			}
		}

		if len(vertices) == 0 {
			continue
		}

		// Вершины и индексы общие для всех типов, различаются только UV
		for i, cfg := range configs {
			cat.entries[cfg.Type][m] = &Fragment{
				Vertices:  vertices,
				Triangles: triangles,
				UV:        uvs[i],
			}
		}
	}

	return cat, nil
}

func tileFor(cfg world.BlockTypeConfig, f Face) world.Tile {
	switch f {
	case FaceTop:
		return cfg.TileTop
	case FaceBottom:
		return cfg.TileBottom
	default:
		return cfg.TileSides
	}
}

// Lookup возвращает фрагмент для пары (тип, маска).
// Для полностью закрытой маски и неизвестного типа возвращает false.
func (c *Catalog) Lookup(t world.BlockType, mask FaceMask) (*Fragment, bool) {
	if mask >= MaskEnclosed {
		return nil, false
	}
	row, ok := c.entries[t]
	if !ok {
		return nil, false
	}
	frag := row[mask]
	return frag, frag != nil
}

// TileSize размер одного тайла в UV-координатах
func (c *Catalog) TileSize() mgl32.Vec2 {
	return c.tileSize
}

// Len количество записей в каталоге
func (c *Catalog) Len() int {
	n := 0
	for _, row := range c.entries {
		for _, f := range row {
			if f != nil {
				n++
			}
		}
	}
	return n
}
