package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/annel0/voxel-terrain/internal/mesh"
	"github.com/annel0/voxel-terrain/internal/vec"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/zstd"
)

// ChunkMesh скомпилированный чанк с мировой координатой
type ChunkMesh struct {
	Coord vec.Vec2
	Set   *mesh.ChunkMeshSet
}

// Stats итог записи
type Stats struct {
	Chunks    int
	Vertices  int
	Triangles int
}

// WriteOBJ пишет чанки в формате Wavefront OBJ: объект на чанк,
// группы opaque и transparent. Коллайдер не выгружается.
// Вершины смещаются на начало чанка, индексы 1-базовые и сквозные по файлу.
func WriteOBJ(w io.Writer, chunks []ChunkMesh) (Stats, error) {
	out := bufio.NewWriterSize(w, 128*1024)
	var stats Stats
	offset := 0

	fmt.Fprintln(out, "# voxel-terrain")
	for _, ch := range chunks {
		if ch.Set.Empty() {
			continue
		}
		stats.Chunks++
		fmt.Fprintf(out, "o chunk_%d_%d\n", ch.Coord.X, ch.Coord.Z)

		origin := mgl32.Vec3{float32(ch.Coord.X), 0, float32(ch.Coord.Z)}
		for _, part := range []struct {
			name string
			frag *mesh.Fragment
		}{
			{"opaque", ch.Set.Opaque},
			{"transparent", ch.Set.Transparent},
		} {
			if part.frag == nil {
				continue
			}
			n := writeFragment(out, part.name, part.frag, origin, offset)
			offset += n
			stats.Vertices += n
			stats.Triangles += len(part.frag.Triangles) / 3
		}
	}

	if err := out.Flush(); err != nil {
		return stats, fmt.Errorf("запись OBJ: %w", err)
	}
	return stats, nil
}

func writeFragment(out *bufio.Writer, group string, frag *mesh.Fragment, origin mgl32.Vec3, offset int) int {
	fmt.Fprintf(out, "g %s\n", group)
	for _, v := range frag.Vertices {
		p := v.Add(origin)
		fmt.Fprintf(out, "v %g %g %g\n", p.X(), p.Y(), p.Z())
	}
	for _, uv := range frag.UV {
		fmt.Fprintf(out, "vt %g %g\n", uv.X(), uv.Y())
	}

	withUV := len(frag.UV) == len(frag.Vertices)
	for i := 0; i+2 < len(frag.Triangles); i += 3 {
		a := int(frag.Triangles[i]) + offset + 1
		b := int(frag.Triangles[i+1]) + offset + 1
		c := int(frag.Triangles[i+2]) + offset + 1
		if withUV {
			fmt.Fprintf(out, "f %d/%d %d/%d %d/%d\n", a, a, b, b, c, c)
		} else {
			fmt.Fprintf(out, "f %d %d %d\n", a, b, c)
		}
	}
	return len(frag.Vertices)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// NewWriter оборачивает w в zstd, если имя файла оканчивается на .zst.
// Close завершает поток zstd, но не закрывает w.
func NewWriter(w io.Writer, filename string) (io.WriteCloser, error) {
	if !strings.HasSuffix(filename, ".zst") {
		return nopCloser{w}, nil
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("инициализация zstd: %w", err)
	}
	return enc, nil
}
