package mesh

import (
	"math/bits"

	"github.com/go-gl/mathgl/mgl32"
)

// Face индекс грани куба
type Face int

const (
	FaceFront  Face = iota // +z
	FaceBack               // -z
	FaceLeft               // -x
	FaceRight              // +x
	FaceTop                // +y
	FaceBottom             // -y

	FaceCount // всегда последний
)

// FaceMask битовая маска граней вокселя: установленный бит i означает,
// что грань i скрыта соседом того же слоя.
type FaceMask uint8

const (
	MaskFront  FaceMask = 1 << FaceFront
	MaskBack   FaceMask = 1 << FaceBack
	MaskLeft   FaceMask = 1 << FaceLeft
	MaskRight  FaceMask = 1 << FaceRight
	MaskTop    FaceMask = 1 << FaceTop
	MaskBottom FaceMask = 1 << FaceBottom

	// MaskCount количество различных масок (2^6)
	MaskCount = 1 << FaceCount
	// MaskEnclosed все грани скрыты, геометрии нет
	MaskEnclosed FaceMask = MaskCount - 1
)

// Hidden сообщает, скрыта ли грань
func (m FaceMask) Hidden(f Face) bool {
	return m&(1<<f) != 0
}

// VisibleFaces количество видимых граней
func (m FaceMask) VisibleFaces() int {
	return int(FaceCount) - bits.OnesCount8(uint8(m&MaskEnclosed))
}

// FaceOffsets смещение к соседу, закрывающему соответствующую грань.
// Порядок обязан совпадать с битами FaceMask.
var FaceOffsets = [FaceCount][3]int{
	FaceFront:  {0, 0, 1},
	FaceBack:   {0, 0, -1},
	FaceLeft:   {-1, 0, 0},
	FaceRight:  {1, 0, 0},
	FaceTop:    {0, 1, 0},
	FaceBottom: {0, -1, 0},
}

const (
	FaceVertexCount   = 4
	FaceTriangleCount = 6
)

var (
	faceTriangles = [FaceTriangleCount]int32{0, 1, 2, 2, 3, 0}
	faceUV        = [FaceVertexCount]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
	faceVertices  = buildFaceVertices()
)

// buildFaceVertices раскладывает 8 вершин единичного куба с центром
// в начале координат по четырём вершинам каждой грани
func buildFaceVertices() [FaceCount][FaceVertexCount]mgl32.Vec3 {
	const h = 0.5
	cube := [8]mgl32.Vec3{
		{h, h, h},
		{-h, h, h},
		{h, -h, h},
		{-h, -h, h},
		{h, h, -h},
		{-h, h, -h},
		{h, -h, -h},
		{-h, -h, -h},
	}

	index := [FaceCount][FaceVertexCount]int{
		FaceFront:  {0, 1, 3, 2},
		FaceBack:   {5, 4, 6, 7},
		FaceLeft:   {1, 5, 7, 3},
		FaceRight:  {4, 0, 2, 6},
		FaceTop:    {1, 0, 4, 5},
		FaceBottom: {7, 6, 2, 3},
	}

	var out [FaceCount][FaceVertexCount]mgl32.Vec3
	for f := range index {
		for v, i := range index[f] {
			out[f][v] = cube[i]
		}
	}
	return out
}
