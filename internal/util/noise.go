package util

import (
	"github.com/aquilax/go-perlin"
)

// NoiseSource детерминированный двумерный шум со значениями в [-1, 1]
type NoiseSource interface {
	Noise2D(x, z float64) float64
}

// NoiseParams параметры генератора шума Перлина
type NoiseParams struct {
	Alpha     float64 // Сглаживание шума
	Beta      float64 // Частота между октавами
	Octaves   int32   // Количество октав
	Frequency float64 // Масштаб мировых координат
}

// DefaultNoiseParams возвращает параметры, подобранные под рельеф высотой ~48 блоков
func DefaultNoiseParams() NoiseParams {
	return NoiseParams{
		Alpha:     2.0,
		Beta:      2.0,
		Octaves:   5,
		Frequency: 0.02,
	}
}

// PerlinSource реализует NoiseSource поверх go-perlin.
// После создания только читает свои таблицы, поэтому один экземпляр
// можно использовать из нескольких горутин.
type PerlinSource struct {
	perlin    *perlin.Perlin
	frequency float64
	seed      int64
}

// NewPerlinSource создаёт генератор шума Перлина с указанным сидом
func NewPerlinSource(seed int64, params NoiseParams) *PerlinSource {
	if params.Octaves <= 0 {
		params.Octaves = 1
	}
	if params.Frequency == 0 {
		params.Frequency = 1
	}

	return &PerlinSource{
		perlin:    perlin.NewPerlin(params.Alpha, params.Beta, params.Octaves, seed),
		frequency: params.Frequency,
		seed:      seed,
	}
}

// Seed возвращает сид генератора
func (p *PerlinSource) Seed() int64 {
	return p.seed
}

// Noise2D возвращает значение шума для мировых координат (от -1 до 1)
func (p *PerlinSource) Noise2D(x, z float64) float64 {
	return Clamp(p.perlin.Noise2D(x*p.frequency, z*p.frequency), -1, 1)
}

// Clamp ограничивает значение диапазоном [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NoiseFunc позволяет использовать обычную функцию как NoiseSource
type NoiseFunc func(x, z float64) float64

// Noise2D вызывает саму функцию
func (f NoiseFunc) Noise2D(x, z float64) float64 {
	return f(x, z)
}
