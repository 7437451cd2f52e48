package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerlinSourceDeterministic(t *testing.T) {
	a := NewPerlinSource(1336, DefaultNoiseParams())
	b := NewPerlinSource(1336, DefaultNoiseParams())

	for x := -40; x < 40; x += 7 {
		for z := -40; z < 40; z += 5 {
			va := a.Noise2D(float64(x), float64(z))
			assert.Equal(t, va, b.Noise2D(float64(x), float64(z)), "шум должен зависеть только от сида и координат")
			assert.GreaterOrEqual(t, va, -1.0)
			assert.LessOrEqual(t, va, 1.0)
		}
	}
	assert.Equal(t, int64(1336), a.Seed())
}

func TestNewPerlinSourceFixesParams(t *testing.T) {
	p := NewPerlinSource(7, NoiseParams{Alpha: 2, Beta: 2})
	assert.Equal(t, 1.0, p.frequency)
	v := p.Noise2D(0.5, 0.25)
	assert.GreaterOrEqual(t, v, -1.0)
	assert.LessOrEqual(t, v, 1.0)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, -1.0, Clamp(-3, -1, 1))
	assert.Equal(t, 1.0, Clamp(1.5, -1, 1))
	assert.Equal(t, 0.25, Clamp(0.25, -1, 1))
}
