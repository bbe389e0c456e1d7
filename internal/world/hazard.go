// Hazard field using layered simplex noise.
// Picks where randomly rolled disasters strike; deterministic from the city seed.
package world

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

const (
	hazardOctaves     = 3
	hazardFrequency   = 0.35
	hazardPersistence = 0.5
	hazardYearDrift   = 1.7 // noise-space offset per simulated year
)

// HazardField samples a per-cell disaster risk in [0, 1].
type HazardField struct {
	seed  int64
	noise opensimplex.Noise
}

// NewHazardField creates a field for the given seed.
func NewHazardField(seed int64) *HazardField {
	return &HazardField{
		seed:  seed,
		noise: opensimplex.NewNormalized(seed),
	}
}

// Seed returns the seed the field was built from.
func (h *HazardField) Seed() int64 {
	return h.seed
}

// At returns the hazard at p for the given year.
func (h *HazardField) At(p Position, year int) float64 {
	x := float64(p.Col)
	y := float64(p.Row) + float64(year)*hazardYearDrift
	return octaveNoise(h.noise, x, y, hazardOctaves, hazardFrequency, hazardPersistence)
}

// Hotspot returns the position with the highest hazard for the year.
// Ties keep the first cell in scan order.
func (h *HazardField) Hotspot(year int) Position {
	best := Position{}
	bestVal := -1.0
	for _, p := range All() {
		if v := h.At(p, year); v > bestVal {
			best, bestVal = p, v
		}
	}
	return best
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
