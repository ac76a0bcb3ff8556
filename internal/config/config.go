package config

import (
	"fmt"
	"strings"
)

// DetailLevel selects the per-tile grid resolution used for generation.
type DetailLevel int

const (
	DetailLow DetailLevel = iota
	DetailMedium
	DetailHigh
	DetailUltra

	detailLevelCount
)

func (d DetailLevel) String() string {
	switch d {
	case DetailLow:
		return "low"
	case DetailMedium:
		return "medium"
	case DetailHigh:
		return "high"
	case DetailUltra:
		return "ultra"
	}
	return fmt.Sprintf("DetailLevel(%d)", int(d))
}

// ParseDetail maps a user-facing level name to a DetailLevel.
func ParseDetail(s string) (DetailLevel, error) {
	switch strings.ToLower(s) {
	case "low":
		return DetailLow, nil
	case "medium":
		return DetailMedium, nil
	case "high":
		return DetailHigh, nil
	case "ultra":
		return DetailUltra, nil
	}
	return 0, ValidationError{Field: "detail", Reason: "unknown level " + s}
}

// NoiseParams tunes the fractal base-elevation noise.
type NoiseParams struct {
	Octaves     int
	Persistence float64
	Lacunarity  float64
	Frequency   float64 // multiplier applied to world-normalized coordinates
	Amplitude   float64 // vertical scale in meters; single knob for relief drama
}

// ErosionParams tunes the per-tile erosion post-process.
type ErosionParams struct {
	Iterations        int
	HydraulicStrength float64 // fraction of the steepest drop carved per pass, [0,1]
	ThermalStrength   float64 // fraction of excess slope redistributed per pass, [0,1]
	TalusDelta        float64 // max stable height difference between neighbors, meters
	Halo              int     // extra border samples per side; at least 2x Iterations + 1
}

// World is the full, immutable configuration of one generated world.
// Construct it through New; pass it by value afterwards.
type World struct {
	WorldSize int   // world edge length in meters
	TileSize  int   // tile edge length in meters
	Seed      int64 // sole source of randomness

	// Subdivisions per detail level; grid dimension per edge is count+1.
	Subdivisions [detailLevelCount]int

	Workers      int
	MemoryBudget int64 // tile cache budget in bytes

	Noise   NoiseParams
	Erosion ErosionParams
}

// ValidationError reports a single rejected configuration field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return "config: invalid " + e.Field + ": " + e.Reason
}

// Default returns the reference configuration: an 8 km world of 500 m tiles
// with the stock noise and erosion tuning.
func Default() World {
	return World{
		WorldSize:    8000,
		TileSize:     500,
		Seed:         42,
		Subdivisions: [detailLevelCount]int{25, 75, 150, 195},
		Workers:      8,
		MemoryBudget: 2 << 30,
		Noise: NoiseParams{
			Octaves:     8,
			Persistence: 0.7,
			Lacunarity:  2.5,
			Frequency:   1.5,
			Amplitude:   500,
		},
		Erosion: ErosionParams{
			Iterations:        4,
			HydraulicStrength: 0.25,
			ThermalStrength:   0.5,
			TalusDelta:        18,
			Halo:              9,
		},
	}
}

// New fills zero-valued tuning fields of w from Default and validates the
// result. All parameter checking happens here, never inside generation.
func New(w World) (World, error) {
	def := Default()
	if w.WorldSize == 0 {
		w.WorldSize = def.WorldSize
	}
	if w.TileSize == 0 {
		w.TileSize = def.TileSize
	}
	if w.Subdivisions == ([detailLevelCount]int{}) {
		w.Subdivisions = def.Subdivisions
	}
	if w.Workers == 0 {
		w.Workers = def.Workers
	}
	if w.MemoryBudget == 0 {
		w.MemoryBudget = def.MemoryBudget
	}
	if w.Noise == (NoiseParams{}) {
		w.Noise = def.Noise
	}
	if w.Erosion == (ErosionParams{}) {
		w.Erosion = def.Erosion
	}
	if err := w.validate(); err != nil {
		return World{}, err
	}
	return w, nil
}

func (w World) validate() error {
	if w.WorldSize <= 0 {
		return ValidationError{Field: "WorldSize", Reason: "must be positive"}
	}
	if w.TileSize <= 0 {
		return ValidationError{Field: "TileSize", Reason: "must be positive"}
	}
	if w.WorldSize%w.TileSize != 0 {
		return ValidationError{Field: "TileSize", Reason: fmt.Sprintf("world size %d not divisible by tile size %d", w.WorldSize, w.TileSize)}
	}
	for lvl := DetailLow; lvl < detailLevelCount; lvl++ {
		if w.Subdivisions[lvl] <= 1 {
			return ValidationError{
				Field:  "Subdivisions",
				Reason: fmt.Sprintf("%s level has %d subdivisions, need at least 2", lvl, w.Subdivisions[lvl]),
			}
		}
	}
	if w.Workers < 1 {
		return ValidationError{Field: "Workers", Reason: "need at least one worker"}
	}
	if w.MemoryBudget <= 0 {
		return ValidationError{Field: "MemoryBudget", Reason: "must be positive"}
	}
	n := w.Noise
	if n.Octaves < 1 {
		return ValidationError{Field: "Noise.Octaves", Reason: "need at least one octave"}
	}
	if n.Persistence <= 0 || n.Persistence > 1 {
		return ValidationError{Field: "Noise.Persistence", Reason: "must be in (0,1]"}
	}
	if n.Lacunarity <= 1 {
		return ValidationError{Field: "Noise.Lacunarity", Reason: "must be > 1"}
	}
	if n.Frequency <= 0 {
		return ValidationError{Field: "Noise.Frequency", Reason: "must be positive"}
	}
	if n.Amplitude <= 0 {
		return ValidationError{Field: "Noise.Amplitude", Reason: "must be positive"}
	}
	e := w.Erosion
	if e.Iterations < 0 {
		return ValidationError{Field: "Erosion.Iterations", Reason: "must not be negative"}
	}
	if e.HydraulicStrength < 0 || e.HydraulicStrength > 1 {
		return ValidationError{Field: "Erosion.HydraulicStrength", Reason: "must be in [0,1]"}
	}
	if e.ThermalStrength < 0 || e.ThermalStrength > 1 {
		return ValidationError{Field: "Erosion.ThermalStrength", Reason: "must be in [0,1]"}
	}
	if e.TalusDelta <= 0 {
		return ValidationError{Field: "Erosion.TalusDelta", Reason: "must be positive"}
	}
	if e.Iterations > 0 && e.Halo < 2*e.Iterations+1 {
		return ValidationError{
			Field:  "Erosion.Halo",
			Reason: fmt.Sprintf("halo %d too small for %d erosion iterations, need at least %d so edge samples never see the grid boundary", e.Halo, e.Iterations, 2*e.Iterations+1),
		}
	}
	return nil
}

// SubdivisionsFor returns the per-edge subdivision count of a detail level.
func (w World) SubdivisionsFor(d DetailLevel) int {
	if d < 0 || d >= detailLevelCount {
		return w.Subdivisions[DetailMedium]
	}
	return w.Subdivisions[d]
}

// TilesPerAxis returns how many tiles span one world edge.
func (w World) TilesPerAxis() int {
	return w.WorldSize / w.TileSize
}
