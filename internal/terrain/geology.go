package terrain

import (
	"fmt"
	"math"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"terragen/internal/config"
	"terragen/internal/profiling"
)

// Geology turns raw noise into terrain with large-scale structure and
// erosion-like secondary detail. One instance serves one world; the tectonic
// state it owns is computed once and then shared read-only across all
// concurrent tile generations.
type Geology struct {
	cfg     config.World
	sampler Sampler
	mask    opensimplex.Noise // large-scale zone mask, normalized [0,1)
	state   *TectonicState
}

// NewGeology builds the geological system for one world configuration.
// PrecomputeWorldFeatures must run before the first GenerateTile.
func NewGeology(cfg config.World) *Geology {
	return &Geology{
		cfg:     cfg,
		sampler: NewSampler(cfg.Seed, cfg.Noise),
		mask:    opensimplex.NewNormalized(cfg.Seed),
	}
}

// PrecomputeWorldFeatures computes the world-scale tectonic state for this
// world's seed and size. Expensive next to a single tile, cheap next to the
// whole world. Idempotent: repeated calls keep the first result.
func (g *Geology) PrecomputeWorldFeatures() *TectonicState {
	defer profiling.Track("terrain.PrecomputeWorldFeatures")()
	if g.state == nil {
		g.state = PrecomputeTectonics(g.cfg.Seed, g.cfg.WorldSize)
	}
	return g.state
}

// Elevation shaping constants. Unitless weights over noise in [-1,1]; the
// single config amplitude turns the result into meters.
const (
	elevationCurveExponent = 1.35 // biases toward plains, keeps peaks rare
	tectonicWeight         = 0.25
	ridgeBandLow           = 0.12 // ridged detail fades in above this estimate
	ridgeBandHigh          = 0.55
	ridgeFrequency         = 3.0
	rockFrequency          = 12.0
	ridgeBaseGain          = 0.3
	ridgeStressGain        = 0.35
	rockGain               = 0.1
	maskFrequency          = 0.8
	maskLow                = 0.55
	maskSpan               = 0.9

	// Final elevations beyond this multiple of the amplitude indicate a
	// numeric fault in shaping, never legitimate terrain.
	sanityBound = 6.0
)

// sampleElevation computes the pre-erosion elevation in meters at an
// absolute world coordinate. All structure derives from continuous
// world-space fields, which is what makes neighboring tiles agree exactly
// along shared edges.
func (g *Geology) sampleElevation(wx, wy float64) float64 {
	p := g.cfg.Noise
	nx := wx / float64(g.cfg.WorldSize)
	ny := wy / float64(g.cfg.WorldSize)

	base := g.sampler.Sample(NoiseFBM, nx*p.Frequency, ny*p.Frequency)
	base = math.Copysign(math.Pow(math.Abs(base), elevationCurveExponent), base)

	tect := g.state.Influence(nx, ny) * tectonicWeight
	est := base + tect // best-estimate altitude, drives band blending

	// Ridged and cellular detail fade in smoothly across the high band and
	// concentrate where the crust is stressed, so band borders cannot seam.
	w := bandWeight(est, ridgeBandLow, ridgeBandHigh)
	h := est
	if w > 0 {
		stress := clamp(g.state.Stress(nx, ny), 0, 1)
		ridge := g.sampler.Sample(NoiseRidged, nx*p.Frequency*ridgeFrequency, ny*p.Frequency*ridgeFrequency)
		rock := g.sampler.Sample(NoiseWorley, nx*p.Frequency*rockFrequency, ny*p.Frequency*rockFrequency)
		h += w * (ridgeBaseGain + ridgeStressGain*stress) * ridge
		h += w * rockGain * (rock - 0.5)
	}

	// Large-scale multiplier carves plains/hills/mountain zones without
	// hard discontinuities.
	m := maskLow + maskSpan*g.mask.Eval2(nx*maskFrequency, ny*maskFrequency)
	return h * m * p.Amplitude
}

// GenerateTile produces the full payload for one tile at a detail level:
// elevation grid, attribute grid and generation metadata. Sample points sit
// at absolute world coordinates, so edge samples coincide exactly with the
// neighboring tiles'.
func (g *Geology) GenerateTile(coord TileCoord, detail config.DetailLevel) (*TilePayload, error) {
	defer profiling.Track("terrain.GenerateTile")()
	if g.state == nil {
		return nil, ErrNotPrecomputed
	}
	start := time.Now()

	sub := g.cfg.SubdivisionsFor(detail)
	n := sub + 1
	halo := g.cfg.Erosion.Halo
	ext := n + 2*halo
	step := float64(g.cfg.TileSize) / float64(sub)

	// Sample positions derive from a single global integer index per axis,
	// so a world sample shared by neighboring tiles evaluates at the exact
	// same float64 coordinate in both and edges match bit for bit.
	heights := makeGrid(ext)
	for row := 0; row < ext; row++ {
		wy := float64((coord.Y*sub+row-halo)*g.cfg.TileSize) / float64(sub)
		for col := 0; col < ext; col++ {
			wx := float64((coord.X*sub+col-halo)*g.cfg.TileSize) / float64(sub)
			heights[row][col] = g.sampleElevation(wx, wy)
		}
	}

	deposits := newEroder(g.cfg.Erosion, ext).erode(heights)

	payload := &TilePayload{
		coord:     coord,
		detail:    detail,
		seed:      g.cfg.Seed,
		elevation: make([][]float64, n),
		attrs:     make([][]Attributes, n),
	}
	for row := 0; row < n; row++ {
		payload.elevation[row] = make([]float64, n)
		copy(payload.elevation[row], heights[row+halo][halo:halo+n])
	}
	if err := g.checkElevationRange(coord, payload.elevation); err != nil {
		return nil, err
	}
	g.deriveAttributes(payload, heights, deposits, halo, step)

	payload.cost = time.Since(start)
	return payload, nil
}

// checkElevationRange rejects tiles whose shaping went numerically unstable.
func (g *Geology) checkElevationRange(coord TileCoord, elevation [][]float64) error {
	limit := sanityBound * g.cfg.Noise.Amplitude
	for row := range elevation {
		for _, h := range elevation[row] {
			if math.IsNaN(h) || math.IsInf(h, 0) || math.Abs(h) > limit {
				return &TileError{
					Coord: coord,
					Err:   fmt.Errorf("elevation %g outside sane range ±%g", h, limit),
				}
			}
		}
	}
	return nil
}

// Slope classification thresholds on gradient magnitude (rise over run).
const (
	slopeGentleAt = 0.08
	slopeSteepAt  = 0.3
	slopeCliffAt  = 0.7
)

// depositFloor is the minimum accumulated sediment, as a fraction of the
// talus delta, that flags a sample as a deposition site.
const depositFloor = 0.05

// deriveAttributes fills the attribute grid from the eroded extended
// heights: slope class from the local gradient, deposit flag from the
// erosion pass, moisture from proximity to the local minimum and from
// absolute height.
func (g *Geology) deriveAttributes(p *TilePayload, heights, deposits [][]float64, halo int, step float64) {
	n := len(p.elevation)
	amp := g.cfg.Noise.Amplitude
	depositMin := g.cfg.Erosion.TalusDelta * depositFloor

	for row := 0; row < n; row++ {
		p.attrs[row] = make([]Attributes, n)
		er := row + halo
		for col := 0; col < n; col++ {
			ec := col + halo
			h := heights[er][ec]

			gx := (heights[er][ec+1] - heights[er][ec-1]) / (2 * step)
			gy := (heights[er+1][ec] - heights[er-1][ec]) / (2 * step)
			grad := math.Hypot(gx, gy)

			var slope SlopeClass
			switch {
			case grad < slopeGentleAt:
				slope = SlopeFlat
			case grad < slopeSteepAt:
				slope = SlopeGentle
			case grad < slopeCliffAt:
				slope = SlopeSteep
			default:
				slope = SlopeCliff
			}

			lo, hi := h, h
			for _, off := range neighborOffsets {
				v := heights[er+off[1]][ec+off[0]]
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
			}
			rel := 0.0
			if hi > lo {
				rel = (h - lo) / (hi - lo)
			}
			lowland := 1 - clamp(h/amp, 0, 1)
			moisture := clamp(0.6*(1-rel)+0.4*lowland, 0, 1)

			p.attrs[row][col] = Attributes{
				Slope:    slope,
				Deposit:  deposits[er][ec] > depositMin,
				Moisture: moisture,
			}
		}
	}
}
