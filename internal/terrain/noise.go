package terrain

import (
	"math"

	"terragen/internal/config"
)

// Deterministic 2D noise built on integer hashing of lattice points.
// Hashing the full int64 lattice coordinate keeps every field aperiodic over
// the whole representable range; a wrapped 256-entry permutation table would
// seam every 256 units.

// NoiseKind selects one of the closed set of noise fields. Dispatch happens
// in a single switch so the hot sampling path stays branch-predictable.
type NoiseKind uint8

const (
	// NoiseGradient is smooth Perlin-style gradient noise in [-1,1].
	NoiseGradient NoiseKind = iota
	// NoiseFBM sums octaves of gradient noise, normalized to [-1,1].
	NoiseFBM
	// NoiseRidged sharpens gradient noise toward ridge lines, in [-1,1].
	NoiseRidged
	// NoiseWorley is distance-to-nearest-feature-point noise in [0,1].
	NoiseWorley
)

// fade is the smoothstep-like curve 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// hash2 is a SplitMix64-style integer hash, stable across runs for the same
// inputs.
func hash2(x, y int64, seed int64) uint64 {
	v := uint64(x)*0x9E3779B97F4A7C15 + uint64(y)*0x517CC1B727220A95 + uint64(seed)
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

const invSqrt2 = 0.7071067811865476

// Unit gradient directions; picked by the low bits of the lattice hash.
var gradients = [8][2]float64{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{invSqrt2, invSqrt2}, {-invSqrt2, invSqrt2},
	{invSqrt2, -invSqrt2}, {-invSqrt2, -invSqrt2},
}

// gradDot returns the dot product of the hashed gradient at lattice point
// (ix,iy) with the offset (dx,dy).
func gradDot(ix, iy int64, seed int64, dx, dy float64) float64 {
	g := gradients[hash2(ix, iy, seed)&7]
	return g[0]*dx + g[1]*dy
}

// gradientNoise2D is classic Perlin-style gradient noise. With unit
// gradients the raw value is bounded by ±1/sqrt(2); the result is rescaled
// and clamped to the documented [-1,1].
func gradientNoise2D(x, y float64, seed int64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	ix := int64(x0)
	iy := int64(y0)

	fx := x - x0
	fy := y - y0
	u := fade(fx)
	v := fade(fy)

	n00 := gradDot(ix, iy, seed, fx, fy)
	n10 := gradDot(ix+1, iy, seed, fx-1, fy)
	n01 := gradDot(ix, iy+1, seed, fx, fy-1)
	n11 := gradDot(ix+1, iy+1, seed, fx-1, fy-1)

	n := lerp(lerp(n00, n10, u), lerp(n01, n11, u), v)
	return clamp(n*math.Sqrt2, -1, 1)
}

// fbm2D composes octaves of gradient noise; frequency grows by lacunarity
// and amplitude shrinks by persistence per octave. Dividing by the amplitude
// sum bounds the output to [-1,1] before any amplitude scaling.
func fbm2D(x, y float64, seed int64, octaves int, persistence, lacunarity float64) float64 {
	amplitude := 1.0
	frequency := 1.0
	sum := 0.0
	norm := 0.0
	for i := 0; i < octaves; i++ {
		sum += gradientNoise2D(x*frequency, y*frequency, seed+int64(i*131)) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// ridged2D transforms gradient noise into sharp ridge lines: values near
// zero become crests. sharpness > 1 narrows the crests. Output is in [-1,1].
func ridged2D(x, y float64, seed int64, sharpness float64) float64 {
	n := gradientNoise2D(x, y, seed)
	r := math.Pow(1-math.Abs(n), sharpness)
	return r*2 - 1
}

// worleyFeature returns the deterministic feature point of an integer cell.
func worleyFeature(ix, iy int64, seed int64) (float64, float64) {
	h := hash2(ix, iy, seed)
	jx := float64(h&0xFFFFFFFF) / float64(0xFFFFFFFF)
	jy := float64(h>>32) / float64(0xFFFFFFFF)
	return float64(ix) + jx, float64(iy) + jy
}

// worley2D is cellular noise: the distance to the nearest seeded feature
// point across the 3x3 cell neighborhood, normalized to [0,1]. Used for
// rock-formation-like patterns.
func worley2D(x, y float64, seed int64) float64 {
	ix := int64(math.Floor(x))
	iy := int64(math.Floor(y))

	best := math.MaxFloat64
	for dy := int64(-1); dy <= 1; dy++ {
		for dx := int64(-1); dx <= 1; dx++ {
			px, py := worleyFeature(ix+dx, iy+dy, seed)
			ddx := px - x
			ddy := py - y
			if d := ddx*ddx + ddy*ddy; d < best {
				best = d
			}
		}
	}
	// Nearest feature point is never farther than sqrt(2) cells away.
	return clamp(math.Sqrt(best)*invSqrt2, 0, 1)
}

// Sampler produces deterministic noise fields for one world. It carries only
// the seed and tuning parameters, so values are safe to share and sample
// concurrently.
type Sampler struct {
	seed   int64
	params config.NoiseParams
}

// NewSampler returns a sampler bound to a seed and noise tuning.
func NewSampler(seed int64, params config.NoiseParams) Sampler {
	return Sampler{seed: seed, params: params}
}

// Default sharpness of the ridged transform, matching the reference terrain
// tuning.
const ridgeSharpness = 2.0

// Sample evaluates one noise kind at (x, y). Identical inputs always yield
// identical outputs regardless of call order or concurrency.
func (s Sampler) Sample(kind NoiseKind, x, y float64) float64 {
	switch kind {
	case NoiseGradient:
		return gradientNoise2D(x, y, s.seed)
	case NoiseFBM:
		p := s.params
		return fbm2D(x, y, s.seed, p.Octaves, p.Persistence, p.Lacunarity)
	case NoiseRidged:
		return ridged2D(x, y, s.seed, ridgeSharpness)
	case NoiseWorley:
		return worley2D(x, y, s.seed)
	}
	return 0
}

// bandWeight is a smooth 0..1 ramp of v across [lo,hi]. Geology uses it to
// blend noise kinds by altitude band without visible seams.
func bandWeight(v, lo, hi float64) float64 {
	t := clamp((v-lo)/(hi-lo), 0, 1)
	return t * t * (3 - 2*t)
}
