package terrain

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// World-scale tectonic features. Computed once per (seed, world size) and
// never mutated afterwards, so all workers may read the state concurrently
// without locking.

// PlateType distinguishes crust kinds; continental crust rises, oceanic
// crust sinks.
type PlateType uint8

const (
	PlateContinental PlateType = iota
	PlateOceanic
)

// BoundaryType classifies the relative motion of two adjacent plates.
type BoundaryType uint8

const (
	BoundaryConvergent BoundaryType = iota
	BoundaryDivergent
	BoundaryTransform
)

// Plate is one tectonic plate. Coordinates are world-normalized: the world
// extent maps to [-0.5, 0.5] on both axes.
type Plate struct {
	Center    mgl64.Vec2
	Radius    float64
	Type      PlateType
	Velocity  mgl64.Vec2
	Density   float64
	Thickness float64
	Age       float64 // millions of years
}

// Boundary joins two adjacent plates at the midpoint between their centers.
type Boundary struct {
	A, B     int // plate indices
	Type     BoundaryType
	Strength float64
	Pos      mgl64.Vec2
}

// Fault is a localized fracture near a boundary. Angle doubles as the
// mountain-range orientation field for ridged detail.
type Fault struct {
	Pos      mgl64.Vec2
	Length   float64
	Angle    float64
	Activity float64
	Origin   BoundaryType
}

// TectonicState holds the precomputed plate geometry for one world.
// Read-only once computed.
type TectonicState struct {
	Seed       int64
	WorldSize  int
	Plates     []Plate
	Boundaries []Boundary
	Faults     []Fault
}

const defaultPlateCount = 8

// PrecomputeTectonics derives the full tectonic state from the seed and
// world size. The same inputs always produce an equal state: the only
// randomness is the seeded stream consumed in a fixed order.
func PrecomputeTectonics(seed int64, worldSize int) *TectonicState {
	rng := rand.New(rand.NewSource(seed))

	ts := &TectonicState{Seed: seed, WorldSize: worldSize}
	ts.Plates = generatePlates(rng, defaultPlateCount)
	ts.Boundaries = calculateBoundaries(ts.Plates)
	ts.Faults = generateFaults(rng, ts.Plates, ts.Boundaries)
	return ts
}

func generatePlates(rng *rand.Rand, count int) []Plate {
	plates := make([]Plate, 0, count)
	for n := 0; n < count; n++ {
		p := Plate{
			Center: mgl64.Vec2{
				uniform(rng, -0.4, 0.4),
				uniform(rng, -0.4, 0.4),
			},
			Radius: uniform(rng, 0.15, 0.35),
		}
		// Continental crust is more common, lighter and thicker.
		if rng.Float64() < 0.6 {
			p.Type = PlateContinental
			p.Density = uniform(rng, 2.7, 3.0)
			p.Thickness = uniform(rng, 30, 70)
		} else {
			p.Type = PlateOceanic
			p.Density = uniform(rng, 3.0, 3.3)
			p.Thickness = uniform(rng, 5, 15)
		}
		p.Velocity = mgl64.Vec2{
			uniform(rng, -0.001, 0.001),
			uniform(rng, -0.001, 0.001),
		}
		p.Age = uniform(rng, 10, 200)
		plates = append(plates, p)
	}
	return plates
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// calculateBoundaries links every plate pair whose centers sit closer than
// 1.2x their combined radii.
func calculateBoundaries(plates []Plate) []Boundary {
	var boundaries []Boundary
	for i := range plates {
		for j := i + 1; j < len(plates); j++ {
			a, b := plates[i], plates[j]
			sep := b.Center.Sub(a.Center)
			if sep.Len() >= (a.Radius+b.Radius)*1.2 {
				continue
			}
			boundaries = append(boundaries, Boundary{
				A:        i,
				B:        j,
				Type:     boundaryType(a, b),
				Strength: boundaryStrength(a, b),
				Pos:      a.Center.Add(b.Center).Mul(0.5),
			})
		}
	}
	return boundaries
}

// boundaryType classifies relative plate motion: moving apart is divergent,
// closing is convergent, near-parallel sliding is transform.
func boundaryType(a, b Plate) BoundaryType {
	sep := b.Center.Sub(a.Center)
	if sep.Len() == 0 {
		return BoundaryTransform
	}
	along := b.Velocity.Sub(a.Velocity).Dot(sep.Normalize())
	switch {
	case math.Abs(along) < 1e-4:
		return BoundaryTransform
	case along > 0:
		return BoundaryDivergent
	default:
		return BoundaryConvergent
	}
}

// boundaryStrength grows with density contrast and relative speed.
func boundaryStrength(a, b Plate) float64 {
	densityDiff := math.Abs(a.Density - b.Density)
	relSpeed := b.Velocity.Sub(a.Velocity).Len()
	return (densityDiff*0.5 + relSpeed*1000) * 0.5
}

// generateFaults scatters faults near each boundary; convergent boundaries
// fracture the most.
func generateFaults(rng *rand.Rand, plates []Plate, boundaries []Boundary) []Fault {
	var faults []Fault
	for _, bd := range boundaries {
		var count int
		switch bd.Type {
		case BoundaryConvergent:
			count = 3 + rng.Intn(5)
		case BoundaryDivergent:
			count = 2 + rng.Intn(3)
		default:
			count = 1 + rng.Intn(3)
		}
		for n := 0; n < count; n++ {
			faults = append(faults, Fault{
				Pos: bd.Pos.Add(mgl64.Vec2{
					uniform(rng, -0.1, 0.1),
					uniform(rng, -0.1, 0.1),
				}),
				Length:   uniform(rng, 0.05, 0.2),
				Angle:    uniform(rng, 0, 2*math.Pi),
				Activity: uniform(rng, 0.1, 1.0),
				Origin:   bd.Type,
			})
		}
	}
	return faults
}

// Influence returns the tectonic elevation term at a world-normalized
// position: continental plates lift, oceanic plates sink, convergent
// boundaries pile mountains, divergent boundaries open rifts, transform
// boundaries ripple, and faults push directionally along their strike.
// Unitless; geology scales it into meters.
func (ts *TectonicState) Influence(x, y float64) float64 {
	influence := 0.0

	for i := range ts.Plates {
		p := &ts.Plates[i]
		d := dist(x, y, p.Center)
		if p.Type == PlateContinental {
			influence += math.Exp(-d/(p.Radius*0.5)) * 0.8
		} else {
			influence -= math.Exp(-d/(p.Radius*0.3)) * 0.4
		}
	}

	for i := range ts.Boundaries {
		bd := &ts.Boundaries[i]
		d := dist(x, y, bd.Pos)
		switch bd.Type {
		case BoundaryConvergent:
			influence += math.Exp(-d/0.1) * bd.Strength * 1.5
		case BoundaryDivergent:
			influence -= math.Exp(-d/0.08) * bd.Strength * 0.8
		default:
			influence += math.Sin(d*20) * math.Exp(-d/0.05) * bd.Strength * 0.3
		}
	}

	for i := range ts.Faults {
		f := &ts.Faults[i]
		dx := x - f.Pos[0]
		dy := y - f.Pos[1]
		d := math.Hypot(dx, dy)
		directional := math.Abs(math.Cos(f.Angle)*dx + math.Sin(f.Angle)*dy)
		term := math.Exp(-d/0.03) * f.Activity * (1 + directional) * 0.2
		if f.Origin == BoundaryConvergent {
			influence += term
		} else {
			influence -= term * 0.5
		}
	}

	return influence
}

// Stress returns the local tectonic stress level, highest near boundaries
// and active faults. Geology uses it to concentrate ridged detail where the
// crust is fractured.
func (ts *TectonicState) Stress(x, y float64) float64 {
	stress := 0.0
	for i := range ts.Boundaries {
		bd := &ts.Boundaries[i]
		stress += math.Exp(-dist(x, y, bd.Pos)/0.15) * bd.Strength
	}
	for i := range ts.Faults {
		f := &ts.Faults[i]
		stress += math.Exp(-dist(x, y, f.Pos)/0.05) * f.Activity
	}
	return stress
}

// PlateAt returns the plate covering a world-normalized position, or nil
// when the position falls between plates.
func (ts *TectonicState) PlateAt(x, y float64) *Plate {
	for i := range ts.Plates {
		p := &ts.Plates[i]
		if dist(x, y, p.Center) <= p.Radius {
			return p
		}
	}
	return nil
}

func dist(x, y float64, p mgl64.Vec2) float64 {
	return math.Hypot(x-p[0], y-p[1])
}
