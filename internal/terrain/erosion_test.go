package terrain

import (
	"math"
	"math/rand"
	"testing"

	"terragen/internal/config"
)

func testErosionParams() config.ErosionParams {
	return config.ErosionParams{
		Iterations:        4,
		HydraulicStrength: 0.25,
		ThermalStrength:   0.5,
		TalusDelta:        18,
		Halo:              9,
	}
}

func randomGrid(n int, seed int64, scale float64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	g := makeGrid(n)
	for row := range g {
		for col := range g[row] {
			g[row][col] = (rng.Float64()*2 - 1) * scale
		}
	}
	return g
}

func cloneGrid(g [][]float64) [][]float64 {
	out := makeGrid(len(g))
	for row := range g {
		copy(out[row], g[row])
	}
	return out
}

func gridSum(g [][]float64) float64 {
	sum := 0.0
	for row := range g {
		for _, v := range g[row] {
			sum += v
		}
	}
	return sum
}

// TestErodeDeterministic verifies identical inputs erode to identical grids
func TestErodeDeterministic(t *testing.T) {
	a := randomGrid(48, 12345, 400)
	b := cloneGrid(a)

	newEroder(testErosionParams(), 48).erode(a)
	newEroder(testErosionParams(), 48).erode(b)

	for row := range a {
		for col := range a[row] {
			if a[row][col] != b[row][col] {
				t.Fatalf("erosion not deterministic at (%d,%d): %f != %f", col, row, a[row][col], b[row][col])
			}
		}
	}
}

// TestErodeConservesMass verifies material only moves, never appears or vanishes
func TestErodeConservesMass(t *testing.T) {
	g := randomGrid(48, 12345, 400)
	before := gridSum(g)

	newEroder(testErosionParams(), 48).erode(g)

	after := gridSum(g)
	if diff := math.Abs(after - before); diff > 1e-6 {
		t.Errorf("erosion changed total mass by %g (before=%f after=%f)", diff, before, after)
	}
}

// TestErodeFlattensSpike verifies a lone spike loses height to its neighbors
func TestErodeFlattensSpike(t *testing.T) {
	g := makeGrid(16)
	g[8][8] = 300

	newEroder(testErosionParams(), 16).erode(g)

	if g[8][8] >= 300 {
		t.Errorf("spike not eroded: still %f", g[8][8])
	}
	received := 0.0
	for _, off := range neighborOffsets {
		received += g[8+off[1]][8+off[0]]
	}
	if received <= 0 {
		t.Errorf("neighbors received no material: sum %f", received)
	}
}

// TestErodeZeroIterationsNoChange verifies iterations=0 leaves the grid untouched
func TestErodeZeroIterationsNoChange(t *testing.T) {
	params := testErosionParams()
	params.Iterations = 0
	params.Halo = 0

	g := randomGrid(16, 12345, 400)
	want := cloneGrid(g)

	deposits := newEroder(params, 16).erode(g)

	for row := range g {
		for col := range g[row] {
			if g[row][col] != want[row][col] {
				t.Fatalf("grid changed at (%d,%d) with zero iterations", col, row)
			}
			if deposits[row][col] != 0 {
				t.Fatalf("deposit recorded at (%d,%d) with zero iterations", col, row)
			}
		}
	}
}

// TestThermalPassRespectsTalus verifies gentle slopes below the talus delta are stable
func TestThermalPassRespectsTalus(t *testing.T) {
	params := testErosionParams()
	params.HydraulicStrength = 0 // isolate the thermal pass

	// Ramp with 10m steps, well under the 18m talus delta.
	g := makeGrid(16)
	for row := range g {
		for col := range g[row] {
			g[row][col] = float64(col) * 10
		}
	}
	want := cloneGrid(g)

	e := newEroder(params, 16)
	e.thermalPass(g, 1)

	for row := range g {
		for col := range g[row] {
			if g[row][col] != want[row][col] {
				t.Fatalf("stable slope moved at (%d,%d): %f != %f", col, row, g[row][col], want[row][col])
			}
		}
	}
}

// TestThermalPassClampsCliff verifies slopes beyond the talus delta shed material
func TestThermalPassClampsCliff(t *testing.T) {
	params := testErosionParams()
	params.HydraulicStrength = 0

	// 100m step between two flat shelves, far over the talus delta.
	g := makeGrid(16)
	for row := range g {
		for col := 8; col < 16; col++ {
			g[row][col] = 100
		}
	}

	e := newEroder(params, 16)
	e.thermalPass(g, 1)

	// The cliff edge must creep: high side loses, low side gains.
	if g[8][8] >= 100 {
		t.Errorf("high side of cliff unchanged: %f", g[8][8])
	}
	if g[8][7] <= 0 {
		t.Errorf("low side of cliff unchanged: %f", g[8][7])
	}
}

// TestHydraulicPassCarvesSlopes verifies flow moves material toward the lowest neighbor
func TestHydraulicPassCarvesSlopes(t *testing.T) {
	params := testErosionParams()
	params.ThermalStrength = 0

	// Steep pyramid around the center.
	g := makeGrid(17)
	for row := range g {
		for col := range g[row] {
			d := math.Max(math.Abs(float64(row-8)), math.Abs(float64(col-8)))
			g[row][col] = 400 - d*50
		}
	}
	peak := g[8][8]

	e := newEroder(params, 17)
	e.hydraulicPass(g, 1)

	if g[8][8] >= peak {
		t.Errorf("pyramid peak did not erode: %f", g[8][8])
	}
}

// TestErodeDepositsAccumulateInBasins verifies deposition concentrates in local minima
func TestErodeDepositsAccumulateInBasins(t *testing.T) {
	// Bowl: rim high, center low.
	g := makeGrid(17)
	for row := range g {
		for col := range g[row] {
			d := math.Hypot(float64(row-8), float64(col-8))
			g[row][col] = d * 40
		}
	}

	deposits := newEroder(testErosionParams(), 17).erode(g)

	if deposits[8][8] <= 0 {
		t.Errorf("bowl center received no deposits: %f", deposits[8][8])
	}
}
