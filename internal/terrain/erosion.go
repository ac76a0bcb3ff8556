package terrain

import (
	"math"

	"terragen/internal/config"
)

// Per-tile erosion over the extended grid (tile samples plus halo). Both
// passes gather deltas from a snapshot of the heights before applying any of
// them, so a sample's result depends only on its world-space neighborhood
// and never on traversal order or on which tile owns it. The outermost ring
// of the grid is never an initiator, so the first pass already corrupts the
// two outermost rings (ring 0 misses its outside senders, ring 1 the flow
// ring 0 would have sent) and every later pass pushes the corruption one
// ring further in. With two passes per iteration the front stops at ring
// 2*iterations; a halo at least one sample wider keeps every tile sample
// exact and tile-independent, and two neighboring tiles compute
// bit-identical heights along their shared edge.
//
// True hydraulic erosion would route flow across the whole world; limiting
// each pass to tile+halo is the intentional approximation that keeps tiles
// independently generatable. The halo width is tunable via
// config.ErosionParams.Halo.

// eroder reuses its scratch buffers across iterations of one tile.
type eroder struct {
	params   config.ErosionParams
	delta    [][]float64
	deposits [][]float64
}

func newEroder(params config.ErosionParams, ext int) *eroder {
	return &eroder{
		params:   params,
		delta:    makeGrid(ext),
		deposits: makeGrid(ext),
	}
}

func makeGrid(n int) [][]float64 {
	g := make([][]float64, n)
	for i := range g {
		g[i] = make([]float64, n)
	}
	return g
}

// erode runs the configured number of hydraulic+thermal iterations in place
// on the extended height grid and returns the accumulated deposition field.
func (e *eroder) erode(h [][]float64) [][]float64 {
	for iter := 0; iter < e.params.Iterations; iter++ {
		// Only the outermost ring lacks a full neighborhood and is never an
		// initiator.
		e.hydraulicPass(h, 1)
		e.thermalPass(h, 1)
	}
	return e.deposits
}

var neighborOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// hydraulicPass is a flow-accumulation-style approximation: every sample
// sends a fraction of its steepest drop to its lowest neighbor. Slopes are
// carved and local minima collect sediment, which is how valleys deepen and
// basins silt up.
func (e *eroder) hydraulicPass(h [][]float64, margin int) {
	n := len(h)
	e.zeroDelta(n)

	for row := margin; row < n-margin; row++ {
		for col := margin; col < n-margin; col++ {
			cur := h[row][col]
			lowest := cur
			lowRow, lowCol := row, col
			for _, off := range neighborOffsets {
				nr, nc := row+off[1], col+off[0]
				if h[nr][nc] < lowest {
					lowest = h[nr][nc]
					lowRow, lowCol = nr, nc
				}
			}
			drop := cur - lowest
			if drop <= 0 {
				continue // local minimum; receives, never sends
			}
			// Move at most half the drop so the pair cannot invert.
			flow := e.params.HydraulicStrength * drop * 0.5
			e.delta[row][col] -= flow
			e.delta[lowRow][lowCol] += flow
		}
	}

	e.apply(h, n)
}

// thermalPass clamps over-steep slopes: whenever two 4-neighbors differ by
// more than the talus delta, part of the excess creeps downhill.
func (e *eroder) thermalPass(h [][]float64, margin int) {
	n := len(h)
	e.zeroDelta(n)
	talus := e.params.TalusDelta
	strength := e.params.ThermalStrength

	for row := margin; row < n-margin; row++ {
		for col := margin; col < n-margin; col++ {
			// Right and down pairs only, so each pair is visited once.
			e.settlePair(h, row, col, row, col+1, talus, strength)
			e.settlePair(h, row, col, row+1, col, talus, strength)
		}
	}

	e.apply(h, n)
}

func (e *eroder) settlePair(h [][]float64, r0, c0, r1, c1 int, talus, strength float64) {
	diff := h[r0][c0] - h[r1][c1]
	excess := math.Abs(diff) - talus
	if excess <= 0 {
		return
	}
	move := strength * excess * 0.5
	if diff > 0 {
		e.delta[r0][c0] -= move
		e.delta[r1][c1] += move
	} else {
		e.delta[r0][c0] += move
		e.delta[r1][c1] -= move
	}
}

func (e *eroder) zeroDelta(n int) {
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			e.delta[row][col] = 0
		}
	}
}

// apply folds the gathered deltas into the heights and tracks net uplift as
// deposition.
func (e *eroder) apply(h [][]float64, n int) {
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			d := e.delta[row][col]
			if d == 0 {
				continue
			}
			h[row][col] += d
			if d > 0 {
				e.deposits[row][col] += d
			}
		}
	}
}
