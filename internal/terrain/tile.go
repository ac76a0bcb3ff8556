package terrain

import (
	"errors"
	"fmt"
	"time"

	"terragen/internal/config"
)

// ErrNotPrecomputed is returned when tile generation is attempted before the
// world-scale tectonic features exist for this seed and world size.
var ErrNotPrecomputed = errors.New("terrain: tectonic features not precomputed")

// ErrCacheExhausted is returned when the cache budget cannot admit a new
// payload even after evicting every unpinned entry. Callers should lower the
// detail level or shrink the requested region.
var ErrCacheExhausted = errors.New("terrain: cache budget cannot admit tile")

// TileError attributes a per-tile generation failure to its coordinate.
type TileError struct {
	Coord TileCoord
	Err   error
}

func (e *TileError) Error() string {
	return fmt.Sprintf("terrain: tile %s: %v", e.Coord, e.Err)
}

func (e *TileError) Unwrap() error { return e.Err }

// TileCoord identifies a tile's position in the world grid.
type TileCoord struct {
	X, Y int
}

func (c TileCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Less orders coordinates by X, then Y, for deterministic iteration.
func (c TileCoord) Less(o TileCoord) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	return c.Y < o.Y
}

// TileKey is the full cache key. Two keys are equal iff seed, coordinate and
// detail level all match, so changing seed or detail is always a cache miss.
type TileKey struct {
	Seed   int64
	Coord  TileCoord
	Detail config.DetailLevel
}

// SlopeClass buckets the local gradient magnitude.
type SlopeClass uint8

const (
	SlopeFlat SlopeClass = iota
	SlopeGentle
	SlopeSteep
	SlopeCliff
)

func (s SlopeClass) String() string {
	switch s {
	case SlopeFlat:
		return "flat"
	case SlopeGentle:
		return "gentle"
	case SlopeSteep:
		return "steep"
	case SlopeCliff:
		return "cliff"
	}
	return fmt.Sprintf("SlopeClass(%d)", uint8(s))
}

// Attributes carries the per-sample material estimates derived from the
// final elevation field.
type Attributes struct {
	Slope    SlopeClass
	Deposit  bool    // erosion left sediment here
	Moisture float64 // [0,1], higher near local minima and low ground
}

// TilePayload is the finished product of one tile generation: an elevation
// grid in meters and a matching attribute grid, both (subdivisions+1) per
// edge with edge samples shared exactly with neighboring tiles. Payloads are
// immutable once produced; the accessors hand out the backing grids and
// callers must treat them as read-only.
type TilePayload struct {
	coord     TileCoord
	detail    config.DetailLevel
	seed      int64
	elevation [][]float64
	attrs     [][]Attributes
	cost      time.Duration
}

// Coord returns the tile's position in the world grid.
func (p *TilePayload) Coord() TileCoord { return p.coord }

// Detail returns the detail level the tile was generated at.
func (p *TilePayload) Detail() config.DetailLevel { return p.detail }

// Seed returns the world seed the tile was generated from.
func (p *TilePayload) Seed() int64 { return p.seed }

// GridSize returns the per-edge sample count (subdivisions+1).
func (p *TilePayload) GridSize() int { return len(p.elevation) }

// Elevation returns the elevation grid in meters, indexed [row][col] with
// row 0 at the tile's minimum Y edge. Read-only.
func (p *TilePayload) Elevation() [][]float64 { return p.elevation }

// ElevationAt returns the height at grid position (col, row).
func (p *TilePayload) ElevationAt(col, row int) float64 { return p.elevation[row][col] }

// Attrs returns the attribute grid, same layout as Elevation. Read-only.
func (p *TilePayload) Attrs() [][]Attributes { return p.attrs }

// AttributeAt returns the attributes at grid position (col, row).
func (p *TilePayload) AttributeAt(col, row int) Attributes { return p.attrs[row][col] }

// GenCost returns the wall-clock time spent generating this tile.
func (p *TilePayload) GenCost() time.Duration { return p.cost }

// SizeBytes estimates the payload's memory footprint for cache accounting.
func (p *TilePayload) SizeBytes() int64 {
	n := int64(len(p.elevation))
	const elevBytes = 8
	const attrBytes = 16 // SlopeClass + bool + padding + float64
	return n*n*(elevBytes+attrBytes) + 128
}

// EqualGrids reports whether two payloads carry bit-identical elevation and
// attribute grids. Used by determinism checks.
func (p *TilePayload) EqualGrids(o *TilePayload) bool {
	if p.GridSize() != o.GridSize() {
		return false
	}
	for row := range p.elevation {
		for col := range p.elevation[row] {
			if p.elevation[row][col] != o.elevation[row][col] {
				return false
			}
			if p.attrs[row][col] != o.attrs[row][col] {
				return false
			}
		}
	}
	return true
}
