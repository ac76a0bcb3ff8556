package terrain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terragen/internal/config"
)

func regionCoords(radius int) []TileCoord {
	var coords []TileCoord
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			coords = append(coords, TileCoord{X: x, Y: y})
		}
	}
	return coords
}

// TestGenerateRegionFullWorld drives the reference scenario: a 3x3 region at
// medium detail from one seed, rerun from scratch, with every shared edge
// checked across tiles and runs.
func TestGenerateRegionFullWorld(t *testing.T) {
	cfg := testWorldConfig(t)
	coords := regionCoords(1)

	run := func() *RegionResult {
		gen := NewGenerator(cfg)
		result, err := gen.GenerateRegion(context.Background(), coords, config.DetailMedium)
		require.NoError(t, err)
		require.False(t, result.Failed(), "unexpected tile failures: %v", result.Errors)
		require.Len(t, result.Tiles, len(coords))
		return result
	}

	first := run()

	n := cfg.SubdivisionsFor(config.DetailMedium)
	for coord, tile := range first.Tiles {
		east, ok := first.Tiles[TileCoord{X: coord.X + 1, Y: coord.Y}]
		if ok {
			for i := 0; i <= n; i++ {
				require.Equal(t, tile.ElevationAt(n, i), east.ElevationAt(0, i),
					"east edge of %s row %d", coord, i)
			}
		}
		south, ok := first.Tiles[TileCoord{X: coord.X, Y: coord.Y + 1}]
		if ok {
			for i := 0; i <= n; i++ {
				require.Equal(t, tile.ElevationAt(i, n), south.ElevationAt(i, 0),
					"south edge of %s col %d", coord, i)
			}
		}
	}

	second := run()
	for coord, tile := range first.Tiles {
		require.True(t, tile.EqualGrids(second.Tiles[coord]), "rerun differs at %s", coord)
	}
}

func TestGenerateRegionDedupes(t *testing.T) {
	cfg := testWorldConfig(t)
	gen := NewGenerator(cfg)

	coords := []TileCoord{{0, 0}, {1, 0}, {0, 0}, {1, 0}, {0, 0}}
	result, err := gen.GenerateRegion(context.Background(), coords, config.DetailLow)
	require.NoError(t, err)

	assert.Len(t, result.Tiles, 2)
	assert.Equal(t, uint64(2), gen.CacheStats().Misses, "duplicates must not recompute")
}

func TestGenerateRegionEmpty(t *testing.T) {
	gen := NewGenerator(testWorldConfig(t))

	result, err := gen.GenerateRegion(context.Background(), nil, config.DetailLow)
	require.NoError(t, err)
	assert.Empty(t, result.Tiles)
	assert.False(t, result.Failed())
}

func TestGenerateRegionCancellation(t *testing.T) {
	gen := NewGenerator(testWorldConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := gen.GenerateRegion(ctx, regionCoords(1), config.DetailLow)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result, "cancelled region must not return partial results")
}

// TestGenerateRegionCancelledMidFlight verifies tiles whose computation was
// running when cancellation hit are discarded, not cached.
func TestGenerateRegionCancelledMidFlight(t *testing.T) {
	cfg := testWorldConfig(t)
	geo := NewGeology(cfg)
	geo.PrecomputeWorldFeatures()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := NewTileCache(cfg.MemoryBudget)
	cache.onCompute = func(TileKey) { cancel() } // cancel while computations are in flight

	p := &regionProcessor{cfg: cfg, geo: geo, cache: cache}
	result, err := p.generateRegion(ctx, regionCoords(1), config.DetailLow)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)

	stats := cache.Stats()
	assert.Equal(t, 0, stats.Entries, "tiles finishing after cancellation must not be cached")
	assert.Equal(t, int64(0), stats.SizeBytes)
}

// TestGenerateRegionFailureIsolation verifies one tile's failure is recorded
// per coordinate instead of aborting the whole call.
func TestGenerateRegionFailureIsolation(t *testing.T) {
	cfg := testWorldConfig(t)
	p := &regionProcessor{
		cfg:   cfg,
		geo:   NewGeology(cfg), // world features never precomputed, every tile fails
		cache: NewTileCache(cfg.MemoryBudget),
	}

	coords := regionCoords(1)
	result, err := p.generateRegion(context.Background(), coords, config.DetailLow)
	require.NoError(t, err, "per-tile failures must not fail the call")

	assert.Empty(t, result.Tiles)
	require.Len(t, result.Errors, len(coords))
	for coord, tileErr := range result.Errors {
		var te *TileError
		require.ErrorAs(t, tileErr, &te, "failure at %s must carry its coordinate", coord)
		assert.Equal(t, coord, te.Coord)
		assert.ErrorIs(t, tileErr, ErrNotPrecomputed)
	}
}

func TestGeneratorGenerateTile(t *testing.T) {
	cfg := testWorldConfig(t)
	gen := NewGenerator(cfg)

	coord := TileCoord{X: 2, Y: -1}
	p, err := gen.GenerateTile(context.Background(), coord, config.DetailLow)
	require.NoError(t, err)

	assert.Equal(t, coord, p.Coord())
	assert.Equal(t, config.DetailLow, p.Detail())
	assert.Equal(t, cfg.Seed, p.Seed())
	assert.Equal(t, cfg.SubdivisionsFor(config.DetailLow)+1, p.GridSize())
	assert.Greater(t, p.GenCost(), time.Duration(0))
}

func TestGeneratorCachesAcrossRegions(t *testing.T) {
	gen := NewGenerator(testWorldConfig(t))
	coords := regionCoords(1)

	_, err := gen.GenerateRegion(context.Background(), coords, config.DetailLow)
	require.NoError(t, err)
	misses := gen.CacheStats().Misses
	assert.Equal(t, uint64(len(coords)), misses)

	_, err = gen.GenerateRegion(context.Background(), coords, config.DetailLow)
	require.NoError(t, err)

	stats := gen.CacheStats()
	assert.Equal(t, misses, stats.Misses, "second region must be served from cache")
	assert.Equal(t, uint64(len(coords)), stats.Hits)
}

func TestGeneratorClearCache(t *testing.T) {
	gen := NewGenerator(testWorldConfig(t))
	coord := TileCoord{X: 0, Y: 0}

	_, err := gen.GenerateTile(context.Background(), coord, config.DetailLow)
	require.NoError(t, err)
	gen.ClearCache()

	assert.Equal(t, 0, gen.CacheStats().Entries)

	_, err = gen.GenerateTile(context.Background(), coord, config.DetailLow)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), gen.CacheStats().Misses, "cleared tiles recompute")
}

func TestDedupeSortedOrder(t *testing.T) {
	coords := []TileCoord{{2, 1}, {0, 0}, {2, 0}, {0, 0}, {-1, 5}}

	got := dedupeSorted(coords)

	assert.Equal(t, []TileCoord{{-1, 5}, {0, 0}, {2, 0}, {2, 1}}, got)
	assert.Equal(t, TileCoord{2, 1}, coords[0], "input slice must stay untouched")
}
