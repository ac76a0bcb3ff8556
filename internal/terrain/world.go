package terrain

import (
	"context"
	"sync"

	"terragen/internal/config"
)

// Generator is the composition root: it owns the geological system with its
// precomputed world features, the tile cache and the parallel region
// processor, and exposes the generation API consumed by mesh builders,
// exporters and interactive previews.
type Generator struct {
	cfg       config.World
	geo       *Geology
	cache     *TileCache
	processor *regionProcessor

	precomputeOnce sync.Once
}

// NewGenerator wires a generator for one validated world configuration.
// World features are computed lazily on the first tile request; call
// Precompute to pay that cost eagerly.
func NewGenerator(cfg config.World) *Generator {
	geo := NewGeology(cfg)
	cache := NewTileCache(cfg.MemoryBudget)
	return &Generator{
		cfg:       cfg,
		geo:       geo,
		cache:     cache,
		processor: &regionProcessor{cfg: cfg, geo: geo, cache: cache},
	}
}

// Config returns the generator's immutable world configuration.
func (g *Generator) Config() config.World { return g.cfg }

// Precompute eagerly computes the world-scale tectonic features. Safe to
// call any number of times from any goroutine.
func (g *Generator) Precompute() {
	g.precomputeOnce.Do(func() { g.geo.PrecomputeWorldFeatures() })
}

// GenerateTile generates (or returns the cached) payload for a single tile,
// the path used by single-tile previews.
func (g *Generator) GenerateTile(ctx context.Context, coord TileCoord, detail config.DetailLevel) (*TilePayload, error) {
	g.Precompute()
	r := g.processor.processTile(ctx, coord, detail)
	return r.payload, r.err
}

// GenerateRegion generates every requested tile concurrently and returns
// payloads plus per-tile failures keyed by coordinate. See RegionResult for
// the failure isolation and cancellation contract.
func (g *Generator) GenerateRegion(ctx context.Context, coords []TileCoord, detail config.DetailLevel) (*RegionResult, error) {
	g.Precompute()
	return g.processor.generateRegion(ctx, coords, detail)
}

// CacheStats returns the tile cache activity counters.
func (g *Generator) CacheStats() CacheStats { return g.cache.Stats() }

// ClearCache drops all cached tiles; world features stay precomputed.
func (g *Generator) ClearCache() { g.cache.Clear() }
