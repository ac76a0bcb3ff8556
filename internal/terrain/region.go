package terrain

import (
	"context"
	"errors"
	"sort"
	"sync"

	"terragen/internal/config"
	"terragen/internal/profiling"
)

// RegionResult carries everything a region request produced: finished
// payloads keyed by coordinate and, separately, the per-tile failures.
// Callers always observe the whole requested region at once.
type RegionResult struct {
	Tiles  map[TileCoord]*TilePayload
	Errors map[TileCoord]error
}

// Failed reports whether any tile in the region failed.
func (r *RegionResult) Failed() bool { return len(r.Errors) > 0 }

// regionProcessor fans tile requests out over a bounded worker pool. Workers
// pull one coordinate at a time from a shared channel rather than owning a
// fixed partition, which balances the uneven per-tile cost of erosion.
type regionProcessor struct {
	cfg   config.World
	geo   *Geology
	cache *TileCache
}

type tileResult struct {
	coord   TileCoord
	payload *TilePayload
	err     error
}

// generateRegion computes every requested tile, deduplicated and dispatched
// in deterministic (X, then Y) order. A single tile's failure is recorded in
// the result without aborting its siblings. Cancellation never interrupts a
// running computation: tiles not yet started are skipped, tiles in flight run
// to completion but their results are discarded instead of cached, tiles
// cached before the cancellation stay cached, and the call as a whole
// reports ctx.Err().
func (p *regionProcessor) generateRegion(ctx context.Context, coords []TileCoord, detail config.DetailLevel) (*RegionResult, error) {
	defer profiling.Track("terrain.GenerateRegion")()

	queue := dedupeSorted(coords)
	if len(queue) == 0 {
		return &RegionResult{
			Tiles:  map[TileCoord]*TilePayload{},
			Errors: map[TileCoord]error{},
		}, nil
	}

	jobs := make(chan TileCoord)
	out := make(chan tileResult, len(queue))

	workers := p.cfg.Workers
	if workers > len(queue) {
		workers = len(queue)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for coord := range jobs {
				out <- p.processTile(ctx, coord, detail)
			}
		}()
	}

	for _, coord := range queue {
		jobs <- coord
	}
	close(jobs)
	wg.Wait()
	close(out)

	if err := ctx.Err(); err != nil {
		// Cancelled as a whole; partial results are discarded.
		return nil, err
	}

	result := &RegionResult{
		Tiles:  make(map[TileCoord]*TilePayload, len(queue)),
		Errors: make(map[TileCoord]error),
	}
	for r := range out {
		if r.err != nil {
			result.Errors[r.coord] = r.err
		} else {
			result.Tiles[r.coord] = r.payload
		}
	}
	return result, nil
}

func (p *regionProcessor) processTile(ctx context.Context, coord TileCoord, detail config.DetailLevel) tileResult {
	if err := ctx.Err(); err != nil {
		return tileResult{coord: coord, err: err}
	}
	key := TileKey{Seed: p.cfg.Seed, Coord: coord, Detail: detail}
	payload, err := p.cache.GetOrCompute(key, func() (*TilePayload, error) {
		payload, err := p.geo.GenerateTile(coord, detail)
		if err != nil {
			return nil, err
		}
		// A tile that finished after cancellation must not enter the cache;
		// failing the computation makes the cache drop the entry.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return payload, nil
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			if _, ok := err.(*TileError); !ok {
				err = &TileError{Coord: coord, Err: err}
			}
		}
		return tileResult{coord: coord, err: err}
	}
	return tileResult{coord: coord, payload: payload}
}

// dedupeSorted returns the unique coordinates in deterministic order.
func dedupeSorted(coords []TileCoord) []TileCoord {
	if len(coords) == 0 {
		return nil
	}
	queue := make([]TileCoord, len(coords))
	copy(queue, coords)
	sort.Slice(queue, func(i, j int) bool { return queue[i].Less(queue[j]) })
	unique := queue[:1]
	for _, c := range queue[1:] {
		if c != unique[len(unique)-1] {
			unique = append(unique, c)
		}
	}
	return unique
}
