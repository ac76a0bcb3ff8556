package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"sort"
	"time"

	xdraw "golang.org/x/image/draw"

	"terragen/internal/config"
	"terragen/internal/profiling"
	"terragen/internal/terrain"
)

// terragen generates the tile region around the world origin and writes a
// grayscale heightmap preview. It is a stand-in for the engine's real
// consumers (mesh builders, exporters, interactive previews) and only uses
// the public generator API.

func main() {
	var (
		seed    = flag.Int64("seed", 42, "world seed")
		world   = flag.Int("world", 8000, "world size in meters")
		tile    = flag.Int("tile", 500, "tile size in meters")
		detail  = flag.String("detail", "medium", "detail level: low, medium, high, ultra")
		workers = flag.Int("workers", 8, "worker count for region generation")
		budget  = flag.Int64("budget-mb", 2048, "tile cache budget in MiB")
		radius  = flag.Int("radius", 1, "tile radius around the origin")
		out     = flag.String("out", "terrain.png", "preview PNG path")
		maxPx   = flag.Int("max-px", 1024, "downsample the preview to at most this edge length")
		stats   = flag.Bool("stats", false, "print cache and timing statistics")
	)
	flag.Parse()

	lvl, err := config.ParseDetail(*detail)
	if err != nil {
		fatal(err)
	}
	cfg, err := config.New(config.World{
		WorldSize:    *world,
		TileSize:     *tile,
		Seed:         *seed,
		Workers:      *workers,
		MemoryBudget: *budget << 20,
	})
	if err != nil {
		fatal(err)
	}

	gen := terrain.NewGenerator(cfg)

	var coords []terrain.TileCoord
	for y := -*radius; y <= *radius; y++ {
		for x := -*radius; x <= *radius; x++ {
			coords = append(coords, terrain.TileCoord{X: x, Y: y})
		}
	}

	start := time.Now()
	result, err := gen.GenerateRegion(context.Background(), coords, lvl)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("generated %d tiles at %s detail in %s\n", len(result.Tiles), lvl, time.Since(start).Round(time.Millisecond))

	if result.Failed() {
		for coord, tileErr := range result.Errors {
			fmt.Fprintf(os.Stderr, "tile %s failed: %v\n", coord, tileErr)
		}
	}

	img := assembleHeightmap(result, cfg.SubdivisionsFor(lvl), *radius)
	if img != nil {
		if err := writePreview(*out, img, *maxPx); err != nil {
			fatal(err)
		}
		fmt.Printf("wrote %s\n", *out)
	}

	if *stats {
		cs := gen.CacheStats()
		fmt.Printf("cache: %d entries, %d MiB, %d hits, %d misses, %d evictions\n",
			cs.Entries, cs.SizeBytes>>20, cs.Hits, cs.Misses, cs.Evictions)
		fmt.Println("timings:", profiling.TopN(5))
	}
}

// assembleHeightmap stitches the region's elevation grids into one global
// grid. Neighboring tiles share edge samples, so overlapping writes always
// agree.
func assembleHeightmap(result *terrain.RegionResult, sub, radius int) *image.Gray16 {
	if len(result.Tiles) == 0 {
		return nil
	}

	span := (2*radius+1)*sub + 1
	heights := make([][]float64, span)
	for i := range heights {
		heights[i] = make([]float64, span)
	}

	lo := math.Inf(1)
	hi := math.Inf(-1)
	coords := make([]terrain.TileCoord, 0, len(result.Tiles))
	for coord := range result.Tiles {
		coords = append(coords, coord)
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].Less(coords[j]) })

	for _, coord := range coords {
		payload := result.Tiles[coord]
		baseX := (coord.X + radius) * sub
		baseY := (coord.Y + radius) * sub
		for row := 0; row <= sub; row++ {
			for col := 0; col <= sub; col++ {
				h := payload.ElevationAt(col, row)
				heights[baseY+row][baseX+col] = h
				lo = math.Min(lo, h)
				hi = math.Max(hi, h)
			}
		}
	}

	img := image.NewGray16(image.Rect(0, 0, span, span))
	scale := 0.0
	if hi > lo {
		scale = 65535 / (hi - lo)
	}
	for row := 0; row < span; row++ {
		for col := 0; col < span; col++ {
			v := uint16((heights[row][col] - lo) * scale)
			img.SetGray16(col, row, color.Gray16{Y: v})
		}
	}
	return img
}

// writePreview downsamples the heightmap when it exceeds the pixel limit and
// writes it as PNG.
func writePreview(path string, img *image.Gray16, maxPx int) error {
	var final image.Image = img
	if b := img.Bounds(); maxPx > 0 && b.Dx() > maxPx {
		dst := image.NewGray16(image.Rect(0, 0, maxPx, maxPx))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		final = dst
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, final)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "terragen:", err)
	os.Exit(1)
}
