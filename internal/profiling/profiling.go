package profiling

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Lightweight timing accumulator for generation-pipeline insights. Totals
// accumulate per named operation for the life of the process; the CLI's
// -stats flag prints them after a run.

var (
	mu     sync.Mutex
	totals = make(map[string]total)
)

type total struct {
	dur   time.Duration
	count int64
}

// Track returns a stop function that records the elapsed time under the
// given name. Usage: defer profiling.Track("terrain.GenerateTile")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		t := totals[name]
		t.dur += d
		t.count++
		totals[name] = t
		mu.Unlock()
	}
}

// Reset clears all accumulated totals.
func Reset() {
	mu.Lock()
	totals = make(map[string]total)
	mu.Unlock()
}

// Snapshot returns a copy of the accumulated totals per operation name.
func Snapshot() map[string]time.Duration {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]time.Duration, len(totals))
	for k, v := range totals {
		out[k] = v.dur
	}
	return out
}

// TopN formats the N most expensive operations with their call counts.
// Example: "terrain.GenerateTile:842ms/9, terrain.GenerateRegion:861ms/1"
func TopN(n int) string {
	mu.Lock()
	type pair struct {
		name  string
		dur   time.Duration
		count int64
	}
	list := make([]pair, 0, len(totals))
	for k, v := range totals {
		list = append(list, pair{name: k, dur: v.dur, count: v.count})
	}
	mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].dur > list[j].dur })
	if n > len(list) {
		n = len(list)
	}
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, fmt.Sprintf("%s:%s/%d", list[i].name, list[i].dur.Round(time.Millisecond), list[i].count))
	}
	return strings.Join(parts, ", ")
}
