package parallel

import (
	"sync/atomic"
	"testing"
)

func TestFor_CoversRange(t *testing.T) {
	cfg := DefaultConfig()

	n := 1000
	seen := make([]int32, n)
	For(n, func(i int) {
		atomic.AddInt32(&seen[i], 1)
	}, cfg)

	for i, c := range seen {
		if c != 1 {
			t.Errorf("index %d visited %d times", i, c)
		}
	}
}

func TestFor_SequentialFallback(t *testing.T) {
	var counter int64
	For(100, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, Config{Enabled: false})

	if counter != 100 {
		t.Errorf("got %d iterations, want 100", counter)
	}
}

func TestFor_BelowMinChunk(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := cfg.MinChunkSize - 1
	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("got %d iterations, want %d", counter, n)
	}
}

func TestForBatch_DisjointWrites(t *testing.T) {
	// The conv kernels rely on (b, c) pairs writing disjoint output
	// regions; the result must match a sequential run exactly.
	batch, channels := 8, 16
	run := func(cfg Config) []int {
		out := make([]int, batch*channels)
		ForBatch(batch, channels, func(b, c int) {
			out[b*channels+c] = b*1000 + c
		}, cfg)
		return out
	}

	par := run(DefaultConfig())
	seq := run(Config{Enabled: false})
	for i := range par {
		if par[i] != seq[i] {
			t.Fatalf("element %d: parallel %d, sequential %d", i, par[i], seq[i])
		}
	}
}

func BenchmarkFor(b *testing.B) {
	n := 10000
	for _, bc := range []struct {
		name string
		cfg  Config
	}{
		{"parallel", DefaultConfig()},
		{"sequential", Config{Enabled: false}},
	} {
		b.Run(bc.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				var sum int64
				For(n, func(i int) {
					atomic.AddInt64(&sum, int64(i))
				}, bc.cfg)
			}
		})
	}
}
