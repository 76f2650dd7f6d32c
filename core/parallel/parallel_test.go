package parallel

import (
	"sync"
	"testing"
)

func TestParallelizeCoversAllItems(t *testing.T) {
	tests := []struct {
		name  string
		items int
	}{
		{"zero items", 0},
		{"single item", 1},
		{"fewer items than cores", 3},
		{"many items", 10007},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			seen := make([]int, tt.items)

			Parallelize(tt.items, func(start, end int) {
				mu.Lock()
				defer mu.Unlock()
				for i := start; i < end; i++ {
					seen[i]++
				}
			})

			for i, count := range seen {
				if count != 1 {
					t.Fatalf("item %d processed %d times, want exactly once", i, count)
				}
			}
		})
	}
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	var calls int
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls++
		if start != 0 || end != 10 {
			t.Errorf("sequential call got range (%d, %d), want (0, 10)", start, end)
		}
	})

	if calls != 1 {
		t.Errorf("below threshold should run exactly one sequential call, got %d", calls)
	}
}

func TestParallelizeWithThresholdParallel(t *testing.T) {
	const items = 5000
	var mu sync.Mutex
	total := 0

	ParallelizeWithThreshold(items, 1000, func(start, end int) {
		mu.Lock()
		defer mu.Unlock()
		total += end - start
	})

	if total != items {
		t.Errorf("processed %d items, want %d", total, items)
	}
}
