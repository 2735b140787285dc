// Package weighted implements weight-proportional random sampling over a
// fixed table. The table stores cumulative weights and draws by binary
// search, so repeated draws are O(log n) with no per-draw rebuilding.
// Rebuild the table only when the underlying weights change.
package weighted

import (
	"fmt"
	"math/rand"
	"sort"
)

// Table is an immutable cumulative-weight sampling table.
type Table struct {
	cum   []float64
	total float64
}

// NewTable builds a sampling table from the given weights. Zero-weight
// entries stay in the table but have zero draw probability. Negative
// weights and an all-zero table are rejected.
func NewTable(weights []float64) (*Table, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("weighted: no entries")
	}

	cum := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("weighted: negative weight %v at index %d", w, i)
		}
		total += w
		cum[i] = total
	}
	if total == 0 {
		return nil, fmt.Errorf("weighted: all weights are zero")
	}

	return &Table{cum: cum, total: total}, nil
}

// Len returns the number of entries in the table.
func (t *Table) Len() int {
	return len(t.cum)
}

// Draw samples one index proportionally to its weight using the provided
// random source. Passing a seeded *rand.Rand makes draws reproducible.
func (t *Table) Draw(rng *rand.Rand) int {
	x := rng.Float64() * t.total // in [0, total)
	// First index whose cumulative weight strictly exceeds x. Zero-weight
	// entries occupy an empty interval and are never selected.
	return sort.Search(len(t.cum), func(i int) bool { return t.cum[i] > x })
}
