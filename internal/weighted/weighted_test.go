package weighted

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableRejectsBadInput(t *testing.T) {
	_, err := NewTable(nil)
	assert.Error(t, err, "empty table")

	_, err = NewTable([]float64{1, -2, 3})
	assert.Error(t, err, "negative weight")

	_, err = NewTable([]float64{0, 0})
	assert.Error(t, err, "all-zero table")
}

func TestDrawNeverSelectsZeroWeight(t *testing.T) {
	table, err := NewTable([]float64{0, 10, 0, 5, 0})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		idx := table.Draw(rng)
		if idx == 0 || idx == 2 || idx == 4 {
			t.Fatalf("drew zero-weight index %d on iteration %d", idx, i)
		}
	}
}

// Draw frequency over a large sample must converge to the configured
// ratio. With weights 70/30 and 10k draws, a 3-sigma tolerance on the
// binomial standard deviation keeps this deterministic for a fixed seed
// and safely loose for any seed.
func TestDrawConvergesToConfiguredRatio(t *testing.T) {
	table, err := NewTable([]float64{70, 30})
	require.NoError(t, err)

	const n = 10000
	rng := rand.New(rand.NewSource(42))
	counts := [2]int{}
	for i := 0; i < n; i++ {
		counts[table.Draw(rng)]++
	}

	p := 0.7
	sigma := math.Sqrt(n * p * (1 - p))
	diff := math.Abs(float64(counts[0]) - n*p)
	assert.Less(t, diff, 3*sigma,
		"observed %d/%d draws for weight 70, expected ~%v", counts[0], n, n*p)
}

func TestDrawDeterministicForFixedSeed(t *testing.T) {
	table, err := NewTable([]float64{3, 1, 4, 1, 5})
	require.NoError(t, err)

	draw := func() []int {
		rng := rand.New(rand.NewSource(7))
		out := make([]int, 100)
		for i := range out {
			out[i] = table.Draw(rng)
		}
		return out
	}

	assert.Equal(t, draw(), draw())
}

func TestDrawUniformWhenWeightsTie(t *testing.T) {
	table, err := NewTable([]float64{5, 5, 5, 5})
	require.NoError(t, err)

	const n = 40000
	rng := rand.New(rand.NewSource(3))
	counts := make([]int, 4)
	for i := 0; i < n; i++ {
		counts[table.Draw(rng)]++
	}
	for i, c := range counts {
		assert.InDelta(t, n/4, c, 0.05*n, "index %d drawn %d times", i, c)
	}
}
