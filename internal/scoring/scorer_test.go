package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/steveyegge/scribe/internal/types"
)

func entity(lines int, complexity float64) *types.StructuralEntity {
	return &types.StructuralEntity{
		Repo:       "api",
		Kind:       types.KindFunction,
		Identifier: "server.HandleRequest",
		LineCount:  lines,
		Complexity: complexity,
		Fingerprint: types.Fingerprint(
			"api", types.KindFunction, "server.HandleRequest"),
	}
}

func TestBandFiltering(t *testing.T) {
	s := New(DefaultConfig()) // min_lines=15, max_lines=150, min_complexity=3

	cases := []struct {
		name string
		e    *types.StructuralEntity
		want bool // scored?
	}{
		{"in band", entity(50, 8), true},
		{"too short", entity(14, 8), false},
		{"too long", entity(151, 8), false},
		{"at min lines", entity(15, 8), true},
		{"at max lines", entity(150, 8), true},
		{"below min complexity", entity(50, 2.9), false},
		{"at min complexity", entity(50, 3), true},
	}
	for _, tc := range cases {
		_, ok := s.Score(tc.e)
		assert.Equal(t, tc.want, ok, tc.name)
	}
}

func TestExclusionPatterns(t *testing.T) {
	s := New(DefaultConfig())

	excluded := []string{
		"server/handler_test.go",
		"test_login",
		"__init__",
		"main",
		"init",
		"pkg/vendor/lib/util.Parse",
		"api/generated/client.Call",
	}
	for _, id := range excluded {
		e := entity(50, 8)
		e.Identifier = id
		assert.True(t, s.Excluded(e), "expected %q excluded", id)
	}

	e := entity(50, 8)
	e.Identifier = "server.HandleRequest"
	assert.False(t, s.Excluded(e))
}

func TestComplexityDominates(t *testing.T) {
	s := New(DefaultConfig())

	low, _ := s.Score(entity(80, 4))
	high, _ := s.Score(entity(80, 15))
	assert.Greater(t, high, low, "higher complexity must score higher at equal length")
}

func TestChurnSaturates(t *testing.T) {
	cfg := DefaultConfig()
	s := New(cfg)

	atCap := entity(80, 8)
	atCap.Churn = cfg.ChurnCap
	beyond := entity(80, 8)
	beyond.Churn = cfg.ChurnCap * 100

	a, _ := s.Score(atCap)
	b, _ := s.Score(beyond)
	assert.Equal(t, a, b, "churn beyond the cap must not add score")
}

func TestLengthTermPeaksAtIdeal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IdealLines = 60
	s := New(cfg)

	ideal, _ := s.Score(entity(60, 8))
	short, _ := s.Score(entity(16, 8))
	long, _ := s.Score(entity(149, 8))

	assert.Greater(t, ideal, short, "near-minimum length should score below ideal")
	assert.Greater(t, ideal, long, "near-maximum length should score below ideal")
}

func TestFlagBonusesAdditive(t *testing.T) {
	cfg := DefaultConfig()
	s := New(cfg)

	plain := entity(80, 8)
	flagged := entity(80, 8)
	flagged.Flags = []types.StyleFlag{types.FlagAsync, types.FlagResourceScoped}

	base, _ := s.Score(plain)
	bonus, _ := s.Score(flagged)
	want := cfg.FlagBonuses[types.FlagAsync] + cfg.FlagBonuses[types.FlagResourceScoped]
	assert.InDelta(t, want, bonus-base, 1e-9)
}

func TestScoreIsPure(t *testing.T) {
	s := New(DefaultConfig())
	e := entity(80, 8)
	first, _ := s.Score(e)
	for i := 0; i < 10; i++ {
		again, _ := s.Score(e)
		assert.Equal(t, first, again)
	}
}

func TestScoreNonNegative(t *testing.T) {
	s := New(DefaultConfig())
	e := entity(15, 3) // worst in-band corner
	got, ok := s.Score(e)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, got, 0.0)
}
