package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PreferHours = []int{9, 10, 11}
	cfg.AvoidHours = []int{3, 4, 5, 6, 7}
	cfg.MinGapMinutes = 30
	cfg.MinCommitsPerDay = 12
	cfg.MaxCommitsPerDay = 18
	return cfg
}

// weekday/weekend anchors, chosen once so tests agree on them
var (
	monday   = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	saturday = time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
)

func TestGenerateDayRespectsConstraints(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		gen, err := New(testConfig(), seed)
		require.NoError(t, err)

		times := gen.GenerateDay(monday)
		require.GreaterOrEqual(t, len(times), 12, "seed %d", seed)
		require.LessOrEqual(t, len(times), 18, "seed %d", seed)

		for i, ts := range times {
			assert.Equal(t, monday.Day(), ts.Day())
			h := ts.Hour()
			assert.False(t, h >= 3 && h <= 7, "seed %d fired in avoided hour %d", seed, h)

			if i > 0 {
				gap := ts.Sub(times[i-1])
				assert.GreaterOrEqual(t, gap, 30*time.Minute,
					"seed %d gap %v between %v and %v", seed, gap, times[i-1], ts)
			}
		}
	}
}

func TestGenerateDayAscending(t *testing.T) {
	gen, err := New(testConfig(), 7)
	require.NoError(t, err)

	times := gen.GenerateDay(monday)
	for i := 1; i < len(times); i++ {
		assert.True(t, times[i].After(times[i-1]), "timestamps not strictly ascending at %d", i)
	}
}

func TestWeekendDamping(t *testing.T) {
	cfg := testConfig()
	cfg.WeekendDamping = 0.5
	cfg.MinGapMinutes = 0

	var weekdayTotal, weekendTotal int
	for seed := int64(0); seed < 50; seed++ {
		gen, err := New(cfg, seed)
		require.NoError(t, err)
		weekdayTotal += len(gen.GenerateDay(monday))

		gen, err = New(cfg, seed)
		require.NoError(t, err)
		weekendTotal += len(gen.GenerateDay(saturday))
	}

	// 0.5 damping should roughly halve the weekend volume.
	assert.Less(t, weekendTotal, weekdayTotal*2/3)
	assert.Greater(t, weekendTotal, weekdayTotal/3)
}

func TestWeekendDampingFloorsAtOne(t *testing.T) {
	cfg := testConfig()
	cfg.MinCommitsPerDay = 1
	cfg.MaxCommitsPerDay = 1
	cfg.WeekendDamping = 0.1

	gen, err := New(cfg, 3)
	require.NoError(t, err)

	times := gen.GenerateDay(saturday)
	assert.Len(t, times, 1)
}

func TestDeterministicForSeed(t *testing.T) {
	a, err := New(testConfig(), 99)
	require.NoError(t, err)
	b, err := New(testConfig(), 99)
	require.NoError(t, err)

	assert.Equal(t, a.GenerateDay(monday), b.GenerateDay(monday))
}

func TestDenseDayShortensInsteadOfViolatingGap(t *testing.T) {
	cfg := testConfig()
	cfg.MinCommitsPerDay = 40
	cfg.MaxCommitsPerDay = 40
	cfg.MinGapMinutes = 120
	// only three hours available, so at most a couple of slots can fit
	cfg.AvoidHours = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23}
	cfg.PreferHours = nil

	gen, err := New(cfg, 11)
	require.NoError(t, err)

	times := gen.GenerateDay(monday)
	assert.NotEmpty(t, times)
	assert.Less(t, len(times), 40)
	for i := 1; i < len(times); i++ {
		assert.GreaterOrEqual(t, times[i].Sub(times[i-1]), 120*time.Minute)
	}
}

func TestAllHoursAvoidedYieldsEmptyDay(t *testing.T) {
	cfg := testConfig()
	cfg.AvoidHours = make([]int, 24)
	for h := range cfg.AvoidHours {
		cfg.AvoidHours[h] = h
	}

	gen, err := New(cfg, 1)
	require.NoError(t, err)
	assert.Empty(t, gen.GenerateDay(monday))
}

func TestPreviewCoversRequestedDays(t *testing.T) {
	gen, err := New(testConfig(), 5)
	require.NoError(t, err)

	days := gen.Preview(monday, 7)
	require.Len(t, days, 7)
	assert.Contains(t, days, "2026-03-02")
	assert.Contains(t, days, "2026-03-08")

	// Saturday and Sunday still appear, just lighter on average.
	assert.NotNil(t, days["2026-03-07"])
}

func TestGenerateDaySpringForward(t *testing.T) {
	cfg := testConfig()
	cfg.Timezone = "America/New_York"

	// US spring forward: 02:00-02:59 local does not exist on this day.
	dst := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	for seed := int64(0); seed < 300; seed++ {
		gen, err := New(cfg, seed)
		require.NoError(t, err)

		for _, ts := range gen.GenerateDay(dst) {
			assert.Equal(t, "2026-03-08", DateKey(ts, gen.Location()),
				"seed %d produced off-date timestamp %v", seed, ts)
			h := ts.Hour()
			assert.False(t, h >= 3 && h <= 7,
				"seed %d fired in avoided hour: %v", seed, ts)
		}
	}
}

func TestTimezoneApplied(t *testing.T) {
	cfg := testConfig()
	cfg.Timezone = "America/New_York"

	gen, err := New(cfg, 13)
	require.NoError(t, err)

	times := gen.GenerateDay(monday)
	require.NotEmpty(t, times)
	for _, ts := range times {
		assert.Equal(t, "America/New_York", ts.Location().String())
	}
}

func TestInvalidTimezoneRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Timezone = "Not/AZone"

	_, err := New(cfg, 1)
	assert.Error(t, err)
}
