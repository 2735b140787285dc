package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateIdle, StateWaiting, true},
		{StateIdle, StateStopped, true},
		{StateIdle, StateSelecting, false},
		{StateWaiting, StateSelecting, true},
		{StateWaiting, StateDelegating, false},
		{StateSelecting, StateDelegating, true},
		{StateSelecting, StateRecording, true}, // skipped cycle
		{StateSelecting, StateFailed, true},
		{StateDelegating, StateRecording, true},
		{StateDelegating, StateFailed, true},
		{StateRecording, StateWaiting, true},
		{StateRecording, StateHalted, true},
		{StateFailed, StateWaiting, true},
		{StateFailed, StateHalted, true},
		{StateHalted, StateWaiting, false},
		{StateStopped, StateWaiting, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StateHalted.Terminal())
	assert.True(t, StateStopped.Terminal())
	assert.False(t, StateWaiting.Terminal())
	assert.False(t, StateFailed.Terminal())
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	s := &CycleStats{}

	assert.Equal(t, time.Duration(0), s.Backoff())

	expected := []time.Duration{
		30 * time.Second,
		60 * time.Second,
		120 * time.Second,
		240 * time.Second,
		300 * time.Second,
		300 * time.Second,
	}
	for i, want := range expected {
		s.RecordFailed()
		assert.Equal(t, want, s.Backoff(), "after %d failures", i+1)
	}

	s.RecordCommitted()
	assert.Equal(t, time.Duration(0), s.Backoff())
}

func TestSkipResetsFailureRun(t *testing.T) {
	s := &CycleStats{}
	s.RecordFailed()
	s.RecordFailed()
	assert.Equal(t, 2, s.ConsecutiveFailures())

	s.RecordSkipped()
	assert.Equal(t, 0, s.ConsecutiveFailures())

	total, committed, skipped, failed := s.Snapshot()
	assert.Equal(t, 3, total)
	assert.Equal(t, 0, committed)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 2, failed)
}
