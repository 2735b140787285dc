package orchestrator

import (
	"sync"
	"time"
)

// CycleStats tracks run-session counters and drives failure backoff.
// Counters reset when the process restarts; durable history lives in
// the cycle_results table.
type CycleStats struct {
	mu sync.Mutex

	total     int
	committed int
	skipped   int
	failed    int

	consecutiveFailures int
	lastOutcomeAt       time.Time
}

// RecordCommitted notes a successful cycle and clears the failure run.
func (s *CycleStats) RecordCommitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.committed++
	s.consecutiveFailures = 0
	s.lastOutcomeAt = time.Now()
}

// RecordSkipped notes a cycle that found nothing eligible. Skips do not
// count as failures; an empty backlog is a healthy state.
func (s *CycleStats) RecordSkipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.skipped++
	s.consecutiveFailures = 0
	s.lastOutcomeAt = time.Now()
}

// RecordFailed notes a failed cycle.
func (s *CycleStats) RecordFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.failed++
	s.consecutiveFailures++
	s.lastOutcomeAt = time.Now()
}

// ConsecutiveFailures returns the current failure run length.
func (s *CycleStats) ConsecutiveFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consecutiveFailures
}

// Snapshot returns the counters.
func (s *CycleStats) Snapshot() (total, committed, skipped, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total, s.committed, s.skipped, s.failed
}

// Backoff returns how long to pause after the current failure run:
// 30s doubling per consecutive failure, capped at 5 minutes. Zero when
// the last cycle did not fail.
func (s *CycleStats) Backoff() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.consecutiveFailures
	if n <= 0 {
		return 0
	}
	secs := 30 * (1 << (n - 1))
	if secs > 300 {
		secs = 300
	}
	return time.Duration(secs) * time.Second
}
