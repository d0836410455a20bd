package otp

import (
	"testing"
	"time"

	"github.com/news-aggregator-api/internal/clock"
	"github.com/rs/zerolog"
)

func TestSweep_SkipsWhileAnotherSweepRuns(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s := NewStore(5*time.Minute, clk, zerolog.Nop())

	if _, _, err := s.Issue("late@example.com"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	clk.Advance(6 * time.Minute)

	s.sweeping.Store(true)
	if removed := s.Sweep(); removed != 0 {
		t.Errorf("Expected overlapping sweep to remove nothing, got %d", removed)
	}
	if s.Len() != 1 {
		t.Errorf("Expected expired entry kept, got %d entries", s.Len())
	}
	if !s.sweeping.Load() {
		t.Error("Overlapping sweep must not clear the in-progress flag")
	}

	s.sweeping.Store(false)
	if removed := s.Sweep(); removed != 1 {
		t.Errorf("Expected 1 removed, got %d", removed)
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty store, got %d entries", s.Len())
	}
}
