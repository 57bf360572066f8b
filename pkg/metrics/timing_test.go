package metrics

import (
	"testing"
	"time"
)

func TestTimingMetricRecord(t *testing.T) {
	SetEnabled(true)
	m := newTimingMetric("test")
	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)

	s := m.Stats()
	if s.Count != 2 {
		t.Fatalf("Count = %d, want 2", s.Count)
	}
	if s.MinMs != 2 || s.MaxMs != 4 || s.AvgMs != 3 {
		t.Errorf("unexpected stats %+v", s)
	}

	m.Reset()
	if m.Count() != 0 {
		t.Errorf("Count after reset = %d", m.Count())
	}
}

func TestTimingMetricDisabled(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)

	m := newTimingMetric("off")
	m.Record(time.Second)
	Timer(m)()
	if m.Count() != 0 {
		t.Errorf("expected no measurements while disabled, got %d", m.Count())
	}
}

func TestTimerWithCallback(t *testing.T) {
	SetEnabled(true)
	m := newTimingMetric("cb")
	called := false
	TimerWithCallback(m, func(time.Duration) { called = true })()
	if !called || m.Count() != 1 {
		t.Errorf("called=%v count=%d", called, m.Count())
	}
}

func TestAllTimingStatsSkipsEmpty(t *testing.T) {
	SetEnabled(true)
	ResetAll()
	defer ResetAll()

	Search.Record(time.Millisecond)
	TreeBuild.Record(5 * time.Millisecond)

	stats := AllTimingStats()
	if len(stats) != 2 {
		t.Fatalf("len(stats) = %d, want 2", len(stats))
	}
	if stats[0].Name != "tree_build" {
		t.Errorf("expected slowest first, got %s", stats[0].Name)
	}
}
