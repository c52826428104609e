package llm

import (
	"testing"
	"time"
)

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record("ground", 100)
	stats.Record("ground", 200)
	stats.Record("ground", 300)
	stats.Record("ground", 400)
	stats.Record("ground", 500)

	snap := stats.Snapshot()["ground"]
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 {
		t.Fatalf("expected min=100, got %d", snap.MinMs)
	}
	if snap.MaxMs != 500 {
		t.Fatalf("expected max=500, got %d", snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
}

func TestStatsSeparatesOperations(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record("ground", 100)
	stats.Record("refine", 300)
	stats.Record("", 50)

	snap := stats.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 ops, got %d", len(snap))
	}
	if snap["ground"].MaxMs != 100 {
		t.Fatalf("ground max=%d", snap["ground"].MaxMs)
	}
	if snap["refine"].MaxMs != 300 {
		t.Fatalf("refine max=%d", snap["refine"].MaxMs)
	}
	if snap["other"].Count != 1 {
		t.Fatalf("blank op should record under other, got %+v", snap)
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewStats(10 * time.Millisecond)
	stats.Record("ground", 100)
	time.Sleep(25 * time.Millisecond)

	snap := stats.Snapshot()
	if len(snap) != 0 {
		t.Fatalf("expected empty snapshot after prune, got %+v", snap)
	}

	stats.Record("ground", 200)
	snap = stats.Snapshot()
	if snap["ground"].Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap["ground"].Count)
	}
}

func TestStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record("chat", -10)
	snap := stats.Snapshot()["chat"]
	if snap.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Count)
	}
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}
