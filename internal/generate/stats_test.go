package generate

import (
	"testing"
	"time"
)

func TestCallStatsSplitsOutcomes(t *testing.T) {
	stats := NewCallStats(time.Hour)
	stats.Record(100, true)
	stats.Record(200, true)
	stats.Record(30000, false)
	stats.Record(400, true)
	stats.Record(500, true)

	snap := stats.Snapshot()
	if snap.Count != 5 || snap.Failures != 1 {
		t.Fatalf("expected count=5 failures=1, got count=%d failures=%d", snap.Count, snap.Failures)
	}
	if snap.SuccessRate != 0.8 {
		t.Errorf("expected success rate 0.8, got %f", snap.SuccessRate)
	}

	want := LatencySummary{Count: 4, MinMs: 100, MaxMs: 500, AvgMs: 300, P50Ms: 200, P95Ms: 500, P99Ms: 500}
	if snap.Succeeded != want {
		t.Errorf("succeeded = %+v, want %+v", snap.Succeeded, want)
	}
	if snap.Failed.Count != 1 || snap.Failed.P50Ms != 30000 || snap.Failed.AvgMs != 30000 {
		t.Errorf("unexpected failed summary %+v", snap.Failed)
	}
}

func TestNearestRank(t *testing.T) {
	values := make([]int64, 100)
	for i := range values {
		values[i] = int64(i + 1)
	}
	tests := []struct {
		pct  float64
		want int64
	}{
		{0, 1},
		{50, 50},
		{95, 95},
		{99, 99},
		{100, 100},
	}
	for _, tt := range tests {
		if got := nearestRank(values, tt.pct); got != tt.want {
			t.Errorf("nearestRank(p%.0f) = %d, want %d", tt.pct, got, tt.want)
		}
	}
	if got := nearestRank([]int64{7}, 99); got != 7 {
		t.Errorf("single sample: got %d", got)
	}
}

func TestCallStatsExpiresOldSamples(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	stats := NewCallStats(time.Minute)
	stats.now = func() time.Time { return clock }

	stats.Record(100, true)
	clock = clock.Add(30 * time.Second)
	stats.Record(200, false)

	if snap := stats.Snapshot(); snap.Count != 2 {
		t.Fatalf("expected both samples in window, got %d", snap.Count)
	}

	clock = clock.Add(45 * time.Second)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.Failures != 1 || snap.Succeeded.Count != 0 {
		t.Fatalf("expected only the failed sample to remain, got %+v", snap)
	}
	if snap.SuccessRate != 0 {
		t.Errorf("expected success rate 0, got %f", snap.SuccessRate)
	}

	clock = clock.Add(time.Hour)
	if snap := stats.Snapshot(); snap.Count != 0 || snap.SuccessRate != 0 {
		t.Fatalf("expected empty window, got %+v", snap)
	}
}

func TestCallStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewCallStats(time.Hour)
	stats.Record(-10, true)
	snap := stats.Snapshot()
	if snap.Succeeded.MinMs != 0 || snap.Succeeded.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got %+v", snap.Succeeded)
	}
}

func TestCallStatsNilIsSafe(t *testing.T) {
	var stats *CallStats
	stats.Record(10, true)
	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}
