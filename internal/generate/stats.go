package generate

import (
	"math"
	"sort"
	"sync"
	"time"
)

type sample struct {
	at         time.Time
	durationMs int64
	ok         bool
}

// LatencySummary aggregates the durations of one outcome class.
type LatencySummary struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms int64   `json:"p50_ms"`
	P95Ms int64   `json:"p95_ms"`
	P99Ms int64   `json:"p99_ms"`
}

// StatsSnapshot describes collaborator calls inside the window. Successful
// and failed calls are summarized apart: failures are mostly timeouts and
// would otherwise mask the latency of real replies.
type StatsSnapshot struct {
	Count       int            `json:"count"`
	Failures    int            `json:"failures"`
	SuccessRate float64        `json:"success_rate"`
	Succeeded   LatencySummary `json:"succeeded"`
	Failed      LatencySummary `json:"failed"`
}

// CallStats keeps collaborator call outcomes for a rolling window.
// A nil *CallStats ignores records.
type CallStats struct {
	mu      sync.Mutex
	window  time.Duration
	samples []sample // ordered by at
	now     func() time.Time
}

func NewCallStats(window time.Duration) *CallStats {
	if window <= 0 {
		window = time.Hour
	}
	return &CallStats{window: window, now: time.Now}
}

// Record adds one call outcome. Negative durations count as zero.
func (s *CallStats) Record(durationMs int64, ok bool) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.expireLocked(now)
	s.samples = append(s.samples, sample{at: now, durationMs: max(durationMs, 0), ok: ok})
}

func (s *CallStats) Snapshot() StatsSnapshot {
	if s == nil {
		return StatsSnapshot{}
	}
	s.mu.Lock()
	s.expireLocked(s.now())
	var okDur, failDur []int64
	for _, sm := range s.samples {
		if sm.ok {
			okDur = append(okDur, sm.durationMs)
		} else {
			failDur = append(failDur, sm.durationMs)
		}
	}
	s.mu.Unlock()

	snap := StatsSnapshot{
		Count:     len(okDur) + len(failDur),
		Failures:  len(failDur),
		Succeeded: summarize(okDur),
		Failed:    summarize(failDur),
	}
	if snap.Count > 0 {
		snap.SuccessRate = float64(len(okDur)) / float64(snap.Count)
	}
	return snap
}

// expireLocked drops the prefix of samples older than the window.
func (s *CallStats) expireLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	i := sort.Search(len(s.samples), func(i int) bool { return !s.samples[i].at.Before(cutoff) })
	if i > 0 {
		s.samples = append(s.samples[:0], s.samples[i:]...)
	}
}

func summarize(durations []int64) LatencySummary {
	if len(durations) == 0 {
		return LatencySummary{}
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	var total int64
	for _, d := range durations {
		total += d
	}
	return LatencySummary{
		Count: len(durations),
		MinMs: durations[0],
		MaxMs: durations[len(durations)-1],
		AvgMs: float64(total) / float64(len(durations)),
		P50Ms: nearestRank(durations, 50),
		P95Ms: nearestRank(durations, 95),
		P99Ms: nearestRank(durations, 99),
	}
}

// nearestRank returns the smallest sample with at least pct percent of the
// samples at or below it.
func nearestRank(sorted []int64, pct float64) int64 {
	rank := int(math.Ceil(pct * float64(len(sorted)) / 100))
	rank = min(max(rank, 1), len(sorted))
	return sorted[rank-1]
}
