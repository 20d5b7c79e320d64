package backend

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
	failed     bool
}

// Snapshot is a point-in-time aggregate of latency samples for one endpoint.
type Snapshot struct {
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

// Latency tracks recent call latencies within a rolling window.
type Latency struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewLatency(maxAge time.Duration) *Latency {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Latency{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

// Record adds one sample. Failed calls count toward latency too.
func (l *Latency) Record(durationMs int64, failed bool) {
	if durationMs < 0 {
		durationMs = 0
	}
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)
	l.samples = append(l.samples, sample{
		timestamp:  now,
		durationMs: durationMs,
		failed:     failed,
	})
}

func (l *Latency) Snapshot() Snapshot {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)
	if len(l.samples) == 0 {
		return Snapshot{}
	}

	values := make([]int64, 0, len(l.samples))
	var sum int64
	failures := 0
	for _, sm := range l.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
		if sm.failed {
			failures++
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return Snapshot{
		Count:    len(values),
		Failures: failures,
		MinMs:    values[0],
		MaxMs:    values[len(values)-1],
		AvgMs:    float64(sum) / float64(len(values)),
		P50Ms:    percentile(values, 50),
		P95Ms:    percentile(values, 95),
		P99Ms:    percentile(values, 99),
	}
}

func (l *Latency) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.maxAge)
	writeIdx := 0
	for _, sm := range l.samples {
		if !sm.timestamp.Before(cutoff) {
			l.samples[writeIdx] = sm
			writeIdx++
		}
	}
	l.samples = l.samples[:writeIdx]
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}

// Stats groups latency trackers by endpoint name.
type Stats struct {
	mu        sync.Mutex
	window    time.Duration
	endpoints map[string]*Latency
}

func NewStats(window time.Duration) *Stats {
	return &Stats{window: window, endpoints: make(map[string]*Latency)}
}

func (s *Stats) endpoint(name string) *Latency {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.endpoints[name]
	if !ok {
		l = NewLatency(s.window)
		s.endpoints[name] = l
	}
	return l
}

// Observe records the time elapsed since start for endpoint name.
func (s *Stats) Observe(name string, start time.Time, err error) {
	s.endpoint(name).Record(time.Since(start).Milliseconds(), err != nil)
}

// Snapshot returns one aggregate per endpoint that has ever been called.
func (s *Stats) Snapshot() map[string]Snapshot {
	s.mu.Lock()
	names := make([]string, 0, len(s.endpoints))
	trackers := make([]*Latency, 0, len(s.endpoints))
	for name, l := range s.endpoints {
		names = append(names, name)
		trackers = append(trackers, l)
	}
	s.mu.Unlock()

	out := make(map[string]Snapshot, len(names))
	for i, name := range names {
		out[name] = trackers[i].Snapshot()
	}
	return out
}
