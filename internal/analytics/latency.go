package analytics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Latencies are tracked in milliseconds up to ten minutes with three
// significant figures.
const maxLatencyMS = int64(10 * time.Minute / time.Millisecond)

type LatencySummary struct {
	Count    int64         `json:"count"`
	Failures int64         `json:"failures"`
	Mean     time.Duration `json:"mean"`
	P50      time.Duration `json:"p50"`
	P95      time.Duration `json:"p95"`
	P99      time.Duration `json:"p99"`
	Max      time.Duration `json:"max"`
}

// LatencyRecorder collects AI call durations. It satisfies the fallback
// gateway's Observer interface.
type LatencyRecorder struct {
	mu       sync.Mutex
	hist     *hdrhistogram.Histogram
	failures int64
}

func NewLatencyRecorder() *LatencyRecorder {
	return &LatencyRecorder{hist: hdrhistogram.New(1, maxLatencyMS, 3)}
}

func (r *LatencyRecorder) Observe(d time.Duration, ok bool) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	if ms > maxLatencyMS {
		ms = maxLatencyMS
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.hist.RecordValue(ms)
	if !ok {
		r.failures++
	}
}

func (r *LatencyRecorder) Summary() LatencySummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms := func(v int64) time.Duration { return time.Duration(v) * time.Millisecond }
	return LatencySummary{
		Count:    r.hist.TotalCount(),
		Failures: r.failures,
		Mean:     time.Duration(r.hist.Mean() * float64(time.Millisecond)),
		P50:      ms(r.hist.ValueAtQuantile(50)),
		P95:      ms(r.hist.ValueAtQuantile(95)),
		P99:      ms(r.hist.ValueAtQuantile(99)),
		Max:      ms(r.hist.Max()),
	}
}

// Reset clears everything recorded so far.
func (r *LatencyRecorder) Reset() {
	r.mu.Lock()
	r.hist.Reset()
	r.failures = 0
	r.mu.Unlock()
}
