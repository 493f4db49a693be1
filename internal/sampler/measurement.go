// Package sampler owns the worker task set and turns raw transaction
// counters into per-interval Measurements, including the concurrency
// search loop that keeps the worker count matched to the active TPS goal.
package sampler

import (
	"time"

	"github.com/loadwright/pacer/internal/quantile"
)

// Measurement is produced once per tick: the throughput and error rate
// observed over the interval, plus the latency quantile sketch seeded from
// every transaction that completed during it. The sketch is carried
// whole, not pre-flattened to a handful of fixed quantiles, so a
// controller configured against any q in [0,1] reads its actual target
// instead of snapping to the nearest of P50/P90/P95/P99.
type Measurement struct {
	Success int64
	Failure int64
	Elapsed time.Duration

	Sketch *quantile.Sketch
}

// Quantile returns the estimated latency at q (0..1) from this interval's
// sketch. A nil sketch (e.g. a zero-value Measurement built directly in a
// test) reports zero, matching Sketch's own empty-input behaviour.
func (m Measurement) Quantile(q float64) float64 {
	if m.Sketch == nil {
		return 0
	}
	return m.Sketch.Quantile(q)
}

// TPS returns successes per second of wall-clock elapsed time.
func (m Measurement) TPS() float64 {
	secs := m.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(m.Success) / secs
}

// ErrorRate returns the NaN-safe ratio of failures to total outcomes,
// returning 0 when no transactions completed in the interval.
func (m Measurement) ErrorRate() float64 {
	total := m.Success + m.Failure
	if total == 0 {
		return 0
	}
	return float64(m.Failure) / float64(total)
}
