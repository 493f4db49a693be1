// Package txn holds the per-run shared mutable state (Atomics) and the
// transaction hook that every worker task runs its scenario body through.
package txn

import (
	"go.uber.org/atomic"

	"github.com/loadwright/pacer/internal/ratelimit"
)

// Atomics is the shared state for one scenario run: the hot-swappable rate
// limiter every worker reads, success/error counters that support relaxed
// add and swap-to-zero, and the latency bucket. A single Atomics is created
// at run start and referenced by every worker task through the run's
// context.
type Atomics struct {
	Limiter *ratelimit.Swappable
	success atomic.Int64
	failure atomic.Int64
	Latency *LatencyBucket
}

// NewAtomics builds a fresh Atomics seeded with the given starting TPS and
// burst.
func NewAtomics(startingTPS uint32, burst int) *Atomics {
	return &Atomics{
		Limiter: ratelimit.New(startingTPS, burst),
		Latency: NewLatencyBucket(),
	}
}

// RecordSuccess increments the success counter.
func (a *Atomics) RecordSuccess() { a.success.Inc() }

// RecordFailure increments the failure counter.
func (a *Atomics) RecordFailure() { a.failure.Inc() }

// DrainCounters atomically swaps both counters to zero and returns the
// values observed over the interval that just ended. This establishes the
// one happens-before edge the hot path needs: every increment in the prior
// interval is visible to the sampler that calls DrainCounters.
func (a *Atomics) DrainCounters() (success, failure int64) {
	return a.success.Swap(0), a.failure.Swap(0)
}
