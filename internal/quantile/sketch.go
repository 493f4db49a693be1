// Package quantile provides the streaming latency sketch used by the
// sampler: a bounded-memory T-digest that tolerates being reset every
// interval and defines empty-input behaviour as "return zero".
package quantile

import (
	"math"

	"github.com/caio/go-tdigest"
	"go.uber.org/zap"
)

// defaultCompression matches the backlog/compression the original
// measurement sketch used: enough resolution for p50/p90/p95/p99 without
// unbounded memory growth over a long run.
const defaultCompression = 10

// Sketch wraps a T-digest with the NaN-safe, reset-every-tick semantics the
// sampler needs.
type Sketch struct {
	digest *tdigest.TDigest
	log    *zap.Logger
}

// New constructs a Sketch. A nil logger is replaced with a no-op logger.
func New(log *zap.Logger) *Sketch {
	if log == nil {
		log = zap.NewNop()
	}
	d, err := tdigest.New(tdigest.Compression(defaultCompression))
	if err != nil {
		// Compression is a compile-time constant we control; this can
		// only fail if the constant itself is invalid.
		log.Error("quantile: failed to build digest, falling back to zero-value sketch", zap.Error(err))
	}
	return &Sketch{digest: d, log: log}
}

// Insert records a single latency observation.
func (s *Sketch) Insert(v float64) {
	if s.digest == nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	if err := s.digest.Add(v); err != nil {
		s.log.Warn("quantile: discarding observation", zap.Error(err))
	}
}

// Quantile returns the estimated value at q (0..1). Empty input maps to
// zero; a NaN result from the underlying digest also maps to zero and is
// logged each time it occurs.
func (s *Sketch) Quantile(q float64) float64 {
	if s.digest == nil || s.digest.Count() == 0 {
		return 0
	}
	v := s.digest.Quantile(q)
	if math.IsNaN(v) {
		s.log.Warn("quantile: digest returned NaN, reporting zero", zap.Float64("q", q))
		return 0
	}
	return v
}

// Count returns the number of observations inserted since the last Reset.
func (s *Sketch) Count() uint64 {
	if s.digest == nil {
		return 0
	}
	return s.digest.Count()
}

// Reset discards all observations, matching the per-interval (not
// cumulative) semantics the sampler requires.
func (s *Sketch) Reset() {
	d, err := tdigest.New(tdigest.Compression(defaultCompression))
	if err != nil {
		s.log.Error("quantile: failed to rebuild digest on reset", zap.Error(err))
		return
	}
	s.digest = d
}
