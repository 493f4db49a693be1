// Package ratelimit provides a hot-swappable token-bucket rate limiter used
// to gate transaction throughput on the hot path.
package ratelimit

import (
	"context"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Swappable holds a token-bucket limiter behind an atomic pointer so that
// readers never block on a writer and a writer never blocks on a reader.
// Replacing the limiter is lock-free; in-flight waiters on the previous
// limiter may complete against either the old or the new rate.
type Swappable struct {
	current atomic.Value // *rate.Limiter
}

// New builds a Swappable seeded at tps tokens per second with the given
// burst. A burst below 1 is raised to 1.
func New(tps uint32, burst int) *Swappable {
	if burst < 1 {
		burst = 1
	}
	s := &Swappable{}
	s.current.Store(rate.NewLimiter(rate.Limit(tps), burst))
	return s
}

// Set atomically replaces the limiter with one gated at tps tokens per
// second, preserving the previous burst.
func (s *Swappable) Set(tps uint32) {
	prev, _ := s.current.Load().(*rate.Limiter)
	burst := 1
	if prev != nil {
		burst = prev.Burst()
	}
	s.current.Store(rate.NewLimiter(rate.Limit(tps), burst))
}

// Wait suspends the caller until a token is available or ctx is done.
func (s *Swappable) Wait(ctx context.Context) error {
	l, _ := s.current.Load().(*rate.Limiter)
	return l.Wait(ctx)
}

// Allow is the non-blocking "try-token" form: it returns immediately with
// whether a token was available.
func (s *Swappable) Allow() bool {
	l, _ := s.current.Load().(*rate.Limiter)
	return l.Allow()
}

// TPS returns the currently configured rate in tokens per second.
func (s *Swappable) TPS() float64 {
	l, _ := s.current.Load().(*rate.Limiter)
	return float64(l.Limit())
}
