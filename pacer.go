package pacer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/loadwright/pacer/internal/runner"
)

// Hint supplies optional starting values the controllers would otherwise
// have to discover on their own, and the latency controller's gain.
type Hint struct {
	// StartingTPS seeds the composite controller's initial goal directly,
	// skipping the derive-from-sub-controllers step.
	StartingTPS uint32
	// StartingConcurrency seeds the concurrency search loop.
	StartingConcurrency int
	// LatencyKp overrides the latency controller's proportional gain
	// (default 0.9).
	LatencyKp float64
	// Burst configures the rate limiter's token bucket burst size
	// (default 1).
	Burst int
	// WarmupSamples discards this many sampler ticks before any of them
	// reach the controllers, letting connection/JIT transients settle
	// first. Zero (the default) feeds every tick from the start.
	WarmupSamples int
}

// Builder chains constraint configuration onto a scenario. A zero-value
// Builder is never constructed directly — use Scenario.
type Builder struct {
	name     string
	scenario func(context.Context) error
	cfg      runner.Config
	log      *zap.Logger
}

// Scenario begins building a run of fn under the given name.
func Scenario(name string, fn func(context.Context) error) *Builder {
	return &Builder{
		name:     name,
		scenario: fn,
		cfg:      runner.Config{Name: name},
	}
}

// TPS sets a hard TPS ceiling. Panics if n is zero.
func (b *Builder) TPS(n uint32) *Builder {
	if n == 0 {
		panic(fmt.Sprintf("pacer: scenario %q: tps must be > 0", b.name))
	}
	b.cfg.HasMaxTPS = true
	b.cfg.MaxTPS = n
	return b
}

// ErrorRate sets a target error rate in [0,1]. Panics outside that range.
func (b *Builder) ErrorRate(x float64) *Builder {
	if x < 0 || x > 1 {
		panic(fmt.Sprintf("pacer: scenario %q: error_rate must be in [0,1], got %v", b.name, x))
	}
	b.cfg.HasErrorRate = true
	b.cfg.ErrorRate = x
	return b
}

// Latency sets a target latency at quantile q (0..1). Panics if q is
// outside that range.
func (b *Builder) Latency(target time.Duration, q float64) *Builder {
	if q < 0 || q > 1 {
		panic(fmt.Sprintf("pacer: scenario %q: quantile must be in [0,1], got %v", b.name, q))
	}
	b.cfg.HasLatency = true
	b.cfg.LatencyTarget = target
	b.cfg.LatencyQuantile = q
	return b
}

// Duration caps the run length. Any non-negative interval is accepted;
// zero means unbounded (the caller must cancel ctx to stop the run).
func (b *Builder) Duration(d time.Duration) *Builder {
	b.cfg.Duration = d
	return b
}

// Hint applies starting-value and gain overrides.
func (b *Builder) Hint(h Hint) *Builder {
	b.cfg.StartingTPS = h.StartingTPS
	b.cfg.StartingConcurrency = h.StartingConcurrency
	b.cfg.LatencyKp = h.LatencyKp
	b.cfg.Burst = h.Burst
	b.cfg.WarmupSamples = h.WarmupSamples
	return b
}

// WithLogger attaches a logger used for diagnostics (measurement
// anomalies, under-power detection, controller collapses). A nil logger
// discards all diagnostics.
func (b *Builder) WithLogger(log *zap.Logger) *Builder {
	b.log = log
	return b
}

// Run executes the configured scenario until its duration elapses or ctx
// is cancelled, and returns the final Statistics. A scenario configured
// with no constraints returns Statistics{} immediately without spawning
// any worker.
func (b *Builder) Run(ctx context.Context) (Statistics, error) {
	s, err := runner.Run(ctx, b.scenario, b.cfg, b.log)
	if err != nil {
		return Statistics{}, err
	}
	return fromInternal(s), nil
}
