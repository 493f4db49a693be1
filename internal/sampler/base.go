package sampler

import (
	"context"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/loadwright/pacer/internal/quantile"
	"github.com/loadwright/pacer/internal/txn"
)

// Scenario is the user-supplied workload body. Parameterising BaseSampler
// over this type, rather than boxing it behind an interface, keeps the
// hot path free of dynamic dispatch: every worker owns its own copy of fn.
type Scenario func(context.Context) error

type worker struct {
	cancel context.CancelFunc
}

// BaseSampler owns the worker task set and the run's Atomics, and turns
// ticks into Measurements. It holds no opinion about concurrency or TPS
// goals beyond applying whatever it is told — that policy lives one layer
// up, in ConcurrentSampler.
type BaseSampler struct {
	scenario Scenario
	atomics  *txn.Atomics
	timer    *Timer
	log      *zap.Logger

	mu      sync.Mutex
	workers []worker
	wg      conc.WaitGroup
	baseCtx context.Context
}

// NewBaseSampler constructs a sampler for scenario, seeded with the
// starting TPS (which also picks the timer's tick interval) and burst.
func NewBaseSampler(ctx context.Context, scenario Scenario, startingTPS uint32, burst int, log *zap.Logger) *BaseSampler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BaseSampler{
		scenario: scenario,
		atomics:  txn.NewAtomics(startingTPS, burst),
		timer:    NewTimer(startingTPS),
		log:      log,
		baseCtx:  ctx,
	}
}

// SetTPSLimit replaces the rate limiter's configured rate.
func (b *BaseSampler) SetTPSLimit(tps uint32) {
	b.atomics.Limiter.Set(tps)
}

// Concurrency returns the current worker count.
func (b *BaseSampler) Concurrency() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.workers)
}

// SetConcurrency grows or shrinks the worker set to exactly n. New workers
// enter a bare loop that invokes the scenario body repeatedly through the
// transaction hook; surplus workers are cancelled immediately — the
// scenario body is assumed cancel-safe at transaction boundaries.
func (b *BaseSampler) SetConcurrency(n int) {
	if n < 0 {
		n = 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for len(b.workers) < n {
		ctx, cancel := context.WithCancel(txn.WithAtomics(b.baseCtx, b.atomics))
		b.workers = append(b.workers, worker{cancel: cancel})
		scenario := b.scenario
		log := b.log
		b.wg.Go(func() {
			runWorkerLoop(ctx, scenario, log)
		})
	}

	for len(b.workers) > n {
		last := len(b.workers) - 1
		b.workers[last].cancel()
		b.workers = b.workers[:last]
	}
}

func runWorkerLoop(ctx context.Context, scenario Scenario, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := txn.Run(ctx, log, scenario); err != nil && ctx.Err() != nil {
			return
		}
	}
}

// Sample awaits the next tick, atomically swaps the success/error counters
// to zero, drains the latency bucket into a fresh Measurement, and resets
// the quantile sketch (quantiles are per-interval, never cumulative).
func (b *BaseSampler) Sample() Measurement {
	elapsed := b.timer.Tick()
	success, failure := b.atomics.DrainCounters()
	samples := b.atomics.Latency.DrainAll()

	sketch := quantile.New(b.log)
	for _, d := range samples {
		sketch.Insert(float64(d))
	}

	return Measurement{
		Success: success,
		Failure: failure,
		Elapsed: elapsed,
		Sketch:  sketch,
	}
}

// Shutdown aborts every worker and waits for them to unwind. A worker panic
// is returned as an error; if several workers panicked, only the first
// panic conc.WaitGroup caught is reported.
func (b *BaseSampler) Shutdown() error {
	b.mu.Lock()
	for _, w := range b.workers {
		w.cancel()
	}
	b.workers = nil
	b.mu.Unlock()

	return safeWait(&b.wg)
}

func safeWait(wg *conc.WaitGroup) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = multierr.Append(err, fmt.Errorf("sampler: worker panic during shutdown: %v", r))
		}
	}()
	wg.Wait()
	return nil
}
