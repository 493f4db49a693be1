// Package runner implements the top-level scenario loop: construct the
// concurrency-adjusted sampler and composite controller, sample, apply the
// asymmetric goal-update rule, and return run statistics once the
// configured duration elapses.
package runner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loadwright/pacer/internal/controller"
	"github.com/loadwright/pacer/internal/sampler"
)

// Config is the immutable run descriptor. At least one of MaxTPS,
// ErrorRate, or Latency must be set, or Run returns default Statistics
// immediately without spawning any worker.
type Config struct {
	Name string

	HasMaxTPS bool
	MaxTPS    uint32

	HasErrorRate bool
	ErrorRate    float64

	HasLatency      bool
	LatencyTarget   time.Duration
	LatencyQuantile float64

	Duration time.Duration // zero means unbounded; caller must cancel ctx

	StartingTPS         uint32 // 0 means "derive from controllers"
	StartingConcurrency int    // 0 means default of 1
	LatencyKp           float64
	Burst               int
	WarmupSamples       int // ticks discarded before any reach the controllers
}

// Statistics is the run record returned on completion.
type Statistics struct {
	Concurrency int
	GoalTPS     uint32
	ActualTPS   float64
	P50, P90, P95, P99 time.Duration
	ErrorRate   float64
	TPSLimited  bool
}

// Run executes Config against scenario until its duration elapses or ctx
// is cancelled, and returns the final Statistics.
func Run(ctx context.Context, scenario sampler.Scenario, cfg Config, log *zap.Logger) (Statistics, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.HasMaxTPS && !cfg.HasErrorRate && !cfg.HasLatency {
		return Statistics{}, nil
	}

	runID := uuid.New()
	log = log.With(zap.String("run_id", runID.String()), zap.String("scenario", cfg.Name))

	composite := buildComposite(cfg, log)

	startingTPS := cfg.StartingTPS
	if startingTPS == 0 {
		startingTPS = composite.InitialTPS()
	}
	startingConcurrency := cfg.StartingConcurrency
	if startingConcurrency == 0 {
		startingConcurrency = 1
	}
	burst := cfg.Burst
	if burst == 0 {
		burst = 1
	}

	base := sampler.NewBaseSampler(ctx, scenario, startingTPS, burst, log)
	cs := sampler.NewConcurrentSampler(base, startingTPS, startingConcurrency, log)

	deadline := time.Time{}
	if cfg.Duration > 0 {
		deadline = time.Now().Add(cfg.Duration)
	}

	var last sampler.Measurement
	skipped := 0
	for {
		stable, m := cs.Sample()
		last = m

		if ctx.Err() != nil {
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}

		if skipped < cfg.WarmupSamples {
			skipped++
			continue
		}

		newGoal := composite.Limit(m, stable)
		if newGoal < cs.CurrentGoal() || stable {
			cs.SetTPSLimit(newGoal)
		}
	}

	finalConcurrency := cs.Concurrency()
	finalGoal := cs.CurrentGoal()
	finalLimited := cs.TPSLimited()

	if err := cs.Shutdown(); err != nil {
		log.Warn("runner: worker shutdown reported panics", zap.Error(err))
	}

	return Statistics{
		Concurrency: finalConcurrency,
		GoalTPS:     finalGoal,
		ActualTPS:   last.TPS(),
		P50:         time.Duration(last.Quantile(0.50)),
		P90:         time.Duration(last.Quantile(0.90)),
		P95:         time.Duration(last.Quantile(0.95)),
		P99:         time.Duration(last.Quantile(0.99)),
		ErrorRate:   last.ErrorRate(),
		TPSLimited:  finalLimited,
	}, nil
}

func buildComposite(cfg Config, log *zap.Logger) *controller.Composite {
	var controllers []controller.Controller

	if cfg.HasMaxTPS {
		controllers = append(controllers, controller.NewConstant(cfg.MaxTPS))
	}
	if cfg.HasErrorRate {
		controllers = append(controllers, controller.NewErrorRate(cfg.ErrorRate, 0))
	}
	if cfg.HasLatency {
		controllers = append(controllers, controller.NewLatency(
			float64(cfg.LatencyTarget.Nanoseconds()),
			cfg.LatencyQuantile,
			0,
			cfg.LatencyKp,
			log,
		))
	}

	return controller.NewComposite(controllers, cfg.StartingTPS, log)
}
