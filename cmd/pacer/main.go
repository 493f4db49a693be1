// cmd/pacer/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loadwright/pacer"
	"github.com/loadwright/pacer/internal/config"
	"github.com/loadwright/pacer/internal/logging"
	"github.com/loadwright/pacer/internal/resilience"
	"github.com/loadwright/pacer/internal/target"
	"github.com/loadwright/pacer/pkg/report"
)

// Version information (set by build system via ldflags).
var (
	Version   = "v0.1.0-beta"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	var (
		configFile  string
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "pacer",
		Short: "A closed-loop load generator for adaptive TPS, error-rate, and latency targets",
		RunE: func(_ *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Printf("pacer %s (%s, built %s)\n", Version, GitCommit, BuildTime)
				return nil
			}
			return run(configFile)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("pacer %s (%s, built %s)\n", Version, GitCommit, BuildTime)
		},
	}
	rootCmd.AddCommand(versionCmd)

	rootCmd.Flags().StringVarP(&configFile, "config", "c", "pacer.yaml", "Path to config file")
	rootCmd.Flags().BoolVarP(&showVersion, "version", "V", false, "Show version information and exit")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zapLog, err := buildZapLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = zapLog.Sync() }()

	scenarioFn, cleanup, err := buildScenario(cfg)
	if err != nil {
		return fmt.Errorf("failed to build scenario: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	builder := pacer.Scenario(cfg.Scenario, scenarioFn).WithLogger(zapLog)
	if cfg.TPS > 0 {
		builder = builder.TPS(cfg.TPS)
	}
	if cfg.ErrorRate > 0 {
		builder = builder.ErrorRate(cfg.ErrorRate)
	}
	if cfg.Latency.Target != "" {
		targetDur, err := time.ParseDuration(cfg.Latency.Target)
		if err != nil {
			return fmt.Errorf("invalid latency target: %w", err)
		}
		builder = builder.Latency(targetDur, cfg.Latency.Quantile)
	}
	if cfg.Duration != "" {
		d, err := time.ParseDuration(cfg.Duration)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		builder = builder.Duration(d)
	}
	builder = builder.Hint(pacer.Hint{
		StartingTPS:         cfg.Hint.StartingTPS,
		StartingConcurrency: cfg.Hint.StartingConcurrency,
		LatencyKp:           cfg.Hint.LatencyKp,
		Burst:               cfg.Hint.Burst,
		WarmupSamples:       cfg.Hint.WarmupSamples,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		zapLog.Warn("received signal, shutting down gracefully", zap.String("signal", sig.String()))
		cancel()
	}()

	start := time.Now()
	stats, err := builder.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("scenario run failed: %w", err)
	}

	report.Print(os.Stdout, cfg.Scenario, stats, elapsed)
	return nil
}

// buildZapLogger validates the configured logging options through
// internal/logging (the same validation cmd/pacer's library callers get),
// then builds the raw *zap.Logger the engine takes directly.
func buildZapLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	if _, err := logging.NewLogger(logging.LoggerConfig(lc)); err != nil {
		return nil, err
	}
	if lc.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// buildScenario builds the transaction body to run. When cfg.Postgres.Query
// is set, it drives a live query against a pooled connection; otherwise it
// falls back to a synthetic scenario useful for exercising the controllers
// without a backing service.
func buildScenario(cfg *config.RunConfig) (func(context.Context) error, func(), error) {
	if cfg.Postgres.Query == "" {
		return syntheticScenario(), nil, nil
	}

	ctx := context.Background()
	pool, err := target.NewPostgresPool(ctx, target.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
		SSLMode:  cfg.Postgres.SSLMode,
		PoolSize: 50,
	})
	if err != nil {
		return nil, nil, err
	}

	breaker := resilience.NewCircuitBreaker(resilience.Config{
		MaxFailures:  5,
		ResetTimeout: 30 * time.Second,
		Logger:       logging.NewDefaultLogger(),
	})

	scenario := target.Postgres(pool, cfg.Postgres.Query, breaker)
	return scenario, pool.Close, nil
}

// syntheticScenario simulates variable-latency work with a small, fixed
// failure rate — useful for trying pacer's controllers against nothing but
// a clock.
func syntheticScenario() func(context.Context) error {
	return func(ctx context.Context) error {
		base := 5 * time.Millisecond
		jitter := time.Duration(rand.Int63n(int64(10 * time.Millisecond)))

		select {
		case <-time.After(base + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}

		if rand.Float64() < 0.01 {
			return fmt.Errorf("synthetic transaction failure")
		}
		return nil
	}
}
