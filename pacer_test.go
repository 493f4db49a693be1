package pacer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTPSPanicsOnZero(t *testing.T) {
	b := Scenario("panic-zero-tps", func(context.Context) error { return nil })
	assert.Panics(t, func() { b.TPS(0) })
}

func TestErrorRatePanicsOutOfRange(t *testing.T) {
	b := Scenario("panic-bad-error-rate", func(context.Context) error { return nil })
	assert.Panics(t, func() { b.ErrorRate(1.5) })
	assert.Panics(t, func() { b.ErrorRate(-0.1) })
}

func TestLatencyPanicsOnBadQuantile(t *testing.T) {
	b := Scenario("panic-bad-quantile", func(context.Context) error { return nil })
	assert.Panics(t, func() { b.Latency(100*time.Millisecond, 1.1) })
}

func TestNoConstraintRunsInstantlyWithNoWorkers(t *testing.T) {
	var invoked bool
	stats, err := Scenario("no-op", func(context.Context) error {
		invoked = true
		return nil
	}).Run(context.Background())

	require.NoError(t, err)
	assert.False(t, invoked)
	assert.Equal(t, Statistics{}, stats)
}

func TestTPSRunProducesBoundedStatistics(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stats, err := Scenario("bounded", func(context.Context) error {
		return nil
	}).TPS(300).Duration(200 * time.Millisecond).Run(ctx)

	require.NoError(t, err)
	assert.LessOrEqual(t, stats.GoalTPS, uint32(300))
	assert.GreaterOrEqual(t, stats.ActualTPS, 0.0)
	assert.GreaterOrEqual(t, stats.ErrorRate, 0.0)
	assert.LessOrEqual(t, stats.ErrorRate, 1.0)
}

func TestBuilderChainsMultipleConstraints(t *testing.T) {
	b := Scenario("multi", func(context.Context) error { return nil }).
		TPS(1000).
		ErrorRate(0.02).
		Latency(50*time.Millisecond, 0.95).
		Duration(time.Second).
		Hint(Hint{StartingConcurrency: 4})

	assert.True(t, b.cfg.HasMaxTPS)
	assert.True(t, b.cfg.HasErrorRate)
	assert.True(t, b.cfg.HasLatency)
	assert.Equal(t, 4, b.cfg.StartingConcurrency)
}
