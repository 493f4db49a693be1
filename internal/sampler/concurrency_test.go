package sampler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConcurrentSamplerReportsStableWithinBand(t *testing.T) {
	base := NewBaseSampler(context.Background(), fastNoopScenario, 1000, 100, nil)
	defer base.Shutdown()

	cs := NewConcurrentSampler(base, 1, 1, nil)
	// Force a measurement whose tps already satisfies goal=1 trivially.
	// The limiter still runs at the base's 1000 TPS, so a single success in
	// the 200ms tick already puts observed TPS above goal.
	stable, _ := cs.Sample()
	assert.True(t, stable)
}

func TestConcurrentSamplerGrowsConcurrencyWhenUnderGoal(t *testing.T) {
	base := NewBaseSampler(context.Background(), func(ctx context.Context) error {
		time.Sleep(5 * time.Millisecond)
		return nil
	}, 10_000, 1, nil)
	defer base.Shutdown()

	cs := NewConcurrentSampler(base, 10_000, 1, nil)
	before := cs.Concurrency()
	cs.Sample()
	after := cs.Concurrency()
	assert.GreaterOrEqual(t, after, before)
}

func TestDetectUnderpoweredPinsCeilingAndResetsConcurrency(t *testing.T) {
	base := NewBaseSampler(context.Background(), fastNoopScenario, 1000, 100, nil)
	defer base.Shutdown()

	cs := NewConcurrentSampler(base, 1_000_000, 10, nil)
	// Manually seed plateauing points: TPS stops growing with concurrency,
	// simulating a target that has hit its own ceiling.
	cs.points = []concurrencyPoint{
		{concurrency: 10, tps: 500},
		{concurrency: 50, tps: 900},
		{concurrency: 90, tps: 905},
		{concurrency: 130, tps: 906},
	}
	limited := cs.detectUnderpowered()
	assert.True(t, limited)
	assert.True(t, cs.TPSLimited())
	assert.InDelta(t, 900, float64(cs.CurrentGoal()), 1)
	// Reset concurrency comes from the same last-but-two point (50) scaled
	// by 0.75, not the most recent/highest point (130) — an undershoot by
	// design so the search loop still has room to climb afterward.
	assert.Equal(t, 38, cs.Concurrency())
}

func TestSetTPSLimitIgnoresRaiseAboveDetectedCeiling(t *testing.T) {
	base := NewBaseSampler(context.Background(), fastNoopScenario, 1000, 100, nil)
	defer base.Shutdown()

	cs := NewConcurrentSampler(base, 1000, 5, nil)
	cs.tpsLimited = true
	cs.limitedGoal = 700
	cs.goal = 700

	cs.SetTPSLimit(900)
	assert.Equal(t, uint32(700), cs.CurrentGoal())

	cs.SetTPSLimit(500)
	assert.Equal(t, uint32(500), cs.CurrentGoal())
}
