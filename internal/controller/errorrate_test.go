package controller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/loadwright/pacer/internal/sampler"
)

func meas(success, failure int64) sampler.Measurement {
	return sampler.Measurement{Success: success, Failure: failure, Elapsed: time.Second}
}

func TestErrorRateInitialTPSIsBaseline(t *testing.T) {
	c := NewErrorRate(0.03, 0)
	assert.Equal(t, uint32(defaultBaseline), c.InitialTPS())
}

func TestErrorRateBigStepDoublesUnderBandWhenStable(t *testing.T) {
	c := NewErrorRate(0.03, 256)
	got := c.Limit(meas(100, 0), true) // 0% error, under [0, 0.06] band's lower edge
	assert.Equal(t, uint32(512), got)
}

func TestErrorRateBigStepWithholdsRaiseUntilStable(t *testing.T) {
	c := NewErrorRate(0.03, 256)
	got := c.Limit(meas(100, 0), false) // would double, but not stable yet
	assert.Equal(t, uint32(256), got)

	got = c.Limit(meas(100, 0), true) // now stable, raise commits
	assert.Equal(t, uint32(512), got)
}

func TestErrorRateBigStepHalvesOverBand(t *testing.T) {
	c := NewErrorRate(0.03, 256)
	got := c.Limit(meas(50, 50), false) // 50% error, well over band
	assert.Equal(t, uint32(128), got)
	assert.Equal(t, stateSmallStep, c.state)
}

func TestErrorRateFreezesAndGoesStableInBand(t *testing.T) {
	c := NewErrorRate(0.10, 1000)
	got := c.Limit(meas(90, 10), false) // 10% error, inside [0.07, 0.13]
	assert.Equal(t, uint32(1000), got)
	assert.Equal(t, stateStable, c.state)
}

func TestErrorRateStableReentersSmallStepOnDrift(t *testing.T) {
	c := NewErrorRate(0.10, 1000)
	c.state = stateStable
	got := c.Limit(meas(100, 0), false)
	assert.Equal(t, uint32(1000), got) // no change this tick
	assert.Equal(t, stateSmallStep, c.state)
	assert.InDelta(t, 0.5, c.stepRatio, 1e-9)
}

func TestErrorRateSmallStepShrinksOnRepeatedOvershoot(t *testing.T) {
	c := NewErrorRate(0.03, 256)
	c.state = stateSmallStep
	c.stepRatio = 0.5
	c.goal = 200

	got := c.Limit(meas(50, 50), false) // over band
	assert.Equal(t, uint32(100), got)   // 200 - max(1, 200*0.5)
	assert.InDelta(t, 0.25, c.stepRatio, 1e-9)
}

func TestErrorRateGoalNeverDropsBelowOne(t *testing.T) {
	c := NewErrorRate(0.0, 1)
	c.state = stateSmallStep
	c.stepRatio = 0.5
	c.goal = 1
	got := c.Limit(meas(0, 100), false)
	assert.Equal(t, uint32(1), got)
}
