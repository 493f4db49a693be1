package controller

import (
	"math"

	"github.com/loadwright/pacer/internal/sampler"
)

// errorRateTolerance is the half-width of the acceptance band around the
// target error rate.
const errorRateTolerance = 0.03

// defaultBaseline is the fixed seed TPS used when no starting hint is
// provided.
const defaultBaseline = 512

type bandPosition int

const (
	underBand bandPosition = iota
	inBand
	overBand
)

type ercState int

const (
	stateBigStep ercState = iota
	stateSmallStep
	stateStable
)

// ErrorRate converges the TPS goal toward whatever rate produces the
// configured target error rate, via a coarse doubling/halving phase
// (BigStep) followed by progressively finer corrections (SmallStep) once
// it has bracketed the target, settling into Stable when the observed
// rate sits inside the band.
type ErrorRate struct {
	target    float64
	baseline  uint32
	goal      uint32
	state     ercState
	stepRatio float64
}

// NewErrorRate builds an ErrorRate controller targeting target (0..1),
// seeded at baseline TPS. A baseline of 0 defaults to 512.
func NewErrorRate(target float64, baseline uint32) *ErrorRate {
	if baseline == 0 {
		baseline = defaultBaseline
	}
	return &ErrorRate{
		target:   target,
		baseline: baseline,
		goal:     baseline,
		state:    stateBigStep,
	}
}

func (e *ErrorRate) InitialTPS() uint32 { return e.baseline }

func (e *ErrorRate) band() (lower, upper float64) {
	lower = clamp01to099(e.target - errorRateTolerance)
	upper = clamp01to099(e.target + errorRateTolerance)
	return
}

func clamp01to099(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 0.99 {
		return 0.99
	}
	return x
}

func (e *ErrorRate) classify(observed float64) bandPosition {
	lower, upper := e.band()
	switch {
	// Exactly zero observed error always counts as "under", even when the
	// band's lower edge has clamped to zero too.
	case observed <= lower:
		return underBand
	case observed > upper:
		return overBand
	default:
		return inBand
	}
}

// Limit implements the state table from the component design: BigStep
// doubles/halves on miss, SmallStep applies a shrinking proportional step,
// Stable holds until the observed rate drifts out of band again. Lower
// goals (overBand) always apply immediately; raises (underBand) only
// commit once stable is true, so the goal can never run ahead of what the
// rate limiter has actually proven out while the sampler is still
// searching for a working concurrency.
func (e *ErrorRate) Limit(m sampler.Measurement, stable bool) uint32 {
	pos := e.classify(m.ErrorRate())

	switch e.state {
	case stateBigStep:
		switch pos {
		case underBand:
			if stable {
				e.goal = double(e.goal)
			}
		case inBand:
			e.state = stateStable
		case overBand:
			e.goal = halve(e.goal)
			e.state = stateSmallStep
			e.stepRatio = 0.5
		}
	case stateSmallStep:
		switch pos {
		case underBand:
			if stable {
				e.goal = addStep(e.goal, e.stepRatio)
			}
		case inBand:
			e.state = stateStable
		case overBand:
			e.goal = subStep(e.goal, e.stepRatio)
			e.stepRatio /= 2
		}
	case stateStable:
		switch pos {
		case underBand:
			e.state = stateSmallStep
			e.stepRatio = 0.5
		case inBand:
			// keep
		case overBand:
			e.state = stateSmallStep
			e.stepRatio = 0.5
		}
	}

	if e.goal < 1 {
		e.goal = 1
	}
	return e.goal
}

func double(goal uint32) uint32 {
	g := goal * 2
	if g < 1 {
		g = 1
	}
	return g
}

func halve(goal uint32) uint32 {
	g := goal / 2
	if g < 1 {
		g = 1
	}
	return g
}

func addStep(goal uint32, ratio float64) uint32 {
	step := math.Max(1, float64(goal)*ratio)
	return uint32(math.Max(1, float64(goal)+step))
}

func subStep(goal uint32, ratio float64) uint32 {
	step := math.Max(1, float64(goal)*ratio)
	result := float64(goal) - step
	if result < 1 {
		result = 1
	}
	return uint32(result)
}
