package sampler

import (
	"math"

	"go.uber.org/zap"
)

// maxConcurrencyStep bounds how much the search loop may grow concurrency
// in a single adjustment, preventing a single bad measurement from
// swinging the worker count wildly.
const maxConcurrencyStep = 100

// stableBand is the fractional distance from goal TPS within which the
// sampler considers itself to have found a working concurrency.
const stableBand = 0.05

// underpowerSlopeFloor: if the last two concurrency→TPS slopes both fall
// below this, additional workers are no longer buying throughput and the
// target is declared TPS-limited.
const underpowerSlopeFloor = 1.0

// underpowerResetFactor undershoots the best-seen concurrency on purpose
// so the search loop still has room to climb afterward without
// immediately re-triggering detection and oscillating.
const underpowerResetFactor = 0.75

type concurrencyPoint struct {
	concurrency int
	tps         float64
}

// ConcurrentSampler wraps a BaseSampler with a monotonically-increasing
// search for the concurrency that achieves the active TPS goal, and
// detects when the target itself is the bottleneck rather than worker
// count.
type ConcurrentSampler struct {
	base *BaseSampler
	log  *zap.Logger

	goal        uint32
	points      []concurrencyPoint
	tpsLimited  bool
	limitedGoal uint32
}

// NewConcurrentSampler wraps base, starting the search at startingConcurrency
// toward goal TPS.
func NewConcurrentSampler(base *BaseSampler, goal uint32, startingConcurrency int, log *zap.Logger) *ConcurrentSampler {
	if log == nil {
		log = zap.NewNop()
	}
	if startingConcurrency < 1 {
		startingConcurrency = 1
	}
	base.SetConcurrency(startingConcurrency)
	return &ConcurrentSampler{base: base, log: log, goal: goal}
}

// CurrentGoal returns the TPS goal the sampler is currently driving toward.
func (c *ConcurrentSampler) CurrentGoal() uint32 { return c.goal }

// TPSLimited reports whether the target has been detected as the
// bottleneck rather than concurrency.
func (c *ConcurrentSampler) TPSLimited() bool { return c.tpsLimited }

// Concurrency returns the current worker count.
func (c *ConcurrentSampler) Concurrency() int { return c.base.Concurrency() }

// SetTPSLimit updates the active goal. Once TPS-limited, requests above
// the detected ceiling are silently ignored; requests at or below it are
// accepted.
func (c *ConcurrentSampler) SetTPSLimit(goal uint32) {
	if c.tpsLimited && goal > c.limitedGoal {
		return
	}
	c.goal = goal
	c.base.SetTPSLimit(goal)
}

// Sample obtains a Measurement from the base sampler, then adjusts
// concurrency toward the active goal. It reports stable=true once the
// observed TPS is within 5% of goal.
func (c *ConcurrentSampler) Sample() (stable bool, m Measurement) {
	m = c.base.Sample()

	goal := float64(c.goal)
	if goal <= 0 {
		return true, m
	}
	tps := m.TPS()

	errRatio := (goal - tps) / goal
	if errRatio < stableBand {
		return true, m
	}

	current := c.base.Concurrency()
	c.points = append(c.points, concurrencyPoint{concurrency: current, tps: tps})

	if c.detectUnderpowered() {
		return false, m
	}

	newConcurrency := current
	if tps > 0 {
		newConcurrency = int(math.Ceil(float64(current) * goal / tps))
	} else {
		newConcurrency = current + maxConcurrencyStep
	}
	newConcurrency = clampStep(current, newConcurrency, maxConcurrencyStep)
	if newConcurrency < 1 {
		newConcurrency = 1
	}
	c.base.SetConcurrency(newConcurrency)

	return false, m
}

func clampStep(current, proposed, maxStep int) int {
	if proposed > current+maxStep {
		return current + maxStep
	}
	if proposed < current-maxStep {
		return current - maxStep
	}
	return proposed
}

// detectUnderpowered scans the recorded concurrency/TPS points, sorted by
// concurrency, and checks whether the last two slopes (added TPS per added
// worker) have both fallen below 1. If so the target is declared
// TPS-limited: both the new ceiling and the reset concurrency come from the
// same last-but-two point (its TPS and 0.75x its concurrency), deliberately
// undershooting the most recent, already-detected-as-wasteful point.
func (c *ConcurrentSampler) detectUnderpowered() bool {
	if c.tpsLimited || len(c.points) < 3 {
		return false
	}

	pts := make([]concurrencyPoint, len(c.points))
	copy(pts, c.points)
	sortByConcurrency(pts)

	n := len(pts)
	slope := func(a, b concurrencyPoint) float64 {
		dc := float64(b.concurrency - a.concurrency)
		if dc == 0 {
			return math.Inf(1)
		}
		return (b.tps - a.tps) / dc
	}

	lastSlope := slope(pts[n-2], pts[n-1])
	prevSlope := slope(pts[n-3], pts[n-2])

	if lastSlope >= underpowerSlopeFloor || prevSlope >= underpowerSlopeFloor {
		return false
	}

	ceilingTPS := pts[n-3].tps
	bestConcurrency := pts[n-3].concurrency

	c.tpsLimited = true
	c.limitedGoal = uint32(math.Max(1, math.Round(ceilingTPS)))
	c.goal = c.limitedGoal
	c.base.SetTPSLimit(c.limitedGoal)

	resetConcurrency := int(math.Round(float64(bestConcurrency) * underpowerResetFactor))
	if resetConcurrency < 1 {
		resetConcurrency = 1
	}
	c.base.SetConcurrency(resetConcurrency)
	c.points = nil

	c.log.Info("sampler: target detected as TPS-limited",
		zap.Uint32("ceiling_tps", c.limitedGoal),
		zap.Int("reset_concurrency", resetConcurrency),
	)

	return true
}

func sortByConcurrency(pts []concurrencyPoint) {
	for i := 1; i < len(pts); i++ {
		for j := i; j > 0 && pts[j-1].concurrency > pts[j].concurrency; j-- {
			pts[j-1], pts[j] = pts[j], pts[j-1]
		}
	}
}

// Shutdown aborts all workers, returning any combined panic error.
func (c *ConcurrentSampler) Shutdown() error {
	return c.base.Shutdown()
}
