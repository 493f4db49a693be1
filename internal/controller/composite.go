package controller

import (
	"math"

	"go.uber.org/zap"

	"github.com/loadwright/pacer/internal/sampler"
)

// collapseWarnMargin: when the winning candidate sits more than this
// fraction below the next-lowest candidate, log that multiple goals have
// silently collapsed to one constraint — min() is still correct for
// upper-bound constraints, but a caller combining contradictory goals
// (e.g. a latency target implying TPS above a configured cap) gets no
// other signal that this happened.
const collapseWarnMargin = 0.20

// Composite runs every enabled sub-controller each tick and emits the
// minimum of their candidates, since each sub-controller expresses an
// upper bound.
type Composite struct {
	controllers []Controller
	startingTPS uint32 // explicit hint; 0 means "derive from sub-controllers"
	log         *zap.Logger
}

// NewComposite builds a Composite over the given sub-controllers.
// startingTPSHint, if non-zero, seeds InitialTPS directly instead of
// deriving it from the sub-controllers' own initial values.
func NewComposite(controllers []Controller, startingTPSHint uint32, log *zap.Logger) *Composite {
	if log == nil {
		log = zap.NewNop()
	}
	return &Composite{controllers: controllers, startingTPS: startingTPSHint, log: log}
}

// InitialTPS returns the hint if set, otherwise the minimum of the
// sub-controllers' initial values.
func (c *Composite) InitialTPS() uint32 {
	if c.startingTPS > 0 {
		return c.startingTPS
	}
	if len(c.controllers) == 0 {
		return 0
	}
	min := c.controllers[0].InitialTPS()
	for _, ctrl := range c.controllers[1:] {
		if v := ctrl.InitialTPS(); v < min {
			min = v
		}
	}
	return min
}

// Limit returns the minimum candidate across all sub-controllers.
func (c *Composite) Limit(m sampler.Measurement, stable bool) uint32 {
	if len(c.controllers) == 0 {
		return 0
	}

	candidates := make([]uint32, len(c.controllers))
	for i, ctrl := range c.controllers {
		candidates[i] = ctrl.Limit(m, stable)
	}

	min := candidates[0]
	for _, v := range candidates[1:] {
		if v < min {
			min = v
		}
	}

	c.warnOnCollapse(min, candidates)
	return min
}

func (c *Composite) warnOnCollapse(min uint32, candidates []uint32) {
	if len(candidates) < 2 || min == 0 {
		return
	}
	secondLowest := uint32(math.MaxUint32)
	for _, v := range candidates {
		if v > min && v < secondLowest {
			secondLowest = v
		}
	}
	if secondLowest == math.MaxUint32 {
		return
	}
	if float64(secondLowest-min)/float64(secondLowest) > collapseWarnMargin {
		c.log.Info("composite controller: candidates disagree sharply, lowest constraint wins",
			zap.Uint32("selected_tps", min),
			zap.Uint32("next_lowest_tps", secondLowest),
		)
	}
}

// Controllers exposes the wrapped sub-controllers, primarily for tests.
func (c *Composite) Controllers() []Controller { return c.controllers }
