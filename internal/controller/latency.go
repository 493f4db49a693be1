package controller

import (
	"math"

	"go.uber.org/zap"

	"github.com/loadwright/pacer/internal/sampler"
)

// DefaultLatencyKp is the proportional gain used when the caller does not
// supply a hint.
const DefaultLatencyKp = 0.9

// Latency runs proportional control against a target latency quantile:
// the further the measured value sits from target, the larger the
// correction to the TPS goal.
type Latency struct {
	targetNanos float64
	quantile    float64
	kp          float64
	goal        uint32
	baseline    uint32
	log         *zap.Logger
}

// NewLatency builds a Latency controller targeting the q-quantile at
// target, seeded at baseline TPS with proportional gain kp (0 defaults to
// DefaultLatencyKp).
func NewLatency(target float64, quantile float64, baseline uint32, kp float64, log *zap.Logger) *Latency {
	if kp == 0 {
		kp = DefaultLatencyKp
	}
	if baseline == 0 {
		baseline = defaultBaseline
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Latency{
		targetNanos: target,
		quantile:    quantile,
		kp:          kp,
		goal:        baseline,
		baseline:    baseline,
		log:         log,
	}
}

func (l *Latency) InitialTPS() uint32 { return l.baseline }

func (l *Latency) observed(m sampler.Measurement) float64 {
	return m.Quantile(l.quantile)
}

// Limit applies err = 1 - measured/target, new_goal = goal*(1+Kp*err). If
// the arithmetic would produce a non-positive goal it is held and a
// diagnostic logged, per the measurement-anomaly error-handling rule. Lower
// goals apply immediately; higher goals only commit once stable is true,
// so the goal can never run away ahead of what the rate limiter has
// actually proven out.
func (l *Latency) Limit(m sampler.Measurement, stable bool) uint32 {
	measured := l.observed(m)
	if l.targetNanos <= 0 || measured == 0 {
		return l.goal
	}

	err := 1 - measured/l.targetNanos
	newGoal := float64(l.goal) * (1 + l.kp*err)

	if newGoal <= 0 || math.IsNaN(newGoal) {
		l.log.Warn("latency controller: computed non-positive goal, holding previous value",
			zap.Float64("measured", measured),
			zap.Float64("target", l.targetNanos),
			zap.Uint32("held_goal", l.goal),
		)
		return l.goal
	}

	rounded := uint32(math.Max(1, math.Round(newGoal)))
	if rounded < l.goal || stable {
		l.goal = rounded
	} else {
		l.log.Debug("latency controller: withholding raise until stable",
			zap.Uint32("computed_goal", rounded),
			zap.Uint32("held_goal", l.goal),
		)
	}
	return l.goal
}
