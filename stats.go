package pacer

import (
	"time"

	"github.com/loadwright/pacer/internal/runner"
)

// Statistics is the run record returned on completion.
type Statistics struct {
	Concurrency int
	GoalTPS     uint32
	ActualTPS   float64
	LatencyP50  time.Duration
	LatencyP90  time.Duration
	LatencyP95  time.Duration
	LatencyP99  time.Duration
	ErrorRate   float64
	TPSLimited  bool
}

func fromInternal(s runner.Statistics) Statistics {
	return Statistics{
		Concurrency: s.Concurrency,
		GoalTPS:     s.GoalTPS,
		ActualTPS:   s.ActualTPS,
		LatencyP50:  s.P50,
		LatencyP90:  s.P90,
		LatencyP95:  s.P95,
		LatencyP99:  s.P99,
		ErrorRate:   s.ErrorRate,
		TPSLimited:  s.TPSLimited,
	}
}
