package sampler

import "time"

// slowIntervalFloor is the TPS below which the sampler switches to the
// slower, coarser tick period: at low rates a 200ms window rarely contains
// enough transactions to produce a meaningful measurement.
const slowIntervalFloor = 150

const (
	fastInterval = 200 * time.Millisecond
	slowInterval = 1 * time.Second
)

// intervalFor picks the tick period from the initial TPS goal, matching
// the fast/slow split the base sampler uses.
func intervalFor(tps uint32) time.Duration {
	if tps < slowIntervalFloor {
		return slowInterval
	}
	return fastInterval
}

// Timer is a fixed-interval ticker that reports elapsed wall time per tick.
// Missed ticks coalesce: if the consumer falls behind, Tick drains any
// backlog and returns only the most recent elapsed duration, so an
// overloaded event loop does not spam samples.
type Timer struct {
	ticker *time.Ticker
	last   time.Time
}

// NewTimer starts a Timer whose period is derived from tps.
func NewTimer(tps uint32) *Timer {
	return &Timer{
		ticker: time.NewTicker(intervalFor(tps)),
		last:   time.Now(),
	}
}

// Tick blocks until the next tick (coalescing any missed ticks) and
// returns the wall time elapsed since the previous call.
func (t *Timer) Tick() time.Duration {
	tickTime := <-t.ticker.C
drain:
	for {
		select {
		case tickTime = <-t.ticker.C:
		default:
			break drain
		}
	}
	elapsed := tickTime.Sub(t.last)
	t.last = tickTime
	return elapsed
}

// Stop releases the underlying ticker resources.
func (t *Timer) Stop() {
	t.ticker.Stop()
}
