package sampler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/loadwright/pacer/internal/quantile"
)

func TestTPSIsZeroWhenElapsedIsZero(t *testing.T) {
	m := Measurement{Success: 10, Elapsed: 0}
	assert.Equal(t, 0.0, m.TPS())
}

func TestErrorRateIsZeroWhenNoOutcomes(t *testing.T) {
	m := Measurement{Elapsed: time.Second}
	assert.Equal(t, 0.0, m.ErrorRate())
}

func TestErrorRateRatio(t *testing.T) {
	m := Measurement{Success: 97, Failure: 3, Elapsed: time.Second}
	assert.InDelta(t, 0.03, m.ErrorRate(), 1e-9)
}

func TestQuantileIsZeroOnNilSketch(t *testing.T) {
	m := Measurement{}
	assert.Equal(t, 0.0, m.Quantile(0.99))
}

func TestQuantileReadsArbitraryQuantileFromSketch(t *testing.T) {
	s := quantile.New(nil)
	s.Insert(42)
	m := Measurement{Sketch: s}
	assert.Equal(t, 42.0, m.Quantile(0.75))
}
