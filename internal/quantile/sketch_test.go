package quantile

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptySketchReturnsZero(t *testing.T) {
	s := New(nil)
	assert.Equal(t, 0.0, s.Quantile(0.5))
	assert.Equal(t, uint64(0), s.Count())
}

func TestQuantilesAreMonotonic(t *testing.T) {
	s := New(nil)
	for i := 1; i <= 1000; i++ {
		s.Insert(float64(i))
	}
	p50 := s.Quantile(0.50)
	p90 := s.Quantile(0.90)
	p99 := s.Quantile(0.99)
	assert.LessOrEqual(t, p50, p90)
	assert.LessOrEqual(t, p90, p99)
}

func TestResetClearsObservations(t *testing.T) {
	s := New(nil)
	s.Insert(100)
	s.Insert(200)
	assert.NotZero(t, s.Count())
	s.Reset()
	assert.Equal(t, uint64(0), s.Count())
	assert.Equal(t, 0.0, s.Quantile(0.5))
}

func TestNaNAndInfObservationsAreDropped(t *testing.T) {
	s := New(nil)
	s.Insert(10)
	s.Insert(math.NaN())
	s.Insert(math.Inf(1))
	assert.Equal(t, uint64(1), s.Count())
}
