package sampler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastNoopScenario(context.Context) error { return nil }

func TestBaseSamplerTracksConcurrency(t *testing.T) {
	b := NewBaseSampler(context.Background(), fastNoopScenario, 10_000, 10, nil)
	defer b.Shutdown()

	b.SetConcurrency(5)
	assert.Equal(t, 5, b.Concurrency())

	b.SetConcurrency(2)
	assert.Equal(t, 2, b.Concurrency())
}

func TestBaseSamplerSampleProducesMeasurement(t *testing.T) {
	b := NewBaseSampler(context.Background(), fastNoopScenario, 10_000, 50, nil)
	defer b.Shutdown()

	b.SetConcurrency(4)
	time.Sleep(50 * time.Millisecond)
	m := b.Sample()

	assert.GreaterOrEqual(t, m.Success, int64(0))
	assert.GreaterOrEqual(t, m.ErrorRate(), 0.0)
	assert.LessOrEqual(t, m.ErrorRate(), 1.0)
}

func TestBaseSamplerShutdownStopsAllWorkers(t *testing.T) {
	b := NewBaseSampler(context.Background(), fastNoopScenario, 1000, 10, nil)
	b.SetConcurrency(3)
	require.NoError(t, b.Shutdown())
	assert.Equal(t, 0, b.Concurrency())
}
