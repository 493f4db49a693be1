package txn

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithNoAtomicsDegradesGracefully(t *testing.T) {
	called := false
	err := Run(context.Background(), nil, func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestRunRecordsSuccessAndLatency(t *testing.T) {
	a := NewAtomics(1000, 10)
	ctx := WithAtomics(context.Background(), a)

	err := Run(ctx, nil, func(context.Context) error { return nil })
	require.NoError(t, err)

	success, failure := a.DrainCounters()
	assert.Equal(t, int64(1), success)
	assert.Equal(t, int64(0), failure)
	assert.Len(t, a.Latency.DrainAll(), 1)
}

func TestRunRecordsFailureAndReturnsItUnchanged(t *testing.T) {
	a := NewAtomics(1000, 10)
	ctx := WithAtomics(context.Background(), a)

	sentinel := errors.New("boom")
	err := Run(ctx, nil, func(context.Context) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)

	success, failure := a.DrainCounters()
	assert.Equal(t, int64(0), success)
	assert.Equal(t, int64(1), failure)
}

func TestRunPropagatesCanceledContextFromLimiter(t *testing.T) {
	a := NewAtomics(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Drain the single burst token so Wait must actually block on ctx.
	a.Limiter.Allow()

	called := false
	err := Run(WithAtomics(ctx, a), nil, func(context.Context) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}
