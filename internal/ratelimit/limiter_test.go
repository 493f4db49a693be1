package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsBurstToAtLeastOne(t *testing.T) {
	s := New(100, 0)
	assert.True(t, s.Allow())
}

func TestSetReplacesRate(t *testing.T) {
	s := New(1, 1)
	s.Set(1000)
	assert.InDelta(t, 1000, s.TPS(), 0.01)
}

func TestWaitRespectsContextCancellation(t *testing.T) {
	s := New(1, 1)
	require.True(t, s.Allow()) // drain the single burst token

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := s.Wait(ctx)
	assert.Error(t, err)
}

func TestHotSwapIsConcurrencySafe(t *testing.T) {
	s := New(10, 1)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			s.Set(uint32(10 + i%50))
		}
		close(done)
	}()
	for i := 0; i < 1000; i++ {
		s.Allow()
	}
	<-done
}
