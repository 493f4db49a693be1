package txn

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatencyBucketDrainReturnsAllPushed(t *testing.T) {
	b := NewLatencyBucket()
	for i := 0; i < 10; i++ {
		b.Push(time.Duration(i) * time.Millisecond)
	}
	got := b.DrainAll()
	assert.Len(t, got, 10)
	assert.Empty(t, b.DrainAll())
}

func TestLatencyBucketConcurrentPushersDoNotBlock(t *testing.T) {
	b := NewLatencyBucket()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Push(time.Millisecond)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, len(b.DrainAll()), latencyBucketSize)
}
