package txn

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type contextKey struct{}

var atomicsKey = contextKey{}

// WithAtomics installs a into ctx so that every transaction run underneath
// it is measured. Workers spawn their loop with a context built from this
// once, at spawn time — the lookup inside Run is then O(1) and lock-free.
func WithAtomics(ctx context.Context, a *Atomics) context.Context {
	return context.WithValue(ctx, atomicsKey, a)
}

func fromContext(ctx context.Context) (*Atomics, bool) {
	a, ok := ctx.Value(atomicsKey).(*Atomics)
	return a, ok
}

var warnOnceMu sync.Once

// Run wraps a single user transaction call with the hook's contract:
//  1. wait for a rate-limit token,
//  2. time the call,
//  3. push the latency into the bucket,
//  4. bump the success or failure counter.
//
// If ctx carries no Atomics (the transaction is called outside a scenario
// run), the body is awaited bare and a diagnostic is logged once. The only
// error Run returns of its own is a failed limiter wait (ctx done, or its
// deadline too near for a token), in which case fn is not called; otherwise
// it returns exactly what fn returned.
func Run(ctx context.Context, log *zap.Logger, fn func(context.Context) error) error {
	a, ok := fromContext(ctx)
	if !ok {
		warnOnceMu.Do(func() {
			if log != nil {
				log.Error("txn: transaction invoked with no run context; measurements will not be recorded")
			}
		})
		return fn(ctx)
	}

	if err := a.Limiter.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	err := fn(ctx)
	a.Latency.Push(time.Since(start))

	if err != nil {
		a.RecordFailure()
	} else {
		a.RecordSuccess()
	}
	return err
}
