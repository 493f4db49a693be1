// Package resilience guards the boundary around the demo target's
// connection acquisition — never the transaction outcome itself, which
// must always reach the controllers unshielded.
package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/loadwright/pacer/internal/logging"
)

// State represents the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreaker guards a single context-aware operation — in this
// module, acquiring a connection from the target's pool — against a burst
// of failures, failing fast instead of piling up pool-exhaustion errors
// once the target is unreachable.
type CircuitBreaker struct {
	maxFailures   int
	resetTimeout  time.Duration
	halfOpenLimit int

	state         State
	failures      int
	lastFailure   time.Time
	halfOpenCount int

	totalRequests int64
	successCount  int64
	failureCount  int64
	timeoutCount  int64
	rejectedCount int64

	mutex  sync.RWMutex
	logger logging.Logger
}

// Config configures circuit breaker behavior.
type Config struct {
	MaxFailures   int
	ResetTimeout  time.Duration
	HalfOpenLimit int
	Logger        logging.Logger
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration.
func NewCircuitBreaker(config Config) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenLimit <= 0 {
		config.HalfOpenLimit = 3
	}
	if config.Logger == nil {
		config.Logger = logging.NewDefaultLogger()
	}

	return &CircuitBreaker{
		maxFailures:   config.MaxFailures,
		resetTimeout:  config.ResetTimeout,
		halfOpenLimit: config.HalfOpenLimit,
		state:         StateClosed,
		logger:        config.Logger.With(zap.String("component", "circuit_breaker")),
	}
}

// ExecuteWithContext runs operation under circuit breaker protection.
// operation is trusted to honor ctx cancellation itself (the same
// cancel-safety contract the sampler's worker loop relies on), so this
// calls it directly rather than racing it against ctx.Done() in a
// separate goroutine.
func (cb *CircuitBreaker) ExecuteWithContext(ctx context.Context, operation func(context.Context) error) error {
	if !cb.allowRequest() {
		cb.mutex.Lock()
		cb.rejectedCount++
		cb.mutex.Unlock()

		return &CircuitBreakerError{State: cb.getState(), Message: "circuit breaker is open"}
	}

	cb.mutex.Lock()
	cb.totalRequests++
	cb.mutex.Unlock()

	err := operation(ctx)
	if err != nil {
		if ctx.Err() != nil {
			cb.mutex.Lock()
			cb.timeoutCount++
			cb.mutex.Unlock()
		}
		cb.recordFailure(err)
		return err
	}

	cb.recordSuccess()
	return nil
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mutex.RLock()
	state := cb.state
	halfOpenCount := cb.halfOpenCount
	cb.mutex.RUnlock()

	switch state {
	case StateClosed:
		return true
	case StateOpen:
		return cb.shouldAttemptReset()
	case StateHalfOpen:
		return halfOpenCount < cb.halfOpenLimit
	default:
		return false
	}
}

func (cb *CircuitBreaker) shouldAttemptReset() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if time.Since(cb.lastFailure) >= cb.resetTimeout {
		cb.state = StateHalfOpen
		cb.halfOpenCount = 0
		cb.logger.Info("circuit breaker transitioning to half-open state",
			zap.Duration("reset_timeout", cb.resetTimeout),
		)
		return true
	}
	return false
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.successCount++

	switch cb.state {
	case StateHalfOpen:
		cb.halfOpenCount++
		if cb.halfOpenCount >= cb.halfOpenLimit {
			cb.state = StateClosed
			cb.failures = 0
			cb.halfOpenCount = 0
			cb.logger.Info("circuit breaker closed after successful half-open test",
				zap.Int("successful_requests", cb.halfOpenLimit),
			)
		}
	case StateClosed:
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) recordFailure(err error) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failureCount++
	cb.failures++
	cb.lastFailure = time.Now()

	if cb.state == StateHalfOpen {
		cb.state = StateOpen
		cb.halfOpenCount = 0
		cb.logger.Warn("circuit breaker reopened: failure during half-open probe", zap.Error(err))
	} else if cb.failures >= cb.maxFailures {
		cb.state = StateOpen
		cb.logger.Error("circuit breaker opened: failure threshold exceeded", err,
			zap.Int("failures", cb.failures),
			zap.Int("max_failures", cb.maxFailures),
		)
	}
}

func (cb *CircuitBreaker) getState() State {
	cb.mutex.RLock()
	defer cb.mutex.RUnlock()
	return cb.state
}

// GetMetrics returns current circuit breaker metrics.
func (cb *CircuitBreaker) GetMetrics() Metrics {
	cb.mutex.RLock()
	defer cb.mutex.RUnlock()

	return Metrics{
		State:           cb.state,
		TotalRequests:   cb.totalRequests,
		SuccessCount:    cb.successCount,
		FailureCount:    cb.failureCount,
		TimeoutCount:    cb.timeoutCount,
		RejectedCount:   cb.rejectedCount,
		CurrentFailures: cb.failures,
		LastFailure:     cb.lastFailure,
		SuccessRate:     cb.calculateSuccessRate(),
	}
}

func (cb *CircuitBreaker) calculateSuccessRate() float64 {
	if cb.totalRequests == 0 {
		return 0.0
	}
	return float64(cb.successCount) / float64(cb.totalRequests)
}

// Reset manually resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.halfOpenCount = 0
}

// Metrics contains circuit breaker statistics.
type Metrics struct {
	State           State
	TotalRequests   int64
	SuccessCount    int64
	FailureCount    int64
	TimeoutCount    int64
	RejectedCount   int64
	CurrentFailures int
	LastFailure     time.Time
	SuccessRate     float64
}

// CircuitBreakerError represents an error when the circuit breaker is open.
type CircuitBreakerError struct {
	State   State
	Message string
}

func (e *CircuitBreakerError) Error() string {
	return fmt.Sprintf("circuit breaker %s: %s", e.State.String(), e.Message)
}

// IsCircuitBreakerError reports whether err is a CircuitBreakerError.
func IsCircuitBreakerError(err error) bool {
	_, ok := err.(*CircuitBreakerError)
	return ok
}
