package arango

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned when the reconnect circuit breaker is in open
// state and rejects dial attempts to stop hammering a dead server.
var ErrCircuitOpen = errors.New("reconnect circuit breaker is open")

// CircuitBreakerConfig holds the configuration for the reconnect breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failed dials required to trip the circuit.
	// Default: 3
	MaxFailures uint32

	// Timeout is the duration the circuit stays open before transitioning to half-open.
	// Default: 30 seconds
	Timeout time.Duration
}

// CircuitBreakerMetrics holds counters about reconnect attempts.
type CircuitBreakerMetrics struct {
	// TotalAttempts is the total number of dials attempted
	TotalAttempts uint64

	// TotalSuccesses is the total number of successful dials
	TotalSuccesses uint64

	// TotalFailures is the total number of failed dials
	TotalFailures uint64

	// ConsecutiveFailures is the current count of consecutive failed dials
	ConsecutiveFailures uint32
}

// CircuitBreaker wraps gobreaker to protect the database from reconnect
// storms. When closed, dial attempts pass through. After MaxFailures
// consecutive failures the circuit opens and rejects attempts immediately;
// after Timeout it half-opens and lets a single probe through.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	mu      sync.Mutex
	metrics CircuitBreakerMetrics
}

// NewCircuitBreaker creates a reconnect breaker. Zero config fields fall
// back to the defaults noted on CircuitBreakerConfig.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures == 0 {
		config.MaxFailures = 3
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	cb := &CircuitBreaker{}
	cb.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ArangoReconnect",
		MaxRequests: 1,
		Interval:    0, // don't clear counts periodically
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
	})
	return cb
}

// Execute runs one dial attempt through the breaker. If the circuit is
// open it returns ErrCircuitOpen without invoking fn. Only invocations of
// fn count toward the metrics; rejected calls never ran a dial.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	invoked := false
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		invoked = true
		return fn()
	})

	if invoked {
		cb.record(err == nil)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitOpen
	}
	return result, err
}

// State returns "closed", "open" or "half-open".
func (cb *CircuitBreaker) State() string {
	switch cb.breaker.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Metrics returns the current attempt counters.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	m := cb.metrics
	m.ConsecutiveFailures = cb.breaker.Counts().ConsecutiveFailures
	return m
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.metrics.TotalAttempts++
	if success {
		cb.metrics.TotalSuccesses++
	} else {
		cb.metrics.TotalFailures++
	}
}
