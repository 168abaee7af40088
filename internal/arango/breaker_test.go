package arango_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PCfVW/mcp-arangodb-async/internal/arango"
)

var errDialFailed = errors.New("dial failed")

func TestCircuitBreakerPassesThroughWhileClosed(t *testing.T) {
	cb := arango.NewCircuitBreaker(arango.CircuitBreakerConfig{MaxFailures: 3, Timeout: time.Minute})

	result, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, "closed", cb.State())
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := arango.NewCircuitBreaker(arango.CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Minute})
	dial := func() (interface{}, error) { return nil, errDialFailed }

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(context.Background(), dial)
		require.ErrorIs(t, err, errDialFailed)
	}
	assert.Equal(t, "open", cb.State())

	// While open the dial function must not run.
	ran := false
	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		ran = true
		return nil, nil
	})
	require.ErrorIs(t, err, arango.ErrCircuitOpen)
	assert.False(t, ran)
}

func TestCircuitBreakerHalfOpensAfterTimeout(t *testing.T) {
	cb := arango.NewCircuitBreaker(arango.CircuitBreakerConfig{MaxFailures: 1, Timeout: 20 * time.Millisecond})

	_, err := cb.Execute(context.Background(), func() (interface{}, error) { return nil, errDialFailed })
	require.ErrorIs(t, err, errDialFailed)
	require.Equal(t, "open", cb.State())

	time.Sleep(40 * time.Millisecond)

	// The post-timeout probe is allowed through and a success closes the circuit.
	result, err := cb.Execute(context.Background(), func() (interface{}, error) { return "recovered", nil })
	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
	assert.Equal(t, "closed", cb.State())
}

func TestCircuitBreakerHonorsCancelledContext(t *testing.T) {
	cb := arango.NewCircuitBreaker(arango.CircuitBreakerConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cb.Execute(ctx, func() (interface{}, error) { return "never", nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestCircuitBreakerRejectionIsNotCountedAsDial(t *testing.T) {
	cb := arango.NewCircuitBreaker(arango.CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Minute})

	_, err := cb.Execute(context.Background(), func() (interface{}, error) { return nil, errDialFailed })
	require.ErrorIs(t, err, errDialFailed)
	require.Equal(t, "open", cb.State())
	before := cb.Metrics()

	_, err = cb.Execute(context.Background(), func() (interface{}, error) { return nil, errDialFailed })
	require.ErrorIs(t, err, arango.ErrCircuitOpen)

	after := cb.Metrics()
	assert.Equal(t, before.TotalAttempts, after.TotalAttempts)
	assert.Equal(t, before.TotalFailures, after.TotalFailures)
}

func TestCircuitBreakerMetrics(t *testing.T) {
	cb := arango.NewCircuitBreaker(arango.CircuitBreakerConfig{MaxFailures: 5, Timeout: time.Minute})

	cb.Execute(context.Background(), func() (interface{}, error) { return nil, nil })
	cb.Execute(context.Background(), func() (interface{}, error) { return nil, errDialFailed })
	cb.Execute(context.Background(), func() (interface{}, error) { return nil, errDialFailed })

	m := cb.Metrics()
	assert.EqualValues(t, 3, m.TotalAttempts)
	assert.EqualValues(t, 1, m.TotalSuccesses)
	assert.EqualValues(t, 2, m.TotalFailures)
	assert.EqualValues(t, 2, m.ConsecutiveFailures)
}
