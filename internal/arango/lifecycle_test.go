package arango_test

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	driver "github.com/arangodb/go-driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PCfVW/mcp-arangodb-async/internal/arango"
	"github.com/PCfVW/mcp-arangodb-async/internal/config"
)

// stubDatabase satisfies driver.Database by embedding the interface. The
// lifecycle tests only pass it around as a handle; none of its methods are
// ever called.
type stubDatabase struct {
	driver.Database
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testArangoConfig(retries int) config.ArangoConfig {
	return config.ArangoConfig{
		URL:            "http://localhost:8529",
		Database:       "test",
		Username:       "root",
		ConnectRetries: retries,
		ConnectDelay:   5 * time.Millisecond,
	}
}

// countingConnect returns a ConnectFunc that counts attempts and fails until
// failures have been consumed.
func countingConnect(attempts *atomic.Int32, failures int32) arango.ConnectFunc {
	return func(ctx context.Context, cfg config.ArangoConfig) (driver.Client, driver.Database, error) {
		n := attempts.Add(1)
		if n <= failures {
			return nil, nil, errors.New("connection refused")
		}
		return nil, stubDatabase{}, nil
	}
}

// ---------------------------------------------------------------------------
// Initialize
// ---------------------------------------------------------------------------

func TestInitializeSucceedsFirstAttempt(t *testing.T) {
	var attempts atomic.Int32
	m := arango.NewManager(testArangoConfig(5), config.ReconnectConfig{},
		arango.WithConnectFunc(countingConnect(&attempts, 0)),
		arango.WithLogger(quietLogger()))

	require.NoError(t, m.Initialize(context.Background()))
	assert.Equal(t, int32(1), attempts.Load())
	assert.NotNil(t, m.Current())
}

func TestInitializeRetriesThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	m := arango.NewManager(testArangoConfig(5), config.ReconnectConfig{},
		arango.WithConnectFunc(countingConnect(&attempts, 2)),
		arango.WithLogger(quietLogger()))

	require.NoError(t, m.Initialize(context.Background()))
	assert.Equal(t, int32(3), attempts.Load())
	assert.NotNil(t, m.Current())
}

func TestInitializeExhaustionDoesNotCrash(t *testing.T) {
	// Two attempts, both failing: Initialize returns an error the caller can
	// log, the handle stays absent, and the process keeps going.
	var attempts atomic.Int32
	m := arango.NewManager(testArangoConfig(2), config.ReconnectConfig{},
		arango.WithConnectFunc(countingConnect(&attempts, 99)),
		arango.WithLogger(quietLogger()))

	err := m.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 connection attempts failed")
	assert.Equal(t, int32(2), attempts.Load())
	assert.Nil(t, m.Current())
}

func TestInitializeHonorsContextCancellation(t *testing.T) {
	var attempts atomic.Int32
	cfg := testArangoConfig(5)
	cfg.ConnectDelay = time.Hour // cancellation must interrupt the delay

	m := arango.NewManager(cfg, config.ReconnectConfig{},
		arango.WithConnectFunc(countingConnect(&attempts, 99)),
		arango.WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := m.Initialize(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), attempts.Load())
}

// ---------------------------------------------------------------------------
// Reconnect
// ---------------------------------------------------------------------------

func TestReconnectHealsAbsentHandle(t *testing.T) {
	var attempts atomic.Int32
	m := arango.NewManager(testArangoConfig(1), config.ReconnectConfig{},
		arango.WithConnectFunc(countingConnect(&attempts, 1)),
		arango.WithLogger(quietLogger()))

	require.Error(t, m.Initialize(context.Background()))
	require.Nil(t, m.Current())

	db := m.Reconnect(context.Background())
	assert.NotNil(t, db)
	assert.NotNil(t, m.Current())
	assert.Equal(t, int32(2), attempts.Load())
}

func TestReconnectReturnsExistingHandleWithoutDialing(t *testing.T) {
	var attempts atomic.Int32
	m := arango.NewManager(testArangoConfig(1), config.ReconnectConfig{},
		arango.WithConnectFunc(countingConnect(&attempts, 0)),
		arango.WithLogger(quietLogger()))

	require.NoError(t, m.Initialize(context.Background()))
	db := m.Reconnect(context.Background())
	assert.NotNil(t, db)
	assert.Equal(t, int32(1), attempts.Load(), "an established handle must not trigger a dial")
}

func TestConcurrentReconnectDialsAtMostOnce(t *testing.T) {
	// A burst of callers observing an absent handle must cause at most one
	// downstream dial. With a failing dialer the winner dials once; the
	// losers re-check under the lock and are then denied by the limiter.
	var attempts atomic.Int32
	m := arango.NewManager(testArangoConfig(1), config.ReconnectConfig{Interval: time.Hour},
		arango.WithConnectFunc(countingConnect(&attempts, 99)),
		arango.WithLogger(quietLogger()))

	require.Error(t, m.Initialize(context.Background()))
	attempts.Store(0)

	const callers = 16
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Nil(t, m.Reconnect(context.Background()))
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, attempts.Load(), int32(1))
}

func TestConcurrentReconnectWinnerServesWaiters(t *testing.T) {
	var attempts atomic.Int32
	m := arango.NewManager(testArangoConfig(1), config.ReconnectConfig{Interval: time.Hour},
		arango.WithConnectFunc(countingConnect(&attempts, 1)),
		arango.WithLogger(quietLogger()))

	require.Error(t, m.Initialize(context.Background()))

	const callers = 8
	var wg sync.WaitGroup
	results := make([]driver.Database, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = m.Reconnect(context.Background())
		}(i)
	}
	wg.Wait()

	// One dial from Initialize, exactly one more from the reconnect burst;
	// every caller got the handle the winner produced.
	assert.Equal(t, int32(2), attempts.Load())
	for i, db := range results {
		assert.NotNil(t, db, "caller %d should have been served by the winner's dial", i)
	}
}

func TestReconnectRateLimiterBlocksRapidRetries(t *testing.T) {
	var attempts atomic.Int32
	m := arango.NewManager(testArangoConfig(1), config.ReconnectConfig{Interval: time.Hour},
		arango.WithConnectFunc(countingConnect(&attempts, 99)),
		arango.WithLogger(quietLogger()))

	require.Error(t, m.Initialize(context.Background()))
	attempts.Store(0)

	assert.Nil(t, m.Reconnect(context.Background()))
	assert.Nil(t, m.Reconnect(context.Background()))
	assert.Nil(t, m.Reconnect(context.Background()))

	assert.Equal(t, int32(1), attempts.Load(), "back-to-back reconnects must not dial repeatedly")
}

// ---------------------------------------------------------------------------
// Shutdown
// ---------------------------------------------------------------------------

func TestShutdownIsIdempotent(t *testing.T) {
	var attempts atomic.Int32
	m := arango.NewManager(testArangoConfig(1), config.ReconnectConfig{},
		arango.WithConnectFunc(countingConnect(&attempts, 0)),
		arango.WithLogger(quietLogger()))

	require.NoError(t, m.Initialize(context.Background()))
	require.NotNil(t, m.Current())

	m.Shutdown()
	assert.Nil(t, m.Current())

	m.Shutdown() // second call must be a no-op
	assert.Nil(t, m.Current())
}

func TestReconnectRefusesAfterShutdown(t *testing.T) {
	var attempts atomic.Int32
	m := arango.NewManager(testArangoConfig(1), config.ReconnectConfig{},
		arango.WithConnectFunc(countingConnect(&attempts, 0)),
		arango.WithLogger(quietLogger()))

	require.NoError(t, m.Initialize(context.Background()))
	m.Shutdown()
	attempts.Store(0)

	assert.Nil(t, m.Reconnect(context.Background()))
	assert.Equal(t, int32(0), attempts.Load())
}

func TestStatusReportsConnectionState(t *testing.T) {
	var attempts atomic.Int32
	m := arango.NewManager(testArangoConfig(1), config.ReconnectConfig{},
		arango.WithConnectFunc(countingConnect(&attempts, 0)),
		arango.WithLogger(quietLogger()))

	status := m.Status()
	assert.False(t, status.Connected)
	assert.Equal(t, "closed", status.BreakerState)

	require.NoError(t, m.Initialize(context.Background()))
	status = m.Status()
	assert.True(t, status.Connected)
	assert.Equal(t, "test", status.Database)
}
