package arango

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	driver "github.com/arangodb/go-driver"
	"golang.org/x/time/rate"

	"github.com/PCfVW/mcp-arangodb-async/internal/config"
)

// Manager owns the database handle for the lifetime of the process.
//
// The handle has two states: present or absent. Initialize tries to make it
// present with a bounded retry loop; when that fails the process still comes
// up and serves discovery, while database-backed calls degrade. Reconnect
// re-establishes an absent handle on demand, serialized so that concurrent
// callers cause at most one dial. No Manager lock is ever held across a tool
// handler invocation; callers get a snapshot and run with it.
type Manager struct {
	cfg     config.ArangoConfig
	connect ConnectFunc
	logger  *log.Logger

	mu     sync.RWMutex
	client driver.Client
	db     driver.Database
	closed bool

	// reconnectMu serializes on-demand dial attempts.
	reconnectMu sync.Mutex
	limiter     *rate.Limiter
	breaker     *CircuitBreaker
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithConnectFunc overrides how the Manager dials the database.
func WithConnectFunc(fn ConnectFunc) ManagerOption {
	return func(m *Manager) { m.connect = fn }
}

// WithLogger sets the operator log destination.
func WithLogger(l *log.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a Manager with an absent handle. Call Initialize to
// establish the first connection.
func NewManager(cfg config.ArangoConfig, rcfg config.ReconnectConfig, opts ...ManagerOption) *Manager {
	if rcfg.Interval <= 0 {
		rcfg.Interval = 2 * time.Second
	}
	m := &Manager{
		cfg:     cfg,
		connect: Connect,
		logger:  log.Default(),
		limiter: rate.NewLimiter(rate.Every(rcfg.Interval), 1),
		breaker: NewCircuitBreaker(CircuitBreakerConfig{
			MaxFailures: rcfg.BreakerFailures,
			Timeout:     rcfg.BreakerCooldown,
		}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize dials the database with a bounded retry loop: ConnectRetries
// attempts separated by a fixed ConnectDelay. On success the handle becomes
// present. On exhaustion it returns the last dial error; the caller is
// expected to log it and keep serving with an absent handle rather than
// exit.
func (m *Manager) Initialize(ctx context.Context) error {
	retries := m.cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		client, db, err := m.connect(ctx, m.cfg)
		if err == nil {
			m.store(client, db)
			m.logger.Printf("connected to %s database=%s (attempt %d/%d)",
				m.cfg.RedactedURL(), m.cfg.Database, attempt, retries)
			return nil
		}
		lastErr = err
		m.logger.Printf("connection attempt %d/%d failed: %v", attempt, retries, err)

		if attempt == retries {
			break
		}
		select {
		case <-time.After(m.cfg.ConnectDelay):
		case <-ctx.Done():
			return fmt.Errorf("arango: initialize canceled: %w", ctx.Err())
		}
	}
	return fmt.Errorf("arango: all %d connection attempts failed: %w", retries, lastErr)
}

// Current returns the handle snapshot, or nil when absent. It never blocks
// on a dial in progress.
func (m *Manager) Current() driver.Database {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

// Reconnect attempts to re-establish an absent handle and returns the
// resulting snapshot (nil when still absent).
//
// Attempts are serialized: the first caller dials, and callers blocked
// behind it re-check the handle after acquiring the lock, so a successful
// dial serves them all. After a failed dial the rate limiter denies an
// immediate follow-up, so a burst of callers observing an absent handle
// produces at most one dial. The circuit breaker opens after consecutive
// dial failures and rejects attempts until its cooldown passes.
func (m *Manager) Reconnect(ctx context.Context) driver.Database {
	m.reconnectMu.Lock()
	defer m.reconnectMu.Unlock()

	if db := m.Current(); db != nil {
		return db
	}
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return nil
	}

	if !m.limiter.Allow() {
		return nil
	}

	_, err := m.breaker.Execute(ctx, func() (interface{}, error) {
		client, db, err := m.connect(ctx, m.cfg)
		if err != nil {
			return nil, err
		}
		m.store(client, db)
		return db, nil
	})
	if err != nil {
		m.logger.Printf("reconnect failed: %v", err)
		return nil
	}

	m.logger.Printf("reconnected to %s database=%s", m.cfg.RedactedURL(), m.cfg.Database)
	return m.Current()
}

// Shutdown drops the handle. Idempotent; afterwards Current returns nil and
// Reconnect refuses to dial.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.client = nil
	m.db = nil
}

// Status reports the connection state for health checks.
type Status struct {
	Connected    bool                  `json:"connected"`
	Database     string                `json:"database"`
	BreakerState string                `json:"breaker_state"`
	Metrics      CircuitBreakerMetrics `json:"reconnect_metrics"`
}

// Status returns a point-in-time view of the connection.
func (m *Manager) Status() Status {
	return Status{
		Connected:    m.Current() != nil,
		Database:     m.cfg.Database,
		BreakerState: m.breaker.State(),
		Metrics:      m.breaker.Metrics(),
	}
}

func (m *Manager) store(client driver.Client, db driver.Database) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.client = client
	m.db = db
}
