// Package health reports whether this process and its backend are up. The
// Monitor polls the backend in the background; dashboard routes consult it
// and send the browser to the offline page while the backend is down.
package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Version is reported by the health check endpoint.
const Version = "1.0.0"

// DefaultInterval is how often the backend is polled.
const DefaultInterval = 30 * time.Second

// Pinger is satisfied by *apiclient.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is a point-in-time view of backend reachability.
type Status struct {
	Online    bool      `json:"online"`
	LastCheck time.Time `json:"last_check"`
	Error     string    `json:"error,omitempty"`
}

// Monitor tracks backend reachability. It starts out online so a slow first
// check does not bounce users to the offline page.
type Monitor struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger

	online atomic.Bool

	mu        sync.RWMutex
	lastCheck time.Time
	lastErr   string
}

func NewMonitor(p Pinger, interval time.Duration, logger zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	m := &Monitor{
		pinger:   p,
		interval: interval,
		timeout:  10 * time.Second,
		logger:   logger.With().Str("component", "health").Logger(),
	}
	m.online.Store(true)
	return m
}

// Run checks the backend immediately and then on every interval until ctx
// is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check pings the backend once and records the outcome.
func (m *Monitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.pinger.Ping(ctx)
	online := err == nil

	m.mu.Lock()
	m.lastCheck = time.Now().UTC()
	m.lastErr = ""
	if err != nil {
		m.lastErr = err.Error()
	}
	m.mu.Unlock()

	if prev := m.online.Swap(online); prev != online {
		if online {
			m.logger.Info().Msg("backend reachable again")
		} else {
			m.logger.Warn().Err(err).Msg("backend unreachable")
		}
	}
	return online
}

// Online reports the outcome of the last check.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Status{
		Online:    m.online.Load(),
		LastCheck: m.lastCheck,
		Error:     m.lastErr,
	}
}
