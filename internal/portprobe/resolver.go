// Package portprobe picks which of two candidate bridge ports is reachable.
//
// The primary port is the bridge listening directly on the local host; the
// secondary port is a forwarded port. A missed probe on the primary port is
// routine, so it falls back silently.
package portprobe

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/d2verb/toolbridge/internal/logging"
)

// Resolver caches the selected port for a short TTL.
type Resolver struct {
	primary      int
	secondary    int
	ttl          time.Duration
	probeTimeout time.Duration
	logger       *slog.Logger

	// mu guards the cache fields.
	mu         sync.RWMutex
	cachedHost string
	cachedPort int
	cachedAt   time.Time

	// probeMu serializes probes so concurrent misses issue a single dial.
	probeMu sync.Mutex

	// Test hooks
	now  func() time.Time
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// New creates a resolver for the given primary and secondary ports.
func New(primary, secondary int, ttl, probeTimeout time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{
		primary:      primary,
		secondary:    secondary,
		ttl:          ttl,
		probeTimeout: probeTimeout,
		logger:       logging.OrDiscard(logger),
		now:          time.Now,
		dial:         (&net.Dialer{}).DialContext,
	}
}

// Resolve returns the port to use for host.
func (r *Resolver) Resolve(ctx context.Context, host string) int {
	if port, ok := r.cached(host); ok {
		return port
	}

	r.probeMu.Lock()
	defer r.probeMu.Unlock()

	// Another caller may have probed while we waited.
	if port, ok := r.cached(host); ok {
		return port
	}

	port := r.secondary
	if r.probe(ctx, host, r.primary) {
		port = r.primary
	} else if ctx.Err() != nil {
		// The caller gave up; the miss says nothing about the primary port.
		return port
	}

	r.mu.Lock()
	r.cachedHost = host
	r.cachedPort = port
	r.cachedAt = r.now()
	r.mu.Unlock()

	r.logger.Debug("bridge port selected", "host", host, "port", port)
	return port
}

// Invalidate drops the cached selection so the next Resolve probes again.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.cachedPort = 0
	r.cachedHost = ""
	r.cachedAt = time.Time{}
	r.mu.Unlock()
}

func (r *Resolver) cached(host string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cachedPort == 0 || r.cachedHost != host {
		return 0, false
	}
	if r.now().Sub(r.cachedAt) > r.ttl {
		return 0, false
	}
	return r.cachedPort, true
}

func (r *Resolver) probe(ctx context.Context, host string, port int) bool {
	ctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	conn, err := r.dial(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		r.logger.Debug("primary port probe missed", "port", port, "error", err)
		return false
	}
	conn.Close()
	return true
}
