// Package supervisor makes sure the bridge process is running before
// commands are sent to it.
package supervisor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/d2verb/toolbridge/internal/logging"
)

// Launcher starts the bridge process through a shell session.
type Launcher interface {
	EnsureSession(ctx context.Context) error
	RunBackground(ctx context.Context, commandLine string) error
}

// Stager copies the bridge payload to where the launcher runs it.
type Stager interface {
	Deploy(ctx context.Context) error
}

// ProbeFunc reports whether the bridge answers a list command.
type ProbeFunc func(ctx context.Context) bool

// Options configures a Supervisor.
type Options struct {
	// LaunchCommand is the shell line that starts the bridge.
	LaunchCommand string
	Launcher      Launcher
	// Stager is optional. When set it deploys once before the first launch.
	Stager Stager

	Throttle     time.Duration
	SettleDelay  time.Duration
	PollInterval time.Duration
	PollAttempts int

	Logger *slog.Logger
}

// startCall is the shared result of one start cycle.
type startCall struct {
	done chan struct{}
	ok   bool
}

// Supervisor coordinates bridge starts. Concurrent callers share the
// result of a single start cycle.
type Supervisor struct {
	probe ProbeFunc
	opts  Options
	log   *slog.Logger

	// mu guards inflight, lastLaunch and deployed.
	mu         sync.Mutex
	inflight   *startCall
	lastLaunch time.Time
	deployed   bool

	// Test hooks
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a supervisor that uses probe to check liveness.
func New(probe ProbeFunc, opts Options) *Supervisor {
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = 1
	}
	return &Supervisor{
		probe: probe,
		opts:  opts,
		log:   logging.OrDiscard(opts.Logger),
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// EnsureStarted returns true once the bridge answers. If a start is already
// in progress the caller waits for its result instead of starting another.
// A cancelled ctx stops the wait but not the start cycle itself.
func (s *Supervisor) EnsureStarted(ctx context.Context) bool {
	s.mu.Lock()
	call := s.inflight
	if call == nil {
		call = &startCall{done: make(chan struct{})}
		s.inflight = call
		go s.lead(context.WithoutCancel(ctx), call)
	}
	s.mu.Unlock()

	select {
	case <-call.done:
		return call.ok
	case <-ctx.Done():
		return false
	}
}

func (s *Supervisor) lead(ctx context.Context, call *startCall) {
	ok := false
	defer func() {
		s.mu.Lock()
		call.ok = ok
		s.inflight = nil
		s.mu.Unlock()
		close(call.done)
	}()
	ok = s.start(ctx)
}

func (s *Supervisor) start(ctx context.Context) bool {
	if s.probe(ctx) {
		return true
	}

	if s.opts.Launcher == nil || s.opts.LaunchCommand == "" {
		s.log.Warn("bridge not responding and no launch command configured")
		return false
	}

	if err := s.opts.Launcher.EnsureSession(ctx); err != nil {
		s.log.Warn("launch session unavailable", "error", err)
		return false
	}

	if err := s.deployOnce(ctx); err != nil {
		s.log.Warn("deploy bridge payload failed", "error", err)
		return false
	}

	if s.claimLaunch() {
		s.log.Info("launching bridge", "command", s.opts.LaunchCommand)
		if err := s.opts.Launcher.RunBackground(ctx, s.opts.LaunchCommand); err != nil {
			s.log.Warn("launch bridge failed", "error", err)
			return false
		}
	} else {
		s.log.Debug("launch skipped, previous launch is within throttle window")
	}

	if err := s.sleep(ctx, s.opts.SettleDelay); err != nil {
		return false
	}
	for i := 0; i < s.opts.PollAttempts; i++ {
		if s.probe(ctx) {
			return true
		}
		if i < s.opts.PollAttempts-1 {
			if err := s.sleep(ctx, s.opts.PollInterval); err != nil {
				return false
			}
		}
	}

	s.log.Warn("launch issued but bridge still unresponsive", "attempts", s.opts.PollAttempts)
	return false
}

// claimLaunch records a launch unless one was issued within the throttle window.
func (s *Supervisor) claimLaunch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if !s.lastLaunch.IsZero() && now.Sub(s.lastLaunch) < s.opts.Throttle {
		return false
	}
	s.lastLaunch = now
	return true
}

func (s *Supervisor) deployOnce(ctx context.Context) error {
	if s.opts.Stager == nil {
		return nil
	}
	s.mu.Lock()
	deployed := s.deployed
	s.mu.Unlock()
	if deployed {
		return nil
	}

	if err := s.opts.Stager.Deploy(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.deployed = true
	s.mu.Unlock()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
