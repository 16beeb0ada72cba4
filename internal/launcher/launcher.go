// Package launcher runs the bridge process in the background through a
// shell session.
package launcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/d2verb/toolbridge/internal/logging"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner/local"
)

// runFunc runs one command line and returns its output and exit code.
type runFunc func(ctx context.Context, commandLine string) (string, int, error)

type session struct {
	run   runFunc
	close func() error
}

// Shell launches commands through a lazily opened local shell session.
type Shell struct {
	logger *slog.Logger

	mu      sync.Mutex
	session *session

	// Test hook
	open func(ctx context.Context) (*session, error)
}

// New creates a launcher. The shell session is opened on first use.
func New(logger *slog.Logger) *Shell {
	return &Shell{
		logger: logging.OrDiscard(logger),
		open:   openLocal,
	}
}

func openLocal(ctx context.Context) (*session, error) {
	svc, err := gosh.New(ctx, local.New())
	if err != nil {
		return nil, err
	}
	s := &session{
		run: func(ctx context.Context, commandLine string) (string, int, error) {
			return svc.Run(ctx, commandLine)
		},
		close: func() error { return nil },
	}
	if c, ok := any(svc).(io.Closer); ok {
		s.close = c.Close
	}
	return s, nil
}

// EnsureSession opens the shell session if it is not open yet and checks
// that it runs commands.
func (s *Shell) EnsureSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.sessionLocked(ctx)
	return err
}

// RunBackground starts commandLine detached from the session so the call
// returns as soon as the process is spawned.
func (s *Shell) RunBackground(ctx context.Context, commandLine string) error {
	if strings.TrimSpace(commandLine) == "" {
		return fmt.Errorf("empty command line")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(ctx)
	if err != nil {
		return err
	}

	line := BackgroundLine(commandLine)
	out, code, err := sess.run(ctx, line)
	if err != nil {
		s.resetLocked()
		return fmt.Errorf("run %q: %w", commandLine, err)
	}
	if code != 0 {
		return fmt.Errorf("run %q: exit code %d: %s", commandLine, code, strings.TrimSpace(out))
	}
	s.logger.Debug("background command started", "command", commandLine)
	return nil
}

// Close ends the shell session. Processes started in the background keep
// running.
func (s *Shell) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetLocked()
}

func (s *Shell) sessionLocked(ctx context.Context) (*session, error) {
	if s.session != nil {
		return s.session, nil
	}

	sess, err := s.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open shell session: %w", err)
	}
	if _, code, err := sess.run(ctx, "true"); err != nil || code != 0 {
		_ = sess.close()
		if err == nil {
			err = fmt.Errorf("exit code %d", code)
		}
		return nil, fmt.Errorf("shell session not responding: %w", err)
	}
	s.session = sess
	s.logger.Debug("shell session ready")
	return sess, nil
}

func (s *Shell) resetLocked() error {
	if s.session == nil {
		return nil
	}
	err := s.session.close()
	s.session = nil
	return err
}

// BackgroundLine wraps commandLine so the shell starts it detached with
// its output discarded.
func BackgroundLine(commandLine string) string {
	return "nohup sh -c " + quote(commandLine) + " >/dev/null 2>&1 &"
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
