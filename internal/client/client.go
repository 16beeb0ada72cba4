// Package client provides a client for communicating with the bridge.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/d2verb/toolbridge/internal/config"
	"github.com/d2verb/toolbridge/internal/connpool"
	"github.com/d2verb/toolbridge/internal/logging"
	"github.com/d2verb/toolbridge/internal/portprobe"
	"github.com/d2verb/toolbridge/internal/protocol"
	"github.com/d2verb/toolbridge/internal/supervisor"
)

// ErrBridgeNotRunning is returned when the bridge could not be reached or
// started. It matches protocol.ErrNoResponse.
var ErrBridgeNotRunning = fmt.Errorf("bridge is not running: %w", protocol.ErrNoResponse)

// Options supplies the collaborators used to start the bridge.
type Options struct {
	Logger   *slog.Logger
	Launcher supervisor.Launcher
	Stager   supervisor.Stager
}

// SendOptions overrides the target and timeout of one command.
// Zero values select the configured host and the detected port. A zero
// timeout waits up to the read timeout for pooled commands and the spawn
// timeout for dedicated ones.
type SendOptions struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// Client talks to one bridge. Construct one per process and share it.
type Client struct {
	settings   *config.Settings
	resolver   *portprobe.Resolver
	pool       *connpool.Pool
	supervisor *supervisor.Supervisor
	launcher   supervisor.Launcher
	logger     *slog.Logger

	// started is set once the bridge answered and cleared when a command
	// gets no response.
	started atomic.Bool
}

// New creates a bridge client.
func New(settings *config.Settings, opts Options) *Client {
	logger := logging.OrDiscard(opts.Logger)
	c := &Client{
		settings: settings,
		resolver: portprobe.New(settings.DirectPort, settings.ForwardedPort, settings.PortCacheTTL, settings.ProbeTimeout, logger),
		pool: connpool.New(connpool.Options{
			ReadTimeout: settings.ReadTimeout,
			KeepAlive:   settings.KeepAlive,
			Logger:      logger,
		}),
		launcher: opts.Launcher,
		logger:   logger,
	}
	c.supervisor = supervisor.New(c.probe, supervisor.Options{
		LaunchCommand: settings.LaunchCommand,
		Launcher:      opts.Launcher,
		Stager:        opts.Stager,
		Throttle:      settings.LaunchThrottle,
		SettleDelay:   settings.SettleDelay,
		PollInterval:  settings.PollInterval,
		PollAttempts:  settings.PollAttempts,
		Logger:        logger,
	})
	return c
}

// Send sends cmd with default options.
func (c *Client) Send(ctx context.Context, cmd *protocol.Command) (*protocol.Response, error) {
	return c.SendWith(ctx, cmd, SendOptions{})
}

// SendWith sends cmd and returns the bridge's response. Spawn commands use
// a dedicated connection; all others share the pooled connection. Errors
// that mean the bridge gave no reply match protocol.ErrNoResponse.
func (c *Client) SendWith(ctx context.Context, cmd *protocol.Command, opts SendOptions) (*protocol.Response, error) {
	if !c.started.Load() {
		if !c.supervisor.EnsureStarted(ctx) {
			return nil, ErrBridgeNotRunning
		}
		c.started.Store(true)
	}

	resp, err := c.roundTrip(ctx, cmd, opts)
	if err != nil && protocol.IsNoResponse(err) {
		c.started.Store(false)
		c.resolver.Invalidate()
	}
	return resp, err
}

func (c *Client) roundTrip(ctx context.Context, cmd *protocol.Command, opts SendOptions) (*protocol.Response, error) {
	host := opts.Host
	if host == "" {
		host = c.settings.Host
	}
	port := opts.Port
	if port == 0 {
		port = c.resolver.Resolve(ctx, host)
	}

	if cmd.Type.IsLongRunning() {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = c.settings.SpawnTimeout
		}
		c.logger.Debug("sending on dedicated connection", "command", cmd.Type, "port", port, "timeout", timeout)
		return c.pool.RoundTripDedicated(ctx, host, port, cmd, timeout)
	}

	// Without an explicit timeout the pool's read timeout bounds the wait.
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	return c.pool.RoundTrip(ctx, host, port, cmd)
}

// probe sends list without going through the start check. It waits at most
// the command timeout so a hung bridge does not stall the start cycle.
func (c *Client) probe(ctx context.Context) bool {
	cmd, err := protocol.NewCommand(protocol.ListParams{})
	if err != nil {
		return false
	}
	resp, err := c.roundTrip(ctx, cmd, SendOptions{Timeout: c.settings.CommandTimeout})
	if err != nil {
		c.resolver.Invalidate()
		return false
	}
	return resp.Success
}

// EnsureStarted starts the bridge if it is not answering.
func (c *Client) EnsureStarted(ctx context.Context) bool {
	ok := c.supervisor.EnsureStarted(ctx)
	c.started.Store(ok)
	return ok
}

// Logger returns the logger the client writes to.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// Close closes the pooled connection and the launcher session.
func (c *Client) Close() error {
	err := c.pool.Close()
	if closer, ok := c.launcher.(io.Closer); ok {
		err = errors.Join(err, closer.Close())
	}
	return err
}

func (c *Client) do(ctx context.Context, params protocol.Params, opts SendOptions) (*protocol.Response, error) {
	cmd, err := protocol.NewCommand(params)
	if err != nil {
		return nil, err
	}
	return c.SendWith(ctx, cmd, opts)
}

// Register sends a register request to the bridge.
func (c *Client) Register(ctx context.Context, params protocol.RegisterParams) (*protocol.Response, error) {
	return c.do(ctx, params, SendOptions{})
}

// Unregister sends an unregister request to the bridge.
func (c *Client) Unregister(ctx context.Context, name string) (*protocol.Response, error) {
	return c.do(ctx, protocol.UnregisterParams{Name: name}, SendOptions{})
}

// ListServices lists registered services. An empty name lists all of them.
func (c *Client) ListServices(ctx context.Context, name string) (*protocol.Response, error) {
	return c.do(ctx, protocol.ListParams{Name: name}, SendOptions{})
}

// Spawn asks the bridge to start a provider and waits until it is ready or
// timeout elapses. A zero timeout uses the configured spawn timeout.
func (c *Client) Spawn(ctx context.Context, name string, timeout time.Duration) (*protocol.Response, error) {
	if timeout <= 0 {
		timeout = c.settings.SpawnTimeout
	}
	return c.do(ctx, protocol.NewSpawnParams(name, timeout), SendOptions{Timeout: timeout})
}

// Unspawn sends an unspawn request to the bridge.
func (c *Client) Unspawn(ctx context.Context, name string) (*protocol.Response, error) {
	return c.do(ctx, protocol.UnspawnParams{Name: name}, SendOptions{})
}

// ListTools sends a listtools request to the bridge.
func (c *Client) ListTools(ctx context.Context, name string) (*protocol.Response, error) {
	return c.do(ctx, protocol.ListToolsParams{Name: name}, SendOptions{})
}

// CacheTools asks the bridge to refresh its cached tool list for name.
func (c *Client) CacheTools(ctx context.Context, name string) (*protocol.Response, error) {
	return c.do(ctx, protocol.CacheToolsParams{Name: name}, SendOptions{})
}

// CallTool invokes method on the named provider.
func (c *Client) CallTool(ctx context.Context, name, method string, args map[string]any) (*protocol.Response, error) {
	return c.do(ctx, protocol.ToolCallParams{Name: name, Method: method, Arguments: args}, SendOptions{})
}

// GetLogs fetches recent bridge log lines, optionally for one service.
func (c *Client) GetLogs(ctx context.Context, name string, lines int) (*protocol.Response, error) {
	return c.do(ctx, protocol.LogsParams{Name: name, Lines: lines}, SendOptions{})
}

// Reset sends a reset request to the bridge.
func (c *Client) Reset(ctx context.Context) (*protocol.Response, error) {
	return c.do(ctx, protocol.ResetParams{}, SendOptions{})
}
