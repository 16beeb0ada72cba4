// Package service manages the connection state of one named tool-provider.
//
// A Client starts Disconnected and becomes Connected once the bridge reports
// the provider as both active and ready. Tool calls reconnect and retry at
// most once when the failure looks like a lost provider connection.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/d2verb/toolbridge/internal/logging"
	"github.com/d2verb/toolbridge/internal/protocol"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Bridge is the subset of the bridge client used by a service client.
type Bridge interface {
	ListServices(ctx context.Context, name string) (*protocol.Response, error)
	Spawn(ctx context.Context, name string, timeout time.Duration) (*protocol.Response, error)
	Unspawn(ctx context.Context, name string) (*protocol.Response, error)
	ListTools(ctx context.Context, name string) (*protocol.Response, error)
	CacheTools(ctx context.Context, name string) (*protocol.Response, error)
	CallTool(ctx context.Context, name, method string, args map[string]any) (*protocol.Response, error)
}

// State is the connection state of a service client.
type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

const (
	defaultCacheSize = 64
	defaultCacheTTL  = 5 * time.Minute
)

// ToolCache holds tool metadata per service name. It can be shared by
// several service clients.
type ToolCache = expirable.LRU[string, []protocol.Tool]

// NewToolCache creates a tool cache whose entries expire after ttl.
func NewToolCache(size int, ttl time.Duration) *ToolCache {
	return expirable.NewLRU[string, []protocol.Tool](size, nil, ttl)
}

// Options configures a Client.
type Options struct {
	// SpawnTimeout is passed to spawn. Zero uses the bridge client's default.
	SpawnTimeout time.Duration
	// Cache is shared tool metadata. Nil creates a private cache.
	Cache  *ToolCache
	Logger *slog.Logger
}

// Client is the per-service view over a shared bridge.
type Client struct {
	name         string
	bridge       Bridge
	spawnTimeout time.Duration
	cache        *ToolCache
	logger       *slog.Logger

	mu      sync.Mutex
	state   State
	latency time.Duration

	// Test hook
	now func() time.Time
}

// New creates a client for the named service.
func New(name string, bridge Bridge, opts Options) *Client {
	cache := opts.Cache
	if cache == nil {
		cache = NewToolCache(defaultCacheSize, defaultCacheTTL)
	}
	return &Client{
		name:         name,
		bridge:       bridge,
		spawnTimeout: opts.SpawnTimeout,
		cache:        cache,
		logger:       logging.OrDiscard(opts.Logger).With("service", name),
		now:          time.Now,
	}
}

// Name returns the service name.
func (c *Client) Name() string {
	return c.name
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the client is Connected.
func (c *Client) IsConnected() bool {
	return c.State() == Connected
}

// LastPingLatency returns the round trip of the last successful Ping.
func (c *Client) LastPingLatency() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latency
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	if prev != s {
		c.logger.Debug("service state changed", "from", prev, "to", s)
	}
}

// Ping checks this service only. The client becomes Connected when the
// bridge reports it active and ready, and Disconnected otherwise.
func (c *Client) Ping(ctx context.Context) error {
	start := c.now()
	resp, err := c.bridge.ListServices(ctx, c.name)
	if err != nil {
		c.setState(Disconnected)
		return err
	}
	info, err := protocol.FindService(resp, c.name)
	if err != nil {
		c.setState(Disconnected)
		return err
	}
	if !info.Running() {
		c.setState(Disconnected)
		return &protocol.NotReadyError{Name: c.name}
	}

	c.mu.Lock()
	c.latency = c.now().Sub(start)
	c.mu.Unlock()
	c.setState(Connected)
	return nil
}

// Connect pings the service and spawns it when it is registered but not
// running. An unregistered service fails without side effects.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.Ping(ctx); err == nil {
		return nil
	} else if !protocol.IsNotReady(err) {
		return err
	}

	c.logger.Info("spawning service")
	resp, err := c.bridge.Spawn(ctx, c.name, c.spawnTimeout)
	if err != nil {
		return err
	}
	result, err := protocol.ParseSpawn(resp)
	if err != nil {
		return err
	}
	if !result.Ready {
		return &protocol.NotReadyError{Name: c.name, Message: result.Message}
	}
	c.setState(Connected)
	return nil
}

// Disconnect stops the provider and drops its cached tools.
func (c *Client) Disconnect(ctx context.Context) error {
	defer c.setState(Disconnected)
	c.cache.Remove(c.name)

	resp, err := c.bridge.Unspawn(ctx, c.name)
	if err != nil {
		return err
	}
	return resp.Err()
}

// CallTool invokes method, connecting first if needed. It never returns
// nil: failures are reported as a failed response with a readable message.
func (c *Client) CallTool(ctx context.Context, method string, args map[string]any) *protocol.Response {
	params := protocol.ToolCallParams{Name: c.name, Method: method, Arguments: args}
	if err := params.Validate(); err != nil {
		return protocol.FailureResponse(err)
	}

	if !c.IsConnected() {
		if err := c.Connect(ctx); err != nil {
			return protocol.FailureResponse(err)
		}
	}

	resp, err := c.bridge.CallTool(ctx, c.name, method, args)
	if !c.lostConnection(resp, err) {
		return result(resp, err)
	}

	c.logger.Info("connection lost during tool call, reconnecting", "method", method)
	c.setState(Disconnected)
	if err := c.Connect(ctx); err != nil {
		return protocol.FailureResponse(err)
	}

	resp, err = c.bridge.CallTool(ctx, c.name, method, args)
	if c.lostConnection(resp, err) {
		c.setState(Disconnected)
	}
	return result(resp, err)
}

// GetTools returns the service's tools, from the cache when fresh.
func (c *Client) GetTools(ctx context.Context) ([]protocol.Tool, error) {
	if tools, ok := c.cache.Get(c.name); ok {
		return tools, nil
	}

	resp, err := c.bridge.ListTools(ctx, c.name)
	tools, err := c.parseTools(resp, err)
	if err != nil {
		return nil, err
	}
	c.cache.Add(c.name, tools)
	return tools, nil
}

// RefreshTools asks the bridge to re-query the provider and replaces the
// cached tool list.
func (c *Client) RefreshTools(ctx context.Context) ([]protocol.Tool, error) {
	c.cache.Remove(c.name)

	resp, err := c.bridge.CacheTools(ctx, c.name)
	tools, err := c.parseTools(resp, err)
	if err != nil {
		return nil, err
	}
	c.cache.Add(c.name, tools)
	return tools, nil
}

// GetServiceInfo returns the bridge's current view of the service.
func (c *Client) GetServiceInfo(ctx context.Context) (*protocol.ServiceInfo, error) {
	resp, err := c.bridge.ListServices(ctx, c.name)
	if c.lostConnection(resp, err) {
		c.setState(Disconnected)
	}
	if err != nil {
		return nil, err
	}
	return protocol.FindService(resp, c.name)
}

func (c *Client) parseTools(resp *protocol.Response, err error) ([]protocol.Tool, error) {
	if c.lostConnection(resp, err) {
		c.setState(Disconnected)
	}
	if err != nil {
		return nil, err
	}
	return protocol.ParseTools(resp)
}

// lostConnection reports whether a call got no reply at all or a remote
// message that means the provider connection is gone.
func (c *Client) lostConnection(resp *protocol.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp != nil && !resp.Success && protocol.IsConnectionLoss(resp.ErrorMessage())
}

func result(resp *protocol.Response, err error) *protocol.Response {
	if err != nil {
		return protocol.FailureResponse(err)
	}
	if resp == nil {
		return protocol.FailureResponse(protocol.ErrNoResponse)
	}
	return resp
}
