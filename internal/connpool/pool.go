// Package connpool owns the socket used for ordinary bridge commands and
// opens dedicated sockets for long-running ones.
//
// At most one pooled connection exists at a time. It is reused only while it
// targets the same address, has been used within the keep-alive window and
// still looks alive; otherwise it is replaced. Any failed exchange closes it.
package connpool

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/d2verb/toolbridge/internal/logging"
	"github.com/d2verb/toolbridge/internal/protocol"
)

const (
	defaultDialTimeout = 5 * time.Second
	// DefaultMaxReplySize caps one reply line when Options leaves it unset.
	DefaultMaxReplySize = 16 << 20
	// A deadline already in the past fails reads without touching the
	// socket, so the liveness peek waits this long instead.
	livenessWait = time.Millisecond
)

// Options configures a Pool.
type Options struct {
	// ReadTimeout bounds how long a pooled exchange waits for a reply.
	ReadTimeout time.Duration
	// KeepAlive is the idle window after which the pooled connection is closed.
	KeepAlive   time.Duration
	DialTimeout time.Duration
	// MaxReplySize caps the bytes read for one reply line.
	MaxReplySize int
	Logger       *slog.Logger
}

type pooledConn struct {
	conn     net.Conn
	reader   *bufio.Reader
	host     string
	port     int
	lastUsed time.Time
}

// Pool serializes ordinary commands over one shared connection.
type Pool struct {
	readTimeout time.Duration
	keepAlive   time.Duration
	dialTimeout time.Duration
	maxReply    int
	logger      *slog.Logger

	// mu is held for a full acquire, write and read cycle.
	mu          sync.Mutex
	pc          *pooledConn
	idleTimer   *time.Timer
	idleTimerID uint64
	nextTimerID uint64

	// Test hooks
	now  func() time.Time
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// New creates an empty pool.
func New(opts Options) *Pool {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.MaxReplySize <= 0 {
		opts.MaxReplySize = DefaultMaxReplySize
	}
	return &Pool{
		readTimeout: opts.ReadTimeout,
		keepAlive:   opts.KeepAlive,
		dialTimeout: opts.DialTimeout,
		maxReply:    opts.MaxReplySize,
		logger:      logging.OrDiscard(opts.Logger),
		now:         time.Now,
		dial:        (&net.Dialer{}).DialContext,
	}
}

// RoundTrip sends cmd over the pooled connection and reads one reply.
// Exchanges are serialized; a failure closes the pooled connection before
// the error is returned.
func (p *Pool) RoundTrip(ctx context.Context, host string, port int, cmd *protocol.Command) (*protocol.Response, error) {
	line, err := protocol.Encode(cmd)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pc, err := p.acquireLocked(ctx, host, port)
	if err != nil {
		return nil, err
	}

	resp, err := p.exchange(ctx, pc.conn, pc.reader, line, deadlineAfter(p.readTimeout), addr(host, port))
	if err != nil {
		p.logger.Debug("pooled exchange failed", "command", cmd.Type, "error", err)
		p.closeLocked()
		return nil, err
	}

	pc.lastUsed = p.now()
	p.armIdleTimerLocked()
	return resp, nil
}

// RoundTripDedicated sends cmd over a fresh connection that is closed after
// the single exchange. The pooled connection is not touched.
func (p *Pool) RoundTripDedicated(ctx context.Context, host string, port int, cmd *protocol.Command, timeout time.Duration) (*protocol.Response, error) {
	line, err := protocol.Encode(cmd)
	if err != nil {
		return nil, err
	}

	target := addr(host, port)
	conn, err := p.dialTarget(ctx, target)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return p.exchange(ctx, conn, bufio.NewReader(conn), line, deadlineAfter(timeout), target)
}

// Close closes the pooled connection, if any, and cancels the idle timer.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}

func (p *Pool) acquireLocked(ctx context.Context, host string, port int) (*pooledConn, error) {
	if pc := p.pc; pc != nil {
		if p.reusableLocked(pc, host, port) {
			return pc, nil
		}
		p.closeLocked()
	}

	conn, err := p.dialTarget(ctx, addr(host, port))
	if err != nil {
		return nil, err
	}
	p.pc = &pooledConn{
		conn:   conn,
		reader: bufio.NewReader(conn),
		host:   host,
		port:   port,
	}
	p.logger.Debug("opened pooled connection", "addr", conn.RemoteAddr().String())
	return p.pc, nil
}

func (p *Pool) reusableLocked(pc *pooledConn, host string, port int) bool {
	if pc.host != host || pc.port != port {
		return false
	}
	if p.now().Sub(pc.lastUsed) > p.keepAlive {
		return false
	}
	return alive(pc)
}

// alive peeks the socket briefly. A timeout means the peer is quiet and the
// connection is usable; EOF, any other error or unsolicited bytes mean it
// is not.
func alive(pc *pooledConn) bool {
	if pc.reader.Buffered() > 0 {
		return false
	}
	if err := pc.conn.SetReadDeadline(time.Now().Add(livenessWait)); err != nil {
		return false
	}
	_, err := pc.reader.Peek(1)
	if resetErr := pc.conn.SetReadDeadline(time.Time{}); resetErr != nil {
		return false
	}
	var netErr net.Error
	return err != nil && errors.As(err, &netErr) && netErr.Timeout()
}

// armIdleTimerLocked replaces any pending idle close with a new one.
// A timer that fires after being replaced finds a different ID and does nothing.
func (p *Pool) armIdleTimerLocked() {
	if p.idleTimer != nil {
		p.idleTimer.Stop()
	}
	p.nextTimerID++
	id := p.nextTimerID
	p.idleTimerID = id
	p.idleTimer = time.AfterFunc(p.keepAlive, func() {
		p.expire(id)
	})
}

func (p *Pool) expire(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.idleTimerID != id || p.pc == nil {
		return
	}
	p.logger.Debug("closing idle pooled connection")
	p.closeLocked()
}

func (p *Pool) closeLocked() {
	if p.idleTimer != nil {
		p.idleTimer.Stop()
		p.idleTimer = nil
	}
	p.idleTimerID = 0
	if p.pc != nil {
		_ = p.pc.conn.Close()
		p.pc = nil
	}
}

func (p *Pool) dialTarget(ctx context.Context, target string) (net.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, p.dialTimeout)
	defer cancel()
	conn, err := p.dial(dialCtx, "tcp", target)
	if err != nil {
		return nil, &protocol.TransportError{Op: "dial", Addr: target, Err: err}
	}
	return conn, nil
}

// exchange writes one line and reads one reply line. Cancelling ctx
// unblocks both by expiring the connection deadline.
func (p *Pool) exchange(ctx context.Context, conn net.Conn, reader *bufio.Reader, line []byte, deadline time.Time, target string) (*protocol.Response, error) {
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, &protocol.TransportError{Op: "write", Addr: target, Err: err}
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := conn.Write(line); err != nil {
		return nil, &protocol.TransportError{Op: "write", Addr: target, Err: ctxErr(ctx, err)}
	}

	reply, err := readLine(reader, p.maxReply)
	if errors.Is(err, errReplyTooLarge) {
		return nil, &protocol.ProtocolError{Reason: fmt.Sprintf("response exceeds %d bytes", p.maxReply)}
	}
	if err != nil {
		// A final line without its newline is still a reply.
		if !errors.Is(err, io.EOF) || len(bytes.TrimSpace(reply)) == 0 {
			return nil, &protocol.TransportError{Op: "read", Addr: target, Err: ctxErr(ctx, err)}
		}
	}
	return protocol.Decode(reply)
}

var errReplyTooLarge = errors.New("reply too large")

// readLine reads up to and including '\n', failing once more than limit
// bytes arrive without one.
func readLine(reader *bufio.Reader, limit int) ([]byte, error) {
	var line []byte
	for {
		chunk, err := reader.ReadSlice('\n')
		if len(line)+len(chunk) > limit {
			return nil, errReplyTooLarge
		}
		line = append(line, chunk...)
		if !errors.Is(err, bufio.ErrBufferFull) {
			return line, err
		}
	}
}

// deadlineAfter returns the socket deadline for timeout d. Zero means none.
func deadlineAfter(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func addr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
