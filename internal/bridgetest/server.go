// Package bridgetest provides an in-process bridge that speaks the
// line-delimited wire protocol over a real TCP listener.
package bridgetest

import (
	"bufio"
	"net"
	"strconv"
	"sync"
	"testing"

	"github.com/d2verb/toolbridge/internal/protocol"
)

// Handler answers one command. Returning nil closes the connection without
// a reply.
type Handler func(cmd *protocol.IncomingCommand) *protocol.Response

// Server accepts connections on 127.0.0.1 and answers every line on a
// connection in order.
type Server struct {
	handler  Handler
	listener net.Listener
	wg       sync.WaitGroup

	mu       sync.Mutex
	conns    map[int]net.Conn
	nextID   int
	accepted int
	closed   int
	commands []protocol.IncomingCommand
	raw      [][]byte
}

// Start listens on an ephemeral port and stops the server when the test ends.
func Start(t testing.TB, handler Handler) *Server {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create test bridge: %v", err)
	}
	s := &Server{
		handler:  handler,
		listener: listener,
		conns:    make(map[int]net.Conn),
	}
	s.wg.Add(1)
	go s.acceptLoop()

	t.Cleanup(s.Stop)
	return s
}

// Host returns the listening host.
func (s *Server) Host() string {
	return s.listener.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listening port.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host(), strconv.Itoa(s.Port()))
}

// Stop closes the listener and every open connection.
func (s *Server) Stop() {
	s.listener.Close()
	s.DropConnections()
	s.wg.Wait()
}

// DropConnections closes every open connection from the server side
// without any reply, the way a crashed peer would.
func (s *Server) DropConnections() {
	s.mu.Lock()
	conns := make([]net.Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

// ReplyRaw queues a raw line that is written instead of the handler's
// response for the next command.
func (s *Server) ReplyRaw(line []byte) {
	s.mu.Lock()
	s.raw = append(s.raw, line)
	s.mu.Unlock()
}

// Accepted returns how many connections the server has accepted.
func (s *Server) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// Open returns how many connections are currently open.
func (s *Server) Open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Closed returns how many connections have ended.
func (s *Server) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Commands returns the commands received so far.
func (s *Server) Commands() []protocol.IncomingCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.IncomingCommand, len(s.commands))
	copy(out, s.commands)
	return out
}

// CountCommands returns how many commands of type t were received.
func (s *Server) CountCommands(t protocol.CommandType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.commands {
		if c.Type == t {
			n++
		}
	}
	return n
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		id := s.nextID
		s.nextID++
		s.accepted++
		s.conns[id] = conn
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConnection(id, conn)
	}
}

func (s *Server) handleConnection(id int, conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, id)
		s.closed++
		s.mu.Unlock()
	}()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}

		cmd, err := protocol.DecodeCommand(line)
		if err != nil {
			s.write(conn, protocol.NewErrorResponse(protocol.CodeInternal, "invalid command"))
			continue
		}

		s.mu.Lock()
		s.commands = append(s.commands, *cmd)
		var raw []byte
		if len(s.raw) > 0 {
			raw = s.raw[0]
			s.raw = s.raw[1:]
		}
		s.mu.Unlock()

		if raw != nil {
			if _, err := conn.Write(raw); err != nil {
				return
			}
			continue
		}

		resp := s.handler(cmd)
		if resp == nil {
			return
		}
		if !s.write(conn, resp) {
			return
		}
	}
}

func (s *Server) write(conn net.Conn, resp *protocol.Response) bool {
	data, err := protocol.EncodeResponse(resp)
	if err != nil {
		return false
	}
	_, err = conn.Write(data)
	return err == nil
}
