package bridgetest

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/d2verb/toolbridge/internal/protocol"
	"github.com/mark3labs/mcp-go/mcp"
)

// CallFunc answers a tool call on a fake provider.
type CallFunc func(method string, args map[string]any) *protocol.Response

// Service is the fake bridge's record of one provider.
type Service struct {
	Name    string
	Command string
	Active  bool
	Ready   bool
	Tools   []mcp.Tool
	// SpawnError makes spawn fail with this message.
	SpawnError string
	// NeverReady makes spawn succeed with ready=false.
	NeverReady bool
	Call       CallFunc
}

// Bridge is a fake bridge that keeps a registry of providers in memory.
// Use Handle as a Server handler.
type Bridge struct {
	// SpawnDelay is slept before answering spawn.
	SpawnDelay time.Duration

	mu       sync.Mutex
	services map[string]*Service
	logs     []string
}

// NewBridge creates an empty fake bridge.
func NewBridge() *Bridge {
	return &Bridge{services: make(map[string]*Service)}
}

// Add registers svc directly, bypassing the register command.
func (b *Bridge) Add(svc Service) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := svc
	b.services[svc.Name] = &s
}

// Update mutates the named service under the bridge lock.
func (b *Bridge) Update(name string, fn func(s *Service)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.services[name]; ok {
		fn(s)
	}
}

// Get returns a copy of the named service.
func (b *Bridge) Get(name string) (Service, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.services[name]
	if !ok {
		return Service{}, false
	}
	return *s, true
}

// Handle answers one command against the registry.
func (b *Bridge) Handle(cmd *protocol.IncomingCommand) *protocol.Response {
	switch cmd.Type {
	case protocol.CmdRegister:
		var p protocol.RegisterParams
		if err := cmd.DecodeParams(&p); err != nil {
			return protocol.NewErrorResponse(protocol.CodeInternal, err.Error())
		}
		b.mu.Lock()
		b.services[p.Name] = &Service{Name: p.Name, Command: p.Command}
		b.logf("registered %s", p.Name)
		b.mu.Unlock()
		return protocol.NewOKResponse(map[string]any{"name": p.Name})

	case protocol.CmdUnregister:
		var p protocol.UnregisterParams
		_ = cmd.DecodeParams(&p)
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.services[p.Name]; !ok {
			return notFound(p.Name)
		}
		delete(b.services, p.Name)
		return protocol.NewOKResponse(nil)

	case protocol.CmdList:
		var p protocol.ListParams
		_ = cmd.DecodeParams(&p)
		return protocol.NewOKResponse(protocol.ListResult{Services: b.list(p.Name)})

	case protocol.CmdSpawn:
		var p protocol.SpawnParams
		_ = cmd.DecodeParams(&p)
		return b.spawn(p.Name)

	case protocol.CmdUnspawn:
		var p protocol.UnspawnParams
		_ = cmd.DecodeParams(&p)
		b.mu.Lock()
		defer b.mu.Unlock()
		s, ok := b.services[p.Name]
		if !ok {
			return notFound(p.Name)
		}
		s.Active, s.Ready = false, false
		return protocol.NewOKResponse(nil)

	case protocol.CmdListTools, protocol.CmdCacheTools:
		var p protocol.ListToolsParams
		_ = cmd.DecodeParams(&p)
		b.mu.Lock()
		defer b.mu.Unlock()
		s, ok := b.services[p.Name]
		if !ok {
			return notFound(p.Name)
		}
		if !s.Active {
			return protocol.NewErrorResponse(protocol.CodeNotReady, fmt.Sprintf("service %s not connected", p.Name))
		}
		tools := s.Tools
		if tools == nil {
			tools = []mcp.Tool{}
		}
		return protocol.NewOKResponse(protocol.ToolsResult{Tools: tools})

	case protocol.CmdToolCall:
		var p protocol.ToolCallParams
		_ = cmd.DecodeParams(&p)
		b.mu.Lock()
		s, ok := b.services[p.Name]
		var call CallFunc
		active := false
		if ok {
			call, active = s.Call, s.Active
		}
		b.mu.Unlock()
		if !ok {
			return notFound(p.Name)
		}
		if !active {
			return protocol.NewErrorResponse(protocol.CodeNotReady, fmt.Sprintf("service %s not available", p.Name))
		}
		if call != nil {
			return call(p.Method, p.Arguments)
		}
		return protocol.NewOKResponse(mcp.NewToolResultText(p.Method))

	case protocol.CmdLogs:
		var p protocol.LogsParams
		_ = cmd.DecodeParams(&p)
		b.mu.Lock()
		lines := append([]string(nil), b.logs...)
		b.mu.Unlock()
		if p.Lines > 0 && len(lines) > p.Lines {
			lines = lines[len(lines)-p.Lines:]
		}
		return protocol.NewOKResponse(protocol.LogsResult{Lines: lines})

	case protocol.CmdReset:
		b.mu.Lock()
		b.services = make(map[string]*Service)
		b.logs = nil
		b.mu.Unlock()
		return protocol.NewOKResponse(nil)

	default:
		return protocol.NewErrorResponse(protocol.CodeInternal, "unknown command")
	}
}

func (b *Bridge) list(name string) []protocol.ServiceInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	infos := []protocol.ServiceInfo{}
	for _, s := range b.services {
		if name != "" && s.Name != name {
			continue
		}
		info := protocol.ServiceInfo{
			Name:      s.Name,
			Active:    s.Active,
			Ready:     s.Ready,
			ToolCount: len(s.Tools),
		}
		for _, t := range s.Tools {
			info.ToolNames = append(info.ToolNames, t.Name)
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (b *Bridge) spawn(name string) *protocol.Response {
	if b.SpawnDelay > 0 {
		time.Sleep(b.SpawnDelay)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.services[name]
	if !ok {
		return notFound(name)
	}
	if s.SpawnError != "" {
		return protocol.NewErrorResponse(protocol.CodeInternal, s.SpawnError)
	}
	if s.NeverReady {
		s.Active = true
		return protocol.NewOKResponse(protocol.SpawnResult{Ready: false, Message: "provider did not become ready"})
	}
	s.Active, s.Ready = true, true
	b.logf("spawned %s", name)
	return protocol.NewOKResponse(protocol.SpawnResult{Ready: true})
}

// logf appends a log line. Callers hold b.mu.
func (b *Bridge) logf(format string, args ...any) {
	b.logs = append(b.logs, fmt.Sprintf(format, args...))
}

func notFound(name string) *protocol.Response {
	return protocol.NewErrorResponse(protocol.CodeNotRegistered, fmt.Sprintf("service %s not found", name))
}
