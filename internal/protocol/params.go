package protocol

import (
	"fmt"
	"strings"
	"time"
)

// Params is implemented by every typed command parameter set. Each
// implementation maps to exactly one command type.
type Params interface {
	CommandType() CommandType
	Validate() error
	empty() bool
}

func requireName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// RegisterParams registers a tool-provider with the bridge.
type RegisterParams struct {
	Name        string            `json:"name"`
	Command     string            `json:"command"`
	Args        []string          `json:"args,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	Cwd         string            `json:"cwd,omitempty"`
	Description string            `json:"description,omitempty"`
}

func (RegisterParams) CommandType() CommandType { return CmdRegister }
func (p RegisterParams) empty() bool           { return false }

func (p RegisterParams) Validate() error {
	if err := requireName(p.Name); err != nil {
		return err
	}
	if strings.TrimSpace(p.Command) == "" {
		return fmt.Errorf("command is required")
	}
	return nil
}

// UnregisterParams removes a tool-provider registration.
type UnregisterParams struct {
	Name string `json:"name"`
}

func (UnregisterParams) CommandType() CommandType { return CmdUnregister }
func (p UnregisterParams) Validate() error         { return requireName(p.Name) }
func (p UnregisterParams) empty() bool             { return false }

// ListParams lists registered services. An empty Name lists all of them.
type ListParams struct {
	Name string `json:"name,omitempty"`
}

func (ListParams) CommandType() CommandType { return CmdList }
func (ListParams) Validate() error          { return nil }
func (p ListParams) empty() bool            { return p.Name == "" }

// SpawnParams asks the bridge to start a tool-provider and wait until it is ready.
type SpawnParams struct {
	Name string `json:"name"`
	// TimeoutSeconds tells the bridge how long the caller is willing to wait.
	TimeoutSeconds int `json:"timeout,omitempty"`
}

// NewSpawnParams builds spawn params, rounding timeout up to whole seconds.
func NewSpawnParams(name string, timeout time.Duration) SpawnParams {
	secs := int((timeout + time.Second - 1) / time.Second)
	if secs < 0 {
		secs = 0
	}
	return SpawnParams{Name: name, TimeoutSeconds: secs}
}

func (SpawnParams) CommandType() CommandType { return CmdSpawn }
func (p SpawnParams) Validate() error         { return requireName(p.Name) }
func (p SpawnParams) empty() bool             { return false }

// UnspawnParams stops a running tool-provider.
type UnspawnParams struct {
	Name string `json:"name"`
}

func (UnspawnParams) CommandType() CommandType { return CmdUnspawn }
func (p UnspawnParams) Validate() error         { return requireName(p.Name) }
func (p UnspawnParams) empty() bool             { return false }

// ListToolsParams lists the tools exposed by a tool-provider.
type ListToolsParams struct {
	Name string `json:"name"`
}

func (ListToolsParams) CommandType() CommandType { return CmdListTools }
func (p ListToolsParams) Validate() error         { return requireName(p.Name) }
func (p ListToolsParams) empty() bool             { return false }

// CacheToolsParams asks the bridge to re-query and cache a provider's tool list.
type CacheToolsParams struct {
	Name string `json:"name"`
}

func (CacheToolsParams) CommandType() CommandType { return CmdCacheTools }
func (p CacheToolsParams) Validate() error         { return requireName(p.Name) }
func (p CacheToolsParams) empty() bool             { return false }

// ToolCallParams invokes a tool on a tool-provider.
type ToolCallParams struct {
	Name      string         `json:"name"`
	Method    string         `json:"method"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

func (ToolCallParams) CommandType() CommandType { return CmdToolCall }
func (p ToolCallParams) empty() bool             { return false }

func (p ToolCallParams) Validate() error {
	if err := requireName(p.Name); err != nil {
		return err
	}
	if strings.TrimSpace(p.Method) == "" {
		return fmt.Errorf("method is required")
	}
	return nil
}

// LogsParams fetches bridge logs, optionally for one service.
type LogsParams struct {
	Name  string `json:"name,omitempty"`
	Lines int    `json:"lines,omitempty"`
}

func (LogsParams) CommandType() CommandType { return CmdLogs }
func (p LogsParams) empty() bool             { return p.Name == "" && p.Lines == 0 }

func (p LogsParams) Validate() error {
	if p.Lines < 0 {
		return fmt.Errorf("lines must be >= 0, got %d", p.Lines)
	}
	return nil
}

// ResetParams stops every provider and clears bridge state.
type ResetParams struct{}

func (ResetParams) CommandType() CommandType { return CmdReset }
func (ResetParams) Validate() error          { return nil }
func (ResetParams) empty() bool              { return true }
