package protocol

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ServiceInfo is the bridge's view of one tool-provider.
type ServiceInfo struct {
	Name      string   `json:"name"`
	Active    bool     `json:"active"`
	Ready     bool     `json:"ready"`
	ToolCount int      `json:"toolCount"`
	ToolNames []string `json:"tools,omitempty"`
}

// Running reports whether the provider is both active and ready.
func (s ServiceInfo) Running() bool {
	return s.Active && s.Ready
}

// ListResult is the result payload of the list command.
type ListResult struct {
	Services []ServiceInfo `json:"services"`
}

// Tool describes a callable tool exposed by a provider.
type Tool = mcp.Tool

// ToolsResult is the result payload of listtools and cachetools.
type ToolsResult struct {
	Tools []Tool `json:"tools"`
}

// SpawnResult is the result payload of spawn.
type SpawnResult struct {
	Ready   bool   `json:"ready"`
	Message string `json:"message,omitempty"`
}

// LogsResult is the result payload of logs.
type LogsResult struct {
	Lines []string `json:"lines"`
}

// ParseServices decodes the services listed in a list response.
func ParseServices(resp *Response) ([]ServiceInfo, error) {
	if err := resp.Err(); err != nil {
		return nil, err
	}
	if len(resp.Result) == 0 {
		return nil, nil
	}
	var result ListResult
	if err := resp.DecodeResult(&result); err != nil {
		return nil, err
	}
	return result.Services, nil
}

// FindService returns the entry named name from a list response.
// It returns a *NotRegisteredError when the bridge does not report it.
func FindService(resp *Response, name string) (*ServiceInfo, error) {
	services, err := ParseServices(resp)
	if err != nil {
		return nil, err
	}
	for i := range services {
		if services[i].Name == name {
			info := services[i]
			return &info, nil
		}
	}
	return nil, &NotRegisteredError{Name: name}
}

// ParseTools decodes the tool list of a listtools or cachetools response.
func ParseTools(resp *Response) ([]Tool, error) {
	if err := resp.Err(); err != nil {
		return nil, err
	}
	var result ToolsResult
	if err := resp.DecodeResult(&result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// ParseSpawn decodes a spawn response.
func ParseSpawn(resp *Response) (*SpawnResult, error) {
	if err := resp.Err(); err != nil {
		return nil, err
	}
	var result SpawnResult
	if len(resp.Result) == 0 {
		return &result, nil
	}
	if err := resp.DecodeResult(&result); err != nil {
		return nil, fmt.Errorf("spawn: %w", err)
	}
	return &result, nil
}
