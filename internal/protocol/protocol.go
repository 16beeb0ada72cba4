// Package protocol defines the line-delimited JSON protocol spoken with the bridge.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// CommandType names one entry of the fixed bridge command vocabulary.
type CommandType string

// Command names
const (
	CmdRegister   CommandType = "register"
	CmdUnregister CommandType = "unregister"
	CmdList       CommandType = "list"
	CmdSpawn      CommandType = "spawn"
	CmdUnspawn    CommandType = "unspawn"
	CmdListTools  CommandType = "listtools"
	CmdCacheTools CommandType = "cachetools"
	CmdToolCall   CommandType = "toolcall"
	CmdLogs       CommandType = "logs"
	CmdReset      CommandType = "reset"
)

// IsLongRunning reports whether commands of this type bypass the pooled
// connection. Spawn may block while the bridge boots an external process.
func (t CommandType) IsLongRunning() bool {
	return t == CmdSpawn
}

// Error codes used in locally synthesized failure responses.
const (
	CodeNoResponse    = -32000
	CodeNotRegistered = -32001
	CodeNotReady      = -32002
	CodeInternal      = -32603
)

// Command is a single request sent to the bridge. It is immutable once built.
type Command struct {
	ID     string      `json:"id"`
	Type   CommandType `json:"command"`
	Params Params      `json:"params,omitempty"`
}

// Response is a single reply read from the bridge.
type Response struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

// ErrorInfo describes a failure reported by the bridge.
type ErrorInfo struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewCommand validates params and builds a command with a fresh ID.
// Params that carry no values are omitted from the wire form.
func NewCommand(params Params) (*Command, error) {
	if params == nil {
		return nil, fmt.Errorf("params required")
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", params.CommandType(), err)
	}
	cmd := &Command{
		ID:   uuid.NewString(),
		Type: params.CommandType(),
	}
	if !params.empty() {
		cmd.Params = params
	}
	return cmd, nil
}

// NewOKResponse creates a successful response carrying result.
func NewOKResponse(result any) *Response {
	resp := &Response{Success: true}
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return NewErrorResponse(CodeInternal, fmt.Sprintf("marshal result: %v", err))
		}
		resp.Result = data
	}
	return resp
}

// NewErrorResponse creates a failed response.
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
	}
}

// ErrorMessage returns the remote error message, or "" for successful responses.
func (r *Response) ErrorMessage() string {
	if r == nil {
		return "no response"
	}
	if r.Success {
		return ""
	}
	if r.Error == nil || r.Error.Message == "" {
		return "unknown error"
	}
	return r.Error.Message
}

// Err converts a failed response into a *RemoteError. It returns nil on success.
func (r *Response) Err() error {
	if r == nil {
		return ErrNoResponse
	}
	if r.Success {
		return nil
	}
	e := &RemoteError{Message: r.ErrorMessage()}
	if r.Error != nil {
		e.Code = r.Error.Code
	}
	return e
}

// DecodeResult unmarshals the result payload into v.
func (r *Response) DecodeResult(v any) error {
	if r == nil || len(r.Result) == 0 {
		return fmt.Errorf("response has no result")
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
