package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode renders cmd as a single newline-terminated line.
func Encode(cmd *Command) ([]byte, error) {
	if cmd == nil {
		return nil, fmt.Errorf("encode: nil command")
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.Type, err)
	}
	return append(data, '\n'), nil
}

// Decode parses one response line. Blank lines and lines that are not a
// response object fail with a *ProtocolError.
func Decode(line []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, &ProtocolError{Reason: "empty response"}
	}

	var wire struct {
		Success *bool           `json:"success"`
		Result  json.RawMessage `json:"result"`
		Error   *ErrorInfo      `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, &ProtocolError{Reason: fmt.Sprintf("malformed response: %v", err), Line: string(trimmed)}
	}
	if wire.Success == nil && wire.Error == nil {
		return nil, &ProtocolError{Reason: "missing success field", Line: string(trimmed)}
	}

	resp := &Response{Result: wire.Result, Error: wire.Error}
	if wire.Success != nil {
		resp.Success = *wire.Success
	}
	if bytes.Equal(resp.Result, []byte("null")) {
		resp.Result = nil
	}
	return resp, nil
}

// IncomingCommand is the decoded form of a command line as seen by a bridge.
type IncomingCommand struct {
	ID     string          `json:"id"`
	Type   CommandType     `json:"command"`
	Params json.RawMessage `json:"params,omitempty"`
}

// DecodeCommand parses one command line.
func DecodeCommand(line []byte) (*IncomingCommand, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, &ProtocolError{Reason: "empty command"}
	}
	var cmd IncomingCommand
	if err := json.Unmarshal(trimmed, &cmd); err != nil {
		return nil, &ProtocolError{Reason: fmt.Sprintf("malformed command: %v", err), Line: string(trimmed)}
	}
	if cmd.Type == "" {
		return nil, &ProtocolError{Reason: "missing command field", Line: string(trimmed)}
	}
	return &cmd, nil
}

// DecodeParams unmarshals the command params into v. Absent params leave v untouched.
func (c *IncomingCommand) DecodeParams(v any) error {
	if len(c.Params) == 0 {
		return nil
	}
	return json.Unmarshal(c.Params, v)
}

// EncodeResponse renders resp as a single newline-terminated line.
func EncodeResponse(resp *Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return append(data, '\n'), nil
}
