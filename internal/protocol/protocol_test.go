package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewCommand(t *testing.T) {
	tests := []struct {
		name       string
		params     Params
		wantType   CommandType
		wantParams bool
	}{
		{
			name:       "register with command",
			params:     RegisterParams{Name: "echo", Command: "echo-server"},
			wantType:   CmdRegister,
			wantParams: true,
		},
		{
			name:       "list without name omits params",
			params:     ListParams{},
			wantType:   CmdList,
			wantParams: false,
		},
		{
			name:       "list with name keeps params",
			params:     ListParams{Name: "echo"},
			wantType:   CmdList,
			wantParams: true,
		},
		{
			name:       "reset has no params",
			params:     ResetParams{},
			wantType:   CmdReset,
			wantParams: false,
		},
		{
			name:       "toolcall",
			params:     ToolCallParams{Name: "echo", Method: "ping"},
			wantType:   CmdToolCall,
			wantParams: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := NewCommand(tt.params)
			if err != nil {
				t.Fatalf("NewCommand() error = %v", err)
			}
			if cmd.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", cmd.Type, tt.wantType)
			}
			if cmd.ID == "" {
				t.Error("ID is empty")
			}
			if got := cmd.Params != nil; got != tt.wantParams {
				t.Errorf("has params = %v, want %v", got, tt.wantParams)
			}
		})
	}
}

func TestNewCommand_UniqueIDs(t *testing.T) {
	a, _ := NewCommand(ListParams{})
	b, _ := NewCommand(ListParams{})
	if a.ID == b.ID {
		t.Fatalf("IDs should differ, both %q", a.ID)
	}
}

func TestNewCommand_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"register without name", RegisterParams{Command: "x"}},
		{"register without command", RegisterParams{Name: "echo"}},
		{"spawn without name", SpawnParams{}},
		{"toolcall without method", ToolCallParams{Name: "echo"}},
		{"unregister blank name", UnregisterParams{Name: "  "}},
		{"logs negative lines", LogsParams{Lines: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCommand(tt.params); err == nil {
				t.Fatal("NewCommand() error = nil, want validation error")
			}
		})
	}
}

func TestNewSpawnParams_RoundsUpToSeconds(t *testing.T) {
	p := NewSpawnParams("echo", 1500*time.Millisecond)
	if p.TimeoutSeconds != 2 {
		t.Errorf("TimeoutSeconds = %d, want 2", p.TimeoutSeconds)
	}
	p = NewSpawnParams("echo", 180*time.Second)
	if p.TimeoutSeconds != 180 {
		t.Errorf("TimeoutSeconds = %d, want 180", p.TimeoutSeconds)
	}
}

func TestEncode(t *testing.T) {
	cmd, err := NewCommand(SpawnParams{Name: "echo", TimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("NewCommand() error = %v", err)
	}

	line, err := Encode(cmd)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.HasSuffix(string(line), "\n") {
		t.Fatalf("Encode() = %q, want trailing newline", line)
	}
	if strings.Count(string(line), "\n") != 1 {
		t.Fatalf("Encode() = %q, want exactly one line", line)
	}

	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		t.Fatalf("unmarshal encoded line: %v", err)
	}
	if raw["command"] != "spawn" {
		t.Errorf("command = %v, want spawn", raw["command"])
	}
	if raw["id"] != cmd.ID {
		t.Errorf("id = %v, want %s", raw["id"], cmd.ID)
	}
	params, ok := raw["params"].(map[string]any)
	if !ok {
		t.Fatalf("params = %v, want object", raw["params"])
	}
	if params["name"] != "echo" || params["timeout"] != float64(5) {
		t.Errorf("params = %v", params)
	}
}

func TestEncode_OmitsEmptyParams(t *testing.T) {
	cmd, _ := NewCommand(ResetParams{})
	line, err := Encode(cmd)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if strings.Contains(string(line), "params") {
		t.Errorf("Encode() = %q, want no params field", line)
	}
}

func TestDecode(t *testing.T) {
	t.Run("success with result", func(t *testing.T) {
		resp, err := Decode([]byte(`{"success":true,"result":{"ready":true}}` + "\n"))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if !resp.Success {
			t.Error("Success = false, want true")
		}
		spawn, err := ParseSpawn(resp)
		if err != nil {
			t.Fatalf("ParseSpawn() error = %v", err)
		}
		if !spawn.Ready {
			t.Error("Ready = false, want true")
		}
	})

	t.Run("failure with error", func(t *testing.T) {
		resp, err := Decode([]byte(`{"success":false,"error":{"code":7,"message":"service not available"}}`))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if resp.Success {
			t.Error("Success = true, want false")
		}
		if resp.ErrorMessage() != "service not available" {
			t.Errorf("ErrorMessage() = %q", resp.ErrorMessage())
		}
		var remote *RemoteError
		if !errors.As(resp.Err(), &remote) || remote.Code != 7 {
			t.Errorf("Err() = %v, want RemoteError code 7", resp.Err())
		}
	})

	t.Run("null result is absent", func(t *testing.T) {
		resp, err := Decode([]byte(`{"success":true,"result":null}`))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if resp.Result != nil {
			t.Errorf("Result = %s, want nil", resp.Result)
		}
	})
}

func TestDecode_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"blank", "   \n"},
		{"not json", "hello"},
		{"wrong shape", `[1,2,3]`},
		{"missing success", `{"result":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.line))
			if err == nil {
				t.Fatal("Decode() error = nil, want protocol error")
			}
			var pe *ProtocolError
			if !errors.As(err, &pe) {
				t.Errorf("error type = %T, want *ProtocolError", err)
			}
			if !IsNoResponse(err) {
				t.Error("IsNoResponse() = false, want true")
			}
		})
	}
}

func TestProtocolError_TruncatesAtRuneBoundary(t *testing.T) {
	prefix := strings.Repeat("a", maxQuotedLine-1)
	err := &ProtocolError{Reason: "invalid JSON", Line: prefix + "é" + strings.Repeat("b", 50)}

	msg := err.Error()
	if !strings.Contains(msg, prefix+`..."`) {
		t.Errorf("Error() = %q, want line cut before the split rune", msg)
	}
	if strings.Contains(msg, `\x`) {
		t.Errorf("Error() = %q, contains a partial rune", msg)
	}
}

func TestDecodeCommand(t *testing.T) {
	cmd, _ := NewCommand(ToolCallParams{Name: "echo", Method: "ping", Arguments: map[string]any{"x": 1}})
	line, _ := Encode(cmd)

	in, err := DecodeCommand(line)
	if err != nil {
		t.Fatalf("DecodeCommand() error = %v", err)
	}
	if in.Type != CmdToolCall || in.ID != cmd.ID {
		t.Errorf("DecodeCommand() = %+v", in)
	}
	var p ToolCallParams
	if err := in.DecodeParams(&p); err != nil {
		t.Fatalf("DecodeParams() error = %v", err)
	}
	if p.Method != "ping" || p.Arguments["x"] != float64(1) {
		t.Errorf("params = %+v", p)
	}

	if _, err := DecodeCommand([]byte(`{"id":"1"}`)); err == nil {
		t.Error("DecodeCommand() without command field: error = nil")
	}
}

func TestIsConnectionLoss(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"Service echo not available", true},
		{"provider NOT CONNECTED", true},
		{"connection closed by peer", true},
		{"request timeout after 30s", true},
		{"read timed out", true},
		{"invalid arguments", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsConnectionLoss(tt.msg); got != tt.want {
			t.Errorf("IsConnectionLoss(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}

func TestFindService(t *testing.T) {
	resp := NewOKResponse(ListResult{Services: []ServiceInfo{
		{Name: "echo", Active: true, Ready: false},
		{Name: "fs", Active: true, Ready: true, ToolCount: 2},
	}})

	info, err := FindService(resp, "fs")
	if err != nil {
		t.Fatalf("FindService() error = %v", err)
	}
	if !info.Running() || info.ToolCount != 2 {
		t.Errorf("FindService() = %+v", info)
	}

	echo, _ := FindService(resp, "echo")
	if echo.Running() {
		t.Error("echo Running() = true, want false when not ready")
	}

	if _, err := FindService(resp, "missing"); !IsNotRegistered(err) {
		t.Errorf("FindService(missing) error = %v, want NotRegisteredError", err)
	}
}

func TestFailureResponse(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"remote", &RemoteError{Code: 9, Message: "boom"}, 9},
		{"not registered", &NotRegisteredError{Name: "x"}, CodeNotRegistered},
		{"not ready", &NotReadyError{Name: "x"}, CodeNotReady},
		{"transport", &TransportError{Op: "read", Addr: "127.0.0.1:1", Err: errors.New("reset")}, CodeNoResponse},
		{"other", errors.New("x"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := FailureResponse(tt.err)
			if resp.Success {
				t.Fatal("Success = true, want false")
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", resp.Error.Code, tt.wantCode)
			}
			if resp.ErrorMessage() == "" {
				t.Error("ErrorMessage() is empty")
			}
		})
	}
}
