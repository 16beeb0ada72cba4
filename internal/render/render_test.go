package render

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/d2verb/toolbridge/internal/protocol"
	"github.com/mark3labs/mcp-go/mcp"
)

func TestCallToolResult(t *testing.T) {
	tests := []struct {
		name      string
		result    *mcp.CallToolResult
		want      string
		wantIsErr bool
	}{
		{
			name:   "nil",
			result: nil,
			want:   "",
		},
		{
			name:   "single text",
			result: mcp.NewToolResultText("hello"),
			want:   "hello\n",
		},
		{
			name: "multiple parts",
			result: &mcp.CallToolResult{Content: []mcp.Content{
				mcp.TextContent{Type: "text", Text: "first"},
				mcp.ImageContent{Type: "image", MIMEType: "image/png", Data: base64.StdEncoding.EncodeToString([]byte("abcd"))},
			}},
			want: "first\n[image image/png, 4 bytes]\n",
		},
		{
			name: "text resource",
			result: &mcp.CallToolResult{Content: []mcp.Content{
				mcp.EmbeddedResource{Type: "resource", Resource: mcp.TextResourceContents{URI: "file:///a.txt", Text: "contents"}},
			}},
			want: "contents\n",
		},
		{
			name: "blob resource",
			result: &mcp.CallToolResult{Content: []mcp.Content{
				mcp.EmbeddedResource{Type: "resource", Resource: mcp.BlobResourceContents{URI: "file:///a.bin", Blob: base64.StdEncoding.EncodeToString([]byte("xy"))}},
			}},
			want: "file:///a.bin [blob application/octet-stream, 2 bytes]\n",
		},
		{
			name: "structured content preferred",
			result: &mcp.CallToolResult{
				Content:           []mcp.Content{mcp.TextContent{Type: "text", Text: "ignored"}},
				StructuredContent: map[string]any{"count": 3},
			},
			want: "{\n  \"count\": 3\n}\n",
		},
		{
			name:      "tool error",
			result:    mcp.NewToolResultError("boom"),
			want:      "boom\n",
			wantIsErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, isErr := CallToolResult(tt.result)
			if got != tt.want {
				t.Errorf("CallToolResult() = %q, want %q", got, tt.want)
			}
			if isErr != tt.wantIsErr {
				t.Errorf("CallToolResult() isError = %v, want %v", isErr, tt.wantIsErr)
			}
		})
	}
}

func TestResult(t *testing.T) {
	t.Run("tool result payload", func(t *testing.T) {
		data, err := json.Marshal(mcp.NewToolResultText("pong"))
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		resp := &protocol.Response{Success: true, Result: data}

		got, isErr := Result(resp)
		if got != "pong\n" {
			t.Errorf("Result() = %q, want %q", got, "pong\n")
		}
		if isErr {
			t.Error("Result() isError = true, want false")
		}
	})

	t.Run("plain JSON payload", func(t *testing.T) {
		resp := &protocol.Response{Success: true, Result: json.RawMessage(`{"ok":true}`)}

		got, _ := Result(resp)
		if got != "{\n  \"ok\": true\n}\n" {
			t.Errorf("Result() = %q", got)
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		got, _ := Result(&protocol.Response{Success: true})
		if got != "" {
			t.Errorf("Result() = %q, want empty", got)
		}
	})
}
