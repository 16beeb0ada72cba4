// Package render turns tool call results into terminal output.
package render

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/d2verb/toolbridge/internal/protocol"
	"github.com/mark3labs/mcp-go/mcp"
)

// Result renders the data of a successful toolcall response.
// The second return value reports whether the tool flagged its own error.
func Result(resp *protocol.Response) (string, bool) {
	if resp == nil || len(resp.Result) == 0 || string(resp.Result) == "null" {
		return "", false
	}

	raw := json.RawMessage(resp.Result)
	result, err := mcp.ParseCallToolResult(&raw)
	if err != nil {
		// Not a tool result; show the payload as indented JSON.
		return indent(resp.Result), false
	}
	return CallToolResult(result)
}

// CallToolResult renders an MCP tool result. Structured content wins over
// the content list when both are present.
func CallToolResult(result *mcp.CallToolResult) (string, bool) {
	if result == nil {
		return "", false
	}

	if result.StructuredContent != nil {
		if data, err := json.MarshalIndent(result.StructuredContent, "", "  "); err == nil {
			return ensureTrailingNewline(string(data)), result.IsError
		}
	}

	var parts []string
	for _, content := range result.Content {
		if rendered, ok := renderContent(content); ok {
			parts = append(parts, rendered)
			continue
		}
		if raw, err := json.Marshal(content); err == nil {
			parts = append(parts, string(raw))
		}
	}
	if len(parts) == 0 {
		return "", result.IsError
	}
	return ensureTrailingNewline(strings.Join(parts, "\n")), result.IsError
}

func renderContent(content mcp.Content) (string, bool) {
	switch c := content.(type) {
	case mcp.TextContent:
		return c.Text, true
	case *mcp.TextContent:
		return c.Text, true
	case mcp.ImageContent:
		return binarySummary("image", c.MIMEType, c.Data), true
	case *mcp.ImageContent:
		return binarySummary("image", c.MIMEType, c.Data), true
	case mcp.AudioContent:
		return binarySummary("audio", c.MIMEType, c.Data), true
	case *mcp.AudioContent:
		return binarySummary("audio", c.MIMEType, c.Data), true
	case mcp.EmbeddedResource:
		return renderResource(c.Resource)
	case *mcp.EmbeddedResource:
		return renderResource(c.Resource)
	default:
		return "", false
	}
}

func renderResource(resource mcp.ResourceContents) (string, bool) {
	switch r := resource.(type) {
	case mcp.TextResourceContents:
		return r.Text, true
	case *mcp.TextResourceContents:
		return r.Text, true
	case mcp.BlobResourceContents:
		return fmt.Sprintf("%s %s", r.URI, binarySummary("blob", r.MIMEType, r.Blob)), true
	case *mcp.BlobResourceContents:
		return fmt.Sprintf("%s %s", r.URI, binarySummary("blob", r.MIMEType, r.Blob)), true
	default:
		return "", false
	}
}

func binarySummary(kind, mimeType, data string) string {
	size := base64.StdEncoding.DecodedLen(len(data))
	if decoded, err := base64.StdEncoding.DecodeString(data); err == nil {
		size = len(decoded)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return fmt.Sprintf("[%s %s, %d bytes]", kind, mimeType, size)
}

func indent(data []byte) string {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return ensureTrailingNewline(string(data))
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ensureTrailingNewline(string(data))
	}
	return ensureTrailingNewline(string(out))
}

func ensureTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
