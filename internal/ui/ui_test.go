package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
)

// capture disables color and redirects Output for the duration of a test.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	color.NoColor = true
	var buf bytes.Buffer
	Output = &buf
	t.Cleanup(func() {
		color.NoColor = false
		Output = os.Stdout
	})
	return &buf
}

func TestServiceBadge(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name   string
		active bool
		ready  bool
		want   string
	}{
		{name: "ready", active: true, ready: true, want: "● ready"},
		{name: "starting", active: true, ready: false, want: "◐ starting"},
		{name: "idle", active: false, ready: false, want: "○ idle"},
		{name: "ready without active is idle", active: false, ready: true, want: "○ idle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ServiceBadge(tt.active, tt.ready); got != tt.want {
				t.Errorf("ServiceBadge(%v, %v) = %q, want %q", tt.active, tt.ready, got, tt.want)
			}
		})
	}
}

func TestPrintServiceList(t *testing.T) {
	buf := capture(t)

	PrintServiceList([]ServiceRow{
		{Name: "echo", Active: true, Ready: true, ToolCount: 2},
		{Name: "filesystem", ToolCount: 0},
	})

	output := buf.String()
	for _, want := range []string{"Services:", "echo", "● ready", "(2 tools)", "filesystem", "○ idle", "(0 tools)"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q, got:\n%s", want, output)
		}
	}
	// Names are padded to the widest one.
	if !strings.Contains(output, "echo        ● ready") {
		t.Errorf("names not aligned, got:\n%s", output)
	}
}

func TestPrintServiceList_Empty(t *testing.T) {
	buf := capture(t)

	PrintServiceList(nil)

	if got := buf.String(); got != "No services registered.\n" {
		t.Errorf("output = %q", got)
	}
}

func TestPrintToolList(t *testing.T) {
	buf := capture(t)

	PrintToolList("echo", []ToolRow{
		{Name: "say", Description: "Echo text back.\nLonger explanation."},
		{Name: "noop"},
	})

	output := buf.String()
	if !strings.Contains(output, "Tools of echo:") {
		t.Errorf("output missing header, got:\n%s", output)
	}
	if !strings.Contains(output, "say Echo text back.") {
		t.Errorf("output missing first description line, got:\n%s", output)
	}
	if strings.Contains(output, "Longer explanation") {
		t.Errorf("output should only show the first description line, got:\n%s", output)
	}
	if !strings.Contains(output, "  noop\n") {
		t.Errorf("output missing tool without description, got:\n%s", output)
	}
}

func TestPrintToolList_Empty(t *testing.T) {
	buf := capture(t)

	PrintToolList("echo", nil)

	if got := buf.String(); got != "No tools exposed by echo.\n" {
		t.Errorf("output = %q", got)
	}
}

func TestPrintProviderDetails(t *testing.T) {
	t.Run("all fields", func(t *testing.T) {
		buf := capture(t)

		PrintProviderDetails(ProviderDetails{
			Name:        "echo",
			Description: "Echo provider",
			CommandLine: "echo-mcp --stdio",
			Cwd:         "/srv/echo",
			EnvNames:    []string{"API_KEY", "DEBUG"},
		})

		output := buf.String()
		for _, want := range []string{"Name: echo", "Description: Echo provider", "Command: echo-mcp --stdio", "Working Dir: /srv/echo", "Env: API_KEY, DEBUG"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("optional fields omitted", func(t *testing.T) {
		buf := capture(t)

		PrintProviderDetails(ProviderDetails{Name: "echo", CommandLine: "echo-mcp"})

		output := buf.String()
		for _, unwanted := range []string{"Description:", "Working Dir:", "Env:"} {
			if strings.Contains(output, unwanted) {
				t.Errorf("output should not contain %q, got:\n%s", unwanted, output)
			}
		}
	})
}

func TestPrintPing(t *testing.T) {
	buf := capture(t)

	PrintPing("echo", 1500*time.Microsecond)

	if got := buf.String(); got != "● echo (1.5ms)\n" {
		t.Errorf("output = %q", got)
	}
}

func TestPrintMessages(t *testing.T) {
	tests := []struct {
		name  string
		print func(string)
		want  string
	}{
		{name: "success", print: PrintSuccess, want: "✓ done\n"},
		{name: "error", print: PrintError, want: "✗ done\n"},
		{name: "warning", print: PrintWarning, want: "⚠ done\n"},
		{name: "info", print: PrintInfo, want: "• done\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t)
			tt.print("done")
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}
