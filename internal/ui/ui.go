// Package ui provides formatted output utilities for the CLI.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Color functions for consistent styling.
var (
	Green  = color.New(color.FgGreen).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Blue   = color.New(color.FgBlue).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
	Dim    = color.New(color.Faint).SprintFunc() // Dimmed text (more readable than gray)
	Bold   = color.New(color.Bold).SprintFunc()
)

// Output is the destination for UI output.
// Defaults to os.Stdout but can be overridden for testing.
var Output io.Writer = os.Stdout

// ServiceBadge returns a colored state indicator for a provider.
func ServiceBadge(active, ready bool) string {
	switch {
	case active && ready:
		return Green("● ready")
	case active:
		return Yellow("◐ starting")
	default:
		return Dim("○ idle")
	}
}

// ServiceRow is one provider in a service listing.
type ServiceRow struct {
	Name      string
	Active    bool
	Ready     bool
	ToolCount int
}

// PrintServiceList prints registered providers with their state.
func PrintServiceList(rows []ServiceRow) {
	if len(rows) == 0 {
		fmt.Fprintln(Output, "No services registered.")
		return
	}

	width := 0
	for _, r := range rows {
		width = max(width, len(r.Name))
	}

	fmt.Fprintln(Output, Bold("Services:"))
	for _, r := range rows {
		fmt.Fprintf(Output, "  %s  %s %s\n",
			Cyan(fmt.Sprintf("%-*s", width, r.Name)),
			ServiceBadge(r.Active, r.Ready),
			Dim(fmt.Sprintf("(%d tools)", r.ToolCount)),
		)
	}
}

// ToolRow is one tool in a tool listing.
type ToolRow struct {
	Name        string
	Description string
}

// PrintToolList prints the tools exposed by a provider.
func PrintToolList(service string, tools []ToolRow) {
	if len(tools) == 0 {
		fmt.Fprintf(Output, "No tools exposed by %s.\n", service)
		return
	}

	fmt.Fprintf(Output, "%s\n", Bold(fmt.Sprintf("Tools of %s:", service)))
	for _, t := range tools {
		desc := firstLine(t.Description)
		if desc == "" {
			fmt.Fprintf(Output, "  %s\n", Cyan(t.Name))
			continue
		}
		fmt.Fprintf(Output, "  %s %s\n", Cyan(t.Name), Dim(desc))
	}
}

// ProviderDetails contains a provider definition for display.
type ProviderDetails struct {
	Name        string
	Description string
	CommandLine string
	Cwd         string
	EnvNames    []string
}

// PrintProviderDetails prints a provider definition.
func PrintProviderDetails(p ProviderDetails) {
	fmt.Fprintf(Output, "%s %s\n", Bold("Name:"), Cyan(p.Name))
	if p.Description != "" {
		fmt.Fprintf(Output, "%s %s\n", Bold("Description:"), p.Description)
	}
	fmt.Fprintf(Output, "%s %s\n", Bold("Command:"), p.CommandLine)
	if p.Cwd != "" {
		fmt.Fprintf(Output, "%s %s\n", Bold("Working Dir:"), Blue(p.Cwd))
	}
	if len(p.EnvNames) > 0 {
		fmt.Fprintf(Output, "%s %s\n", Bold("Env:"), strings.Join(p.EnvNames, ", "))
	}
}

// PrintPing prints the result of a service ping.
func PrintPing(service string, latency time.Duration) {
	fmt.Fprintf(Output, "%s %s %s\n", Green("●"), Cyan(service), Dim(fmt.Sprintf("(%s)", latency.Round(time.Microsecond))))
}

// PrintSuccess prints a success message with green checkmark.
func PrintSuccess(message string) {
	fmt.Fprintf(Output, "%s %s\n", Green("✓"), message)
}

// PrintError prints an error message with red X.
func PrintError(message string) {
	fmt.Fprintf(Output, "%s %s\n", Red("✗"), message)
}

// PrintWarning prints a warning message with yellow exclamation.
func PrintWarning(message string) {
	fmt.Fprintf(Output, "%s %s\n", Yellow("⚠"), message)
}

// PrintInfo prints an info message with blue dot.
func PrintInfo(message string) {
	fmt.Fprintf(Output, "%s %s\n", Blue("•"), message)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
