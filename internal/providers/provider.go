// Package providers handles tool-provider definitions stored as YAML files.
package providers

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/d2verb/toolbridge/internal/protocol"
)

// namePattern validates provider names: alphanumeric, underscore, hyphen only.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateName checks if a provider name is valid.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name must contain only alphanumeric characters, underscores, and hyphens")
	}
	return nil
}

// Definition describes how the bridge starts a tool-provider.
type Definition struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Command     string            `yaml:"command"`
	Args        []string          `yaml:"args,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"`
	Cwd         string            `yaml:"cwd,omitempty"`
}

// Validate checks fields other than the name.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Command) == "" {
		return fmt.Errorf("command is required")
	}
	for key := range d.Env {
		if key == "" || strings.ContainsAny(key, "= ") {
			return fmt.Errorf("invalid env name %q", key)
		}
	}
	return nil
}

// RegisterParams returns the register command params for this definition.
func (d *Definition) RegisterParams() protocol.RegisterParams {
	return protocol.RegisterParams{
		Name:        d.Name,
		Command:     d.Command,
		Args:        d.Args,
		Env:         d.Env,
		Cwd:         d.Cwd,
		Description: d.Description,
	}
}

// CommandLine renders the command and args for display.
func (d *Definition) CommandLine() string {
	parts := append([]string{d.Command}, d.Args...)
	return strings.Join(parts, " ")
}

// EnvNames returns the env variable names in sorted order.
func (d *Definition) EnvNames() []string {
	names := make([]string, 0, len(d.Env))
	for k := range d.Env {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
