// Package config handles toolbridge paths and tunable settings.
package config

import (
	"os"
	"path/filepath"
)

// Paths holds common paths used by toolbridge.
type Paths struct {
	Home      string
	Config    string
	Providers string
	Logs      string
	ClientLog string
	Payload   string
}

// GetPaths returns the paths for the current user.
func GetPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	bridgeHome := filepath.Join(home, ".toolbridge")
	logsDir := filepath.Join(bridgeHome, "logs")
	config := filepath.Join(bridgeHome, "config.yaml")
	if env := os.Getenv("TOOLBRIDGE_CONFIG"); env != "" {
		config = env
	}
	return &Paths{
		Home:      bridgeHome,
		Config:    config,
		Providers: filepath.Join(bridgeHome, "providers"),
		Logs:      logsDir,
		ClientLog: filepath.Join(logsDir, "client.log"),
		Payload:   filepath.Join(bridgeHome, "payload"),
	}, nil
}

// EnsureDirectories creates the required directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.Home, p.Providers, p.Logs}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
