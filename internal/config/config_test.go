package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetPaths(t *testing.T) {
	t.Setenv("TOOLBRIDGE_CONFIG", "")

	paths, err := GetPaths()
	if err != nil {
		t.Fatalf("GetPaths() error = %v", err)
	}

	home, _ := os.UserHomeDir()
	bridgeHome := filepath.Join(home, ".toolbridge")
	logsDir := filepath.Join(bridgeHome, "logs")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Home", paths.Home, bridgeHome},
		{"Config", paths.Config, filepath.Join(bridgeHome, "config.yaml")},
		{"Providers", paths.Providers, filepath.Join(bridgeHome, "providers")},
		{"Logs", paths.Logs, logsDir},
		{"ClientLog", paths.ClientLog, filepath.Join(logsDir, "client.log")},
		{"Payload", paths.Payload, filepath.Join(bridgeHome, "payload")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestGetPaths_ConfigOverride(t *testing.T) {
	t.Setenv("TOOLBRIDGE_CONFIG", "/etc/toolbridge.toml")

	paths, err := GetPaths()
	if err != nil {
		t.Fatalf("GetPaths() error = %v", err)
	}
	if paths.Config != "/etc/toolbridge.toml" {
		t.Errorf("Config = %q, want %q", paths.Config, "/etc/toolbridge.toml")
	}
}

func TestEnsureDirectories(t *testing.T) {
	tmp := t.TempDir()
	paths := &Paths{
		Home:      filepath.Join(tmp, "home"),
		Providers: filepath.Join(tmp, "home", "providers"),
		Logs:      filepath.Join(tmp, "home", "logs"),
	}

	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}
	for _, dir := range []string{paths.Home, paths.Providers, paths.Logs} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("directory %s not created: %v", dir, err)
		}
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Host != DefaultHost {
		t.Errorf("Host = %q, want %q", s.Host, DefaultHost)
	}
	if s.DirectPort != DefaultDirectPort || s.ForwardedPort != DefaultForwardedPort {
		t.Errorf("ports = %d/%d, want %d/%d", s.DirectPort, s.ForwardedPort, DefaultDirectPort, DefaultForwardedPort)
	}
	if s.KeepAlive != 3500*time.Millisecond {
		t.Errorf("KeepAlive = %s, want 3.5s", s.KeepAlive)
	}
	if s.SpawnTimeout != 180*time.Second {
		t.Errorf("SpawnTimeout = %s, want 3m0s", s.SpawnTimeout)
	}
	if s.LaunchThrottle != 4*time.Second {
		t.Errorf("LaunchThrottle = %s, want 4s", s.LaunchThrottle)
	}
	if s.ProbeTimeout != 500*time.Millisecond {
		t.Errorf("ProbeTimeout = %s, want 500ms", s.ProbeTimeout)
	}
	if s.PollAttempts != 3 {
		t.Errorf("PollAttempts = %d, want 3", s.PollAttempts)
	}
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BRIDGE_HOME", "/opt/bridge")

	path := filepath.Join(dir, "config.yaml")
	content := `host: 10.0.0.5
direct_port: 9000
forwarded_port: 9001
keep_alive: 2s
spawn_timeout: 1m
launch_command: "${BRIDGE_HOME}/bin/bridge --port 9000"
payload_source: assets
payload_dest: /tmp/bridge
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Host != "10.0.0.5" {
		t.Errorf("Host = %q, want 10.0.0.5", s.Host)
	}
	if s.DirectPort != 9000 || s.ForwardedPort != 9001 {
		t.Errorf("ports = %d/%d, want 9000/9001", s.DirectPort, s.ForwardedPort)
	}
	if s.KeepAlive != 2*time.Second {
		t.Errorf("KeepAlive = %s, want 2s", s.KeepAlive)
	}
	if s.SpawnTimeout != time.Minute {
		t.Errorf("SpawnTimeout = %s, want 1m", s.SpawnTimeout)
	}
	if s.CommandTimeout != DefaultCommandTimeout {
		t.Errorf("CommandTimeout = %s, want default", s.CommandTimeout)
	}
	if s.LaunchCommand != "/opt/bridge/bin/bridge --port 9000" {
		t.Errorf("LaunchCommand = %q", s.LaunchCommand)
	}
	if s.PayloadSource != filepath.Join(dir, "assets") {
		t.Errorf("PayloadSource = %q, want %q", s.PayloadSource, filepath.Join(dir, "assets"))
	}
	if s.PayloadDest != "/tmp/bridge" {
		t.Errorf("PayloadDest = %q", s.PayloadDest)
	}
	if s.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", s.LogLevel)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `host = "192.168.1.2"
direct_port = 7000
port_cache_ttl = "1s"
poll_attempts = 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Host != "192.168.1.2" {
		t.Errorf("Host = %q", s.Host)
	}
	if s.DirectPort != 7000 {
		t.Errorf("DirectPort = %d, want 7000", s.DirectPort)
	}
	if s.ForwardedPort != DefaultForwardedPort {
		t.Errorf("ForwardedPort = %d, want default", s.ForwardedPort)
	}
	if s.PortCacheTTL != time.Second {
		t.Errorf("PortCacheTTL = %s, want 1s", s.PortCacheTTL)
	}
	if s.PollAttempts != 5 {
		t.Errorf("PollAttempts = %d, want 5", s.PollAttempts)
	}
}

func TestLoad_InvalidValuesAreAggregated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `direct_port: 70000
keep_alive: soon
read_timeout: -1s
payload_source: only-source
log_level: loud
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() error = nil, want validation error")
	}
	msg := err.Error()
	for _, want := range []string{"direct_port", "keep_alive", "read_timeout", "payload_source and payload_dest", "log_level"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q should mention %q", msg, want)
		}
	}
}

func TestLoad_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("host: [unclosed"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want parse error")
	}
}
