package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/d2verb/toolbridge/internal/pathutil"
	"gopkg.in/yaml.v3"
)

// Defaults for every tunable.
const (
	DefaultHost           = "127.0.0.1"
	DefaultDirectPort     = 48765
	DefaultForwardedPort  = 48766
	DefaultCommandTimeout = 30 * time.Second
	DefaultSpawnTimeout   = 180 * time.Second
	DefaultReadTimeout    = 180 * time.Second
	DefaultKeepAlive      = 3500 * time.Millisecond
	DefaultLaunchThrottle = 4 * time.Second
	DefaultPortCacheTTL   = 3500 * time.Millisecond
	DefaultProbeTimeout   = 500 * time.Millisecond
	DefaultSettleDelay    = 1500 * time.Millisecond
	DefaultPollAttempts   = 3
	DefaultPollInterval   = time.Second
)

// Settings holds resolved bridge client settings.
type Settings struct {
	Host          string
	DirectPort    int
	ForwardedPort int

	CommandTimeout time.Duration
	SpawnTimeout   time.Duration
	ReadTimeout    time.Duration
	KeepAlive      time.Duration
	LaunchThrottle time.Duration
	PortCacheTTL   time.Duration
	ProbeTimeout   time.Duration
	SettleDelay    time.Duration
	PollInterval   time.Duration
	PollAttempts   int

	// LaunchCommand is the shell line that starts the bridge in the background.
	LaunchCommand string
	PayloadSource string
	PayloadDest   string

	LogLevel slog.Level
}

// Default returns settings populated with defaults.
func Default() *Settings {
	return &Settings{
		Host:           DefaultHost,
		DirectPort:     DefaultDirectPort,
		ForwardedPort:  DefaultForwardedPort,
		CommandTimeout: DefaultCommandTimeout,
		SpawnTimeout:   DefaultSpawnTimeout,
		ReadTimeout:    DefaultReadTimeout,
		KeepAlive:      DefaultKeepAlive,
		LaunchThrottle: DefaultLaunchThrottle,
		PortCacheTTL:   DefaultPortCacheTTL,
		ProbeTimeout:   DefaultProbeTimeout,
		SettleDelay:    DefaultSettleDelay,
		PollInterval:   DefaultPollInterval,
		PollAttempts:   DefaultPollAttempts,
		LogLevel:       slog.LevelInfo,
	}
}

// File is the on-disk settings format. Durations are Go duration strings.
type File struct {
	Host          string `yaml:"host,omitempty" toml:"host"`
	DirectPort    int    `yaml:"direct_port,omitempty" toml:"direct_port"`
	ForwardedPort int    `yaml:"forwarded_port,omitempty" toml:"forwarded_port"`

	CommandTimeout string `yaml:"command_timeout,omitempty" toml:"command_timeout"`
	SpawnTimeout   string `yaml:"spawn_timeout,omitempty" toml:"spawn_timeout"`
	ReadTimeout    string `yaml:"read_timeout,omitempty" toml:"read_timeout"`
	KeepAlive      string `yaml:"keep_alive,omitempty" toml:"keep_alive"`
	LaunchThrottle string `yaml:"launch_throttle,omitempty" toml:"launch_throttle"`
	PortCacheTTL   string `yaml:"port_cache_ttl,omitempty" toml:"port_cache_ttl"`
	ProbeTimeout   string `yaml:"probe_timeout,omitempty" toml:"probe_timeout"`
	SettleDelay    string `yaml:"settle_delay,omitempty" toml:"settle_delay"`
	PollInterval   string `yaml:"poll_interval,omitempty" toml:"poll_interval"`
	PollAttempts   int    `yaml:"poll_attempts,omitempty" toml:"poll_attempts"`

	LaunchCommand string `yaml:"launch_command,omitempty" toml:"launch_command"`
	PayloadSource string `yaml:"payload_source,omitempty" toml:"payload_source"`
	PayloadDest   string `yaml:"payload_dest,omitempty" toml:"payload_dest"`

	LogLevel string `yaml:"log_level,omitempty" toml:"log_level"`
}

// Load reads settings from path. A missing file yields defaults.
// Files ending in .toml are parsed as TOML, everything else as YAML.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var f File
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	return f.Resolve(filepath.Dir(path))
}

// Resolve validates the file and overlays it on the defaults. Relative
// payload paths are resolved from baseDir.
func (f File) Resolve(baseDir string) (*Settings, error) {
	s := Default()
	var errs []error

	if v := pathutil.ExpandEnv(f.Host); v != "" {
		s.Host = v
	}
	errs = append(errs, applyPort("direct_port", f.DirectPort, &s.DirectPort))
	errs = append(errs, applyPort("forwarded_port", f.ForwardedPort, &s.ForwardedPort))

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"command_timeout", f.CommandTimeout, &s.CommandTimeout},
		{"spawn_timeout", f.SpawnTimeout, &s.SpawnTimeout},
		{"read_timeout", f.ReadTimeout, &s.ReadTimeout},
		{"keep_alive", f.KeepAlive, &s.KeepAlive},
		{"launch_throttle", f.LaunchThrottle, &s.LaunchThrottle},
		{"port_cache_ttl", f.PortCacheTTL, &s.PortCacheTTL},
		{"probe_timeout", f.ProbeTimeout, &s.ProbeTimeout},
		{"settle_delay", f.SettleDelay, &s.SettleDelay},
		{"poll_interval", f.PollInterval, &s.PollInterval},
	}
	for _, d := range durations {
		errs = append(errs, applyDuration(d.key, d.raw, d.dst))
	}

	switch {
	case f.PollAttempts < 0:
		errs = append(errs, fmt.Errorf("poll_attempts: must be >= 0, got %d", f.PollAttempts))
	case f.PollAttempts > 0:
		s.PollAttempts = f.PollAttempts
	}

	s.LaunchCommand = pathutil.ExpandEnv(f.LaunchCommand)

	if src := pathutil.ExpandEnv(f.PayloadSource); src != "" {
		resolved, err := pathutil.ResolvePath(src, baseDir)
		if err != nil {
			errs = append(errs, fmt.Errorf("payload_source: %w", err))
		}
		s.PayloadSource = resolved
	}
	if dst := pathutil.ExpandEnv(f.PayloadDest); dst != "" {
		resolved, err := pathutil.ResolvePath(dst, baseDir)
		if err != nil {
			errs = append(errs, fmt.Errorf("payload_dest: %w", err))
		}
		s.PayloadDest = resolved
	}
	if (s.PayloadSource == "") != (s.PayloadDest == "") {
		errs = append(errs, fmt.Errorf("payload_source and payload_dest must be set together"))
	}

	if f.LogLevel != "" {
		if err := s.LogLevel.UnmarshalText([]byte(f.LogLevel)); err != nil {
			errs = append(errs, fmt.Errorf("log_level: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return s, nil
}

func applyPort(key string, v int, dst *int) error {
	if v == 0 {
		return nil
	}
	if v < 0 || v > 65535 {
		return fmt.Errorf("%s: invalid port %d", key, v)
	}
	*dst = v
	return nil
}

func applyDuration(key, raw string, dst *time.Duration) error {
	raw = strings.TrimSpace(pathutil.ExpandEnv(raw))
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s: must be > 0, got %q", key, raw)
	}
	*dst = d
	return nil
}
