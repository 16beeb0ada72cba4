package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/d2verb/toolbridge/internal/client"
	"github.com/d2verb/toolbridge/internal/config"
	"github.com/d2verb/toolbridge/internal/launcher"
	"github.com/d2verb/toolbridge/internal/logging"
	"github.com/d2verb/toolbridge/internal/providers"
	"github.com/d2verb/toolbridge/internal/service"
	"github.com/d2verb/toolbridge/internal/stager"
)

// app carries what commands share. The bridge client is built on first use
// so commands that never talk to the bridge do not read the config file.
type app struct {
	ctx   context.Context
	paths *config.Paths

	settings *config.Settings
	bridge   *client.Client
	logFile  io.Closer
	tools    *service.ToolCache
}

func newApp(ctx context.Context) (*app, error) {
	paths, err := getPaths()
	if err != nil {
		return nil, err
	}
	return &app{ctx: ctx, paths: paths}, nil
}

func getPaths() (*config.Paths, error) {
	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("get paths: %w", err)
	}
	return paths, nil
}

// client returns the shared bridge client.
func (a *app) client() (*client.Client, error) {
	if a.bridge != nil {
		return a.bridge, nil
	}

	settings, err := config.Load(a.paths.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := a.paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("create directories: %w", err)
	}

	w := logging.NewRotatingWriter(logging.DefaultConfig(a.paths.ClientLog))
	logger := logging.NewLogger(w, settings.LogLevel)

	opts := client.Options{
		Logger:   logger,
		Launcher: launcher.New(logger),
	}
	if settings.PayloadSource != "" {
		opts.Stager = stager.New(settings.PayloadSource, settings.PayloadDest, logger)
	}

	a.settings = settings
	a.logFile = w
	a.bridge = client.New(settings, opts)
	return a.bridge, nil
}

// service returns a service client for name backed by the shared bridge client.
func (a *app) service(name string, spawnTimeout time.Duration) (*service.Client, error) {
	cl, err := a.client()
	if err != nil {
		return nil, err
	}
	if a.tools == nil {
		a.tools = service.NewToolCache(16, 5*time.Minute)
	}
	return service.New(name, cl, service.Options{
		SpawnTimeout: spawnTimeout,
		Cache:        a.tools,
		Logger:       a.bridge.Logger(),
	}), nil
}

func (a *app) loader() *providers.Loader {
	return providers.NewLoader(a.paths.Providers)
}

func (a *app) Close() error {
	var errs []error
	if a.bridge != nil {
		errs = append(errs, a.bridge.Close())
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
	}
	return errors.Join(errs...)
}

// stdin is the input source for prompts. Can be replaced for testing.
var stdin = bufio.NewReader(os.Stdin)

// promptLine prompts the user for input and returns the trimmed response.
// If defaultVal is provided, it's shown in brackets and returned if input is empty.
func promptLine(label, defaultVal string) (string, error) {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	input, err := stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", err
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal, nil
	}
	return input, nil
}

// promptConfirm prompts the user for a yes/no confirmation.
// Returns true only if user enters "y" or "Y".
func promptConfirm(message string) bool {
	fmt.Printf("%s (y/N): ", message)
	input, err := stdin.ReadString('\n')
	if err != nil {
		return false
	}
	input = strings.TrimSpace(input)
	return input == "y" || input == "Y"
}
