package main

import (
	"errors"
	"fmt"

	"github.com/d2verb/toolbridge/internal/client"
	"github.com/d2verb/toolbridge/internal/protocol"
	"github.com/d2verb/toolbridge/internal/providers"
)

// Exit codes for CLI commands.
const (
	exitSuccess          = 0
	exitError            = 1
	exitBridgeNotRunning = 2
	exitProviderNotFound = 3
	exitToolError        = 4
)

// ExitError represents an error that should cause the process to exit with a specific code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

func errBridgeNotRunning() *ExitError {
	return &ExitError{
		Code:    exitBridgeNotRunning,
		Message: "Bridge is not running.\nRun: toolbridge start",
	}
}

func errProviderNotFound(name string) *ExitError {
	return &ExitError{
		Code:    exitProviderNotFound,
		Message: fmt.Sprintf("Provider '%s' not found.", name),
	}
}

func errServiceNotRegistered(name string) *ExitError {
	return &ExitError{
		Code:    exitProviderNotFound,
		Message: fmt.Sprintf("Service '%s' is not registered.\nRun: toolbridge register %s", name, name),
	}
}

func errToolFailed(message string) *ExitError {
	return &ExitError{
		Code:    exitToolError,
		Message: message,
	}
}

// mapError converts client, protocol and provider errors to user-facing errors.
func mapError(err error, name string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, client.ErrBridgeNotRunning), remoteCode(err) == protocol.CodeNoResponse:
		return errBridgeNotRunning()
	case notRegistered(err):
		return errServiceNotRegistered(name)
	case providers.IsNotFound(err):
		return errProviderNotFound(name)
	default:
		return err
	}
}

// notRegistered matches both the local lookup error and the bridge's own
// not-registered reply.
func notRegistered(err error) bool {
	if protocol.IsNotRegistered(err) {
		return true
	}
	return remoteCode(err) == protocol.CodeNotRegistered
}

func remoteCode(err error) int {
	var remote *protocol.RemoteError
	if errors.As(err, &remote) {
		return remote.Code
	}
	return 0
}
