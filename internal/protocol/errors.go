package protocol

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrNoResponse is matched by every transport or protocol failure: the bridge
// produced no usable reply for the command.
var ErrNoResponse = errors.New("no response from bridge")

// TransportError indicates a connect, read, write or timeout failure.
type TransportError struct {
	Op   string // "dial", "write", "read"
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrNoResponse
}

// maxQuotedLine caps how many bytes of a bad line an error message quotes.
const maxQuotedLine = 120

// ProtocolError indicates an empty or unparseable line.
type ProtocolError struct {
	Reason string
	Line   string
}

func (e *ProtocolError) Error() string {
	if e.Line == "" {
		return "protocol: " + e.Reason
	}
	line := e.Line
	if len(line) > maxQuotedLine {
		cut := maxQuotedLine
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		line = line[:cut] + "..."
	}
	return fmt.Sprintf("protocol: %s (line %q)", e.Reason, line)
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrNoResponse
}

// RemoteError is a well-formed response with success=false.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("bridge error %d: %s", e.Code, e.Message)
	}
	return "bridge error: " + e.Message
}

// NotRegisteredError indicates the bridge does not know the service.
type NotRegisteredError struct {
	Name string
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("service %s is not registered", e.Name)
}

// NotReadyError indicates the service is registered but not active and ready.
type NotReadyError struct {
	Name    string
	Message string
}

func (e *NotReadyError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("service %s is not ready", e.Name)
	}
	return fmt.Sprintf("service %s is not ready: %s", e.Name, e.Message)
}

// IsNoResponse reports whether err means the bridge gave no usable reply.
func IsNoResponse(err error) bool {
	return errors.Is(err, ErrNoResponse)
}

// IsNotRegistered reports whether err indicates an unknown service.
func IsNotRegistered(err error) bool {
	var nr *NotRegisteredError
	return errors.As(err, &nr)
}

// IsNotReady reports whether err indicates a registered but inactive service.
func IsNotReady(err error) bool {
	var nr *NotReadyError
	return errors.As(err, &nr)
}

var connectionLossPatterns = []string{
	"not available",
	"not connected",
	"connection closed",
	"timeout",
	"timed out",
}

// IsConnectionLoss reports whether a remote error message means the
// provider connection was lost rather than the call itself failing.
func IsConnectionLoss(message string) bool {
	msg := strings.ToLower(message)
	for _, pattern := range connectionLossPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// FailureResponse converts err into a response-shaped failure suitable for
// rendering directly.
func FailureResponse(err error) *Response {
	if err == nil {
		return NewErrorResponse(CodeInternal, "unknown error")
	}
	var remote *RemoteError
	switch {
	case errors.As(err, &remote):
		return NewErrorResponse(remote.Code, remote.Message)
	case IsNotRegistered(err):
		return NewErrorResponse(CodeNotRegistered, err.Error())
	case IsNotReady(err):
		return NewErrorResponse(CodeNotReady, err.Error())
	case IsNoResponse(err):
		return NewErrorResponse(CodeNoResponse, err.Error())
	default:
		return NewErrorResponse(CodeInternal, err.Error())
	}
}
