package providers

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a provider definition was not found.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("provider %s not found", e.Name)
}

// IsNotFound reports whether err indicates a missing provider definition.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// AlreadyExistsError indicates a provider definition already exists.
type AlreadyExistsError struct {
	Name string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("provider '%s' already exists", e.Name)
}

// ParseError reports a definition file that could not be loaded.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
