// Package model defines the domain types for the tunnel-launcher CLI.
//
// The launcher has a single piece of domain data, the local port to expose.
// Everything else in this file is about reporting outcomes: exit codes and
// the error types that carry them up to the CLI layer.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultPort is the local port exposed when no port is given on the
	// command line or in a config file. 8501 is the port a Streamlit app
	// listens on by default.
	DefaultPort Port = 8501

	// MinPort and MaxPort bound the valid TCP port range.
	MinPort Port = 1
	MaxPort Port = 65535
)

// Port is a local TCP port number in the range 1-65535.
//
// A Port is resolved once at startup and passed unchanged to the tunneling
// process for its whole lifetime.
type Port int

// String returns the decimal form used on the tunneling command line.
func (p Port) String() string {
	return strconv.Itoa(int(p))
}

// Validate checks that the port lies in the valid TCP range.
// It does not check whether anything is listening on the port; binding
// and forwarding are left to the tunneling process.
func (p Port) Validate() error {
	if p < MinPort || p > MaxPort {
		return fmt.Errorf("port %d out of range (%d-%d)", int(p), MinPort, MaxPort)
	}
	return nil
}

// ParsePort converts a decimal string to a Port.
// Surrounding whitespace is ignored. Returns an error for non-numeric input
// or values outside 1-65535.
func ParsePort(s string) (Port, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("port must not be empty")
	}

	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: must be a number", s)
	}

	p := Port(n)
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return p, nil
}

// ExitCode defines the process exit codes of the CLI.
// These codes allow scripts to tell a bad invocation apart from a missing
// tunneling binary or a tunnel that died.
type ExitCode int

const (
	// ExitSuccess indicates the tunnel ran and ended gracefully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitInvalidInput indicates a malformed port argument or flag value.
	ExitInvalidInput ExitCode = 2

	// ExitConfigError indicates the config file or env file could not be
	// read or contains invalid values.
	ExitConfigError ExitCode = 3

	// ExitCannotExecute indicates the tunneling executable was found but
	// could not be started (e.g., permission denied). Matches the shell
	// convention for "found but not executable".
	ExitCannotExecute ExitCode = 126

	// ExitCommandNotFound indicates the tunneling executable is not
	// installed or not on PATH. Matches the shell convention.
	ExitCommandNotFound ExitCode = 127
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// LaunchError reports that the tunneling executable could not be located
// or could not be started. No process is running when this is returned.
type LaunchError struct {
	// Executable is the name or path that was looked up.
	Executable string

	// NotFound is true when the executable is absent from PATH, as opposed
	// to being present but not startable.
	NotFound bool

	// Err is the underlying lookup or start error.
	Err error
}

func (e *LaunchError) Error() string {
	if e.NotFound {
		return fmt.Sprintf("%s not found: %v", e.Executable, e.Err)
	}
	return fmt.Sprintf("failed to start %s: %v", e.Executable, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ExitCode returns 127 for a missing executable and 126 otherwise.
func (e *LaunchError) ExitCode() ExitCode {
	if e.NotFound {
		return ExitCommandNotFound
	}
	return ExitCannotExecute
}

// ProcessError reports that the tunneling process started but terminated
// with a non-zero status.
type ProcessError struct {
	// Executable is the name of the process that exited.
	Executable string

	// Code is the process exit code. For a process killed by a signal it
	// is 128 plus the signal number.
	Code int

	// Err is the underlying wait error.
	Err error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Executable, e.Code)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// ExitCode returns the child's own exit code so the launcher exits the
// same way the tunnel did.
func (e *ProcessError) ExitCode() ExitCode {
	return ExitCode(e.Code)
}
