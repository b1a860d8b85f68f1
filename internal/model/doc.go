// Package model defines the domain values and error kinds for the
// tunnel-launcher CLI.
//
// The package holds the Port value object, the process exit codes
// (ExitCode), and three error types that carry exit codes:
// CLIError for input and configuration problems, LaunchError when the
// tunneling executable cannot be found or started, and ProcessError when
// it runs but exits non-zero.
package model
