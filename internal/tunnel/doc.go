// Package tunnel starts the external tunneling process (ngrok by default)
// for a local port and waits for it to exit.
//
// The launcher prints its informational lines, resolves the executable on
// PATH, and runs "<binary> <protocol> <port>" with the caller's standard
// streams attached. It does not parse the child's output, retry, or check
// the tunneled service. Failures come back as typed errors:
//   - model.LaunchError when the executable is missing or cannot start
//   - model.ProcessError when the process exits non-zero
package tunnel
