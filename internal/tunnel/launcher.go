package tunnel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/shinji-kodama/tunnel-launcher/internal/model"
)

// shutdownGracePeriod is how long the child gets to exit after being
// interrupted before it is killed.
const shutdownGracePeriod = 10 * time.Second

// Options configures a Launcher. Zero values select the defaults noted on
// each field.
type Options struct {
	// Binary is the tunneling executable name or path. Default "ngrok".
	Binary string

	// Protocol is the tunnel type passed before the port. Default "http".
	Protocol string

	// Env holds extra KEY=VALUE entries appended to the inherited
	// environment of the child process.
	Env []string

	// Stdin, Stdout and Stderr are attached to the child. They default to
	// the launcher's own standard streams. The informational lines are
	// written to Stdout.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Runner executes the command. Default ExecRunner.
	Runner Runner

	// LookPath resolves Binary to an executable path. Default exec.LookPath.
	LookPath func(file string) (string, error)
}

// Launcher starts a tunneling process bound to a local port.
//
// Usage:
//
//	l := tunnel.New(tunnel.Options{})
//	err := l.Launch(ctx, model.DefaultPort) // blocks until ngrok exits
type Launcher struct {
	binary   string
	protocol string
	env      []string
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	runner   Runner
	lookPath func(string) (string, error)
}

// New creates a Launcher from opts, filling in defaults.
func New(opts Options) *Launcher {
	l := &Launcher{
		binary:   opts.Binary,
		protocol: opts.Protocol,
		env:      opts.Env,
		stdin:    opts.Stdin,
		stdout:   opts.Stdout,
		stderr:   opts.Stderr,
		runner:   opts.Runner,
		lookPath: opts.LookPath,
	}

	if l.binary == "" {
		l.binary = "ngrok"
	}
	if l.protocol == "" {
		l.protocol = "http"
	}
	if l.stdin == nil {
		l.stdin = os.Stdin
	}
	if l.stdout == nil {
		l.stdout = os.Stdout
	}
	if l.stderr == nil {
		l.stderr = os.Stderr
	}
	if l.runner == nil {
		l.runner = ExecRunner{}
	}
	if l.lookPath == nil {
		l.lookPath = exec.LookPath
	}

	return l
}

// Binary returns the configured executable name.
func (l *Launcher) Binary() string {
	return l.binary
}

// Command returns the argv the launcher runs for port p: the binary, the
// protocol, and the port as the only port argument.
func (l *Launcher) Command(p model.Port) []string {
	return []string{l.binary, l.protocol, p.String()}
}

// Lookup resolves the executable on PATH without starting it.
// It returns a *model.LaunchError when the executable cannot be used.
func (l *Launcher) Lookup() (string, error) {
	path, err := l.lookPath(l.binary)
	if err != nil {
		return "", &model.LaunchError{
			Executable: l.binary,
			NotFound:   isNotFound(err),
			Err:        err,
		}
	}
	return path, nil
}

// Launch prints the startup lines, then runs the tunneling process for p
// and blocks until it exits.
//
// Returns nil when the process exits with status 0, or when it exits
// cleanly after ctx was cancelled. Returns *model.LaunchError if the
// executable is missing or cannot be started, and *model.ProcessError if
// it exits non-zero. Nothing is retried.
func (l *Launcher) Launch(ctx context.Context, p model.Port) error {
	if err := p.Validate(); err != nil {
		return model.WrapCLIError(model.ExitInvalidInput, "invalid port", err)
	}

	// The startup lines go out before the executable is even looked up,
	// so they are visible regardless of how the launch ends.
	l.announce(p)

	path, err := l.Lookup()
	if err != nil {
		return err
	}

	cmd := l.newCommand(ctx, path, p)
	return l.classify(ctx, l.runner.Run(cmd))
}

// announce writes the three informational lines shown before the tunnel
// starts.
func (l *Launcher) announce(p model.Port) {
	fmt.Fprintf(l.stdout, "Starting %s %s tunnel for localhost:%d\n", l.binary, l.protocol, int(p))
	fmt.Fprintln(l.stdout, "Press Ctrl+C to stop the tunnel.")
	fmt.Fprintln(l.stdout, "Tunnel status and the public URL will appear below.")
}

// newCommand builds the child process with the caller's streams attached.
func (l *Launcher) newCommand(ctx context.Context, path string, p model.Port) *exec.Cmd {
	args := l.Command(p)[1:]
	cmd := exec.CommandContext(ctx, path, args...)

	cmd.Stdin = l.stdin
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr

	// os.Environ() returns a copy, so appending does not affect this process.
	cmd.Env = append(os.Environ(), l.env...)

	// On cancellation ask the tunnel to shut down the way Ctrl+C would,
	// and only kill it if it is still running after the grace period.
	// Windows cannot deliver os.Interrupt, so fall back to Kill there.
	cmd.Cancel = func() error {
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			if errors.Is(err, os.ErrProcessDone) {
				return err
			}
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = shutdownGracePeriod

	return cmd
}

// classify maps the result of running the child to the launcher's error
// kinds.
func (l *Launcher) classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	// exec.Cmd reports ctx.Err() when the child was interrupted through
	// Cancel and then exited with status 0.
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &model.ProcessError{
			Executable: l.binary,
			Code:       exitCode(exitErr),
			Err:        err,
		}
	}

	return &model.LaunchError{
		Executable: l.binary,
		NotFound:   isNotFound(err),
		Err:        err,
	}
}

// exitCode extracts the numeric status of an exited child. A child killed
// by a signal reports 128+signal, following the shell convention.
func exitCode(exitErr *exec.ExitError) int {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	if code := exitErr.ExitCode(); code > 0 {
		return code
	}
	return int(model.ExitGeneralError)
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}
