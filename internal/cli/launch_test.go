// Package cli — launch_test.go exercises the root command end to end with
// the tunneling process replaced by a recording runner.
package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/tunnel-launcher/internal/model"
	"github.com/shinji-kodama/tunnel-launcher/internal/tunnel"
)

// recordingRunner captures the command instead of starting it.
type recordingRunner struct {
	cmd *exec.Cmd
	err error
}

func (r *recordingRunner) Run(cmd *exec.Cmd) error {
	r.cmd = cmd
	return r.err
}

// stubLauncher swaps newLauncher for the duration of the test so every
// launcher uses runner and resolves binaries with lookPath.
func stubLauncher(t *testing.T, runner tunnel.Runner, lookPath func(string) (string, error)) {
	t.Helper()
	orig := newLauncher
	newLauncher = func(opts tunnel.Options) *tunnel.Launcher {
		opts.Runner = runner
		opts.LookPath = lookPath
		return tunnel.New(opts)
	}
	t.Cleanup(func() { newLauncher = orig })
}

func foundAt(dir string) func(string) (string, error) {
	return func(file string) (string, error) {
		return filepath.Join(dir, filepath.Base(file)), nil
	}
}

func notFound(file string) (string, error) {
	return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
}

// runRoot executes a fresh root command with args from an empty working
// directory and returns its stdout.
func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())

	out := &bytes.Buffer{}
	root := NewRootCommand()
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestRoot_DefaultPort(t *testing.T) {
	runner := &recordingRunner{}
	stubLauncher(t, runner, foundAt("/usr/bin"))

	out, err := runRoot(t)
	require.NoError(t, err)

	require.NotNil(t, runner.cmd)
	assert.Equal(t, "/usr/bin/ngrok", runner.cmd.Path)
	assert.Equal(t, []string{"http", "8501"}, runner.cmd.Args[1:])
	assert.Contains(t, out, "localhost:8501")
}

func TestRoot_PortArgument(t *testing.T) {
	runner := &recordingRunner{}
	stubLauncher(t, runner, foundAt("/usr/bin"))

	out, err := runRoot(t, "8502")
	require.NoError(t, err)

	assert.Equal(t, []string{"http", "8502"}, runner.cmd.Args[1:])
	assert.Contains(t, out, "8502")
}

func TestRoot_InvalidPortArgument(t *testing.T) {
	runner := &recordingRunner{}
	stubLauncher(t, runner, foundAt("/usr/bin"))

	_, err := runRoot(t, "99999")
	require.Error(t, err)
	assert.Equal(t, model.ExitInvalidInput, exitCodeFor(err))
	assert.Nil(t, runner.cmd)
}

func TestRoot_TooManyArguments(t *testing.T) {
	stubLauncher(t, &recordingRunner{}, foundAt("/usr/bin"))

	_, err := runRoot(t, "8501", "8502")
	assert.Error(t, err)
}

// TestRoot_ConfigAndFlags verifies that the config file supplies values
// and flags override them.
func TestRoot_ConfigAndFlags(t *testing.T) {
	runner := &recordingRunner{}
	stubLauncher(t, runner, foundAt("/opt/bin"))

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "launcher.yaml")
	require.NoError(t, os.WriteFile(cfgPath,
		[]byte("port: 9000\nprotocol: tcp\nenvFile: ngrok.env\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ngrok.env"),
		[]byte("NGROK_AUTHTOKEN=from-file\n"), 0o644))

	_, err := runRoot(t, "--config", cfgPath, "--protocol", "tls")
	require.NoError(t, err)

	assert.Equal(t, []string{"tls", "9000"}, runner.cmd.Args[1:])
	assert.Contains(t, runner.cmd.Env, "NGROK_AUTHTOKEN=from-file")
}

// TestRoot_DiscoversConfigInWorkingDir verifies ./tunnel-launcher.yaml is
// picked up without --config.
func TestRoot_DiscoversConfigInWorkingDir(t *testing.T) {
	runner := &recordingRunner{}
	stubLauncher(t, runner, foundAt("/usr/bin"))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tunnel-launcher.yaml"),
		[]byte("port: 7000\n"), 0o644))
	chdir(t, dir)

	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs(nil)
	require.NoError(t, root.Execute())

	assert.Equal(t, []string{"http", "7000"}, runner.cmd.Args[1:])
}

func TestRoot_MissingExplicitConfig(t *testing.T) {
	stubLauncher(t, &recordingRunner{}, foundAt("/usr/bin"))

	_, err := runRoot(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, model.ExitConfigError, exitCodeFor(err))
}

func TestRoot_InvalidProtocolFlag(t *testing.T) {
	stubLauncher(t, &recordingRunner{}, foundAt("/usr/bin"))

	_, err := runRoot(t, "--protocol", "udp")
	require.Error(t, err)
	assert.Equal(t, model.ExitInvalidInput, exitCodeFor(err))
}

func TestRoot_BinaryNotFound(t *testing.T) {
	runner := &recordingRunner{}
	stubLauncher(t, runner, notFound)

	out, err := runRoot(t, "--binary", "ngrok3")
	require.Error(t, err)

	assert.Equal(t, model.ExitCommandNotFound, exitCodeFor(err))
	assert.Nil(t, runner.cmd)
	assert.Contains(t, out, "Starting ngrok3 http tunnel")
}

// TestRoot_StartFailure verifies that a process that cannot be started
// after a successful lookup exits with 126.
func TestRoot_StartFailure(t *testing.T) {
	runner := &recordingRunner{err: &os.PathError{Op: "fork/exec", Path: "/usr/bin/ngrok", Err: os.ErrPermission}}
	stubLauncher(t, runner, foundAt("/usr/bin"))

	_, err := runRoot(t)
	require.Error(t, err)

	var launchErr *model.LaunchError
	require.True(t, errors.As(err, &launchErr))
	assert.Equal(t, model.ExitCannotExecute, exitCodeFor(err))
}

func TestRoot_DryRunText(t *testing.T) {
	runner := &recordingRunner{}
	stubLauncher(t, runner, foundAt("/usr/local/bin"))

	out, err := runRoot(t, "--dry-run", "3000")
	require.NoError(t, err)

	assert.Nil(t, runner.cmd, "dry run must not start anything")
	assert.Contains(t, out, "Would run: ngrok http 3000")
	assert.Contains(t, out, "/usr/local/bin/ngrok")
}

func TestRoot_DryRunJSON(t *testing.T) {
	stubLauncher(t, &recordingRunner{}, notFound)

	out, err := runRoot(t, "--dry-run", "--json", "3000")
	require.NoError(t, err)

	var result dryRunResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 3000, result.Port)
	assert.Equal(t, []string{"ngrok", "http", "3000"}, result.Command)
	assert.False(t, result.Found)
	assert.Empty(t, result.Path)
}

// TestExitCodeFor covers the mapping from error kinds to exit codes.
func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want model.ExitCode
	}{
		{"nil", nil, model.ExitSuccess},
		{"cli error", model.NewCLIError(model.ExitConfigError, "bad config"), model.ExitConfigError},
		{"not found", &model.LaunchError{Executable: "ngrok", NotFound: true}, model.ExitCommandNotFound},
		{"cannot start", &model.LaunchError{Executable: "ngrok"}, model.ExitCannotExecute},
		{"process failure", &model.ProcessError{Executable: "ngrok", Code: 2}, model.ExitCode(2)},
		{"signalled", &model.ProcessError{Executable: "ngrok", Code: 130}, model.ExitCode(130)},
		{"zero process code", &model.ProcessError{Executable: "ngrok", Code: 0}, model.ExitGeneralError},
		{"generic", errors.New("boom"), model.ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCodeFor(tt.err))
		})
	}
}
