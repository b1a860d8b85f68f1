// Package cli — launch.go implements the root "tunnel-launcher [port]"
// action.
//
// It loads the optional config file, applies flag overrides, resolves
// the port, and hands off to tunnel.Launcher, which blocks for the life
// of the tunneling process.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shinji-kodama/tunnel-launcher/internal/config"
	"github.com/shinji-kodama/tunnel-launcher/internal/model"
	"github.com/shinji-kodama/tunnel-launcher/internal/port"
	"github.com/shinji-kodama/tunnel-launcher/internal/tunnel"
)

// newLauncher builds the tunnel launcher. Tests replace it to inject a
// fake runner.
var newLauncher = tunnel.New

// runLaunch is the main logic function for the root command.
func runLaunch(cmd *cobra.Command, s *settings, args []string) error {
	// Step 1: Load config and apply flag overrides.
	cfg, err := loadConfig(cmd, s)
	if err != nil {
		return err
	}

	// Step 2: Resolve the port (argument > config > default).
	p, source, err := port.Resolve(args, cfg)
	if err != nil {
		return err
	}
	VerboseLog("Using port %d (from %s)", int(p), source)

	// Step 3: Load the env file for the child, if any.
	var env []string
	if cfg.EnvFile != "" {
		env, err = config.LoadEnvFile(cfg.EnvFile)
		if err != nil {
			return err
		}
		VerboseLog("Loaded %d variable(s) from %s for %s", len(env), cfg.EnvFile, cfg.Binary)
	}

	l := newLauncher(tunnel.Options{
		Binary:   cfg.Binary,
		Protocol: cfg.Protocol,
		Env:      env,
		Stdin:    cmd.InOrStdin(),
		Stdout:   cmd.OutOrStdout(),
		Stderr:   cmd.ErrOrStderr(),
	})

	if s.dryRun {
		return printDryRun(cmd, l, p)
	}

	logEnvironment(cmd.OutOrStdout(), p)
	VerboseLog("Running: %s", strings.Join(l.Command(p), " "))

	// Step 4: Run the tunnel. This blocks until the process exits.
	return l.Launch(cmd.Context(), p)
}

// loadConfig reads the config file (explicit or discovered) and overlays
// any flags the user set.
func loadConfig(cmd *cobra.Command, s *settings) (*config.Config, error) {
	path := s.configPath
	explicit := path != ""
	if !explicit {
		path = config.DefaultFileName
	}

	cfg, err := config.Load(path, explicit)
	if err != nil {
		return nil, err
	}
	if explicit {
		VerboseLog("Loaded config from %s", path)
	}

	// Changed is false for flags the command does not define, so "check"
	// only picks up --binary.
	flags := cmd.Flags()
	if flags.Changed("binary") {
		cfg.Binary = s.binary
	}
	if flags.Changed("protocol") {
		cfg.Protocol = s.protocol
	}
	if flags.Changed("env-file") {
		cfg.EnvFile = s.envFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidInput, "invalid flag value", err)
	}

	return cfg, nil
}

// logEnvironment emits verbose diagnostics about where the tunneled
// service can be reached and whether ngrok will get a terminal on out,
// the stream handed to the child as its stdout.
func logEnvironment(out io.Writer, p model.Port) {
	if !verbose {
		return
	}

	if !isTerminal(out) {
		VerboseLog("stdout is not a terminal; ngrok will not draw its status console")
	}

	urls, err := port.LANURLs(p)
	if err != nil {
		VerboseLog("Could not list LAN addresses: %v", err)
		return
	}
	for _, u := range urls {
		VerboseLog("Reachable on the local network at %s", u)
	}
}

// isTerminal reports whether w is an *os.File attached to a terminal.
// Buffers, pipes and regular files are not.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// dryRunResult is the JSON shape of --dry-run output.
type dryRunResult struct {
	Port    int      `json:"port"`
	Command []string `json:"command"`
	Path    string   `json:"path,omitempty"`
	Found   bool     `json:"found"`
}

// printDryRun reports what would be executed without starting anything.
// A missing executable is reported, not treated as an error.
func printDryRun(cmd *cobra.Command, l *tunnel.Launcher, p model.Port) error {
	path, lookErr := l.Lookup()
	result := dryRunResult{
		Port:    int(p),
		Command: l.Command(p),
		Path:    path,
		Found:   lookErr == nil,
	}

	out := cmd.OutOrStdout()
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "Would run: %s\n", strings.Join(result.Command, " "))
	if result.Found {
		fmt.Fprintf(out, "  executable: %s\n", result.Path)
	} else {
		fmt.Fprintf(out, "  executable: %s not found on PATH\n", l.Binary())
	}
	return nil
}
