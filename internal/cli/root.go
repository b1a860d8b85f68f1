// Package cli implements the cobra-based CLI for tunnel-launcher.
//
// The root command launches the tunnel; "check" verifies that the
// tunneling executable can be found. This file defines the root command,
// global flags, and the mapping from errors to process exit codes.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/tunnel-launcher/internal/config"
	"github.com/shinji-kodama/tunnel-launcher/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command.
var (
	// jsonOutput controls whether launcher-generated output (errors, dry
	// runs, check results) is formatted as JSON. The tunneling process's
	// own output is always passed through unchanged.
	jsonOutput bool

	// verbose enables [verbose] diagnostics on stderr.
	verbose bool
)

// version, commit, and date are set at build time via ldflags.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// settings holds the flags shared by the root command and "check".
type settings struct {
	configPath string
	binary     string
	protocol   string
	envFile    string
	dryRun     bool
}

// NewRootCommand creates and configures the root cobra command.
// Running it without a subcommand launches the tunnel:
//
//	tunnel-launcher [port]
func NewRootCommand() *cobra.Command {
	s := &settings{}

	rootCmd := &cobra.Command{
		Use:   "tunnel-launcher [port]",
		Short: "Expose a local port through an ngrok tunnel",
		Long: `tunnel-launcher starts "ngrok http <port>" for a local port (8501 by default)
and passes ngrok's own output straight through to the terminal.

The port comes from the positional argument, then the "port" field of
tunnel-launcher.yaml, then the default 8501. ngrok must be installed and
authenticated; set NGROK_AUTHTOKEN in an env file passed with --env-file
to supply a token without exporting it.

Examples:
  tunnel-launcher
  tunnel-launcher 8502
  tunnel-launcher --protocol tcp 5432
  tunnel-launcher --dry-run --json 3000`,

		Args: cobra.MaximumNArgs(1),

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors lets Execute format errors (text or JSON).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd, s, args)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output launcher messages in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&s.configPath, "config", "c", "",
		fmt.Sprintf("Config file (default: ./%s if present)", config.DefaultFileName))
	rootCmd.PersistentFlags().StringVar(&s.binary, "binary", "", "Tunneling executable (default: ngrok)")

	rootCmd.Flags().StringVar(&s.protocol, "protocol", "", "Tunnel type: http, tcp or tls (default: http)")
	rootCmd.Flags().StringVar(&s.envFile, "env-file", "", "Dotenv file whose entries are passed to the tunneling process")
	rootCmd.Flags().BoolVar(&s.dryRun, "dry-run", false, "Print the command instead of running it")

	rootCmd.AddCommand(NewCheckCommand(s))

	return rootCmd
}

// Execute runs the root command and exits with the code derived from its
// error. SIGINT and SIGTERM cancel the command context; the launcher then
// waits for the tunneling process to shut down instead of dying first.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		reportError(rootCmd.ErrOrStderr(), err)
		os.Exit(int(exitCodeFor(err)))
	}
}

// exitCodeFor translates an error into the process exit code.
// CLIError carries its own code; LaunchError maps to 127/126; ProcessError
// passes the child's code through. Anything else is a general error.
func exitCodeFor(err error) model.ExitCode {
	if err == nil {
		return model.ExitSuccess
	}

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}

	var launchErr *model.LaunchError
	if errors.As(err, &launchErr) {
		return launchErr.ExitCode()
	}

	var procErr *model.ProcessError
	if errors.As(err, &procErr) {
		if code := procErr.ExitCode(); code != model.ExitSuccess {
			return code
		}
	}

	return model.ExitGeneralError
}

// reportError prints err to w. CLIError and LaunchError are split into
// their message and underlying cause so the cause shows up as "detail" in
// JSON output.
func reportError(w io.Writer, err error) {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		printError(w, cliErr.Message, cliErr.Err)
		return
	}

	var launchErr *model.LaunchError
	if errors.As(err, &launchErr) {
		message := fmt.Sprintf("failed to start %s", launchErr.Executable)
		if launchErr.NotFound {
			message = fmt.Sprintf("%s not found", launchErr.Executable)
		}
		printError(w, message, launchErr.Err)
		return
	}

	printError(w, err.Error(), nil)
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(w, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(w, "Error: %s\n", message)
		}
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}
