// Package cli — check.go implements the "tunnel-launcher check" command.
//
// check resolves the tunneling executable the same way a launch would and
// reports where it lives. It exits 127 when the executable is missing, so
// scripts can verify the installation before starting a tunnel.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/tunnel-launcher/internal/tunnel"
)

// NewCheckCommand creates the "check" cobra command.
func NewCheckCommand(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that the tunneling executable is installed",
		Long: `Look up the tunneling executable (ngrok unless --binary or the config
file says otherwise) on PATH and print its location.

Exits with code 127 if it cannot be found.

Examples:
  tunnel-launcher check
  tunnel-launcher check --binary /opt/ngrok/ngrok --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, s)
		},
	}

	return cmd
}

func runCheck(cmd *cobra.Command, s *settings) error {
	cfg, err := loadConfig(cmd, s)
	if err != nil {
		return err
	}

	l := newLauncher(tunnel.Options{Binary: cfg.Binary, Protocol: cfg.Protocol})
	path, err := l.Lookup()
	if err != nil {
		return err
	}
	VerboseLog("Resolved %s to %s", cfg.Binary, path)

	out := cmd.OutOrStdout()
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]string{
			"binary": cfg.Binary,
			"path":   path,
		}, "", "  ")
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "%s found at %s\n", cfg.Binary, path)
	return nil
}
