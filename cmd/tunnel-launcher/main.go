// Package main is the entry point for the tunnel-launcher CLI.
//
// The binary exposes a local port through ngrok. All behavior lives in
// internal/cli; main only injects build-time version info (set via
// ldflags) and runs the root command.
package main

import (
	"github.com/shinji-kodama/tunnel-launcher/internal/cli"
)

// version, commit, and date are set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=$(git rev-parse HEAD)"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
