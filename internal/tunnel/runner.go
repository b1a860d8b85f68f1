package tunnel

import "os/exec"

// Runner executes a prepared command and blocks until it exits.
// Tests substitute a Runner to inspect the command without starting a
// real process.
type Runner interface {
	Run(cmd *exec.Cmd) error
}

// ExecRunner runs commands with (*exec.Cmd).Run.
type ExecRunner struct{}

// Run starts cmd and waits for it to complete.
func (ExecRunner) Run(cmd *exec.Cmd) error {
	return cmd.Run()
}
