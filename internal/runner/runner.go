// Package runner centralizes subprocess execution for the preflight CLI.
//
// Every package that shells out (toolchain probing, package managers,
// git, pip, docker compose) goes through the Runner interface instead of
// calling exec.Cmd directly. The package-level Default can be swapped for
// a FakeRunner in tests, so the full orchestration is testable without
// touching the host system.
package runner

import (
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// Runner is the interface used to run external commands. All packages
// should use this interface instead of calling exec.Cmd directly.
type Runner interface {
	// RunOut runs the command and returns its stdout.
	RunOut(cmd *exec.Cmd) ([]byte, error)

	// Run runs the command, leaving stdout/stderr wherever the caller
	// pointed them.
	Run(cmd *exec.Cmd) error
}

// Default runs commands using exec.Cmd. Tests replace it with a
// FakeRunner and restore it afterwards.
var Default Runner = &Commander{}

// RunOut runs the command through the current Default runner.
func RunOut(cmd *exec.Cmd) ([]byte, error) {
	return Default.RunOut(cmd)
}

// Run runs the command through the current Default runner.
func Run(cmd *exec.Cmd) error {
	return Default.Run(cmd)
}

// CmdError describes a command that exited non-zero. It keeps the argv
// and both output streams so error messages can show what the failing
// tool actually said.
type CmdError struct {
	args   []string
	stdout []byte
	stderr []byte
	cause  error
}

// Error formats the command failure with its captured output.
func (e *CmdError) Error() string {
	stderr := strings.TrimSpace(string(e.stderr))
	if stderr != "" {
		return fmt.Sprintf("running %s: %v: %s", strings.Join(e.args, " "), e.cause, stderr)
	}
	return fmt.Sprintf("running %s: %v", strings.Join(e.args, " "), e.cause)
}

// Unwrap returns the underlying cause (typically *exec.ExitError).
func (e *CmdError) Unwrap() error {
	return e.cause
}

// ExitCode returns the subprocess exit code, or 0 when the failure was
// not an exit-status failure (e.g. the binary could not be started).
func (e *CmdError) ExitCode() int {
	if exitErr, ok := e.cause.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return 0
}

// Stderr returns the captured standard error output, trimmed.
func (e *CmdError) Stderr() string {
	return strings.TrimSpace(string(e.stderr))
}

// Commander is the exec.Cmd implementation of the Runner interface.
type Commander struct{}

// RunOut runs the command and returns its stdout. Stderr is captured
// separately and folded into the returned CmdError on failure.
func (*Commander) RunOut(cmd *exec.Cmd) ([]byte, error) {
	logrus.Debugf("Running command: %s", cmd.Args)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting command %v: %w", cmd.Args, err)
	}

	stdout, err := io.ReadAll(stdoutPipe)
	if err != nil {
		return nil, err
	}
	stderr, err := io.ReadAll(stderrPipe)
	if err != nil {
		return nil, err
	}

	if err := cmd.Wait(); err != nil {
		return stdout, &CmdError{
			args:   cmd.Args,
			stdout: stdout,
			stderr: stderr,
			cause:  err,
		}
	}

	if len(stderr) > 0 {
		logrus.Debugf("Command output: [%s], stderr: %s", stdout, stderr)
	} else {
		logrus.Debugf("Command output: [%s]", stdout)
	}

	return stdout, nil
}

// Run runs the command. The caller owns stdout/stderr wiring; failures
// come back as the raw exec error.
func (*Commander) Run(cmd *exec.Cmd) error {
	logrus.Debugf("Running command: %s", cmd.Args)
	return cmd.Run()
}

// RunCombined runs the command through the Default runner with stdout
// and stderr merged into a single buffer, returning the combined output.
// Compose and package-manager invocations use this: their diagnostics
// arrive interleaved on both streams and only make sense together.
func RunCombined(cmd *exec.Cmd) ([]byte, error) {
	var combined strings.Builder
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	err := Run(cmd)
	out := []byte(combined.String())
	if err != nil {
		return out, &CmdError{
			args:   cmd.Args,
			stdout: out,
			cause:  err,
		}
	}
	return out, nil
}
