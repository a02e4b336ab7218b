package runner

import (
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// FakeRunner is a scripted Runner implementation for tests. It matches
// incoming commands (joined argv) against an expected sequence and
// returns the scripted output or error for each.
//
// Build it with the chaining constructors:
//
//	fake := runner.NewFake().
//		ExpectOut("git -C /repo rev-parse --short HEAD", "abc1234\n").
//		Expect("docker compose up -d --build")
//	runner.Default = fake
//	t.Cleanup(func() { runner.Default = &runner.Commander{} })
//
// Any deviation from the script (wrong command, wrong call style, or
// leftover expectations) surfaces as an error in the test.
type FakeRunner struct {
	steps []fakeStep
	next  int
}

type fakeStep struct {
	command string
	output  []byte // nil means the step expects Run, not RunOut
	err     error
}

// NewFake creates an empty FakeRunner.
func NewFake() *FakeRunner {
	return &FakeRunner{}
}

// Expect scripts a Run call that succeeds.
func (f *FakeRunner) Expect(command string) *FakeRunner {
	f.steps = append(f.steps, fakeStep{command: command})
	return f
}

// ExpectErr scripts a Run call that fails with err.
func (f *FakeRunner) ExpectErr(command string, err error) *FakeRunner {
	f.steps = append(f.steps, fakeStep{command: command, err: err})
	return f
}

// ExpectOut scripts a RunOut call returning output.
func (f *FakeRunner) ExpectOut(command, output string) *FakeRunner {
	f.steps = append(f.steps, fakeStep{command: command, output: []byte(output)})
	return f
}

// ExpectOutErr scripts a RunOut call returning output and err together,
// the shape a non-zero exit with partial output produces.
func (f *FakeRunner) ExpectOutErr(command, output string, err error) *FakeRunner {
	f.steps = append(f.steps, fakeStep{command: command, output: []byte(output), err: err})
	return f
}

// RunOut consumes the next scripted step, verifying the command matches.
func (f *FakeRunner) RunOut(cmd *exec.Cmd) ([]byte, error) {
	step, err := f.take(cmd)
	if err != nil {
		return nil, err
	}
	if step.output == nil {
		return nil, fmt.Errorf("expected Run(%s) to be called, got RunOut", step.command)
	}
	return step.output, step.err
}

// Run consumes the next scripted step, verifying the command matches.
// Scripted output, if any, is written to the command's stdout writer so
// RunCombined-style callers observe it.
func (f *FakeRunner) Run(cmd *exec.Cmd) error {
	step, err := f.take(cmd)
	if err != nil {
		return err
	}
	if step.output != nil && cmd.Stdout != nil {
		if _, werr := io.WriteString(cmd.Stdout, string(step.output)); werr != nil {
			return werr
		}
	}
	return step.err
}

// take pops the next step and checks the argv against it.
func (f *FakeRunner) take(cmd *exec.Cmd) (fakeStep, error) {
	actual := strings.Join(cmd.Args, " ")
	if f.next >= len(f.steps) {
		return fakeStep{}, fmt.Errorf("unexpected command: %s", actual)
	}
	step := f.steps[f.next]
	f.next++
	if step.command != actual {
		return fakeStep{}, fmt.Errorf("expected command: %s, got: %s", step.command, actual)
	}
	return step, nil
}

// Done reports an error if scripted steps were left unconsumed. Call it
// at the end of a test to assert the code under test ran everything it
// was supposed to.
func (f *FakeRunner) Done() error {
	if f.next != len(f.steps) {
		return fmt.Errorf("%d scripted command(s) never ran, next: %s", len(f.steps)-f.next, f.steps[f.next].command)
	}
	return nil
}
