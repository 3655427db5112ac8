package capability

import (
	"bytes"
	"context"
	"os/exec"
)

// maxTestOutput bounds the tail of captured test output kept in TestResult:
// longer output keeps only its last maxTestOutput characters, behind a
// "..." marker.
const maxTestOutput = 2000

// TestResult is the outcome of a Test.Run call.
type TestResult struct {
	Passed bool
	Output string
}

// Test invokes an external test process against the safe root and reports
// pass/fail plus a bounded tail of its combined output.
type Test interface {
	Run(ctx context.Context) (TestResult, error)
}

// CommandTest runs a configurable external command (defaulting to
// "go test ./...") with its working directory set to the safe root.
type CommandTest struct {
	dir  string
	name string
	args []string
}

// NewCommandTest creates a Test capability that shells out to name(args...)
// with cwd set to dir. If name is empty, it defaults to "go" with args
// ["test", "./..."], matching a typical Go repository's test entry point.
func NewCommandTest(dir, name string, args ...string) *CommandTest {
	if name == "" {
		name = "go"
		args = []string{"test", "./..."}
	}
	return &CommandTest{dir: dir, name: name, args: args}
}

// Run executes the configured command and reports whether it exited zero.
// Output is the combined stdout+stderr; when longer than 2000 characters it
// is cut to its last 2000, prefixed with "..." (2003 characters in all).
func (c *CommandTest) Run(ctx context.Context) (TestResult, error) {
	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.Dir = c.dir

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	output := buf.String()
	if len(output) > maxTestOutput {
		output = "..." + output[len(output)-maxTestOutput:]
	}

	passed := err == nil
	return TestResult{Passed: passed, Output: output}, nil
}
