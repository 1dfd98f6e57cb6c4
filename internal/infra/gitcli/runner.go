// Package gitcli runs the git and git-annex binaries for the build side of
// fixture materialization. Verification uses a separate, library-backed
// inspector so the two paths do not share a failure mode.
package gitcli

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandError reports a failed tool invocation, carrying enough of the
// command's identity and output to diagnose it without re-running.
type CommandError struct {
	Args     []string
	Dir      string
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandError) Error() string {
	out := fmt.Sprintf("command %q failed in %s", strings.Join(e.Args, " "), e.Dir)
	if e.ExitCode != 0 {
		out += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if trimmed := strings.TrimSpace(e.Output); trimmed != "" {
		out += ": " + trimmed
	} else if e.Err != nil {
		out += ": " + e.Err.Error()
	}
	return out
}

func (e *CommandError) Unwrap() error { return e.Err }

// Runner executes commands through os/exec with a fixed working directory
// per call. It satisfies the fixture package's Runner port.
type Runner struct {
	// Env overrides the process environment when non-nil. Builds set
	// identity and locale variables here so commits are reproducible.
	Env []string
}

func NewRunner() *Runner {
	return &Runner{}
}

// NewIsolatedRunner returns a runner with a fixed committer identity and a
// neutral locale, keeping tool output stable for the layout parsers.
func NewIsolatedRunner() *Runner {
	return &Runner{Env: []string{
		"GIT_AUTHOR_NAME=fixture",
		"GIT_AUTHOR_EMAIL=fixture@example.com",
		"GIT_COMMITTER_NAME=fixture",
		"GIT_COMMITTER_EMAIL=fixture@example.com",
		"GIT_CONFIG_NOSYSTEM=1",
		"LC_ALL=C",
	}}
}

// Run executes args in dir and returns the combined output. A non-zero exit
// or a spawn failure is reported as a CommandError.
func (r *Runner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("gitcli: empty command")
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	if r.Env != nil {
		cmd.Env = r.Env
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return "", &CommandError{
			Args:     args,
			Dir:      dir,
			ExitCode: exitCode,
			Output:   buf.String(),
			Err:      err,
		}
	}
	return buf.String(), nil
}
