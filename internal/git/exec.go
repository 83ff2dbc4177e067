package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/raphi011/brancher/internal/cmd"
)

// Result is the outcome of one git invocation. A non-zero exit code is not
// an error by itself; callers classify it from the output lines.
type Result struct {
	Args     []string
	Lines    []cmd.Line
	ExitCode int
}

// Success reports whether git exited with code 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Text returns every output line of both streams in arrival order.
func (r Result) Text() []string {
	text := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		text[i] = l.Text
	}
	return text
}

// Stdout returns only the stdout lines.
func (r Result) Stdout() []string {
	var out []string
	for _, l := range r.Lines {
		if l.Stream == cmd.Stdout {
			out = append(out, l.Text)
		}
	}
	return out
}

// Output returns all lines joined with newlines.
func (r Result) Output() string {
	return strings.Join(r.Text(), "\n")
}

// Err returns a *CommandError for a failed command, nil otherwise.
func (r Result) Err() error {
	if r.Success() {
		return nil
	}
	return &CommandError{Args: r.Args, ExitCode: r.ExitCode, Output: cmd.Result{Lines: r.Lines}.Stderr()}
}

// CommandError is a git command that exited non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	msg := "git " + strings.Join(e.Args, " ")
	if e.Output != "" {
		return fmt.Sprintf("%s: %s", msg, e.Output)
	}
	return fmt.Sprintf("%s: exit status %d", msg, e.ExitCode)
}

// Runner executes git in a repository.
// Implementations return an error only when git could not be run at all or
// was killed; exit codes travel in Result.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (Result, error)
}

// ExecRunner runs the git binary.
type ExecRunner struct {
	// Path is the git executable, "git" when empty.
	Path string
}

// Run executes git with a fixed C locale so output detectors see English text.
func (r ExecRunner) Run(ctx context.Context, dir string, args ...string) (Result, error) {
	name := r.Path
	if name == "" {
		name = "git"
	}
	res, err := cmd.StreamContext(ctx, cmd.Command{
		Name: name,
		Args: gitArgs(dir, args),
		Env:  []string{"LC_ALL=C", "GIT_TERMINAL_PROMPT=0"},
	})
	out := Result{Args: args, Lines: res.Lines, ExitCode: res.ExitCode}
	if err != nil {
		return out, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// gitArgs prepends -C <dir> to args if dir is non-empty.
func gitArgs(dir string, args []string) []string {
	if dir == "" {
		return args
	}
	return append([]string{"-C", dir}, args...)
}
