package cmd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raphi011/brancher/internal/log"
)

// maxLine is the longest output line StreamContext accepts.
const maxLine = 1 << 20

// ErrStartFailed wraps failures to launch the process.
var ErrStartFailed = errors.New("failed to start process")

// Command describes a process to run.
type Command struct {
	Dir  string
	Name string
	Args []string
	Env  []string // appended to the current environment
}

func (c Command) build(ctx context.Context) *exec.Cmd {
	ec := exec.CommandContext(ctx, c.Name, c.Args...)
	ec.Dir = c.Dir
	if len(c.Env) > 0 {
		ec.Env = append(os.Environ(), c.Env...)
	}
	return ec
}

// logged echoes c in verbose mode and returns the func that closes the line.
func (c Command) logged(ctx context.Context) func() {
	done := log.FromContext(ctx).Command(c.Dir, c.Name, c.Args...)
	start := time.Now()
	return func() { done(time.Since(start)) }
}

// RunContext runs a command for its exit status. The error carries the
// trimmed stderr when there is any; cancellation is reported as ctx.Err().
func RunContext(ctx context.Context, dir, name string, args ...string) error {
	_, err := OutputContext(ctx, dir, name, args...)
	return err
}

// OutputContext runs a command and returns its stdout. Errors follow
// RunContext.
func OutputContext(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := Command{Dir: dir, Name: name, Args: args}
	defer c.logged(ctx)()

	ec := c.build(ctx)
	var stderr bytes.Buffer
	ec.Stderr = &stderr
	out, err := ec.Output()
	switch {
	case err == nil:
		return out, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case strings.TrimSpace(stderr.String()) != "":
		return nil, errors.New(strings.TrimSpace(stderr.String()))
	}
	return nil, err
}

// Stream identifies which output stream a line was read from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

// Line is a single line of process output.
type Line struct {
	Stream Stream
	Text   string
}

// Result holds the outcome of a streamed command. Lines keeps arrival
// order; across the two streams that order is best effort.
type Result struct {
	Lines    []Line
	ExitCode int
}

// Stderr returns the stderr lines joined with newlines.
func (r Result) Stderr() string {
	var parts []string
	for _, l := range r.Lines {
		if l.Stream == Stderr {
			parts = append(parts, l.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// StreamContext runs c and collects its output line by line. A non-zero
// exit is reported in Result.ExitCode, not as an error, so callers can
// classify it from the output. Errors mean the process did not start, its
// output could not be read, or ctx was cancelled.
func StreamContext(ctx context.Context, c Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	defer c.logged(ctx)()

	ec := c.build(ctx)
	stdout, err := ec.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrStartFailed, err)
	}
	stderr, err := ec.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrStartFailed, err)
	}
	if err := ec.Start(); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrStartFailed, c.Name, err)
	}

	var (
		mu    sync.Mutex
		lines []Line
		g     errgroup.Group
	)
	collect := func(r io.Reader, s Stream) func() error {
		return func() error {
			sc := bufio.NewScanner(r)
			sc.Buffer(make([]byte, 64*1024), maxLine)
			for sc.Scan() {
				mu.Lock()
				lines = append(lines, Line{Stream: s, Text: strings.TrimRight(sc.Text(), "\r")})
				mu.Unlock()
			}
			if err := sc.Err(); err != nil {
				// Drain so the process is not blocked on a full pipe.
				io.Copy(io.Discard, r)
				return err
			}
			return nil
		}
	}
	g.Go(collect(stdout, Stdout))
	g.Go(collect(stderr, Stderr))
	readErr := g.Wait()

	waitErr := ec.Wait()
	if ctx.Err() != nil {
		return Result{Lines: lines, ExitCode: -1}, ctx.Err()
	}

	res := Result{Lines: lines}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return res, waitErr
		}
		res.ExitCode = exitErr.ExitCode()
	}
	if readErr != nil {
		return res, fmt.Errorf("read output of %s: %w", c.Name, readErr)
	}
	return res, nil
}
