package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ErrGitNotFound indicates git is not installed or not in PATH
var ErrGitNotFound = fmt.Errorf("git not found: please install git (https://git-scm.com)")

// CheckGit verifies that the git executable at path (or "git" in PATH when
// empty) can be found.
func CheckGit(path string) error {
	if path == "" {
		path = "git"
	}
	if _, err := exec.LookPath(path); err != nil {
		return ErrGitNotFound
	}
	return nil
}

// TopLevel returns the root of the work tree containing path.
func (r ExecRunner) TopLevel(ctx context.Context, path string) (string, error) {
	res, err := r.Run(ctx, path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	if err := res.Err(); err != nil {
		return "", err
	}
	out := res.Stdout()
	if len(out) == 0 {
		return "", fmt.Errorf("git rev-parse --show-toplevel in %s: no output", path)
	}
	return strings.TrimSpace(out[0]), nil
}
