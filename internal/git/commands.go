package git

import (
	"context"
	"fmt"
	"strings"
)

// Git issues typed git commands through a Runner.
// Every method returns the raw Result for output classification; the error
// is reserved for git not running at all.
type Git struct {
	runner Runner
}

// New creates a Git using r.
func New(r Runner) *Git {
	return &Git{runner: r}
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (Result, error) {
	return g.runner.Run(ctx, dir, args...)
}

// Checkout checks out ref. force discards local changes; detach checks out
// the commit without moving a branch.
func (g *Git) Checkout(ctx context.Context, dir, ref string, force, detach bool) (Result, error) {
	args := []string{"checkout"}
	if force {
		args = append(args, "--force")
	}
	if detach {
		args = append(args, "--detach")
	}
	return g.run(ctx, dir, append(args, ref, "--")...)
}

// CheckoutNewBranch creates name at start and checks it out.
func (g *Git) CheckoutNewBranch(ctx context.Context, dir, name, start string) (Result, error) {
	args := []string{"checkout", "-b", name}
	if start != "" {
		args = append(args, start)
	}
	return g.run(ctx, dir, args...)
}

// Merge merges branch into the current branch.
func (g *Git) Merge(ctx context.Context, dir, branch string) (Result, error) {
	return g.run(ctx, dir, "merge", branch)
}

// CreateBranch creates name at start without checking it out.
func (g *Git) CreateBranch(ctx context.Context, dir, name, start string) (Result, error) {
	return g.run(ctx, dir, "branch", name, start)
}

// DeleteBranch deletes a local branch. Without force, git refuses to delete
// a branch that is not fully merged.
func (g *Git) DeleteBranch(ctx context.Context, dir, name string, force bool) (Result, error) {
	flag := "-d"
	if force {
		flag = "-D"
	}
	return g.run(ctx, dir, "branch", flag, name)
}

// RenameBranch renames a local branch.
func (g *Git) RenameBranch(ctx context.Context, dir, oldName, newName string) (Result, error) {
	return g.run(ctx, dir, "branch", "-m", oldName, newName)
}

// SetUpstream makes local track upstream ("origin/main").
func (g *Git) SetUpstream(ctx context.Context, dir, local, upstream string) (Result, error) {
	return g.run(ctx, dir, "branch", "--set-upstream-to", upstream, local)
}

// ResetHard resets the current branch, index and work tree to rev.
func (g *Git) ResetHard(ctx context.Context, dir, rev string) (Result, error) {
	return g.run(ctx, dir, "reset", "--hard", rev)
}

// ResetMerge undoes a conflicted merge, keeping unrelated local changes.
func (g *Git) ResetMerge(ctx context.Context, dir string) (Result, error) {
	return g.run(ctx, dir, "reset", "--merge")
}

// Rebase rebases the current branch onto upstream.
func (g *Git) Rebase(ctx context.Context, dir, onto string) (Result, error) {
	return g.run(ctx, dir, "rebase", onto)
}

// RebaseAbort aborts an in-progress rebase.
func (g *Git) RebaseAbort(ctx context.Context, dir string) (Result, error) {
	return g.run(ctx, dir, "rebase", "--abort")
}

// UnmergedCommits lists the commits of branch missing from base, one
// "<hash> <subject>" line each.
func (g *Git) UnmergedCommits(ctx context.Context, dir, branch, base string) ([]string, error) {
	res, err := g.run(ctx, dir, "log", "--oneline", "--no-decorate", base+".."+branch, "--")
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return nonEmpty(res.Stdout()), nil
}

// RevParse resolves rev to a full hash.
func (g *Git) RevParse(ctx context.Context, dir, rev string) (string, error) {
	res, err := g.run(ctx, dir, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	if err != nil {
		return "", err
	}
	out := nonEmpty(res.Stdout())
	if !res.Success() || len(out) == 0 {
		return "", fmt.Errorf("unknown revision %q", rev)
	}
	return strings.TrimSpace(out[0]), nil
}

func nonEmpty(lines []string) []string {
	var out []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
