package git

import (
	"context"
	"fmt"
)

// stashMessage marks stashes created for a smart operation.
const stashMessage = "brancher autostash"

// Stash saves local changes, including untracked files.
// Returns false when there was nothing to stash; git then creates no entry
// and StashPop must not be called.
func (g *Git) Stash(ctx context.Context, dir string) (bool, error) {
	res, err := g.run(ctx, dir, "stash", "push", "--include-untracked", "-m", stashMessage)
	if err != nil {
		return false, err
	}
	if err := res.Err(); err != nil {
		return false, fmt.Errorf("failed to stash changes: %w", err)
	}
	return !containsAny(res.Text(), "No local changes to save"), nil
}

// StashPop applies and removes the most recent stash entry.
func (g *Git) StashPop(ctx context.Context, dir string) error {
	res, err := g.run(ctx, dir, "stash", "pop")
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("failed to pop stash: %w", err)
	}
	return nil
}
