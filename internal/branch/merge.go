package branch

import (
	"context"

	"github.com/raphi011/brancher/internal/git"
)

type mergeStep struct {
	op     *operation
	branch string
}

func (s *mergeStep) attempt(ctx context.Context, t *target, _ bool) outcome {
	res, err := s.op.git.Merge(ctx, t.ref.Path, s.branch)
	if err != nil {
		return fatal(err)
	}
	keepOutput(t, res)

	lines := res.Text()
	if res.Success() {
		if git.AlreadyUpToDate(lines) {
			return outcome{kind: outcomeUpToDate}
		}
		return done()
	}
	if git.UnmergedFiles(lines) {
		return fatal(ErrUnmergedFiles)
	}
	if fl, ok := git.LocalChanges(lines); ok {
		return localChanges(fl.Files)
	}
	if git.MergeConflict(lines) {
		return outcome{kind: outcomeConflict}
	}
	if fl, ok := git.UntrackedFiles(lines); ok {
		return fatalFiles(ErrUntrackedFiles, fl.Files)
	}
	// Older git reports local changes without listing them.
	if git.OverwrittenByMerge(lines) {
		return localChanges(nil)
	}
	return fatal(res.Err())
}

func (s *mergeStep) undo(ctx context.Context, t *target) error {
	if t.conflicted {
		return check(s.op.git.ResetMerge(ctx, t.ref.Path))
	}
	return s.op.resetKeeping(ctx, t, t.initial)
}
