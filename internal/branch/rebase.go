package branch

import (
	"context"

	"github.com/raphi011/brancher/internal/git"
)

type rebaseStep struct {
	op   *operation
	onto string
}

func (s *rebaseStep) attempt(ctx context.Context, t *target, _ bool) outcome {
	res, err := s.op.git.Rebase(ctx, t.ref.Path, s.onto)
	if err != nil {
		return fatal(err)
	}
	keepOutput(t, res)

	lines := res.Text()
	switch {
	case res.Success() && git.RebaseUpToDate(lines):
		return outcome{kind: outcomeUpToDate}
	case res.Success():
		return done()
	case git.UnmergedFiles(lines):
		return fatal(ErrUnmergedFiles)
	case git.RebaseLocalChanges(lines):
		fl, _ := git.LocalChanges(lines)
		return localChanges(fl.Files)
	case git.RebaseConflict(lines):
		return outcome{kind: outcomeConflict}
	}
	if fl, ok := git.LocalChanges(lines); ok {
		return localChanges(fl.Files)
	}
	if fl, ok := git.UntrackedFiles(lines); ok {
		return fatalFiles(ErrUntrackedFiles, fl.Files)
	}
	return fatal(res.Err())
}

func (s *rebaseStep) undo(ctx context.Context, t *target) error {
	if t.conflicted {
		return check(s.op.git.RebaseAbort(ctx, t.ref.Path))
	}
	return s.op.resetKeeping(ctx, t, t.initial)
}
