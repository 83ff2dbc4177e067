package branch

import "context"

type renameStep struct {
	op       *operation
	from, to string
}

func (s *renameStep) attempt(ctx context.Context, t *target, _ bool) outcome {
	res, err := s.op.git.RenameBranch(ctx, t.ref.Path, s.from, s.to)
	if err != nil {
		return fatal(err)
	}
	keepOutput(t, res)
	if !res.Success() {
		return fatal(res.Err())
	}
	return done()
}

func (s *renameStep) undo(ctx context.Context, t *target) error {
	return check(s.op.git.RenameBranch(ctx, t.ref.Path, s.to, s.from))
}
