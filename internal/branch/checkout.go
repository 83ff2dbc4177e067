package branch

import (
	"context"
	"errors"
	"fmt"

	"github.com/raphi011/brancher/internal/git"
)

type checkoutStep struct {
	op     *operation
	ref    string
	detach bool
}

func (s *checkoutStep) attempt(ctx context.Context, t *target, force bool) outcome {
	res, err := s.op.git.Checkout(ctx, t.ref.Path, s.ref, force, s.detach)
	if err != nil {
		return fatal(err)
	}
	keepOutput(t, res)
	return classifyCheckout(res)
}

func (s *checkoutStep) undo(ctx context.Context, t *target) error {
	if t.head == "" {
		return errors.New("no previous head recorded")
	}
	return check(s.op.git.Checkout(ctx, t.ref.Path, t.head, false, false))
}

// classifyCheckout maps the result of checkout or checkout -b.
func classifyCheckout(res git.Result) outcome {
	if res.Success() {
		return done()
	}
	lines := res.Text()
	if git.UnmergedFiles(lines) {
		return fatal(ErrUnmergedFiles)
	}
	if fl, ok := git.LocalChanges(lines); ok {
		return localChanges(fl.Files)
	}
	if fl, ok := git.UntrackedFiles(lines); ok {
		return fatalFiles(ErrUntrackedFiles, fl.Files)
	}
	if git.InvalidReference(lines) {
		return fatal(fmt.Errorf("%w: %w", ErrInvalidReference, res.Err()))
	}
	return fatal(res.Err())
}

type newBranchStep struct {
	op    *operation
	name  string
	start string
}

func (s *newBranchStep) attempt(ctx context.Context, t *target, _ bool) outcome {
	res, err := s.op.git.CheckoutNewBranch(ctx, t.ref.Path, s.name, s.start)
	if err != nil {
		return fatal(err)
	}
	keepOutput(t, res)
	return classifyCheckout(res)
}

func (s *newBranchStep) undo(ctx context.Context, t *target) error {
	if t.head == "" {
		return errors.New("no previous head recorded")
	}
	if err := check(s.op.git.Checkout(ctx, t.ref.Path, t.head, false, false)); err != nil {
		return err
	}
	return check(s.op.git.DeleteBranch(ctx, t.ref.Path, s.name, true))
}
