package branch

import (
	"context"

	"github.com/raphi011/brancher/internal/journal"
	"github.com/raphi011/brancher/internal/log"
)

// restoreStep recreates deleted branches from journal entries, keyed by
// repository path.
type restoreStep struct {
	op      *operation
	name    string
	entries map[string]journal.Entry
}

func (s *restoreStep) attempt(ctx context.Context, t *target, _ bool) outcome {
	e := s.entries[t.ref.Path]
	res, err := s.op.git.CreateBranch(ctx, t.ref.Path, s.name, e.Tip)
	if err != nil {
		return fatal(err)
	}
	keepOutput(t, res)
	if !res.Success() {
		return fatal(res.Err())
	}
	if e.Tracking != "" {
		if err := check(s.op.git.SetUpstream(ctx, t.ref.Path, s.name, e.Tracking)); err != nil {
			log.FromContext(ctx).Warn("could not restore tracking",
				"repo", t.ref.Name, "branch", s.name, "upstream", e.Tracking, "err", err)
		}
	}
	return done()
}

func (s *restoreStep) undo(ctx context.Context, t *target) error {
	return check(s.op.git.DeleteBranch(ctx, t.ref.Path, s.name, true))
}

// restored returns the IDs of the entries that were applied.
func (s *restoreStep) restored() []string {
	var ids []string
	for _, t := range s.op.succeeded {
		ids = append(ids, s.entries[t.ref.Path].ID)
	}
	return ids
}
