package branch

import (
	"context"

	"github.com/raphi011/brancher/internal/git"
	"github.com/raphi011/brancher/internal/journal"
	"github.com/raphi011/brancher/internal/log"
	"github.com/raphi011/brancher/internal/repo"
)

type deleteStep struct {
	op   *operation
	name string
	// tips and tracking are captured per repository path before deletion.
	tips     map[string]repo.Hash
	tracking map[string]string
}

func newDeleteStep(op *operation, name string) *deleteStep {
	s := &deleteStep{
		op:       op,
		name:     name,
		tips:     make(map[string]repo.Hash),
		tracking: make(map[string]string),
	}
	for _, t := range op.targets {
		b, _ := t.before.FindLocalBranch(name)
		s.tips[t.ref.Path], _ = t.before.Hash(b)
		if ti, ok := t.before.TrackInfo(b); ok {
			s.tracking[t.ref.Path] = ti.Remote.Name
		}
	}
	return s
}

// attempt deletes safely first. A branch that is not fully merged is then
// force-deleted, and its unmerged commits are recorded so the deletion can
// be reviewed and undone.
func (s *deleteStep) attempt(ctx context.Context, t *target, _ bool) outcome {
	res, err := s.op.git.DeleteBranch(ctx, t.ref.Path, s.name, false)
	if err != nil {
		return fatal(err)
	}
	keepOutput(t, res)
	if res.Success() {
		return done()
	}

	lines := res.Text()
	if !git.NotFullyMerged(lines) {
		return fatal(res.Err())
	}

	base, ok := git.NotMergedToUpstream(lines)
	if !ok {
		base = t.head
	}
	base = repo.StripRefsPrefix(base)
	tip := s.tips[t.ref.Path]
	commits, err := s.op.git.UnmergedCommits(ctx, t.ref.Path, string(tip), base)
	if err != nil {
		log.FromContext(ctx).Warn("could not list unmerged commits", "repo", t.ref.Name, "range", base+".."+s.name, "err", err)
	}

	res, err = s.op.git.DeleteBranch(ctx, t.ref.Path, s.name, true)
	if err != nil {
		return fatal(err)
	}
	keepOutput(t, res)
	if !res.Success() {
		return fatal(res.Err())
	}

	if s.op.result.Unmerged == nil {
		s.op.result.Unmerged = make(map[string]UnmergedInfo)
	}
	s.op.result.Unmerged[t.ref.Name] = UnmergedInfo{Tip: tip, Base: base, Commits: commits}
	return done()
}

// undo recreates the branch at its old tip and restores tracking.
// A tracking failure is logged; the branch itself is back.
func (s *deleteStep) undo(ctx context.Context, t *target) error {
	if err := check(s.op.git.CreateBranch(ctx, t.ref.Path, s.name, string(s.tips[t.ref.Path]))); err != nil {
		return err
	}
	if upstream := s.tracking[t.ref.Path]; upstream != "" {
		if err := check(s.op.git.SetUpstream(ctx, t.ref.Path, s.name, upstream)); err != nil {
			log.FromContext(ctx).Warn("could not restore tracking",
				"repo", t.ref.Name, "branch", s.name, "upstream", upstream, "err", err)
		}
	}
	return nil
}

// entries returns journal entries for every repository where the branch
// is deleted.
func (s *deleteStep) entries() []journal.Entry {
	var out []journal.Entry
	for _, t := range s.op.succeeded {
		e := journal.Entry{
			Repo:     t.ref.Path,
			Branch:   s.name,
			Tip:      string(s.tips[t.ref.Path]),
			Tracking: s.tracking[t.ref.Path],
		}
		if u, ok := s.op.result.Unmerged[t.ref.Name]; ok {
			e.Base = u.Base
			e.Unmerged = u.Commits
		}
		out = append(out, e)
	}
	return out
}
