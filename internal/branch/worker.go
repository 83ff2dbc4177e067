package branch

import (
	"context"
	"errors"
	"fmt"

	"github.com/raphi011/brancher/internal/git"
	"github.com/raphi011/brancher/internal/journal"
	"github.com/raphi011/brancher/internal/log"
	"github.com/raphi011/brancher/internal/repo"
)

// StateReader reads a fresh branch state snapshot of the repository at path.
type StateReader interface {
	ReadState(ctx context.Context, path string) (repo.BranchState, error)
}

// StateReaderFunc adapts a function to StateReader.
type StateReaderFunc func(ctx context.Context, path string) (repo.BranchState, error)

func (f StateReaderFunc) ReadState(ctx context.Context, path string) (repo.BranchState, error) {
	return f(ctx, path)
}

// Journal stores deleted branches. *journal.Journal implements it.
type Journal interface {
	Record(entries ...journal.Entry) error
	Find(repoPath, branch string) (journal.Entry, bool, error)
	Remove(ids ...string) error
}

// Worker runs branch operations. All operations run on the calling
// goroutine and process repositories in the order given.
type Worker struct {
	git      *git.Git
	states   StateReader
	prompter Prompter
	journal  Journal
}

// Option configures a Worker.
type Option func(*Worker)

// WithStateReader replaces reading snapshots from .git metadata.
func WithStateReader(r StateReader) Option {
	return func(w *Worker) { w.states = r }
}

// WithPrompter sets who decides recoverable situations. The default
// answers as a PolicyPrompter with every policy set to ask and no Ask.
func WithPrompter(p Prompter) Option {
	return func(w *Worker) { w.prompter = p }
}

// WithJournal records deletions so they can be restored.
func WithJournal(j Journal) Option {
	return func(w *Worker) { w.journal = j }
}

// NewWorker creates a Worker that runs git through r.
func NewWorker(r git.Runner, opts ...Option) *Worker {
	w := &Worker{
		git:      git.New(r),
		states:   StateReaderFunc(repo.Read),
		prompter: PolicyPrompter{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// snapshots reads every repository before an operation starts. Any
// unreadable repository aborts the operation before it changes anything.
func (w *Worker) snapshots(ctx context.Context, refs []repo.Ref) ([]repo.Snapshot, error) {
	if len(refs) == 0 {
		return nil, ErrNoRepositories
	}
	snaps := make([]repo.Snapshot, 0, len(refs))
	for _, ref := range refs {
		s, err := w.states.ReadState(ctx, ref.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", ref.Name, err)
		}
		snaps = append(snaps, repo.Snapshot{Ref: ref, State: s})
	}
	return snaps, nil
}

// partition splits snapshots into targets and skipped repositories.
// skip returns a reason to skip, or "".
func partition(snaps []repo.Snapshot, skip func(repo.BranchState) string) ([]repo.Snapshot, []RepoResult) {
	var keep []repo.Snapshot
	var skipped []RepoResult
	for _, s := range snaps {
		if reason := skip(s.State); reason != "" {
			skipped = append(skipped, RepoResult{Repo: s.Ref, Status: StatusSkipped, Note: reason})
			continue
		}
		keep = append(keep, s)
	}
	return keep, skipped
}

// Checkout checks out ref everywhere. With detach the commit is checked out
// without a branch.
func (w *Worker) Checkout(ctx context.Context, refs []repo.Ref, ref string, detach bool) (*Result, error) {
	snaps, err := w.snapshots(ctx, refs)
	if err != nil {
		return nil, err
	}
	o := w.newOperation(KindCheckout, ref, snaps, nil)
	o.step = &checkoutStep{op: o, ref: ref, detach: detach}
	return o.run(ctx), nil
}

// CheckoutNewBranch creates name from start (HEAD when empty) and checks it
// out. Repositories already on name are skipped.
func (w *Worker) CheckoutNewBranch(ctx context.Context, refs []repo.Ref, name, start string) (*Result, error) {
	snaps, err := w.snapshots(ctx, refs)
	if err != nil {
		return nil, err
	}
	snaps, skipped := partition(snaps, func(s repo.BranchState) string {
		if b, ok := s.CurrentBranch(); ok && repo.RefNamesEqual(b.Name, name) {
			return "already on " + name
		}
		return ""
	})
	if len(snaps) == 0 {
		return nil, fmt.Errorf("%w: %s is already checked out in every repository", ErrNoRepositories, name)
	}
	o := w.newOperation(KindNewBranch, name, snaps, skipped)
	o.step = &newBranchStep{op: o, name: name, start: start}
	return o.run(ctx), nil
}

// Merge merges branch into the current branch of every repository. After
// a merge without errors or conflicts the branch is deleted as del says.
func (w *Worker) Merge(ctx context.Context, refs []repo.Ref, branch string, del DeleteOnMerge) (*Result, error) {
	snaps, err := w.snapshots(ctx, refs)
	if err != nil {
		return nil, err
	}
	o := w.newOperation(KindMerge, branch, snaps, nil)
	o.step = &mergeStep{op: o, branch: branch}
	res := o.run(ctx)

	if res.Fatal != nil || len(res.Conflicts) > 0 || del == KeepMerged {
		return res, nil
	}
	merged := res.Succeeded()
	if del == ProposeDelete {
		ok, err := w.prompter.ConfirmDelete(ctx, branch, merged)
		if err != nil {
			log.FromContext(ctx).Warn("delete prompt failed", "err", err)
		}
		if !ok {
			return res, nil
		}
	}
	followup, err := w.Delete(ctx, merged, branch)
	switch {
	case errors.Is(err, ErrBranchNotFound):
		log.FromContext(ctx).Debug("merged branch is not a local branch", "branch", branch)
	case err != nil:
		return res, err
	}
	res.Followup = followup
	return res, nil
}

// Delete deletes a local branch. A branch that is not fully merged is
// force-deleted and its unmerged commits are reported. Deleted tips go to
// the journal.
func (w *Worker) Delete(ctx context.Context, refs []repo.Ref, name string) (*Result, error) {
	snaps, err := w.snapshots(ctx, refs)
	if err != nil {
		return nil, err
	}
	snaps, skipped := partition(snaps, missingBranch(name))
	if len(snaps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrBranchNotFound, name)
	}
	o := w.newOperation(KindDelete, name, snaps, skipped)
	ds := newDeleteStep(o, name)
	o.step = ds
	res := o.run(ctx)

	// Also journal deletions the user chose not to roll back.
	if w.journal != nil {
		if entries := ds.entries(); len(entries) > 0 {
			if err := w.journal.Record(entries...); err != nil {
				log.FromContext(ctx).Warn("could not record deleted branch", "branch", name, "err", err)
			}
		}
	}
	return res, nil
}

// Rename renames a local branch in every repository that has it.
func (w *Worker) Rename(ctx context.Context, refs []repo.Ref, from, to string) (*Result, error) {
	snaps, err := w.snapshots(ctx, refs)
	if err != nil {
		return nil, err
	}
	snaps, skipped := partition(snaps, missingBranch(from))
	if len(snaps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrBranchNotFound, from)
	}
	o := w.newOperation(KindRename, from+" -> "+to, snaps, skipped)
	o.step = &renameStep{op: o, from: from, to: to}
	return o.run(ctx), nil
}

// Rebase rebases the current branch of every repository onto onto.
func (w *Worker) Rebase(ctx context.Context, refs []repo.Ref, onto string) (*Result, error) {
	snaps, err := w.snapshots(ctx, refs)
	if err != nil {
		return nil, err
	}
	o := w.newOperation(KindRebase, onto, snaps, nil)
	o.step = &rebaseStep{op: o, onto: onto}
	return o.run(ctx), nil
}

// Restore recreates a deleted branch from the newest journal entry of each
// repository and removes the entries that were applied.
func (w *Worker) Restore(ctx context.Context, refs []repo.Ref, name string) (*Result, error) {
	if w.journal == nil {
		return nil, fmt.Errorf("%w: no journal", ErrNothingToRestore)
	}
	snaps, err := w.snapshots(ctx, refs)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]journal.Entry)
	for _, s := range snaps {
		e, ok, err := w.journal.Find(s.Ref.Path, name)
		if err != nil {
			return nil, err
		}
		if ok {
			entries[s.Ref.Path] = e
		}
	}
	var targets []repo.Snapshot
	var skipped []RepoResult
	for _, s := range snaps {
		reason := ""
		if _, ok := entries[s.Ref.Path]; !ok {
			reason = "not in journal"
		} else if _, exists := s.State.FindLocalBranch(name); exists {
			reason = "branch exists"
		}
		if reason != "" {
			skipped = append(skipped, RepoResult{Repo: s.Ref, Status: StatusSkipped, Note: reason})
			continue
		}
		targets = append(targets, s)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNothingToRestore, name)
	}

	o := w.newOperation(KindRestore, name, targets, skipped)
	rs := &restoreStep{op: o, name: name, entries: entries}
	o.step = rs
	res := o.run(ctx)

	if ids := rs.restored(); len(ids) > 0 {
		if err := w.journal.Remove(ids...); err != nil {
			log.FromContext(ctx).Warn("could not update journal", "err", err)
		}
	}
	return res, nil
}

// Comparison lists the commits that differ between HEAD and a branch.
type Comparison struct {
	Repo repo.Ref
	// Incoming are commits of the branch missing from HEAD.
	Incoming []string
	// Outgoing are commits of HEAD missing from the branch.
	Outgoing []string
}

// Compare lists the commits between HEAD and branch in every repository.
func (w *Worker) Compare(ctx context.Context, refs []repo.Ref, branch string) ([]Comparison, error) {
	if len(refs) == 0 {
		return nil, ErrNoRepositories
	}
	out := make([]Comparison, 0, len(refs))
	for _, ref := range refs {
		in, err := w.git.UnmergedCommits(ctx, ref.Path, branch, "HEAD")
		if err != nil {
			return nil, fmt.Errorf("compare %s in %s: %w", branch, ref.Name, err)
		}
		outgoing, err := w.git.UnmergedCommits(ctx, ref.Path, "HEAD", branch)
		if err != nil {
			return nil, fmt.Errorf("compare %s in %s: %w", branch, ref.Name, err)
		}
		out = append(out, Comparison{Repo: ref, Incoming: in, Outgoing: outgoing})
	}
	return out, nil
}

func missingBranch(name string) func(repo.BranchState) string {
	return func(s repo.BranchState) string {
		if _, ok := s.FindLocalBranch(name); !ok {
			return "no branch " + name
		}
		return ""
	}
}
