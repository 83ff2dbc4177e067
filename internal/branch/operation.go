package branch

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/raphi011/brancher/internal/git"
	"github.com/raphi011/brancher/internal/log"
	"github.com/raphi011/brancher/internal/repo"
)

// target is one repository of an operation with what was captured before
// the operation touched it.
type target struct {
	ref repo.Ref
	// head is the branch name checked out before the operation, or the
	// revision when HEAD was detached.
	head    string
	initial repo.Hash
	before  repo.BranchState

	conflicted bool
	stashed    bool
	result     *RepoResult
}

type outcomeKind int

const (
	outcomeDone outcomeKind = iota
	outcomeUpToDate
	outcomeConflict
	// outcomeLocalChanges is the only recoverable failure.
	outcomeLocalChanges
	outcomeFatal
)

type outcome struct {
	kind  outcomeKind
	files []string
	err   error
}

func done() outcome                       { return outcome{kind: outcomeDone} }
func fatal(err error) outcome             { return outcome{kind: outcomeFatal, err: err} }
func localChanges(files []string) outcome { return outcome{kind: outcomeLocalChanges, files: files} }

func fatalFiles(sentinel error, files []string) outcome {
	if len(files) == 0 {
		return fatal(sentinel)
	}
	return fatal(fmt.Errorf("%w: %s", sentinel, strings.Join(files, ", ")))
}

// step is the per-repository part of an operation kind.
type step interface {
	// attempt runs the operation in one repository. force is only set after
	// the Prompter chose Force.
	attempt(ctx context.Context, t *target, force bool) outcome
	// undo reverts a successful attempt.
	undo(ctx context.Context, t *target) error
}

// operation drives a step over its targets in order.
type operation struct {
	kind     Kind
	subject  string
	step     step
	git      *git.Git
	states   StateReader
	prompter Prompter

	targets   []*target
	cursor    int
	succeeded []*target
	result    *Result
}

func (w *Worker) newOperation(kind Kind, subject string, snapshots []repo.Snapshot, skipped []RepoResult) *operation {
	o := &operation{
		kind:     kind,
		subject:  subject,
		git:      w.git,
		states:   w.states,
		prompter: w.prompter,
		result:   &Result{Op: kind, Target: subject},
	}
	// Results are allocated up front so targets can point into the slice.
	o.result.Repos = make([]RepoResult, 0, len(snapshots)+len(skipped))
	for _, s := range snapshots {
		o.result.Repos = append(o.result.Repos, RepoResult{Repo: s.Ref})
	}
	o.result.Repos = append(o.result.Repos, skipped...)

	for i, s := range snapshots {
		t := &target{
			ref:     s.Ref,
			initial: s.State.CurrentRevision(),
			before:  s.State,
			result:  &o.result.Repos[i],
		}
		if b, ok := s.State.CurrentBranch(); ok && s.State.State() != repo.Detached {
			t.head = b.Name
		} else {
			t.head = string(s.State.CurrentRevision())
		}
		o.targets = append(o.targets, t)
	}
	return o
}

func (o *operation) hasMore() bool {
	return o.cursor < len(o.targets)
}

func (o *operation) next() *target {
	t := o.targets[o.cursor]
	o.cursor++
	return t
}

// run processes every target and returns the result.
func (o *operation) run(ctx context.Context) *Result {
	l := log.FromContext(ctx)
	for o.hasMore() {
		t := o.next()
		l.Debug("running "+o.kind.String(), "repo", t.ref.Name, "target", o.subject)

		out := o.step.attempt(ctx, t, false)
		if out.kind == outcomeLocalChanges {
			// Recovery processes this and every remaining target.
			o.resolveLocalChanges(ctx, t, out.files)
			break
		}
		if !o.record(ctx, t, out) {
			break
		}
	}
	return o.result
}

// record applies an outcome. It returns false if the operation halted.
func (o *operation) record(ctx context.Context, t *target, out outcome) bool {
	switch out.kind {
	case outcomeDone:
		t.result.Status = StatusDone
	case outcomeUpToDate:
		t.result.Status = StatusUpToDate
		o.result.AlreadyUpToDate++
	case outcomeConflict:
		t.result.Status = StatusConflict
		t.conflicted = true
		o.result.Conflicts = append(o.result.Conflicts, t.ref.Name)
	case outcomeLocalChanges:
		o.fail(ctx, t, fatalFiles(ErrLocalChanges, out.files).err)
		return false
	default:
		o.fail(ctx, t, out.err)
		return false
	}
	o.succeeded = append(o.succeeded, t)
	o.refresh(ctx, t)
	return true
}

// resolveLocalChanges asks the Prompter how to handle local changes in t
// and applies the decision to t and all targets after it.
func (o *operation) resolveLocalChanges(ctx context.Context, t *target, files []string) {
	rest := append([]*target{t}, o.targets[o.cursor:]...)
	o.cursor = len(o.targets)

	s := Situation{
		Op:           o.kind,
		Target:       o.subject,
		Repo:         t.ref,
		Files:        files,
		ForceAllowed: o.kind == KindCheckout,
	}
	d, err := o.prompter.Decide(ctx, s)
	if err != nil {
		o.fail(ctx, t, err)
		return
	}
	log.FromContext(ctx).Debug("local changes", "repo", t.ref.Name, "decision", d)

	switch {
	case d == Smart:
		o.smart(ctx, rest)
	case d == Force && s.ForceAllowed:
		o.retry(ctx, rest, true)
	default:
		o.fail(ctx, t, fatalFiles(ErrLocalChanges, files).err)
	}
}

// retry attempts targets in order until one fails. Local changes are now
// fatal.
func (o *operation) retry(ctx context.Context, targets []*target, force bool) bool {
	for _, t := range targets {
		if !o.record(ctx, t, o.step.attempt(ctx, t, force)) {
			return false
		}
	}
	return true
}

// smart stashes local changes in targets, retries them all and unstashes.
// A fatal error rolls back before the stashes are applied again.
func (o *operation) smart(ctx context.Context, targets []*target) {
	var stashed []*target
	defer func() { o.unstash(ctx, stashed) }()

	for _, t := range targets {
		ok, err := o.git.Stash(ctx, t.ref.Path)
		if err != nil {
			o.fail(ctx, t, err)
			return
		}
		if ok {
			t.stashed = true
			t.result.Stashed = true
			stashed = append(stashed, t)
		}
	}
	o.retry(ctx, targets, false)
}

// unstash applies stashes back. A conflicted repository keeps its stash
// until the user resolves the conflict.
func (o *operation) unstash(ctx context.Context, targets []*target) {
	ctx = context.WithoutCancel(ctx)
	l := log.FromContext(ctx)
	for _, t := range targets {
		if t.conflicted {
			t.result.Note = "local changes kept in stash until conflicts are resolved"
			o.result.StashKept = append(o.result.StashKept, t.ref.Name)
			continue
		}
		if err := o.git.StashPop(ctx, t.ref.Path); err != nil {
			l.Warn("could not restore local changes", "repo", t.ref.Name, "err", err)
			t.result.Note = "local changes kept in stash: " + err.Error()
			o.result.StashKept = append(o.result.StashKept, t.ref.Name)
		}
		t.stashed = false
		o.refresh(ctx, t)
	}
}

// fail halts the operation at t and rolls back the targets that succeeded.
func (o *operation) fail(ctx context.Context, t *target, err error) {
	t.result.Status = StatusFailed
	t.result.Err = err
	o.result.Fatal = &OperationError{Op: o.kind, Repo: t.ref, Err: err}
	log.FromContext(ctx).Debug(o.kind.String()+" failed", "repo", t.ref.Name, "err", err)
	o.refresh(context.WithoutCancel(ctx), t)
	o.rollback(ctx, t, err)
}

func (o *operation) rollback(ctx context.Context, failed *target, cause error) {
	if len(o.succeeded) == 0 {
		return
	}
	// Rollback also runs after cancellation, which killed the failed command.
	ctx = context.WithoutCancel(ctx)
	l := log.FromContext(ctx)

	p := RollbackProposal{Op: o.kind, Target: o.subject, Failed: failed.ref, Cause: cause}
	for _, t := range o.succeeded {
		p.Succeeded = append(p.Succeeded, t.ref)
	}
	ok, err := o.prompter.ConfirmRollback(ctx, p)
	if err != nil {
		l.Warn("rollback prompt failed", "err", err)
	}
	if !ok {
		return
	}

	for _, t := range o.succeeded {
		if err := o.step.undo(ctx, t); err != nil {
			t.result.Status = StatusRollbackFailed
			t.result.Err = err
			o.result.RollbackErrors = append(o.result.RollbackErrors, &RollbackError{Repo: t.ref, Err: err})
		} else {
			t.result.Status = StatusRolledBack
			if t.conflicted {
				o.result.Conflicts = slices.DeleteFunc(o.result.Conflicts, func(n string) bool { return n == t.ref.Name })
			}
		}
		t.conflicted = false
		o.refresh(ctx, t)
	}
	o.succeeded = nil
}

// refresh re-reads t after it changed.
func (o *operation) refresh(ctx context.Context, t *target) {
	s, err := o.states.ReadState(ctx, t.ref.Path)
	if err != nil {
		log.FromContext(ctx).Warn("could not refresh repository", "repo", t.ref.Name, "err", err)
		return
	}
	t.result.State = s
	t.result.Refreshed = true
}

// keepOutput stores the output of the command that decided t's outcome.
func keepOutput(t *target, res git.Result) {
	if len(res.Lines) > 0 {
		t.result.Output = res.Output()
	}
}

// resetKeeping hard-resets t to rev, stashing local changes around the reset
// so rollback only discards what the operation did.
func (o *operation) resetKeeping(ctx context.Context, t *target, rev repo.Hash) error {
	if rev.IsZero() {
		return fmt.Errorf("no revision recorded before %s", o.kind)
	}
	stashed := false
	if !t.stashed {
		ok, err := o.git.Stash(ctx, t.ref.Path)
		if err != nil {
			return err
		}
		stashed = ok
	}
	res, err := o.git.ResetHard(ctx, t.ref.Path, string(rev))
	if err == nil {
		err = res.Err()
	}
	if stashed {
		if perr := o.git.StashPop(ctx, t.ref.Path); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

// check turns a finished command into an error: a command that could not
// run, or a non-zero exit.
func check(res git.Result, err error) error {
	if err != nil {
		return err
	}
	return res.Err()
}
