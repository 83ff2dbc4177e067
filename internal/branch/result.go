package branch

import (
	"errors"

	"github.com/raphi011/brancher/internal/repo"
)

// Status is what happened in one repository.
type Status int

const (
	// StatusPending means the repository was never attempted.
	StatusPending Status = iota
	StatusDone
	StatusUpToDate
	// StatusConflict means the operation stopped on conflicts that are left
	// for manual resolution. It counts as success.
	StatusConflict
	StatusFailed
	StatusRolledBack
	StatusRollbackFailed
	// StatusSkipped means the repository was excluded before the operation
	// started, e.g. because it lacks the branch.
	StatusSkipped
)

var statusNames = [...]string{
	StatusPending:        "not attempted",
	StatusDone:           "done",
	StatusUpToDate:       "up to date",
	StatusConflict:       "conflict",
	StatusFailed:         "failed",
	StatusRolledBack:     "rolled back",
	StatusRollbackFailed: "rollback failed",
	StatusSkipped:        "skipped",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// Succeeded reports whether the operation took effect and is still in place.
func (s Status) Succeeded() bool {
	return s == StatusDone || s == StatusUpToDate || s == StatusConflict
}

// RepoResult is the outcome in one repository.
type RepoResult struct {
	Repo   repo.Ref
	Status Status
	Err    error
	// Output is git's output of the last command run for the operation.
	Output string
	// Note explains a skip or a kept stash.
	Note string
	// Stashed is set when local changes were stashed for a smart retry.
	Stashed bool
	// State is the snapshot read after the repository changed, if it did.
	State     repo.BranchState
	Refreshed bool
}

// UnmergedInfo records a branch deleted with commits that were merged
// neither to its upstream nor to HEAD.
type UnmergedInfo struct {
	Tip     repo.Hash
	Base    string
	Commits []string
}

// Result is the outcome of an operation across all its repositories.
type Result struct {
	Op     Kind
	Target string
	Repos  []RepoResult

	// Fatal is the *OperationError that halted the operation, if any.
	Fatal error
	// RollbackErrors holds one *RollbackError per repository that could not
	// be restored.
	RollbackErrors []error
	// Conflicts names the repositories left with conflicts.
	Conflicts []string
	// AlreadyUpToDate counts repositories where there was nothing to do.
	AlreadyUpToDate int
	// Unmerged is keyed by repository name. Delete only.
	Unmerged map[string]UnmergedInfo
	// StashKept names repositories whose smart-operation stash was not
	// applied back and is still in the stash list.
	StashKept []string
	// Followup is the delete that ran after a merge.
	Followup *Result
}

// Err joins the fatal error, rollback errors and the follow-up's errors.
func (r *Result) Err() error {
	if r == nil {
		return nil
	}
	errs := append([]error{r.Fatal}, r.RollbackErrors...)
	errs = append(errs, r.Followup.Err())
	return errors.Join(errs...)
}

// Succeeded returns the repositories where the operation is in effect.
func (r *Result) Succeeded() []repo.Ref {
	var refs []repo.Ref
	for _, rr := range r.Repos {
		if rr.Status.Succeeded() {
			refs = append(refs, rr.Repo)
		}
	}
	return refs
}

// AllUpToDate reports whether every attempted repository had nothing to do.
func (r *Result) AllUpToDate() bool {
	attempted := 0
	for _, rr := range r.Repos {
		if rr.Status != StatusSkipped {
			attempted++
		}
	}
	return r.Fatal == nil && attempted > 0 && r.AlreadyUpToDate == attempted
}

// Touched returns the roots of repositories whose state was re-read.
func (r *Result) Touched() []string {
	var roots []string
	for _, rr := range r.Repos {
		if rr.Refreshed {
			roots = append(roots, rr.Repo.Path)
		}
	}
	return roots
}
