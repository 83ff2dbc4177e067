package branch

import (
	"errors"
	"fmt"

	"github.com/raphi011/brancher/internal/repo"
)

var (
	// ErrNoRepositories is returned when an operation has nothing to run on.
	ErrNoRepositories = errors.New("no repositories")

	// ErrCanceled indicates the user declined to continue.
	ErrCanceled = errors.New("canceled")

	// ErrLocalChanges indicates local changes that the operation would overwrite.
	ErrLocalChanges = errors.New("local changes would be overwritten")

	// ErrUntrackedFiles indicates untracked files that the operation would overwrite.
	ErrUntrackedFiles = errors.New("untracked working tree files would be overwritten")

	// ErrUnmergedFiles indicates an index with unresolved conflicts.
	ErrUnmergedFiles = errors.New("unresolved conflicts in the index")

	// ErrInvalidReference indicates a ref git does not know.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrBranchNotFound indicates no target repository has the branch.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrNothingToRestore indicates the journal holds no entry for the branch.
	ErrNothingToRestore = errors.New("no deleted branch to restore")
)

// OperationError is the fatal error that stopped an operation.
type OperationError struct {
	Op   Kind
	Repo repo.Ref
	Err  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s failed in %s: %v", e.Op, e.Repo.Name, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// RollbackError is a repository that could not be restored after a fatal
// error. It leaves that repository diverged from the others.
type RollbackError struct {
	Repo repo.Ref
	Err  error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback failed in %s: %v", e.Repo.Name, e.Err)
}

func (e *RollbackError) Unwrap() error {
	return e.Err
}
