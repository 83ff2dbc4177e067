package repo

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Ref identifies a repository for the loader.
// Keeps this package independent of the registry package.
type Ref struct {
	Name string
	Path string
}

// Snapshot is one loaded repository.
type Snapshot struct {
	Ref   Ref
	State BranchState
}

// LoadWarning is a repository that could not be read.
type LoadWarning struct {
	Ref Ref
	Err error
}

// ReadAll reads every repository in parallel. Results keep the order of
// refs; unreadable repositories become warnings.
func ReadAll(ctx context.Context, refs []Ref) ([]Snapshot, []LoadWarning) {
	type result struct {
		state BranchState
		err   error
	}
	results := make([]result, len(refs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, ref := range refs {
		g.Go(func() error {
			s, err := Read(ctx, ref.Path)
			results[i] = result{state: s, err: err}
			return nil // per-repo failures are warnings
		})
	}
	_ = g.Wait()

	var snapshots []Snapshot
	var warnings []LoadWarning
	for i, r := range results {
		if r.err != nil {
			warnings = append(warnings, LoadWarning{Ref: refs[i], Err: r.err})
			continue
		}
		snapshots = append(snapshots, Snapshot{Ref: refs[i], State: r.state})
	}
	return snapshots, warnings
}
