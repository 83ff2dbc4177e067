package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/raphi011/brancher/internal/registry"
	"github.com/raphi011/brancher/internal/repo"
)

// targetFlags select the repositories a command operates on.
type targetFlags struct {
	repos  []string
	labels []string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.repos, "repository", "r", nil, "Target repository by name or path (repeatable)")
	cmd.Flags().StringSliceVarP(&f.labels, "label", "l", nil, "Target repositories with label (repeatable)")
	cmd.RegisterFlagCompletionFunc("repository", completeRepoNames)
	cmd.RegisterFlagCompletionFunc("label", completeLabels)
}

// resolve returns the target repositories in registration order.
//
// Without -r or -l every registered repository is a target. With an empty
// registry the repository containing the working directory is the only
// target.
func (f *targetFlags) resolve(ctx context.Context) ([]repo.Ref, error) {
	reg, err := registry.Load()
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}

	if len(reg.Repos) == 0 && len(f.repos) == 0 && len(f.labels) == 0 {
		ref, err := currentRepo(ctx)
		if err != nil {
			return nil, fmt.Errorf("no repositories registered and %w (use 'brancher repo add')", err)
		}
		return []repo.Ref{ref}, nil
	}

	selected, err := reg.Select(f.repos, f.labels)
	if err != nil {
		return nil, err
	}
	return registry.Refs(selected), nil
}

// currentRepo returns the repository containing the working directory,
// named after its registration if it is registered.
func currentRepo(ctx context.Context) (repo.Ref, error) {
	wd, err := os.Getwd()
	if err != nil {
		return repo.Ref{}, fmt.Errorf("get working directory: %w", err)
	}
	if reg, err := registry.Load(); err == nil {
		if rp, err := reg.FindContaining(wd); err == nil {
			return repo.Ref{Name: rp.Name, Path: rp.Path}, nil
		}
	}
	top, err := gitRunner(ctx).TopLevel(ctx, wd)
	if err != nil {
		return repo.Ref{}, fmt.Errorf("not inside a git repository")
	}
	return repo.Ref{Name: filepath.Base(top), Path: top}, nil
}
