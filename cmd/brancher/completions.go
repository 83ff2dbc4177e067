package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/raphi011/brancher/internal/branch"
	"github.com/raphi011/brancher/internal/config"
	"github.com/raphi011/brancher/internal/registry"
	"github.com/raphi011/brancher/internal/repo"
)

// maxSuggestions bounds "did you mean" hints.
const maxSuggestions = 3

// completionTargets resolves the repositories named by -r/-l on a command
// being completed, falling back to the working directory's repository.
func completionTargets(cmd *cobra.Command) []repo.Ref {
	var tf targetFlags
	tf.repos, _ = cmd.Flags().GetStringSlice("repository")
	tf.labels, _ = cmd.Flags().GetStringSlice("label")

	refs, err := tf.resolve(context.Background())
	if err != nil {
		return nil
	}
	return refs
}

// branchNames returns the local (or remote) branch names of all refs,
// deduplicated and sorted.
func branchNames(ctx context.Context, refs []repo.Ref, remote bool) []string {
	snaps, _ := repo.ReadAll(ctx, refs)
	var names []string
	for _, s := range snaps {
		bs := s.State.SortedLocalBranches()
		if remote {
			bs = s.State.SortedRemoteBranches()
		}
		for _, b := range bs {
			names = append(names, b.Name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// rankBranches orders candidates by fuzzy match against pattern. An empty
// pattern keeps every candidate in order.
func rankBranches(pattern string, candidates []string) []string {
	if pattern == "" {
		return candidates
	}
	matches := fuzzy.Find(pattern, candidates)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Str
	}
	return out
}

// completeBranches completes local branch names across the target repos.
func completeBranches(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names := branchNames(context.Background(), completionTargets(cmd), false)
	return rankBranches(toComplete, names), cobra.ShellCompDirectiveNoFileComp
}

// completeRefs completes local and remote branch names.
func completeRefs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx := context.Background()
	refs := completionTargets(cmd)
	names := append(branchNames(ctx, refs, false), branchNames(ctx, refs, true)...)
	return rankBranches(toComplete, names), cobra.ShellCompDirectiveNoFileComp
}

// completeRepoNames provides repository name completion.
func completeRepoNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	reg, err := registry.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var matches []string
	for _, name := range reg.AllRepoNames() {
		if strings.HasPrefix(name, toComplete) {
			matches = append(matches, name)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}

// completeLabels provides label completion.
func completeLabels(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	reg, err := registry.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var matches []string
	for _, label := range reg.AllLabels() {
		if strings.HasPrefix(label, toComplete) {
			matches = append(matches, label)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}

// completeHooks provides hook name completion with descriptions.
func completeHooks(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg := config.FromContext(cmd.Context())

	var matches []string
	for _, name := range sortedHookNames(cfg.Hooks) {
		if !strings.HasPrefix(name, toComplete) {
			continue
		}
		if d := cfg.Hooks.Hooks[name].Description; d != "" {
			matches = append(matches, name+"\t"+d)
		} else {
			matches = append(matches, name)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}

func sortedHookNames(hc config.HooksConfig) []string {
	names := make([]string, 0, len(hc.Hooks))
	for name := range hc.Hooks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// withSuggestions adds close branch names to a branch-not-found error.
func withSuggestions(ctx context.Context, err error, refs []repo.Ref, name string) error {
	if !errors.Is(err, branch.ErrBranchNotFound) && !errors.Is(err, branch.ErrInvalidReference) {
		return err
	}
	similar := rankBranches(name, branchNames(ctx, refs, false))
	similar = slices.DeleteFunc(similar, func(s string) bool { return s == name })
	if len(similar) == 0 {
		return err
	}
	if len(similar) > maxSuggestions {
		similar = similar[:maxSuggestions]
	}
	return fmt.Errorf("%w\n\nDid you mean:\n  %s", err, strings.Join(similar, "\n  "))
}
