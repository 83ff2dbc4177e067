package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphi011/brancher/internal/branch"
	"github.com/raphi011/brancher/internal/config"
	"github.com/raphi011/brancher/internal/journal"
	"github.com/raphi011/brancher/internal/log"
	"github.com/raphi011/brancher/internal/output"
	"github.com/raphi011/brancher/internal/repo"
	"github.com/raphi011/brancher/internal/ui/progress"
	"github.com/raphi011/brancher/internal/ui/prompt"
	"github.com/raphi011/brancher/internal/ui/static"
)

func newCheckoutCmd() *cobra.Command {
	var (
		tf     targetFlags
		hf     hookFlags
		detach bool
	)

	cmd := &cobra.Command{
		Use:     "checkout <ref>",
		Short:   "Check out a branch in every repository",
		Aliases: []string{"co"},
		GroupID: GroupBranch,
		Args:    cobra.ExactArgs(1),
		Long: `Check out a branch, remote branch or commit in every target repository.

If local changes block the checkout, brancher offers to stash them, check
out and reapply them (smart checkout). If the checkout fails in one
repository, the repositories that already switched go back to where they
were.`,
		Example: `  brancher checkout main                 # All registered repos
  brancher checkout feature -l backend   # Repos labeled backend
  brancher checkout v1.2.0 --detach      # Detached at a tag`,
		ValidArgsFunction: completeRefs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ref := args[0]

			opts, err := hf.options()
			if err != nil {
				return err
			}
			refs, err := tf.resolve(ctx)
			if err != nil {
				return err
			}
			w, err := newWorker(ctx)
			if err != nil {
				return err
			}

			log.FromContext(ctx).Debug("checkout", "ref", ref, "repos", len(refs), "detach", detach)

			res, err := w.Checkout(ctx, refs, ref, detach)
			if err != nil {
				return err
			}
			return withSuggestions(ctx, report(ctx, res, &opts), refs, ref)
		},
	}

	tf.register(cmd)
	hf.register(cmd)
	cmd.Flags().BoolVar(&detach, "detach", false, "Check out the commit without a branch")

	return cmd
}

func newNewCmd() *cobra.Command {
	var (
		tf   targetFlags
		hf   hookFlags
		from string
	)

	cmd := &cobra.Command{
		Use:     "new <name>",
		Short:   "Create and check out a new branch",
		GroupID: GroupBranch,
		Args:    cobra.ExactArgs(1),
		Long: `Create a branch in every target repository and check it out.

The branch starts at HEAD unless --from names another start point.
Repositories already on the branch are skipped.`,
		Example: `  brancher new feature                  # From HEAD everywhere
  brancher new feature --from main      # From main
  brancher new fix -r api -r web        # In two repos`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			opts, err := hf.options()
			if err != nil {
				return err
			}
			refs, err := tf.resolve(ctx)
			if err != nil {
				return err
			}
			w, err := newWorker(ctx)
			if err != nil {
				return err
			}

			res, err := w.CheckoutNewBranch(ctx, refs, name, from)
			if err != nil {
				return err
			}
			return report(ctx, res, &opts)
		},
	}

	tf.register(cmd)
	hf.register(cmd)
	cmd.Flags().StringVar(&from, "from", "", "Start point of the new branch (default HEAD)")
	cmd.RegisterFlagCompletionFunc("from", completeRefs)

	return cmd
}

func newMergeCmd() *cobra.Command {
	var (
		tf      targetFlags
		hf      hookFlags
		del     bool
		propose bool
		keep    bool
	)

	cmd := &cobra.Command{
		Use:     "merge <branch>",
		Short:   "Merge a branch into the current branch",
		GroupID: GroupBranch,
		Args:    cobra.ExactArgs(1),
		Long: `Merge a branch into the current branch of every target repository.

Conflicts stop the merge in that repository only; the others continue and
the conflicted repositories are listed at the end. After a clean merge the
merged branch can be deleted, as set by delete_on_merge in the config or
the flags below.`,
		Example: `  brancher merge feature                    # Merge feature everywhere
  brancher merge feature --delete           # Delete feature afterwards
  brancher merge feature --propose-delete   # Ask before deleting`,
		ValidArgsFunction: completeRefs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			mode, err := branch.ParseDeleteOnMerge(config.FromContext(ctx).DeleteOnMerge)
			if err != nil {
				return err
			}
			switch {
			case del:
				mode = branch.DeleteMerged
			case propose:
				mode = branch.ProposeDelete
			case keep:
				mode = branch.KeepMerged
			}

			opts, err := hf.options()
			if err != nil {
				return err
			}
			refs, err := tf.resolve(ctx)
			if err != nil {
				return err
			}
			w, err := newWorker(ctx)
			if err != nil {
				return err
			}

			res, err := w.Merge(ctx, refs, name, mode)
			if err != nil {
				if res == nil {
					return err
				}
				// The merge took effect; only deleting the branch failed.
				log.FromContext(ctx).Warn("could not delete merged branch", "branch", name, "err", err)
			}
			return withSuggestions(ctx, report(ctx, res, &opts), refs, name)
		},
	}

	tf.register(cmd)
	hf.register(cmd)
	cmd.Flags().BoolVar(&del, "delete", false, "Delete the branch after a clean merge")
	cmd.Flags().BoolVar(&propose, "propose-delete", false, "Ask whether to delete the branch after a clean merge")
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the branch after merging")
	cmd.MarkFlagsMutuallyExclusive("delete", "propose-delete", "keep")

	return cmd
}

func newDeleteCmd() *cobra.Command {
	var (
		tf targetFlags
		hf hookFlags
	)

	cmd := &cobra.Command{
		Use:     "delete <branch>",
		Short:   "Delete a local branch",
		Aliases: []string{"rm"},
		GroupID: GroupBranch,
		Args:    cobra.ExactArgs(1),
		Long: `Delete a local branch in every target repository that has it.

Branches with commits that exist nowhere else are deleted anyway and those
commits are listed. Every deleted branch is recorded so 'brancher restore'
can bring it back.`,
		Example: `  brancher delete feature
  brancher delete feature -l frontend`,
		ValidArgsFunction: completeBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			opts, err := hf.options()
			if err != nil {
				return err
			}
			refs, err := tf.resolve(ctx)
			if err != nil {
				return err
			}
			w, err := newWorker(ctx)
			if err != nil {
				return err
			}

			res, err := w.Delete(ctx, refs, name)
			if err != nil {
				return withSuggestions(ctx, err, refs, name)
			}
			return report(ctx, res, &opts)
		},
	}

	tf.register(cmd)
	hf.register(cmd)

	return cmd
}

func newRenameCmd() *cobra.Command {
	var (
		tf targetFlags
		hf hookFlags
	)

	cmd := &cobra.Command{
		Use:               "rename <old> <new>",
		Short:             "Rename a local branch",
		Aliases:           []string{"mv"},
		GroupID:           GroupBranch,
		Args:              cobra.ExactArgs(2),
		Long:              `Rename a local branch in every target repository that has it.`,
		Example:           `  brancher rename feature feature-v2`,
		ValidArgsFunction: completeBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			from, to := args[0], args[1]

			opts, err := hf.options()
			if err != nil {
				return err
			}
			refs, err := tf.resolve(ctx)
			if err != nil {
				return err
			}
			w, err := newWorker(ctx)
			if err != nil {
				return err
			}

			res, err := w.Rename(ctx, refs, from, to)
			if err != nil {
				return withSuggestions(ctx, err, refs, from)
			}
			return report(ctx, res, &opts)
		},
	}

	tf.register(cmd)
	hf.register(cmd)

	return cmd
}

func newRebaseCmd() *cobra.Command {
	var (
		tf targetFlags
		hf hookFlags
	)

	cmd := &cobra.Command{
		Use:     "rebase <onto>",
		Short:   "Rebase the current branch onto another",
		GroupID: GroupBranch,
		Args:    cobra.ExactArgs(1),
		Long: `Rebase the current branch of every target repository onto a branch.

A rebase that stops on conflicts is left in progress in that repository so
the conflicts can be resolved there.`,
		Example: `  brancher rebase main
  brancher rebase origin/main -l backend`,
		ValidArgsFunction: completeRefs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			onto := args[0]

			opts, err := hf.options()
			if err != nil {
				return err
			}
			refs, err := tf.resolve(ctx)
			if err != nil {
				return err
			}
			w, err := newWorker(ctx)
			if err != nil {
				return err
			}

			res, err := w.Rebase(ctx, refs, onto)
			if err != nil {
				return err
			}
			return withSuggestions(ctx, report(ctx, res, &opts), refs, onto)
		},
	}

	tf.register(cmd)
	hf.register(cmd)

	return cmd
}

func newRestoreCmd() *cobra.Command {
	var (
		tf   targetFlags
		hf   hookFlags
		list bool
	)

	cmd := &cobra.Command{
		Use:     "restore [branch]",
		Short:   "Restore a deleted branch",
		GroupID: GroupBranch,
		Args:    cobra.MaximumNArgs(1),
		Long: `Recreate a branch deleted by brancher at the commit it pointed to.

Each repository restores the most recent deletion of the branch. Use --list
to show the recorded deletions.`,
		Example: `  brancher restore feature     # Bring feature back
  brancher restore --list      # Show deleted branches`,
		ValidArgsFunction: completeDeleted,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if list || len(args) == 0 {
				refs, err := tf.resolve(ctx)
				if err != nil {
					return err
				}
				return listDeleted(cmd, refs)
			}
			name := args[0]

			opts, err := hf.options()
			if err != nil {
				return err
			}
			refs, err := tf.resolve(ctx)
			if err != nil {
				return err
			}
			w, err := newWorker(ctx)
			if err != nil {
				return err
			}

			res, err := w.Restore(ctx, refs, name)
			if err != nil {
				return err
			}
			return report(ctx, res, &opts)
		},
	}

	tf.register(cmd)
	hf.register(cmd)
	cmd.Flags().BoolVar(&list, "list", false, "List deleted branches")

	return cmd
}

// listDeleted prints the journal entries of refs, newest first.
func listDeleted(cmd *cobra.Command, refs []repo.Ref) error {
	ctx := cmd.Context()
	out := output.FromContext(ctx)

	j, err := journal.Open()
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	var rows [][]string
	for _, ref := range refs {
		entries, err := j.List(ref.Path)
		if err != nil {
			return err
		}
		for _, e := range entries {
			note := ""
			if n := len(e.Unmerged); n > 0 {
				note = fmt.Sprintf("%d unmerged", n)
			}
			rows = append(rows, []string{
				e.Time.Local().Format("2006-01-02 15:04"),
				ref.Name,
				e.Branch,
				shortTip(e.Tip),
				note,
			})
		}
	}

	if len(rows) == 0 {
		out.Println("No deleted branches")
		return nil
	}
	out.Print(static.RenderTable([]string{"DELETED", "REPO", "BRANCH", "TIP", ""}, rows))
	return nil
}

func shortTip(tip string) string {
	if len(tip) > 7 {
		return tip[:7]
	}
	return tip
}

// completeDeleted completes branch names recorded in the journal.
func completeDeleted(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	j, err := journal.Open()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	seen := make(map[string]bool)
	var names []string
	for _, ref := range completionTargets(cmd) {
		entries, err := j.List(ref.Path)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !seen[e.Branch] {
				seen[e.Branch] = true
				names = append(names, e.Branch)
			}
		}
	}
	return rankBranches(toComplete, names), cobra.ShellCompDirectiveNoFileComp
}

func newCompareCmd() *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:     "compare <branch>",
		Short:   "List commits between HEAD and a branch",
		GroupID: GroupInspect,
		Args:    cobra.ExactArgs(1),
		Long: `List, for every target repository, the commits of a branch missing from
HEAD (+) and the commits of HEAD missing from the branch (-).`,
		Example:           `  brancher compare origin/main`,
		ValidArgsFunction: completeRefs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			refs, err := tf.resolve(ctx)
			if err != nil {
				return err
			}
			w, err := newWorker(ctx)
			if err != nil {
				return err
			}

			bar := progress.Start("Comparing", len(refs), prompt.Interactive() && !quiet)
			comps := make([]branch.Comparison, 0, len(refs))
			for _, ref := range refs {
				bar.Step(ref.Name)
				c, err := w.Compare(ctx, []repo.Ref{ref}, name)
				if err != nil {
					bar.Stop()
					return withSuggestions(ctx, err, refs, name)
				}
				comps = append(comps, c...)
			}
			bar.Stop()

			output.FromContext(ctx).Print(static.RenderComparison(name, comps))
			return nil
		},
	}

	tf.register(cmd)

	return cmd
}
