package main

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/raphi011/brancher/internal/log"
	"github.com/raphi011/brancher/internal/output"
	"github.com/raphi011/brancher/internal/repo"
	"github.com/raphi011/brancher/internal/ui/static"
)

// repoStatus is the JSON form of one repository's branch state.
type repoStatus struct {
	Repo     string   `json:"repo"`
	Path     string   `json:"path"`
	Branch   string   `json:"branch,omitempty"`
	State    string   `json:"state"`
	Commit   string   `json:"commit,omitempty"`
	Upstream string   `json:"upstream,omitempty"`
	Fresh    bool     `json:"fresh,omitempty"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func toRepoStatus(s repo.Snapshot) repoStatus {
	st := s.State
	rs := repoStatus{
		Repo:   s.Ref.Name,
		Path:   s.Ref.Path,
		State:  st.State().String(),
		Commit: st.CurrentRevision().String(),
		Fresh:  st.IsFresh(),
	}
	if b, ok := st.CurrentBranch(); ok {
		rs.Branch = b.Name
		if ti, ok := st.TrackInfo(b); ok {
			rs.Upstream = ti.Remote.Name
		}
	}
	for _, a := range st.Anomalies() {
		rs.Warnings = append(rs.Warnings, a.String())
	}
	return rs
}

func newStatusCmd() *cobra.Command {
	var (
		tf         targetFlags
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show the current branch of every repository",
		Aliases: []string{"st"},
		GroupID: GroupInspect,
		Args:    cobra.NoArgs,
		Long: `Show the current branch, state and commit of every target repository.

The state is read from the .git directory without running git.`,
		Example: `  brancher status             # All registered repos
  brancher status -l backend  # Repos labeled backend
  brancher status --json      # Machine readable`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			refs, err := tf.resolve(ctx)
			if err != nil {
				return err
			}
			snaps, warnings := repo.ReadAll(ctx, refs)

			if jsonOutput {
				statuses := make([]repoStatus, 0, len(snaps)+len(warnings))
				for _, s := range snaps {
					statuses = append(statuses, toRepoStatus(s))
				}
				for _, w := range warnings {
					statuses = append(statuses, repoStatus{Repo: w.Ref.Name, Path: w.Ref.Path, Error: w.Err.Error()})
				}
				return out.JSON(statuses)
			}

			out.Print(static.RenderStatus(snaps, warnings))
			return nil
		},
	}

	tf.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newBranchesCmd() *cobra.Command {
	var (
		tf  targetFlags
		all bool
	)

	cmd := &cobra.Command{
		Use:     "branches",
		Short:   "List branches across repositories",
		Aliases: []string{"br"},
		GroupID: GroupInspect,
		Args:    cobra.NoArgs,
		Long: `List every branch with the commit it points to in each repository.

The current branch of a repository is marked with *.`,
		Example: `  brancher branches      # Local branches
  brancher branches -a   # Include remote branches`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			refs, err := tf.resolve(ctx)
			if err != nil {
				return err
			}
			snaps, warnings := repo.ReadAll(ctx, refs)
			for _, w := range warnings {
				log.FromContext(ctx).Warn("skipping repository", "repo", w.Ref.Name, "err", w.Err)
			}

			output.FromContext(ctx).Print(static.RenderBranches(snaps, all))
			return nil
		},
	}

	tf.register(cmd)
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include remote branches")

	return cmd
}

func newShowCmd() *cobra.Command {
	var copyToClipboard bool

	cmd := &cobra.Command{
		Use:     "show",
		Short:   "Show the branch state of the current repository",
		GroupID: GroupInspect,
		Args:    cobra.NoArgs,
		Long: `Show the branch state of the repository containing the working
directory: current branch, local branches with their upstreams, remotes and
any problems found while reading refs.`,
		Example: `  brancher show          # Details of the current repo
  brancher show --copy   # Also copy the current branch name`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			ref, err := currentRepo(ctx)
			if err != nil {
				return err
			}
			st, err := repo.Read(ctx, ref.Path)
			if err != nil {
				return err
			}

			out.Print(renderShow(ref, st))

			if copyToClipboard {
				b, ok := st.CurrentBranch()
				if !ok {
					return fmt.Errorf("%s has no current branch", ref.Name)
				}
				if err := clipboard.WriteAll(b.Name); err != nil {
					log.FromContext(ctx).Warn("copy to clipboard failed", "err", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&copyToClipboard, "copy", "c", false, "Copy the current branch name to the clipboard")

	return cmd
}

func renderShow(ref repo.Ref, st repo.BranchState) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (%s)\n", ref.Name, ref.Path)
	fmt.Fprint(&b, static.RenderTable(static.StatusHeaders, [][]string{static.StatusRow(repo.Snapshot{Ref: ref, State: st})}))

	var rows [][]string
	for _, lb := range st.SortedLocalBranches() {
		h, _ := st.Hash(lb)
		upstream := ""
		if ti, ok := st.TrackInfo(lb); ok {
			upstream = ti.Remote.Name
		}
		rows = append(rows, []string{lb.Name, h.Short(), upstream})
	}
	if len(rows) > 0 {
		b.WriteString("\n")
		b.WriteString(static.RenderTable([]string{"BRANCH", "COMMIT", "UPSTREAM"}, rows))
	}

	if remotes := st.Remotes(); len(remotes) > 0 {
		b.WriteString("\nRemotes:\n")
		for _, r := range remotes {
			fmt.Fprintf(&b, "  %s %s\n", r.Name, strings.Join(r.URLs, " "))
		}
	}

	if anomalies := st.Anomalies(); len(anomalies) > 0 {
		b.WriteString("\nProblems:\n")
		for _, a := range anomalies {
			fmt.Fprintf(&b, "  %s\n", a)
		}
	}
	return b.String()
}

func newWatchCmd() *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Print branch changes as they happen",
		GroupID: GroupInspect,
		Args:    cobra.NoArgs,
		Long: `Watch the .git directories of the target repositories and print a status
line whenever a repository's branch state changes. Stop with Ctrl-C.`,
		Example: `  brancher watch
  brancher watch -l backend`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			refs, err := tf.resolve(ctx)
			if err != nil {
				return err
			}

			watchers := make([]*repo.Watcher, 0, len(refs))
			defer func() {
				for _, w := range watchers {
					w.Close()
				}
			}()
			for _, ref := range refs {
				files, err := repo.Open(ref.Path)
				if err != nil {
					return fmt.Errorf("%s: %w", ref.Name, err)
				}
				w, err := repo.NewWatcher(ctx, repo.NewReader(files))
				if err != nil {
					return fmt.Errorf("watch %s: %w", ref.Name, err)
				}
				watchers = append(watchers, w)
			}

			updates := make(chan repo.Snapshot)
			g, gctx := errgroup.WithContext(ctx)
			for i, w := range watchers {
				ref := refs[i]
				g.Go(func() error {
					sub := w.Subscribe()
					st, err := w.State(gctx)
					if err != nil {
						return fmt.Errorf("%s: %w", ref.Name, err)
					}
					for {
						select {
						case updates <- repo.Snapshot{Ref: ref, State: st}:
						case <-gctx.Done():
							return nil
						}
						select {
						case next, ok := <-sub:
							if !ok {
								return nil
							}
							st = next
						case <-gctx.Done():
							return nil
						}
					}
				})
			}

			go func() {
				g.Wait()
				close(updates)
			}()

			for s := range updates {
				out.Println(strings.Join(static.StatusRow(s), "  "))
			}
			return g.Wait()
		},
	}

	tf.register(cmd)

	return cmd
}
