package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/brancher/internal/output"
	"github.com/raphi011/brancher/internal/registry"
	"github.com/raphi011/brancher/internal/ui/static"
)

func newRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "repo",
		Short:   "Manage registered repositories",
		Aliases: []string{"repos"},
		GroupID: GroupRegistry,
		Long: `Manage the repositories brancher operates on.

Operations run in registration order. Labels group repositories so they can
be targeted together with -l.`,
		Example: `  brancher repo add ~/src/api ~/src/web   # Register two repos
  brancher repo add . --name core -l backend
  brancher repo ls
  brancher repo rm web
  brancher repo label add backend api`,
	}

	cmd.AddCommand(newRepoAddCmd())
	cmd.AddCommand(newRepoRemoveCmd())
	cmd.AddCommand(newRepoListCmd())
	cmd.AddCommand(newRepoLabelCmd())

	return cmd
}

func newRepoAddCmd() *cobra.Command {
	var (
		name   string
		labels []string
	)

	cmd := &cobra.Command{
		Use:   "add [path...]",
		Short: "Register repositories",
		Args:  cobra.ArbitraryArgs,
		Long: `Register git repositories. Without a path the repository containing the
working directory is registered. The name defaults to the directory name.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			paths := args
			if len(paths) == 0 {
				paths = []string{"."}
			}
			if name != "" && len(paths) > 1 {
				return fmt.Errorf("--name can only be used with a single path")
			}

			tops := make([]string, len(paths))
			for i, p := range paths {
				top, err := gitRunner(ctx).TopLevel(ctx, p)
				if err != nil {
					return fmt.Errorf("%s is not a git repository", p)
				}
				tops[i] = top
			}

			var added []registry.Repo
			err := registry.Update(func(reg *registry.Registry) error {
				for _, top := range tops {
					if err := reg.Add(registry.Repo{Path: top, Name: name, Labels: labels}); err != nil {
						return err
					}
					added = append(added, reg.Repos[len(reg.Repos)-1])
				}
				return nil
			})
			if err != nil {
				return err
			}
			for _, rp := range added {
				out.Printf("Registered %s (%s)\n", rp.Name, rp.Path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name (default: directory name)")
	cmd.Flags().StringSliceVarP(&labels, "label", "l", nil, "Label to add (repeatable)")
	cmd.RegisterFlagCompletionFunc("label", completeLabels)

	return cmd
}

func newRepoRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "rm <name|path>...",
		Short:             "Unregister repositories",
		Aliases:           []string{"remove"},
		Args:              cobra.MinimumNArgs(1),
		Long:              `Unregister repositories. Nothing on disk is touched.`,
		ValidArgsFunction: completeRepoNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			err := registry.Update(func(reg *registry.Registry) error {
				for _, ref := range args {
					if err := reg.Remove(ref); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			for _, ref := range args {
				out.Printf("Unregistered %s\n", ref)
			}
			return nil
		},
	}

	return cmd
}

func newRepoListCmd() *cobra.Command {
	var (
		label      string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "ls",
		Short:   "List registered repositories",
		Aliases: []string{"list"},
		Args:    cobra.NoArgs,
		Example: `  brancher repo ls              # All repos
  brancher repo ls -l backend   # Filter by label
  brancher repo ls --json       # Output as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			reg, err := registry.Load()
			if err != nil {
				return fmt.Errorf("load registry: %w", err)
			}

			repos := reg.Repos
			if label != "" {
				repos = nil
				for _, rp := range reg.Repos {
					if rp.HasLabel(label) {
						repos = append(repos, rp)
					}
				}
			}

			if jsonOutput {
				return out.JSON(repos)
			}

			if len(repos) == 0 {
				out.Println("No repos registered. Use 'brancher repo add <path>' to register a repo.")
				return nil
			}

			var rows [][]string
			for _, rp := range repos {
				labels := "-"
				if len(rp.Labels) > 0 {
					labels = strings.Join(rp.Labels, ", ")
				}
				rows = append(rows, []string{rp.Name, rp.Path, labels})
			}
			out.Print(static.RenderTable([]string{"NAME", "PATH", "LABELS"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Only repos with this label")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.RegisterFlagCompletionFunc("label", completeLabels)

	return cmd
}

func newRepoLabelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Manage repository labels",
		Long: `Add or remove labels on registered repositories.

Without repository names the repository containing the working directory
is changed.`,
		Example: `  brancher repo label add backend api web
  brancher repo label rm backend web`,
	}

	cmd.AddCommand(newRepoLabelEditCmd("add", "Add a label to repositories", (*registry.Registry).AddLabel, "Added label %q to %s\n"))
	cmd.AddCommand(newRepoLabelEditCmd("rm", "Remove a label from repositories", (*registry.Registry).RemoveLabel, "Removed label %q from %s\n"))

	return cmd
}

func newRepoLabelEditCmd(use, short string, edit func(*registry.Registry, string, string) error, done string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <label> [repo...]",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return completeLabels(cmd, args, toComplete)
			}
			return completeRepoNames(cmd, args, toComplete)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			label, names := args[0], args[1:]

			var here string
			if len(names) == 0 {
				ref, err := currentRepo(ctx)
				if err != nil {
					return err
				}
				here = ref.Path
			}

			err := registry.Update(func(reg *registry.Registry) error {
				if here != "" {
					rp, err := reg.FindContaining(here)
					if err != nil {
						return err
					}
					names = []string{rp.Name}
				}
				for _, name := range names {
					if err := edit(reg, name, label); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			for _, name := range names {
				out.Printf(done, label, name)
			}
			return nil
		},
	}
}
