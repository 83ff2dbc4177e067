package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphi011/brancher/internal/config"
	"github.com/raphi011/brancher/internal/hooks"
	"github.com/raphi011/brancher/internal/log"
	"github.com/raphi011/brancher/internal/repo"
)

func newHookCmd() *cobra.Command {
	var (
		tf     targetFlags
		env    []string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:               "hook <name>...",
		Short:             "Run configured hooks",
		Aliases:           []string{"h"},
		GroupID:           GroupConfig,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeHooks,
		Long: `Run one or more configured hooks in the target repositories.

{branch} is the current branch of each repository and {operation} is "hook".
Hooks disabled in a repository's .brancher.toml are skipped there.`,
		Example: `  brancher hook install                 # In every registered repo
  brancher hook install -l backend      # In repos labeled backend
  brancher hook notify -a msg=done      # With a variable
  brancher hook install --dry-run       # Print commands only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)

			hookEnv, err := hooks.ParseEnv(env)
			if err != nil {
				return err
			}
			refs, err := tf.resolve(ctx)
			if err != nil {
				return err
			}
			resolver := config.ResolverFromContext(ctx)

			l.Debug("running hooks", "hooks", args, "repos", len(refs), "dryRun", dryRun)

			snaps, warnings := repo.ReadAll(ctx, refs)
			for _, w := range warnings {
				l.Warn("skipping repository", "repo", w.Ref.Name, "err", w.Err)
			}

			var errs []error
			for _, s := range snaps {
				cfg, err := resolver.ConfigForRepo(s.Ref.Path)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", s.Ref.Name, err))
					continue
				}

				hctx := hooks.Context{
					Path:      s.Ref.Path,
					Repo:      s.Ref.Name,
					Operation: "hook",
					Env:       hookEnv,
					DryRun:    dryRun,
				}
				if b, ok := s.State.CurrentBranch(); ok {
					hctx.Branch = b.Name
				}

				for _, name := range args {
					hook, ok := cfg.Hooks.Hooks[name]
					if !ok {
						errs = append(errs, fmt.Errorf("%s: unknown hook %q", s.Ref.Name, name))
						continue
					}
					if !hook.IsEnabled() {
						l.Debug("hook disabled", "hook", name, "repo", s.Ref.Name)
						continue
					}
					if err := hooks.RunSingle(ctx, name, &hook, hctx); err != nil {
						errs = append(errs, fmt.Errorf("%s: %w", s.Ref.Name, err))
					}
				}
			}
			return errors.Join(errs...)
		},
	}

	tf.register(cmd)
	cmd.Flags().StringArrayVarP(&env, "arg", "a", nil, "Hook variable key=value (value - reads stdin)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Print commands without executing")

	return cmd
}
