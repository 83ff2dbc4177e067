package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphi011/brancher/internal/branch"
	"github.com/raphi011/brancher/internal/config"
	"github.com/raphi011/brancher/internal/git"
	"github.com/raphi011/brancher/internal/hooks"
	"github.com/raphi011/brancher/internal/journal"
	"github.com/raphi011/brancher/internal/output"
	"github.com/raphi011/brancher/internal/ui/prompt"
	"github.com/raphi011/brancher/internal/ui/static"
)

// newPrompter combines the configured policies with terminal prompts.
// Without a terminal, "ask" falls back to the policy default.
func newPrompter(cfg *config.Config) (branch.Prompter, error) {
	smart, err := branch.ParsePolicy(cfg.Smart)
	if err != nil {
		return nil, err
	}
	rollback, err := branch.ParsePolicy(cfg.Rollback)
	if err != nil {
		return nil, err
	}
	p := branch.PolicyPrompter{Smart: smart, Rollback: rollback}
	if prompt.Interactive() {
		p.Ask = prompt.NewTerminal(os.Stderr)
	}
	return p, nil
}

// gitRunner runs the git binary configured in ctx.
func gitRunner(ctx context.Context) git.ExecRunner {
	return git.ExecRunner{Path: config.FromContext(ctx).GitPath}
}

// newWorker builds the operation engine from the config in ctx.
func newWorker(ctx context.Context) (*branch.Worker, error) {
	cfg := config.FromContext(ctx)

	p, err := newPrompter(cfg)
	if err != nil {
		return nil, err
	}
	j, err := journal.Open()
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	return branch.NewWorker(gitRunner(ctx),
		branch.WithPrompter(p),
		branch.WithJournal(j),
	), nil
}

// hookFlags control hooks run after an operation.
type hookFlags struct {
	hook   string
	noHook bool
	args   []string
	dryRun bool
}

func (f *hookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.hook, "hook", "", "Run only this hook")
	cmd.Flags().BoolVar(&f.noHook, "no-hook", false, "Run no hooks")
	cmd.Flags().StringArrayVarP(&f.args, "arg", "a", nil, "Hook variable key=value (value - reads stdin)")
	cmd.Flags().BoolVar(&f.dryRun, "hook-dry-run", false, "Print hook commands instead of running them")
	cmd.MarkFlagsMutuallyExclusive("hook", "no-hook")
	cmd.RegisterFlagCompletionFunc("hook", completeHooks)
}

func (f *hookFlags) options() (hooks.Options, error) {
	env, err := hooks.ParseEnv(f.args)
	if err != nil {
		return hooks.Options{}, err
	}
	return hooks.Options{Hook: f.hook, NoHook: f.noHook, Env: env, DryRun: f.dryRun}, nil
}

// report prints the outcome, runs hooks where the operation took effect and
// returns the operation's error.
func report(ctx context.Context, res *branch.Result, opts *hooks.Options) error {
	output.FromContext(ctx).Print(static.RenderResult(res))

	if opts != nil {
		hooks.RunForResult(ctx, config.ResolverFromContext(ctx), res, *opts)
	}

	return res.Err()
}
