package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/brancher/internal/config"
	"github.com/raphi011/brancher/internal/output"
	"github.com/raphi011/brancher/internal/registry"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage configuration",
		Aliases: []string{"cfg"},
		GroupID: GroupConfig,
		Long: `Manage brancher configuration.

Global config: ~/.config/brancher/config.toml (or $BRANCHER_CONFIG)
Local config:  .brancher.toml (in a repository root, hooks only)`,
		Example: `  brancher config init          # Create default global config
  brancher config init --local  # Create local repo config
  brancher config show          # Show effective config`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force  bool
		stdout bool
		local  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		Args:  cobra.NoArgs,
		Example: `  brancher config init           # Create global config
  brancher config init --local   # Create .brancher.toml in the current repo
  brancher config init -f        # Overwrite existing config
  brancher config init -s        # Print config to stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			if local {
				content := config.DefaultLocalConfig()
				if stdout {
					out.Print(content)
					return nil
				}
				ref, err := currentRepo(cmd.Context())
				if err != nil {
					return err
				}
				path := filepath.Join(ref.Path, config.LocalConfigFileName)
				if !force {
					if _, err := os.Stat(path); err == nil {
						return fmt.Errorf("local config already exists: %s (use -f to overwrite)", path)
					}
				}
				if err := os.WriteFile(path, []byte(content), 0644); err != nil {
					return err
				}
				out.Printf("Created local config: %s\n", path)
				return nil
			}

			if stdout {
				out.Print(config.DefaultConfig())
				return nil
			}
			path, err := config.Init(force)
			if err != nil {
				return fmt.Errorf("%w (use -f to overwrite)", err)
			}
			out.Printf("Created config file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config")
	cmd.Flags().BoolVarP(&stdout, "stdout", "s", false, "Print config to stdout")
	cmd.Flags().BoolVar(&local, "local", false, "Create per-repo .brancher.toml instead of global config")

	return cmd
}

// hookView is the JSON form of a hook.
type hookView struct {
	Command     string   `json:"command"`
	Description string   `json:"description,omitempty"`
	On          []string `json:"on,omitempty"`
	Enabled     bool     `json:"enabled"`
}

// configView is the JSON form of the effective config.
type configView struct {
	Path          string              `json:"path"`
	LocalPath     string              `json:"local_path,omitempty"`
	GitPath       string              `json:"git_path,omitempty"`
	Smart         string              `json:"smart"`
	Rollback      string              `json:"rollback"`
	DeleteOnMerge string              `json:"delete_on_merge"`
	Hooks         map[string]hookView `json:"hooks,omitempty"`
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		repoName   string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		Long: `Show effective configuration.

Inside a repository (or with --repo) hooks from its .brancher.toml are
merged in.`,
		Example: `  brancher config show              # Show config (merged if in a repo)
  brancher config show --repo api   # Show merged config for a repo
  brancher config show --json       # Output as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			cfg := config.FromContext(ctx)

			globalPath, err := config.Path()
			if err != nil {
				return err
			}
			view := configView{
				Path:          globalPath,
				GitPath:       cfg.GitPath,
				Smart:         cfg.Smart,
				Rollback:      cfg.Rollback,
				DeleteOnMerge: cfg.DeleteOnMerge,
			}

			var repoPath string
			if repoName != "" {
				reg, err := registry.Load()
				if err != nil {
					return fmt.Errorf("load registry: %w", err)
				}
				rp, err := reg.Find(repoName)
				if err != nil {
					return err
				}
				repoPath = rp.Path
			} else if ref, err := currentRepo(ctx); err == nil {
				repoPath = ref.Path
			}

			hooksCfg := cfg.Hooks
			if repoPath != "" {
				local, err := config.LoadLocal(repoPath)
				if err != nil {
					return err
				}
				if local != nil {
					view.LocalPath = filepath.Join(repoPath, config.LocalConfigFileName)
					hooksCfg = config.MergeLocal(cfg, local).Hooks
				}
			}
			view.Hooks = make(map[string]hookView, len(hooksCfg.Hooks))
			for name, h := range hooksCfg.Hooks {
				view.Hooks[name] = hookView{Command: h.Command, Description: h.Description, On: h.On, Enabled: h.IsEnabled()}
			}

			if jsonOutput {
				return out.JSON(view)
			}

			out.Printf("# %s\n", view.Path)
			if view.LocalPath != "" {
				out.Printf("# %s\n", view.LocalPath)
			}
			out.Println()
			if view.GitPath != "" {
				out.Printf("git_path = %q\n", view.GitPath)
			}
			out.Printf("smart = %q\n", view.Smart)
			out.Printf("rollback = %q\n", view.Rollback)
			out.Printf("delete_on_merge = %q\n", view.DeleteOnMerge)

			for _, name := range sortedHookNames(hooksCfg) {
				h := view.Hooks[name]
				out.Printf("\n[hooks.%s]\n", name)
				out.Printf("command = %q\n", h.Command)
				if h.Description != "" {
					out.Printf("description = %q\n", h.Description)
				}
				if len(h.On) > 0 {
					out.Printf("on = [%s]\n", quoteList(h.On))
				}
				if !h.Enabled {
					out.Println("enabled = false")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVarP(&repoName, "repo", "r", "", "Show merged config for this repository")
	cmd.RegisterFlagCompletionFunc("repo", completeRepoNames)

	return cmd
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}
