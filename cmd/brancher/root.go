package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/colorprofile"
	"github.com/spf13/cobra"

	"github.com/raphi011/brancher/internal/config"
	"github.com/raphi011/brancher/internal/git"
	"github.com/raphi011/brancher/internal/log"
	"github.com/raphi011/brancher/internal/output"
	"github.com/raphi011/brancher/internal/ui/styles"
)

var (
	// Global flags
	verbose bool
	quiet   bool
)

// Command group IDs for organizing help output
const (
	GroupBranch   = "branch"
	GroupInspect  = "inspect"
	GroupRegistry = "registry"
	GroupConfig   = "config"
)

// commands that work without git
var noGitCommands = map[string]bool{
	"completion": true,
	"__complete": true,
	"help":       true,
	"version":    true,
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "brancher",
		Short: "Branch operations across many git repositories",
		Long: `brancher checks out, creates, merges, deletes, renames and rebases branches
in several git repositories at once.

If an operation fails in one repository, the repositories where it already
succeeded are rolled back. Local changes that block an operation can be
stashed and restored automatically.`,
		SilenceUsage:               true,
		SilenceErrors:              true,
		SuggestionsMinimumDistance: 2,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return fmt.Errorf("--verbose and --quiet are mutually exclusive")
			}

			ctx := log.WithLogger(cmd.Context(), log.New(colorprofile.NewWriter(os.Stderr, os.Environ()), verbose, quiet))
			cmd.SetContext(ctx)

			if noGitCommands[cmd.Name()] || isConfigCmd(cmd) {
				return nil
			}
			return git.CheckGit(config.FromContext(ctx).GitPath)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show git commands being executed")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddGroup(
		&cobra.Group{ID: GroupBranch, Title: "Branch Commands:"},
		&cobra.Group{ID: GroupInspect, Title: "Inspection Commands:"},
		&cobra.Group{ID: GroupRegistry, Title: "Registry Commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
	)

	// Branch commands
	rootCmd.AddCommand(newCheckoutCmd())
	rootCmd.AddCommand(newNewCmd())
	rootCmd.AddCommand(newMergeCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newRenameCmd())
	rootCmd.AddCommand(newRebaseCmd())
	rootCmd.AddCommand(newRestoreCmd())

	// Inspection commands
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newBranchesCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newCompareCmd())
	rootCmd.AddCommand(newWatchCmd())

	// Registry commands
	rootCmd.AddCommand(newRepoCmd())

	// Config commands
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHookCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute builds the root command and runs it.
func Execute() {
	loadedCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctx = config.WithConfig(ctx, &loadedCfg)
	ctx = config.WithResolver(ctx, config.NewResolver(&loadedCfg))

	// Downsample styled output for pipes and NO_COLOR.
	styles.Init(os.Stdout)
	ctx = output.WithPrinter(ctx, colorprofile.NewWriter(os.Stdout, os.Environ()))

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Run 'brancher -h' for help")
		os.Exit(1)
	}
}

func isConfigCmd(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" {
			return true
		}
	}
	return false
}
