package prompt

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/raphi011/brancher/internal/branch"
	"github.com/raphi011/brancher/internal/repo"
	"github.com/raphi011/brancher/internal/ui/styles"
)

// maxListedFiles bounds the file list shown for blocking local changes.
const maxListedFiles = 10

// Interactive reports whether prompts can be shown: stdin and stderr must
// both be terminals.
func Interactive() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stderr)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Terminal asks the user through bubbletea prompts on stderr.
type Terminal struct {
	out     io.Writer
	confirm func(ctx context.Context, question string, defaultYes bool) (ConfirmResult, error)
	choose  func(ctx context.Context, prompt string, options []string) (SelectResult, error)
}

var _ branch.Prompter = (*Terminal)(nil)

// NewTerminal returns a prompter that explains each question on out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out, confirm: Confirm, choose: Select}
}

// Decide offers the answers to local changes blocking an operation.
// Cancelling the prompt cancels the operation.
func (t *Terminal) Decide(ctx context.Context, s branch.Situation) (branch.Decision, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Local changes in %s block %s %s",
		styles.AccentStyle.Render(s.Repo.Name), s.Op, s.Target)
	if len(s.Files) > 0 {
		b.WriteString(":")
		for i, f := range s.Files {
			if i == maxListedFiles {
				fmt.Fprintf(&b, "\n  %s", styles.MutedStyle.Render(fmt.Sprintf("and %d more", len(s.Files)-i)))
				break
			}
			b.WriteString("\n  ")
			b.WriteString(f)
		}
	}
	fmt.Fprintln(t.out, styles.RoundedBorder.Render(b.String()))

	options := []string{"Stash changes, retry and restore them"}
	decisions := []branch.Decision{branch.Smart}
	if s.ForceAllowed {
		options = append(options, "Discard local changes (force)")
		decisions = append(decisions, branch.Force)
	}
	options = append(options, "Cancel")
	decisions = append(decisions, branch.Cancel)

	res, err := t.choose(ctx, "How should brancher continue?", options)
	if err != nil {
		return branch.Cancel, err
	}
	if res.Cancelled {
		return branch.Cancel, nil
	}
	return decisions[res.Index], nil
}

// ConfirmRollback asks whether the repositories that already succeeded are
// restored.
func (t *Terminal) ConfirmRollback(ctx context.Context, p branch.RollbackProposal) (bool, error) {
	msg := fmt.Sprintf("%s %s failed in %s: %v\nAlready done in: %s",
		p.Op, p.Target, styles.ErrorStyle.Render(p.Failed.Name), p.Cause, refNames(p.Succeeded))
	fmt.Fprintln(t.out, styles.RoundedBorder.Render(msg))

	res, err := t.confirm(ctx, "Roll back?", true)
	if err != nil {
		return false, err
	}
	return res.Confirmed, nil
}

// ConfirmDelete asks whether a merged branch is deleted everywhere.
func (t *Terminal) ConfirmDelete(ctx context.Context, name string, repos []repo.Ref) (bool, error) {
	res, err := t.confirm(ctx, fmt.Sprintf("Delete merged branch %s in %s?",
		styles.AccentStyle.Render(name), refNames(repos)), false)
	if err != nil {
		return false, err
	}
	return res.Confirmed, nil
}

func refNames(refs []repo.Ref) string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}
	return strings.Join(names, ", ")
}
