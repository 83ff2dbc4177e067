package static

import (
	"fmt"
	"slices"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/raphi011/brancher/internal/branch"
	"github.com/raphi011/brancher/internal/ui/styles"
)

// StatusSymbol returns the styled marker for a repository outcome.
func StatusSymbol(s branch.Status) string {
	sym := styles.CurrentSymbols()
	switch s {
	case branch.StatusDone:
		return styles.SuccessStyle.Render(sym.Done)
	case branch.StatusUpToDate:
		return styles.MutedStyle.Render(sym.UpToDate)
	case branch.StatusConflict:
		return styles.WarningStyle.Render(sym.Conflict)
	case branch.StatusFailed, branch.StatusRollbackFailed:
		return styles.ErrorStyle.Render(sym.Failed)
	case branch.StatusRolledBack:
		return styles.WarningStyle.Render(sym.RolledBack)
	case branch.StatusSkipped:
		return styles.MutedStyle.Render(sym.Skipped)
	default:
		return styles.MutedStyle.Render(sym.Pending)
	}
}

// ResultRows builds one table row per repository: marker, name, status and
// the skip note or error.
func ResultRows(res *branch.Result) [][]string {
	rows := make([][]string, 0, len(res.Repos))
	for _, rr := range res.Repos {
		detail := rr.Note
		if rr.Err != nil {
			detail = firstLine(rr.Err.Error())
		}
		rows = append(rows, []string{StatusSymbol(rr.Status), rr.Repo.Name, rr.Status.String(), detail})
	}
	return rows
}

// RenderResult renders the per-repository outcome followed by what the user
// has to act on: conflicts, kept stashes, deleted unmerged commits and
// failed rollbacks. A follow-up operation is rendered after a blank line.
func RenderResult(res *branch.Result) string {
	var b strings.Builder

	title := fmt.Sprintf("%s %s", res.Op, res.Target)
	b.WriteString(styles.Bold.Render(strings.TrimSpace(title)))
	b.WriteString("\n")

	if res.AllUpToDate() {
		b.WriteString(styles.MutedStyle.Render("Already up to date."))
		b.WriteString("\n")
	} else {
		b.WriteString(RenderTable([]string{"", "REPO", "STATUS", ""}, ResultRows(res)))
	}

	if len(res.Conflicts) > 0 {
		b.WriteString(styles.WarningStyle.Render("Resolve conflicts in: " + strings.Join(res.Conflicts, ", ")))
		b.WriteString("\n")
	}
	if len(res.StashKept) > 0 {
		b.WriteString(styles.WarningStyle.Render("Local changes left in the stash of: " + strings.Join(res.StashKept, ", ")))
		b.WriteString("\n")
	}
	for _, name := range sortedKeys(res.Unmerged) {
		b.WriteString(renderUnmerged(name, res.Target, res.Unmerged[name]))
	}
	if res.Fatal != nil {
		b.WriteString(styles.ErrorStyle.Render(res.Fatal.Error()))
		b.WriteString("\n")
	}
	for _, err := range res.RollbackErrors {
		b.WriteString(styles.ErrorStyle.Render(err.Error()))
		b.WriteString("\n")
	}

	if res.Followup != nil {
		b.WriteString("\n")
		b.WriteString(RenderResult(res.Followup))
	}
	return b.String()
}

func renderUnmerged(repoName, branchName string, info branch.UnmergedInfo) string {
	var b strings.Builder
	base := info.Base
	if base == "" {
		base = "HEAD"
	}
	fmt.Fprintf(&b, "%s: deleted %s at %s with commits not in %s",
		styles.WarningStyle.Render(repoName), branchName, info.Tip.Short(), base)
	if len(info.Commits) == 0 {
		b.WriteString("\n")
	} else {
		b.WriteString(":\n")
		for _, c := range info.Commits {
			b.WriteString("  ")
			b.WriteString(c)
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "  %s\n", styles.InfoStyle.Render("restore with: brancher restore "+branchName))
	return b.String()
}

// RenderComparison renders incoming and outgoing commits per repository.
func RenderComparison(branchName string, comps []branch.Comparison) string {
	var b strings.Builder
	for _, c := range comps {
		header := lipgloss.JoinHorizontal(lipgloss.Top,
			styles.AccentStyle.Render(c.Repo.Name),
			styles.MutedStyle.Render(fmt.Sprintf("  +%d -%d", len(c.Incoming), len(c.Outgoing))),
		)
		b.WriteString(header)
		b.WriteString("\n")
		if len(c.Incoming) == 0 && len(c.Outgoing) == 0 {
			b.WriteString(styles.MutedStyle.Render("  HEAD and " + branchName + " point to the same history"))
			b.WriteString("\n")
			continue
		}
		for _, line := range c.Incoming {
			b.WriteString(styles.SuccessStyle.Render("  + " + line))
			b.WriteString("\n")
		}
		for _, line := range c.Outgoing {
			b.WriteString(styles.ErrorStyle.Render("  - " + line))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
