package static

import (
	"fmt"
	"slices"
	"strings"

	"github.com/raphi011/brancher/internal/repo"
	"github.com/raphi011/brancher/internal/ui/styles"
)

// StatusHeaders are the columns of RenderStatus.
var StatusHeaders = []string{"REPO", "BRANCH", "STATE", "COMMIT", "UPSTREAM"}

// StatusRow renders one repository snapshot as a table row.
func StatusRow(s repo.Snapshot) []string {
	st := s.State

	branchName := styles.MutedStyle.Render("(none)")
	upstream := ""
	if b, ok := st.CurrentBranch(); ok {
		branchName = styles.AccentStyle.Render(b.Name)
		if ti, ok := st.TrackInfo(b); ok {
			upstream = ti.Remote.Name
		}
	}

	state := st.State().String()
	switch st.State() {
	case repo.Merging, repo.Rebasing:
		state = styles.WarningStyle.Render(state)
	case repo.Detached:
		state = styles.InfoStyle.Render(state)
	}
	if st.IsFresh() {
		state = styles.MutedStyle.Render("FRESH")
	}

	return []string{s.Ref.Name, branchName, state, st.CurrentRevision().Short(), upstream}
}

// RenderStatus renders the current branch and state of each repository,
// followed by load warnings.
func RenderStatus(snaps []repo.Snapshot, warnings []repo.LoadWarning) string {
	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, StatusRow(s))
	}

	var b strings.Builder
	b.WriteString(RenderTable(StatusHeaders, rows))
	for _, w := range warnings {
		fmt.Fprintf(&b, "%s %s: %v\n", styles.ErrorStyle.Render(styles.CurrentSymbols().Failed), w.Ref.Name, w.Err)
	}
	return b.String()
}

// BranchMatrix lists every branch name with the repositories that have it.
// Remote branches are included when remote is set.
func BranchMatrix(snaps []repo.Snapshot, remote bool) (names []string, rows [][]string) {
	seen := map[string]bool{}
	for _, s := range snaps {
		for _, b := range s.State.SortedLocalBranches() {
			seen[b.Name] = true
		}
		if remote {
			for _, b := range s.State.SortedRemoteBranches() {
				seen[b.Name] = true
			}
		}
	}
	for n := range seen {
		names = append(names, n)
	}
	slices.Sort(names)

	for _, n := range names {
		row := []string{n}
		for _, s := range snaps {
			row = append(row, branchCell(s.State, n, remote))
		}
		rows = append(rows, row)
	}
	return names, rows
}

func branchCell(st repo.BranchState, name string, remote bool) string {
	b, ok := st.FindLocalBranch(name)
	if !ok && remote {
		b, ok = st.FindRemoteBranch(name)
	}
	if !ok {
		return ""
	}
	h, _ := st.Hash(b)
	cell := h.Short()
	if cur, ok := st.CurrentBranch(); ok && cur == b {
		cell = styles.AccentStyle.Render("* " + cell)
	}
	return cell
}

// RenderBranches renders BranchMatrix with one column per repository.
func RenderBranches(snaps []repo.Snapshot, remote bool) string {
	headers := []string{"BRANCH"}
	for _, s := range snaps {
		headers = append(headers, strings.ToUpper(s.Ref.Name))
	}
	_, rows := BranchMatrix(snaps, remote)
	return RenderTable(headers, rows)
}
