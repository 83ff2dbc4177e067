package git

import (
	"slices"
	"testing"
)

func TestLocalChanges(t *testing.T) {
	t.Parallel()

	lines := []string{
		"error: Your local changes to the following files would be overwritten by checkout:",
		"\tREADME.md",
		"\tsrc/main.go",
		"Please commit your changes or stash them before you switch branches.",
		"Aborting",
	}

	list, ok := LocalChanges(lines)
	if !ok {
		t.Fatal("LocalChanges did not match")
	}
	if list.Operation != "checkout" {
		t.Errorf("Operation = %q, want checkout", list.Operation)
	}
	if !slices.Equal(list.Files, []string{"README.md", "src/main.go"}) {
		t.Errorf("Files = %v", list.Files)
	}

	if _, ok := LocalChanges([]string{"Switched to branch 'main'"}); ok {
		t.Error("LocalChanges matched a clean checkout")
	}
}

func TestUntrackedFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		lines []string
		op    string
		files []string
	}{
		{
			name: "overwritten by merge",
			lines: []string{
				"error: The following untracked working tree files would be overwritten by merge:",
				"\tnew.txt",
				"Please move or remove them before you merge.",
				"Aborting",
			},
			op:    "merge",
			files: []string{"new.txt"},
		},
		{
			name: "removed by checkout",
			lines: []string{
				"error: The following untracked working tree files would be removed by checkout:",
				"\ta.txt",
				"\tb.txt",
				"Aborting",
			},
			op:    "checkout",
			files: []string{"a.txt", "b.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			list, ok := UntrackedFiles(tt.lines)
			if !ok {
				t.Fatal("UntrackedFiles did not match")
			}
			if list.Operation != tt.op || !slices.Equal(list.Files, tt.files) {
				t.Errorf("got %+v, want op %q files %v", list, tt.op, tt.files)
			}
		})
	}
}

func TestLineDetectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		detect func([]string) bool
		match  []string
		miss   []string
	}{
		{
			name:   "unmerged checkout",
			detect: UnmergedFiles,
			match:  []string{"error: you need to resolve your current index first"},
			miss:   []string{"Switched to branch 'x'"},
		},
		{
			name:   "unmerged merge",
			detect: UnmergedFiles,
			match:  []string{"error: Merging is not possible because you have unmerged files."},
		},
		{
			name:   "not fully merged",
			detect: NotFullyMerged,
			match:  []string{"error: The branch 'feature' is not fully merged."},
			miss:   []string{"Deleted branch feature (was 1234567)."},
		},
		{
			name:   "merge conflict",
			detect: MergeConflict,
			match:  []string{"CONFLICT (content): Merge conflict in a.txt", "Automatic merge failed; fix conflicts and then commit the result."},
			miss:   []string{"Fast-forward"},
		},
		{
			name:   "already up to date (old)",
			detect: AlreadyUpToDate,
			match:  []string{"Already up-to-date."},
		},
		{
			name:   "already up to date",
			detect: AlreadyUpToDate,
			match:  []string{"Already up to date."},
			miss:   []string{"Updating 1234567..89abcde"},
		},
		{
			name:   "overwritten by merge",
			detect: OverwrittenByMerge,
			match:  []string{"error: Your local changes would be overwritten by merge."},
		},
		{
			name:   "invalid reference",
			detect: InvalidReference,
			match:  []string{"fatal: invalid reference: nope"},
		},
		{
			name:   "rebase conflict",
			detect: RebaseConflict,
			match:  []string{"error: could not apply 1234567... change"},
		},
		{
			name:   "rebase up to date",
			detect: RebaseUpToDate,
			match:  []string{"Current branch feature is up to date."},
			miss:   []string{"Successfully rebased and updated refs/heads/feature."},
		},
		{
			name:   "rebase local changes",
			detect: RebaseLocalChanges,
			match:  []string{"error: cannot rebase: You have unstaged changes."},
			miss:   []string{"Successfully rebased and updated refs/heads/x."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if !tt.detect(tt.match) {
				t.Errorf("did not match %q", tt.match)
			}
			if tt.miss != nil && tt.detect(tt.miss) {
				t.Errorf("matched %q", tt.miss)
			}
		})
	}
}

func TestNotMergedToUpstream(t *testing.T) {
	t.Parallel()

	lines := []string{
		"warning: not deleting branch 'feature' that is not yet merged to",
		"         'refs/remotes/origin/feature', even though it is merged to HEAD.",
	}
	base, ok := NotMergedToUpstream(lines)
	if !ok || base != "refs/remotes/origin/feature" {
		t.Errorf("NotMergedToUpstream = (%q, %v)", base, ok)
	}

	if _, ok := NotMergedToUpstream([]string{"error: The branch 'x' is not fully merged."}); ok {
		t.Error("matched a plain not-fully-merged error")
	}
}
