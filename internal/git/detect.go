package git

import (
	"regexp"
	"strings"
)

// Output detectors. Each is a pure function over the lines of one git
// invocation, run with LC_ALL=C.

const (
	localChangesStart     = "Your local changes to the following files would be overwritten by"
	untrackedFilesStart   = "The following untracked working tree files would be overwritten by"
	untrackedRemovedStart = "The following untracked working tree files would be removed by"
)

// FileList is the file block of a local-changes or untracked-files error.
type FileList struct {
	Operation string
	Files     []string
}

// LocalChanges detects "Your local changes to the following files would be
// overwritten by <op>:" followed by the affected files.
func LocalChanges(lines []string) (FileList, bool) {
	return fileBlock(lines, []string{localChangesStart}, []string{"Please commit", "Aborting"})
}

// UntrackedFiles detects untracked files that checkout or merge would
// overwrite or remove.
func UntrackedFiles(lines []string) (FileList, bool) {
	return fileBlock(lines,
		[]string{untrackedFilesStart, untrackedRemovedStart},
		[]string{"Please move or remove", "Aborting"})
}

func fileBlock(lines, starts, ends []string) (FileList, bool) {
	var (
		list    FileList
		found   bool
		inBlock bool
	)
	for _, line := range lines {
		if !inBlock {
			for _, start := range starts {
				i := strings.Index(line, start)
				if i == -1 {
					continue
				}
				op := strings.TrimSpace(line[i+len(start):])
				list.Operation = strings.TrimSuffix(op, ":")
				found, inBlock = true, true
				break
			}
			continue
		}
		trimmed := strings.TrimSpace(line)
		if hasAnyPrefix(trimmed, ends) {
			inBlock = false
			continue
		}
		if trimmed != "" {
			list.Files = append(list.Files, trimmed)
		}
	}
	return list, found
}

// OverwrittenByMerge detects the one-line form of the local changes error
// some git versions print for merge and cherry-pick.
func OverwrittenByMerge(lines []string) bool {
	return containsAny(lines, "would be overwritten by merge")
}

// UnmergedFiles detects an index with unresolved conflicts.
func UnmergedFiles(lines []string) bool {
	return containsAny(lines,
		"you need to resolve your current index first",
		"is not possible because you have unmerged files")
}

// NotFullyMerged detects `branch -d` refusing an unmerged branch.
func NotFullyMerged(lines []string) bool {
	return containsAny(lines, "is not fully merged")
}

var notMergedToUpstream = regexp.MustCompile(`.*'(.*)', even though it is merged to.*`)

// NotMergedToUpstream extracts the branch git compared against when it warns
// "deleting branch 'x' that has been merged to 'y', but not yet merged to
// HEAD" or "not deleting branch 'x' that is not yet merged to 'y', even
// though it is merged to HEAD".
func NotMergedToUpstream(lines []string) (string, bool) {
	for _, line := range lines {
		if m := notMergedToUpstream.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// MergeConflict detects a merge stopped on conflicts.
func MergeConflict(lines []string) bool {
	return containsAny(lines, "Automatic merge failed; fix conflicts and then commit the result")
}

// AlreadyUpToDate detects a merge with nothing to do.
func AlreadyUpToDate(lines []string) bool {
	return containsAny(lines, "Already up-to-date", "Already up to date")
}

// InvalidReference detects checkout of a ref that does not exist.
func InvalidReference(lines []string) bool {
	return containsAny(lines, "invalid reference:")
}

// RebaseConflict detects a rebase stopped on a conflicting commit.
func RebaseConflict(lines []string) bool {
	return containsAny(lines, "CONFLICT", "could not apply")
}

// RebaseUpToDate detects a rebase with nothing to replay.
func RebaseUpToDate(lines []string) bool {
	return containsAny(lines, "is up to date.", "is up-to-date.")
}

// RebaseLocalChanges detects a rebase refused because of a dirty tree.
func RebaseLocalChanges(lines []string) bool {
	return containsAny(lines,
		"cannot rebase: You have unstaged changes",
		"Please commit or stash them")
}

func containsAny(lines []string, needles ...string) bool {
	for _, line := range lines {
		for _, n := range needles {
			if strings.Contains(line, n) {
				return true
			}
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
