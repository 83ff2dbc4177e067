package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Files locates the git metadata files of one repository.
//
// For a linked worktree, gitDir is .git/worktrees/<name> of the main repo and
// holds HEAD and the merge/rebase markers, while refs, packed-refs and config
// live in the common dir.
type Files struct {
	root      string
	gitDir    string
	commonDir string
}

// Open locates the git directory for path, which may be a work tree root,
// a linked worktree (".git" file with "gitdir: ..."), or a .git dir itself.
func Open(path string) (*Files, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	root := abs
	gitDir := filepath.Join(abs, ".git")
	if filepath.Base(abs) == ".git" || isBareGitDir(abs) {
		root = filepath.Dir(abs)
		gitDir = abs
	}

	info, err := os.Stat(gitDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
		}
		return nil, fmt.Errorf("stat .git: %w", err)
	}
	if !info.IsDir() {
		gitDir, err = readGitdirFile(gitDir, root)
		if err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(filepath.Join(gitDir, "HEAD")); err != nil {
		return nil, fmt.Errorf("%w: .git/HEAD not found in %s", ErrNotRepository, gitDir)
	}

	return &Files{
		root:      root,
		gitDir:    gitDir,
		commonDir: readCommonDir(gitDir),
	}, nil
}

// isBareGitDir reports whether dir looks like a git dir (HEAD plus refs/).
func isBareGitDir(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "HEAD")); err != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, "refs"))
	return err == nil && info.IsDir()
}

// readGitdirFile parses a worktree's ".git" file.
// Only the first line matters: "gitdir: /path/to/repo/.git/worktrees/name".
func readGitdirFile(gitFile, root string) (string, error) {
	content, err := os.ReadFile(gitFile)
	if err != nil {
		return "", fmt.Errorf("read .git file: %w", err)
	}

	line, _, _ := strings.Cut(string(content), "\n")
	line = strings.TrimSpace(line)
	gitdir, ok := strings.CutPrefix(line, "gitdir: ")
	if !ok || gitdir == "" {
		return "", fmt.Errorf("%w: invalid .git file format in %s", ErrNotRepository, root)
	}
	if !filepath.IsAbs(gitdir) {
		gitdir = filepath.Join(root, gitdir)
	}
	return filepath.Clean(gitdir), nil
}

// readCommonDir returns the dir named by gitDir/commondir, or gitDir itself.
func readCommonDir(gitDir string) string {
	content, err := os.ReadFile(filepath.Join(gitDir, "commondir"))
	if err != nil {
		return gitDir
	}
	dir := strings.TrimSpace(string(content))
	if dir == "" {
		return gitDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(gitDir, dir)
	}
	return filepath.Clean(dir)
}

// Root returns the work tree root.
func (f *Files) Root() string { return f.root }

// GitDir returns the per-worktree git dir.
func (f *Files) GitDir() string { return f.gitDir }

// CommonDir returns the dir holding refs and config.
func (f *Files) CommonDir() string { return f.commonDir }

func (f *Files) head() string { return filepath.Join(f.gitDir, "HEAD") }
func (f *Files) mergeHead() string { return filepath.Join(f.gitDir, "MERGE_HEAD") }
func (f *Files) rebaseApplyDir() string { return filepath.Join(f.gitDir, "rebase-apply") }
func (f *Files) rebaseMergeDir() string { return filepath.Join(f.gitDir, "rebase-merge") }
func (f *Files) packedRefs() string { return filepath.Join(f.commonDir, "packed-refs") }
func (f *Files) refsHeads() string { return filepath.Join(f.commonDir, "refs", "heads") }
func (f *Files) refsRemotes() string { return filepath.Join(f.commonDir, "refs", "remotes") }
func (f *Files) config() string { return filepath.Join(f.commonDir, "config") }

// WatchDirs returns the directories whose entries decide a state snapshot:
// the git dir, the common dir, and every directory under refs/.
func (f *Files) WatchDirs() []string {
	dirs := []string{f.gitDir}
	if f.commonDir != f.gitDir {
		dirs = append(dirs, f.commonDir)
	}
	_ = filepath.WalkDir(filepath.Join(f.commonDir, "refs"), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs
}
