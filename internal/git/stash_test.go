package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestStash_RoundTrip(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"README.md":   "# changed\n",   // tracked, modified
		"staged.txt":  "staged\n",      // added to the index
		"scratch.txt": "not tracked\n", // untracked
	}

	repoPath := setupTestRepo(t)
	ctx := context.Background()
	g := New(ExecRunner{})

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(repoPath, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := runGit(ctx, repoPath, "add", "staged.txt"); err != nil {
		t.Fatal(err)
	}

	stashed, err := g.Stash(ctx, repoPath)
	if err != nil || !stashed {
		t.Fatalf("Stash() = %v, %v; want an entry", stashed, err)
	}
	out, err := outputGit(ctx, repoPath, "status", "--porcelain")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("work tree not clean after stash:\n%s", out)
	}

	if err := g.StashPop(ctx, repoPath); err != nil {
		t.Fatalf("StashPop() = %v", err)
	}
	for name, want := range files {
		got, err := os.ReadFile(filepath.Join(repoPath, name))
		if err != nil || string(got) != want {
			t.Errorf("%s after pop = %q, %v; want %q", name, got, err, want)
		}
	}
}

func TestStash_CleanTree(t *testing.T) {
	t.Parallel()

	repoPath := setupTestRepo(t)
	ctx := context.Background()
	g := New(ExecRunner{})

	stashed, err := g.Stash(ctx, repoPath)
	if err != nil || stashed {
		t.Fatalf("Stash() on clean tree = %v, %v; want no entry", stashed, err)
	}
	if err := g.StashPop(ctx, repoPath); err == nil {
		t.Error("StashPop() without an entry should fail")
	}
}
