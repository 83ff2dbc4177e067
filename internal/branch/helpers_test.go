package branch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raphi011/brancher/internal/cmd"
	"github.com/raphi011/brancher/internal/git"
	"github.com/raphi011/brancher/internal/repo"
)

const (
	hashA = "1111111111111111111111111111111111111111"
	hashB = "2222222222222222222222222222222222222222"
	hashC = "3333333333333333333333333333333333333333"

	stashPush = "stash push --include-untracked -m brancher autostash"

	trackingConfig = `[remote "origin"]
	url = https://example.com/r.git
	fetch = +refs/heads/*:refs/remotes/origin/*
[branch "feature"]
	remote = origin
	merge = refs/heads/feature
`
)

// reply is one scripted git invocation result.
type reply struct {
	exit   int
	stdout []string
	stderr []string
	err    error
}

// fakeRunner answers git invocations from a script keyed by directory and
// arguments. Unscripted commands succeed silently. A queue of replies is
// consumed in order; its last reply repeats.
type fakeRunner struct {
	mu      sync.Mutex
	replies map[string][]reply
	calls   []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{replies: make(map[string][]reply)}
}

func callKey(dir string, args ...string) string {
	return dir + ": " + strings.Join(args, " ")
}

func (f *fakeRunner) on(r repo.Ref, args string, replies ...reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := callKey(r.Path, args)
	f.replies[k] = append(f.replies[k], replies...)
}

func (f *fakeRunner) Run(_ context.Context, dir string, args ...string) (git.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := callKey(dir, args...)
	f.calls = append(f.calls, k)

	q := f.replies[k]
	if len(q) == 0 {
		return git.Result{Args: args}, nil
	}
	r := q[0]
	if len(q) > 1 {
		f.replies[k] = q[1:]
	}

	var lines []cmd.Line
	for _, s := range r.stdout {
		lines = append(lines, cmd.Line{Stream: cmd.Stdout, Text: s})
	}
	for _, s := range r.stderr {
		lines = append(lines, cmd.Line{Stream: cmd.Stderr, Text: s})
	}
	return git.Result{Args: args, Lines: lines, ExitCode: r.exit}, r.err
}

// callsIn returns the argument strings of every command run in r, in order.
func (f *fakeRunner) callsIn(r repo.Ref) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := r.Path + ": "
	var out []string
	for _, c := range f.calls {
		if rest, ok := strings.CutPrefix(c, prefix); ok {
			out = append(out, rest)
		}
	}
	return out
}

// fakePrompter answers with fixed decisions and records what it was asked.
type fakePrompter struct {
	decision  Decision
	rollback  bool
	approve   bool
	situation []Situation
	proposals []RollbackProposal
	deletes   []string
}

func (p *fakePrompter) Decide(_ context.Context, s Situation) (Decision, error) {
	p.situation = append(p.situation, s)
	return p.decision, nil
}

func (p *fakePrompter) ConfirmRollback(_ context.Context, rp RollbackProposal) (bool, error) {
	p.proposals = append(p.proposals, rp)
	return p.rollback, nil
}

func (p *fakePrompter) ConfirmDelete(_ context.Context, branch string, _ []repo.Ref) (bool, error) {
	p.deletes = append(p.deletes, branch)
	return p.approve, nil
}

// makeRepo writes a minimal .git with HEAD on head and the given local
// branches (name to hash). config may be empty.
func makeRepo(t *testing.T, name, head string, branches map[string]string, config string) repo.Ref {
	t.Helper()
	root := filepath.Join(t.TempDir(), name)
	files := map[string]string{
		"HEAD": "ref: refs/heads/" + head + "\n",
	}
	if strings.HasPrefix(head, "detached:") {
		files["HEAD"] = strings.TrimPrefix(head, "detached:") + "\n"
	}
	for b, h := range branches {
		files["refs/heads/"+b] = h + "\n"
	}
	if config != "" {
		files["config"] = config
	}
	for rel, content := range files {
		path := filepath.Join(root, ".git", filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return repo.Ref{Name: name, Path: root}
}

func statuses(res *Result) map[string]Status {
	m := make(map[string]Status)
	for _, rr := range res.Repos {
		m[rr.Repo.Name] = rr.Status
	}
	return m
}

func localChangesReply(op string, files ...string) reply {
	lines := []string{"error: Your local changes to the following files would be overwritten by " + op + ":"}
	for _, f := range files {
		lines = append(lines, "\t"+f)
	}
	lines = append(lines, "Please commit your changes or stash them before you "+op+".", "Aborting")
	return reply{exit: 1, stderr: lines}
}
