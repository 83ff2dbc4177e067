package repo

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/raphi011/brancher/internal/log"
)

// BranchState is an immutable point-in-time snapshot of a repository's
// branches. It is built fresh on every read and never updated in place.
type BranchState struct {
	root            string
	currentRevision Hash
	currentBranch   *Branch
	state           State
	local           map[Branch]Hash
	remote          map[Branch]Hash
	remotes         []Remote
	tracking        []TrackInfo
	anomalies       []Anomaly
}

// Root returns the work tree root the snapshot was read from.
func (s BranchState) Root() string { return s.root }

// State returns the repository state.
func (s BranchState) State() State { return s.state }

// CurrentRevision returns the hash HEAD resolves to. It is empty for a
// repository without commits or when HEAD names an unknown branch.
func (s BranchState) CurrentRevision() Hash { return s.currentRevision }

// CurrentBranch returns the checked out branch, if any.
func (s BranchState) CurrentBranch() (Branch, bool) {
	if s.currentBranch == nil {
		return Branch{}, false
	}
	return *s.currentBranch, true
}

// LocalBranches returns a copy of the local branch to hash map.
func (s BranchState) LocalBranches() map[Branch]Hash { return maps.Clone(s.local) }

// RemoteBranches returns a copy of the remote branch to hash map.
func (s BranchState) RemoteBranches() map[Branch]Hash { return maps.Clone(s.remote) }

// Remotes returns the configured remotes followed by any placeholders.
func (s BranchState) Remotes() []Remote { return slices.Clone(s.remotes) }

// Tracking returns the configured upstream of every local branch that has one.
func (s BranchState) Tracking() []TrackInfo { return slices.Clone(s.tracking) }

// Anomalies returns the inconsistencies dropped while reading.
func (s BranchState) Anomalies() []Anomaly { return slices.Clone(s.anomalies) }

// Hash returns the hash of a local or remote branch.
func (s BranchState) Hash(b Branch) (Hash, bool) {
	if b.IsRemote() {
		h, ok := s.remote[b]
		return h, ok
	}
	h, ok := s.local[b]
	return h, ok
}

// FindLocalBranch looks up a local branch by short or full name.
func (s BranchState) FindLocalBranch(name string) (Branch, bool) {
	return findBranch(s.local, NewLocalBranch(name).FullName)
}

// FindRemoteBranch looks up a remote branch by short ("origin/x") or full name.
func (s BranchState) FindRemoteBranch(name string) (Branch, bool) {
	if !strings.HasPrefix(name, RefsRemotesPrefix) {
		name = RefsRemotesPrefix + name
	}
	return findBranch(s.remote, name)
}

// TrackInfo returns the upstream configured for a local branch.
func (s BranchState) TrackInfo(local Branch) (TrackInfo, bool) {
	for _, t := range s.tracking {
		if RefNamesEqual(t.Local.FullName, local.FullName) {
			return t, true
		}
	}
	return TrackInfo{}, false
}

// IsFresh reports whether the repository has no commits yet.
func (s BranchState) IsFresh() bool {
	return len(s.local) == 0 && s.currentRevision.IsZero()
}

// SortedLocalBranches returns local branches ordered by name.
func (s BranchState) SortedLocalBranches() []Branch {
	return sortedBranches(s.local)
}

// SortedRemoteBranches returns remote branches ordered by name.
func (s BranchState) SortedRemoteBranches() []Branch {
	return sortedBranches(s.remote)
}

func sortedBranches(m map[Branch]Hash) []Branch {
	branches := slices.Collect(maps.Keys(m))
	slices.SortFunc(branches, func(a, b Branch) int { return strings.Compare(a.FullName, b.FullName) })
	return branches
}

func findBranch(m map[Branch]Hash, fullName string) (Branch, bool) {
	for b := range m {
		if RefNamesEqual(b.FullName, fullName) {
			return b, true
		}
	}
	return Branch{}, false
}

// Aggregate combines a parsed HEAD, the repository state and the resolved
// branches into a snapshot. It does no I/O.
//
// rebaseHead is the full ref recorded in the rebase dir's head-name, used as
// the current branch while a rebase has HEAD detached.
func Aggregate(head HeadInfo, state State, rebaseHead string, local, remote map[Branch]Hash) BranchState {
	s := BranchState{
		state:  state,
		local:  maps.Clone(local),
		remote: maps.Clone(remote),
	}
	if s.local == nil {
		s.local = map[Branch]Hash{}
	}
	if s.remote == nil {
		s.remote = map[Branch]Hash{}
	}

	switch {
	case !head.Valid():
	case !head.IsBranch:
		s.currentRevision = Hash(head.Content)
		if state == Rebasing && rebaseHead != "" {
			b := NewLocalBranch(rebaseHead)
			if known, ok := findBranch(local, b.FullName); ok {
				b = known
			}
			s.currentBranch = &b
		}
	default:
		if b, ok := findBranch(local, head.Content); ok {
			s.currentBranch = &b
			s.currentRevision = local[b]
			break
		}
		// Fresh repository, or HEAD names a branch that has no ref yet.
		b := NewLocalBranch(head.Content)
		s.currentBranch = &b
	}

	if s.currentBranch == nil && s.currentRevision.IsZero() {
		s.anomalies = append(s.anomalies, Anomaly{Kind: NoCurrentBranch, Detail: "HEAD: " + head.Content})
	}
	return s
}

// Reader reads branch state straight from .git metadata without running git.
// Files are read without locking, so a snapshot may catch a concurrent git
// process mid-write; such inconsistencies become anomalies.
type Reader struct {
	files *Files
}

// NewReader creates a reader for an opened repository.
func NewReader(f *Files) *Reader {
	return &Reader{files: f}
}

// Files returns the repository's metadata locations.
func (r *Reader) Files() *Files {
	return r.files
}

// ReadState reads a fresh snapshot. Anomalies are logged and kept on the
// snapshot; the only errors are cancellation and a vanished git dir.
func (r *Reader) ReadState(ctx context.Context) (BranchState, error) {
	if err := ctx.Err(); err != nil {
		return BranchState{}, err
	}
	if !isDir(r.files.gitDir) {
		return BranchState{}, fmt.Errorf("%w: %s", ErrNotRepository, r.files.root)
	}

	var anomalies []Anomaly

	head, a := readHead(r.files.head())
	if a != nil {
		anomalies = append(anomalies, *a)
	}

	data, a2 := readRefData(r.files)
	anomalies = append(anomalies, a2...)
	resolved, a2 := resolveRefs(data)
	anomalies = append(anomalies, a2...)

	cfg, err := readConfig(r.files.config())
	if err != nil {
		anomalies = append(anomalies, Anomaly{Kind: UnreadableFile, Detail: err.Error()})
	}
	remotes := cfg.remotes

	local := make(map[Branch]Hash)
	remote := make(map[Branch]Hash)
	for _, name := range sortedKeys(resolved) {
		h := resolved[name]
		switch {
		case strings.HasPrefix(name, RefsHeadsPrefix):
			local[NewLocalBranch(name)] = h
		case strings.HasPrefix(name, RefsRemotesPrefix):
			b, placeholder := parseRemoteBranch(name, remotes)
			if placeholder != nil && findRemote(remotes, placeholder.Name) == nil {
				remotes = append(remotes, *placeholder)
			}
			remote[b] = h
		default:
			anomalies = append(anomalies, Anomaly{Kind: UnexpectedRef, Refs: []string{name}})
		}
	}

	rebaseHead := ""
	state := classify(readMarkers(r.files), head)
	if state == Rebasing {
		rebaseHead = readRebaseHeadName(r.files)
	}

	s := Aggregate(head, state, rebaseHead, local, remote)
	s.root = r.files.root
	s.remotes = remotes
	s.tracking = cfg.tracking
	s.anomalies = append(anomalies, s.anomalies...)

	logAnomalies(ctx, s)
	return s, nil
}

func logAnomalies(ctx context.Context, s BranchState) {
	l := log.FromContext(ctx)
	for _, a := range s.anomalies {
		if a.Kind == NoCurrentBranch {
			l.Error("neither current branch nor revision could be read", "repo", s.root, "state", s.state)
			continue
		}
		l.Warn(a.Kind.String(), "repo", s.root, "detail", a.String())
	}
}

// Read opens the repository at path and reads one snapshot.
func Read(ctx context.Context, path string) (BranchState, error) {
	f, err := Open(path)
	if err != nil {
		return BranchState{}, err
	}
	return NewReader(f).ReadState(ctx)
}
