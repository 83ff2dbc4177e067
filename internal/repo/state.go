package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// State is the repository state derived from marker files and HEAD.
type State int

const (
	Normal State = iota
	Merging
	Rebasing
	Detached
)

func (s State) String() string {
	switch s {
	case Normal:
		return "NORMAL"
	case Merging:
		return "MERGING"
	case Rebasing:
		return "REBASING"
	case Detached:
		return "DETACHED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Normal, Merging, Rebasing, Detached} {
		if strings.EqualFold(string(text), st.String()) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown repository state %q", text)
}

// markers records which state marker files exist.
type markers struct {
	mergeHead   bool
	rebaseApply bool
	rebaseMerge bool
}

func readMarkers(f *Files) markers {
	return markers{
		mergeHead:   exists(f.mergeHead()),
		rebaseApply: isDir(f.rebaseApplyDir()),
		rebaseMerge: isDir(f.rebaseMergeDir()),
	}
}

// classify applies the precedence MERGING > REBASING > DETACHED > NORMAL.
func classify(m markers, head HeadInfo) State {
	switch {
	case m.mergeHead:
		return Merging
	case m.rebaseApply || m.rebaseMerge:
		return Rebasing
	case head.Valid() && !head.IsBranch:
		return Detached
	default:
		return Normal
	}
}

// readRebaseHeadName returns the branch being rebased as a full ref name,
// or "" when neither rebase dir records one.
func readRebaseHeadName(f *Files) string {
	for _, dir := range []string{f.rebaseApplyDir(), f.rebaseMergeDir()} {
		content, err := os.ReadFile(filepath.Join(dir, "head-name"))
		if err != nil {
			continue
		}
		name := strings.TrimSpace(string(content))
		if name == "" || name == "detached HEAD" {
			continue
		}
		if !strings.HasPrefix(name, RefsHeadsPrefix) {
			name = RefsHeadsPrefix + name
		}
		return name
	}
	return ""
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
