package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// AnomalyKind classifies a parse anomaly.
type AnomalyKind int

const (
	MalformedLine AnomalyKind = iota
	DuplicateRef
	DanglingRef
	CyclicRefs
	UnexpectedValue
	UnexpectedRef
	InvalidHead
	NoCurrentBranch
	UnreadableFile
)

func (k AnomalyKind) String() string {
	switch k {
	case MalformedLine:
		return "malformed line"
	case DuplicateRef:
		return "duplicate ref"
	case DanglingRef:
		return "unresolved symbolic ref"
	case CyclicRefs:
		return "cyclic symbolic refs"
	case UnexpectedValue:
		return "unexpected ref value"
	case UnexpectedRef:
		return "unexpected ref name"
	case InvalidHead:
		return "invalid HEAD"
	case NoCurrentBranch:
		return "no current branch or revision"
	case UnreadableFile:
		return "unreadable file"
	default:
		return "unknown"
	}
}

// Anomaly is a non-fatal inconsistency found while reading .git metadata.
// The offending entry is dropped and reading continues, since the files may
// be caught mid-write by a concurrent git process.
type Anomaly struct {
	Kind   AnomalyKind
	Refs   []string
	Detail string
}

func (a Anomaly) String() string {
	s := a.Kind.String()
	if len(a.Refs) > 0 {
		s += " [" + strings.Join(a.Refs, ", ") + "]"
	}
	if a.Detail != "" {
		s += ": " + a.Detail
	}
	return s
}

// symrefPattern matches the content of a symbolic ref ("ref: refs/heads/x")
// and, leniently, a bare ref name.
var symrefPattern = regexp.MustCompile(`^ *(?:ref:)? */?((?:refs/heads/|refs/remotes/)?\S+)$`)

// symbolicTarget returns the ref a symbolic value points at. Targets outside
// refs/heads/ and refs/remotes/ are taken as local branch names.
func symbolicTarget(value string) (string, bool) {
	m := symrefPattern.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}
	target := m[1]
	if !strings.HasPrefix(target, RefsHeadsPrefix) && !strings.HasPrefix(target, RefsRemotesPrefix) {
		target = RefsHeadsPrefix + target
	}
	return target, true
}

// isBranchRef reports whether name is a local or remote branch ref.
func isBranchRef(name string) bool {
	return strings.HasPrefix(name, RefsHeadsPrefix) || strings.HasPrefix(name, RefsRemotesPrefix)
}

// parsePackedRefsLine parses "<hash> <refname>". Comments, peeled tag lines
// ("^<hash>") and refs other than branches yield ok=false without an anomaly.
func parsePackedRefsLine(line string) (name, value string, ok bool, anomaly *Anomaly) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' || line[0] == '^' {
		return "", "", false, nil
	}

	i := strings.IndexFunc(line, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if i == -1 {
		return "", "", false, &Anomaly{Kind: MalformedLine, Detail: line}
	}
	value = line[:i]

	rest := line[i:]
	if !strings.HasPrefix(rest, " ") {
		return "", "", false, nil
	}
	rest = rest[1:]
	if end := strings.IndexFunc(rest, unicode.IsSpace); end != -1 {
		rest = rest[:end]
	}
	if !isBranchRef(rest) {
		return "", "", false, nil
	}
	return rest, value, true, nil
}

// readPackedRefs parses packed-refs. A missing file is not an anomaly.
// The first entry for a ref wins.
func readPackedRefs(path string) (map[string]string, []Anomaly) {
	refs := make(map[string]string)
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return refs, nil
		}
		return refs, []Anomaly{{Kind: UnreadableFile, Detail: err.Error()}}
	}

	var anomalies []Anomaly
	for line := range strings.Lines(string(content)) {
		name, value, ok, anomaly := parsePackedRefsLine(line)
		if anomaly != nil {
			anomalies = append(anomalies, *anomaly)
		}
		if !ok {
			continue
		}
		if prev, dup := refs[name]; dup {
			anomalies = append(anomalies, Anomaly{
				Kind:   DuplicateRef,
				Refs:   []string{name},
				Detail: fmt.Sprintf("kept %s, dropped %s", prev, value),
			})
			continue
		}
		refs[name] = value
	}
	return refs, anomalies
}

// readLooseRefs reads every ref file below dir, naming each prefix+relative path.
// Hidden files and directories and names git would reject are skipped.
func readLooseRefs(dir, prefix string) (map[string]string, []Anomaly) {
	refs := make(map[string]string)
	var anomalies []Anomaly

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			anomalies = append(anomalies, Anomaly{Kind: UnreadableFile, Detail: err.Error()})
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		name := prefix + filepath.ToSlash(rel)
		if !validRefName(name) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			// Deleted between listing and reading.
			return nil
		}
		refs[name] = strings.TrimSpace(string(content))
		return nil
	})
	if err != nil {
		anomalies = append(anomalies, Anomaly{Kind: UnreadableFile, Detail: err.Error()})
	}
	return refs, anomalies
}

// validRefName applies git's check-ref-format rules.
func validRefName(name string) bool {
	if name == "" || name == "@" || strings.HasSuffix(name, "/") || strings.HasSuffix(name, ".") {
		return false
	}
	if strings.Contains(name, "..") || strings.Contains(name, "@{") || strings.Contains(name, "//") {
		return false
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(" ~^:?*[\\", r) {
			return false
		}
	}
	for part := range strings.SplitSeq(name, "/") {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".lock") {
			return false
		}
	}
	return true
}

// readRefData merges the three ref sources. Loose refs override packed ones.
// The remote HEAD pointer is dropped: it is not a branch.
func readRefData(f *Files) (map[string]string, []Anomaly) {
	data, anomalies := readPackedRefs(f.packedRefs())

	heads, a := readLooseRefs(f.refsHeads(), RefsHeadsPrefix)
	anomalies = append(anomalies, a...)
	remotes, a := readLooseRefs(f.refsRemotes(), RefsRemotesPrefix)
	anomalies = append(anomalies, a...)

	for name, value := range heads {
		data[name] = value
	}
	for name, value := range remotes {
		data[name] = value
	}
	delete(data, originHead)
	return data, anomalies
}

// resolveRefs turns ref values into hashes, following symbolic chains.
//
// Direct hashes resolve first; symbolic entries are then resolved by fixed
// point iteration until a pass makes no progress. Whatever is left is either
// dangling (the chain ends at an unknown ref, reported per ref) or caught in
// a cycle (all such refs reported in one anomaly).
func resolveRefs(data map[string]string) (map[string]Hash, []Anomaly) {
	resolved := make(map[string]Hash, len(data))
	links := make(map[string]string)
	var anomalies []Anomaly

	for _, name := range sortedKeys(data) {
		value := data[name]
		if h, ok := ParseHash(value); ok {
			resolved[name] = h
			continue
		}
		target, ok := symbolicTarget(value)
		if !ok {
			anomalies = append(anomalies, Anomaly{Kind: UnexpectedValue, Refs: []string{name}, Detail: value})
			continue
		}
		links[name] = target
	}

	for progressed := true; progressed && len(links) > 0; {
		progressed = false
		for name, target := range links {
			if h, ok := resolved[target]; ok {
				resolved[name] = h
				delete(links, name)
				progressed = true
			}
		}
	}

	if len(links) == 0 {
		return resolved, anomalies
	}

	var cyclic []string
	for _, name := range sortedKeys(links) {
		if missing, dangling := chainEnd(name, links); dangling {
			anomalies = append(anomalies, Anomaly{
				Kind:   DanglingRef,
				Refs:   []string{name},
				Detail: "target " + missing + " not found",
			})
			continue
		}
		cyclic = append(cyclic, name)
	}
	if len(cyclic) > 0 {
		anomalies = append(anomalies, Anomaly{Kind: CyclicRefs, Refs: cyclic})
	}
	return resolved, anomalies
}

// chainEnd follows the unresolved links from name. It returns the first
// target that is not itself an unresolved link, or dangling=false if the
// chain loops.
func chainEnd(name string, links map[string]string) (string, bool) {
	seen := map[string]bool{name: true}
	cur := name
	for {
		next, ok := links[cur]
		if !ok {
			return cur, true
		}
		if seen[next] {
			return "", false
		}
		seen[next] = true
		cur = next
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
