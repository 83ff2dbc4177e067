package repo

import (
	"runtime"
	"strings"
)

const (
	RefsHeadsPrefix   = "refs/heads/"
	RefsRemotesPrefix = "refs/remotes/"
	refsTagsPrefix    = "refs/tags/"

	// originHead is the remote HEAD pointer, which is not a branch.
	originHead = RefsRemotesPrefix + "origin/HEAD"
)

// Kind distinguishes the branch variants.
type Kind int

const (
	Local Kind = iota
	StandardRemote
	SvnRemote
)

func (k Kind) String() string {
	switch k {
	case Local:
		return "local"
	case StandardRemote:
		return "remote"
	case SvnRemote:
		return "svn"
	default:
		return "unknown"
	}
}

// Branch is a local or remote-tracking branch.
//
// Name is the short form ("feature", "origin/feature"), FullName the ref
// ("refs/heads/feature", "refs/remotes/origin/feature"). Remote and
// NameAtRemote are only set for StandardRemote.
type Branch struct {
	Kind         Kind
	Name         string
	FullName     string
	Remote       string
	NameAtRemote string
}

// NewLocalBranch creates a local branch from a short or full name.
func NewLocalBranch(name string) Branch {
	short := StripRefsPrefix(name)
	return Branch{Kind: Local, Name: short, FullName: RefsHeadsPrefix + short}
}

// NewRemoteBranch creates a branch tracked from a configured remote.
func NewRemoteBranch(remote, nameAtRemote string) Branch {
	nameAtRemote = StripRefsPrefix(nameAtRemote)
	return Branch{
		Kind:         StandardRemote,
		Name:         remote + "/" + nameAtRemote,
		FullName:     RefsRemotesPrefix + remote + "/" + nameAtRemote,
		Remote:       remote,
		NameAtRemote: nameAtRemote,
	}
}

// newSvnRemoteBranch creates a git-svn style remote ref: refs/remotes/<name>.
func newSvnRemoteBranch(fullName string) Branch {
	return Branch{Kind: SvnRemote, Name: StripRefsPrefix(fullName), FullName: fullName}
}

// IsRemote reports whether b is any kind of remote-tracking branch.
func (b Branch) IsRemote() bool {
	return b.Kind != Local
}

func (b Branch) String() string {
	return b.FullName
}

// StripRefsPrefix removes refs/heads/, refs/remotes/ or refs/tags/ from name.
func StripRefsPrefix(name string) string {
	for _, p := range []string{RefsHeadsPrefix, RefsRemotesPrefix, refsTagsPrefix} {
		if strings.HasPrefix(name, p) {
			return name[len(p):]
		}
	}
	return name
}

// caseSensitiveFS reports whether ref files live on a case sensitive
// filesystem, which decides whether "Main" and "main" are the same ref.
var caseSensitiveFS = runtime.GOOS != "darwin" && runtime.GOOS != "windows"

// RefNamesEqual compares two ref names the way the host filesystem would.
func RefNamesEqual(a, b string) bool {
	if caseSensitiveFS {
		return a == b
	}
	return strings.EqualFold(a, b)
}
