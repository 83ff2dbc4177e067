package repo

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// Remote is a remote section of .git/config.
// Placeholder is set for remotes that only exist as refs/remotes/<name>/...
// with no config section, e.g. after `git remote rm` left stale refs.
type Remote struct {
	Name        string
	URLs        []string
	Fetch       []string
	Placeholder bool
}

// TrackInfo pairs a local branch with its configured upstream.
type TrackInfo struct {
	Local  Branch
	Remote Branch
}

// repoConfig is the part of .git/config the reader cares about.
type repoConfig struct {
	remotes  []Remote
	tracking []TrackInfo
}

// readConfig parses remotes and branch tracking from .git/config.
// A missing file yields an empty config.
func readConfig(path string) (repoConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return repoConfig{}, nil
		}
		return repoConfig{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := gitconfig.ReadConfig(f)
	if err != nil {
		return repoConfig{}, fmt.Errorf("parse config: %w", err)
	}

	var rc repoConfig
	for _, name := range sortedKeys(cfg.Remotes) {
		r := cfg.Remotes[name]
		remote := Remote{Name: name, URLs: slices.Clone(r.URLs)}
		for _, spec := range r.Fetch {
			remote.Fetch = append(remote.Fetch, spec.String())
		}
		rc.remotes = append(rc.remotes, remote)
	}

	for _, name := range sortedKeys(cfg.Branches) {
		b := cfg.Branches[name]
		// "." tracks a local branch; no remote side to report.
		if b.Remote == "" || b.Remote == "." || b.Merge == "" {
			continue
		}
		rc.tracking = append(rc.tracking, TrackInfo{
			Local:  NewLocalBranch(name),
			Remote: trackedBranch(cfg.Remotes[b.Remote], b.Remote, b.Merge),
		})
	}
	return rc, nil
}

// trackedBranch maps branch.<name>.merge through the remote's fetch refspecs
// to the remote-tracking ref that mirrors it.
func trackedBranch(remote *gitconfig.RemoteConfig, remoteName string, merge plumbing.ReferenceName) Branch {
	if remote != nil {
		for _, spec := range remote.Fetch {
			if spec.Validate() != nil || !spec.Match(merge) {
				continue
			}
			dst := spec.Dst(merge).String()
			if nameAtRemote, ok := strings.CutPrefix(dst, RefsRemotesPrefix+remoteName+"/"); ok {
				return NewRemoteBranch(remoteName, nameAtRemote)
			}
		}
	}
	return NewRemoteBranch(remoteName, merge.Short())
}

// parseRemoteBranch builds a branch for a ref under refs/remotes/.
//
// Remote names may themselves contain slashes, so successively longer
// prefixes are tried against the configured remotes. With no match a
// placeholder remote named after the longest prefix tried is returned.
func parseRemoteBranch(fullName string, remotes []Remote) (Branch, *Remote) {
	name := strings.TrimPrefix(fullName, RefsRemotesPrefix)
	slash := strings.IndexByte(name, '/')
	if slash == -1 {
		return newSvnRemoteBranch(fullName), nil
	}

	i := slash
	for {
		if findRemote(remotes, name[:i]) != nil {
			return NewRemoteBranch(name[:i], name[i+1:]), nil
		}
		next := strings.IndexByte(name[i+1:], '/')
		if next == -1 {
			break
		}
		i += next + 1
	}

	// i is the last slash tried, so the placeholder takes the longest prefix.
	remoteName := name[:i]
	return NewRemoteBranch(remoteName, name[i+1:]), &Remote{Name: remoteName, Placeholder: true}
}

func findRemote(remotes []Remote, name string) *Remote {
	for i := range remotes {
		if remotes[i].Name == name {
			return &remotes[i]
		}
	}
	return nil
}
