// Package registry manages the named repositories brancher operates on,
// stored in ~/.brancher/repos.json.
//
// Registration order matters: multi-repository operations process their
// targets in the order they were registered.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/raphi011/brancher/internal/repo"
	"github.com/raphi011/brancher/internal/storage"
)

// ErrNotFound indicates no registered repo matches a name or path.
var ErrNotFound = errors.New("repo not found")

// Repo is a registered git repository.
type Repo struct {
	Path   string   `json:"path"`             // Absolute path to the work tree
	Name   string   `json:"name"`             // Display name
	Labels []string `json:"labels,omitempty"` // Labels for grouping
}

// Registry holds all registered repos.
type Registry struct {
	Repos []Repo `json:"repos"`
}

const fileName = "repos.json"

// Load reads the registry from the state directory.
// Returns an empty registry if the file doesn't exist.
func Load() (*Registry, error) {
	path, err := storage.Path(fileName)
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the registry stored at path.
func LoadFrom(path string) (*Registry, error) {
	reg := &Registry{Repos: []Repo{}}
	if err := storage.LoadJSON(path, reg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return reg, nil
}

// Update applies fn to the registry in the state directory and saves it.
// Concurrent brancher processes are serialized; an error from fn leaves
// the file untouched.
func Update(fn func(*Registry) error) error {
	path, err := storage.Path(fileName)
	if err != nil {
		return err
	}
	return UpdateAt(path, fn)
}

// UpdateAt is Update for the registry stored at path.
func UpdateAt(path string, fn func(*Registry) error) error {
	reg := &Registry{}
	return storage.UpdateJSON(path, reg, func() error {
		if reg.Repos == nil {
			reg.Repos = []Repo{}
		}
		return fn(reg)
	})
}

// Add registers a repo. The name defaults to the directory name.
// Fails if the path or name is already registered.
func (r *Registry) Add(rp Repo) error {
	absPath, err := filepath.Abs(rp.Path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	rp.Path = absPath
	if rp.Name == "" {
		rp.Name = filepath.Base(absPath)
	}

	for _, existing := range r.Repos {
		if existing.Path == rp.Path {
			return fmt.Errorf("repo already registered: %s", rp.Path)
		}
		if existing.Name == rp.Name {
			return fmt.Errorf("repo name already exists: %s (use a different name)", rp.Name)
		}
	}

	slices.Sort(rp.Labels)
	r.Repos = append(r.Repos, rp)
	return nil
}

// Remove unregisters a repo by name or path.
func (r *Registry) Remove(nameOrPath string) error {
	for i, rp := range r.Repos {
		if rp.Name == nameOrPath || rp.Path == nameOrPath {
			r.Repos = slices.Delete(r.Repos, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, nameOrPath)
}

// Find looks up a repo by name, then by path.
func (r *Registry) Find(ref string) (*Repo, error) {
	for i := range r.Repos {
		if r.Repos[i].Name == ref {
			return &r.Repos[i], nil
		}
	}
	if abs, err := filepath.Abs(ref); err == nil {
		for i := range r.Repos {
			if r.Repos[i].Path == abs {
				return &r.Repos[i], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// FindContaining returns the repo whose work tree contains path.
func (r *Registry) FindContaining(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	var best *Repo
	for i := range r.Repos {
		p := r.Repos[i].Path
		if abs == p || strings.HasPrefix(abs, p+string(filepath.Separator)) {
			if best == nil || len(p) > len(best.Path) {
				best = &r.Repos[i]
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no registered repo contains %s", ErrNotFound, path)
	}
	return best, nil
}

// Select returns the repos named in names plus those carrying any of
// labels, in registration order and without duplicates. With neither
// names nor labels every repo is selected.
func (r *Registry) Select(names, labels []string) ([]Repo, error) {
	if len(names) == 0 && len(labels) == 0 {
		return slices.Clone(r.Repos), nil
	}

	want := make(map[string]bool)
	for _, n := range names {
		rp, err := r.Find(n)
		if err != nil {
			return nil, err
		}
		want[rp.Path] = true
	}

	var selected []Repo
	for _, rp := range r.Repos {
		if want[rp.Path] || rp.MatchesLabels(labels) {
			selected = append(selected, rp)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: no repo has labels %s", ErrNotFound, strings.Join(labels, ", "))
	}
	return selected, nil
}

// AllLabels returns all unique labels across all repos, sorted.
func (r *Registry) AllLabels() []string {
	var labels []string
	for _, rp := range r.Repos {
		labels = append(labels, rp.Labels...)
	}
	slices.Sort(labels)
	return slices.Compact(labels)
}

// AllRepoNames returns all repo names, sorted.
func (r *Registry) AllRepoNames() []string {
	names := make([]string, len(r.Repos))
	for i, rp := range r.Repos {
		names[i] = rp.Name
	}
	slices.Sort(names)
	return names
}

// AddLabel adds a label to a repo.
func (r *Registry) AddLabel(repoName, label string) error {
	rp, err := r.Find(repoName)
	if err != nil {
		return err
	}
	if rp.HasLabel(label) {
		return nil
	}
	rp.Labels = append(rp.Labels, label)
	slices.Sort(rp.Labels)
	return nil
}

// RemoveLabel removes a label from a repo. A missing label is not an error.
func (r *Registry) RemoveLabel(repoName, label string) error {
	rp, err := r.Find(repoName)
	if err != nil {
		return err
	}
	rp.Labels = slices.DeleteFunc(rp.Labels, func(l string) bool { return l == label })
	return nil
}

// Refs converts repos to loader references.
func Refs(repos []Repo) []repo.Ref {
	refs := make([]repo.Ref, len(repos))
	for i, rp := range repos {
		refs[i] = repo.Ref{Name: rp.Name, Path: rp.Path}
	}
	return refs
}

// HasLabel checks if a repo has a specific label.
func (rp *Repo) HasLabel(label string) bool {
	return slices.Contains(rp.Labels, label)
}

// MatchesLabels checks if repo has any of the given labels.
func (rp *Repo) MatchesLabels(labels []string) bool {
	return slices.ContainsFunc(labels, rp.HasLabel)
}

// String returns a display string for the repo.
func (rp *Repo) String() string {
	if len(rp.Labels) > 0 {
		return fmt.Sprintf("%s (%s)", rp.Name, strings.Join(rp.Labels, ", "))
	}
	return rp.Name
}
