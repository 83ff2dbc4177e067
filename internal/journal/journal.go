// Package journal records deleted branches so they can be restored later.
//
// Every successful branch deletion appends an entry with the tip the branch
// pointed at, its upstream and, if it was not fully merged, the commits that
// exist nowhere else. `brancher restore` recreates the branch from the entry.
package journal

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/raphi011/brancher/internal/storage"
)

// maxEntries bounds the journal; the oldest entries are dropped first.
const maxEntries = 500

// Entry is one deleted branch.
type Entry struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Repo     string    `json:"repo"`
	Branch   string    `json:"branch"`
	Tip      string    `json:"tip"`
	Tracking string    `json:"tracking,omitempty"`
	Base     string    `json:"base,omitempty"`
	Unmerged []string  `json:"unmerged,omitempty"`
}

type file struct {
	Entries []Entry `json:"entries"`
}

// Journal is the on-disk journal. All access is serialized through a file
// lock so concurrent brancher processes do not lose entries.
type Journal struct {
	path string
	now  func() time.Time
}

// Open returns the journal in the state directory.
func Open() (*Journal, error) {
	path, err := storage.Path("journal.json")
	if err != nil {
		return nil, err
	}
	return OpenAt(path), nil
}

// OpenAt returns the journal stored at path.
func OpenAt(path string) *Journal {
	return &Journal{path: path, now: time.Now}
}

// Record appends entries, assigning ID and Time where unset.
func (j *Journal) Record(entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	var f file
	err := storage.UpdateJSON(j.path, &f, func() error {
		now := j.now()
		for i := range entries {
			e := &entries[i]
			if e.Time.IsZero() {
				e.Time = now
			}
			if e.ID == "" {
				e.ID = strconv.FormatInt(now.UnixNano(), 36) + "-" + strconv.Itoa(i)
			}
		}
		f.Entries = append(f.Entries, entries...)
		if over := len(f.Entries) - maxEntries; over > 0 {
			f.Entries = f.Entries[over:]
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record journal: %w", err)
	}
	return nil
}

// List returns the entries for repoPath, or all entries when repoPath is
// empty, newest first.
func (j *Journal) List(repoPath string) ([]Entry, error) {
	// Writers replace the file atomically, so reads need no lock.
	var f file
	if err := storage.LoadJSON(j.path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read journal: %w", err)
	}

	var out []Entry
	for _, e := range f.Entries {
		if repoPath == "" || e.Repo == repoPath {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b Entry) int { return b.Time.Compare(a.Time) })
	return out, nil
}

// Find returns the newest entry for branch in repoPath.
func (j *Journal) Find(repoPath, branch string) (Entry, bool, error) {
	entries, err := j.List(repoPath)
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		if e.Branch == branch {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

// Remove deletes entries by ID. Unknown IDs are ignored.
func (j *Journal) Remove(ids ...string) error {
	var f file
	err := storage.UpdateJSON(j.path, &f, func() error {
		f.Entries = slices.DeleteFunc(f.Entries, func(e Entry) bool {
			return slices.Contains(ids, e.ID)
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("update journal: %w", err)
	}
	return nil
}
