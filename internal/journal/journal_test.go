package journal

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j := OpenAt(filepath.Join(t.TempDir(), "state", "journal.json"))
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	j.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return j
}

func TestJournal_EmptyList(t *testing.T) {
	t.Parallel()

	entries, err := newTestJournal(t).List("")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJournal_RecordAndFind(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)
	require.NoError(t, j.Record(Entry{Repo: "/r1", Branch: "feature", Tip: "aaa", Tracking: "origin/feature"}))
	require.NoError(t, j.Record(
		Entry{Repo: "/r1", Branch: "feature", Tip: "bbb"},
		Entry{Repo: "/r2", Branch: "feature", Tip: "ccc", Base: "main", Unmerged: []string{"ccc wip"}},
	))

	all, err := j.List("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, e := range all {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Time.IsZero())
	}

	r1, err := j.List("/r1")
	require.NoError(t, err)
	require.Len(t, r1, 2)
	assert.Equal(t, "bbb", r1[0].Tip, "newest first")

	e, ok, err := j.Find("/r1", "feature")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bbb", e.Tip)

	e, ok, err = j.Find("/r2", "feature")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"ccc wip"}, e.Unmerged)
	assert.Equal(t, "main", e.Base)

	_, ok, err = j.Find("/r2", "other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJournal_Remove(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)
	require.NoError(t, j.Record(
		Entry{Repo: "/r", Branch: "a", Tip: "1"},
		Entry{Repo: "/r", Branch: "b", Tip: "2"},
	))

	a, ok, err := j.Find("/r", "a")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, j.Remove(a.ID, "unknown-id"))

	entries, err := j.List("/r")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].Branch)
}

func TestJournal_Bounded(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)
	batch := make([]Entry, maxEntries+10)
	for i := range batch {
		batch[i] = Entry{Repo: "/r", Branch: "b", Tip: string(rune('a' + i%26))}
	}
	require.NoError(t, j.Record(batch...))

	entries, err := j.List("")
	require.NoError(t, err)
	assert.Len(t, entries, maxEntries)
}

func TestJournal_ConcurrentRecord(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.json")

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Separate Journal values share only the file, like separate processes.
			err := OpenAt(path).Record(Entry{Repo: "/r", Branch: "b", Tip: string(rune('a' + i))})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := OpenAt(path).List("/r")
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}
