package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Repos []string `json:"repos"`
}

func TestDir(t *testing.T) {
	want := filepath.Join(t.TempDir(), "state")
	t.Setenv(HomeEnv, want)

	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, want, dir)
	assert.DirExists(t, dir)

	p, err := Path("repos.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(want, "repos.json"), p)
}

func TestSaveJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "repos.json")
	require.NoError(t, SaveJSON(path, doc{Repos: []string{"api"}}))
	require.NoError(t, SaveJSON(path, doc{Repos: []string{"api", "web"}}))

	var got doc
	require.NoError(t, LoadJSON(path, &got))
	assert.Equal(t, []string{"api", "web"}, got.Repos)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveJSON_EncodeError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.json")
	require.Error(t, SaveJSON(path, make(chan int)))
	assert.NoFileExists(t, path)
}

func TestLoadJSON_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var d doc
	assert.ErrorIs(t, LoadJSON(filepath.Join(dir, "missing.json"), &d), os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{nope"), 0o600))
	err := LoadJSON(bad, &d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode bad.json")
}

func TestUpdateJSON_Concurrent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.json")

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var d doc
			assert.NoError(t, UpdateJSON(path, &d, func() error {
				d.Repos = append(d.Repos, strconv.Itoa(i))
				return nil
			}))
		}()
	}
	wg.Wait()

	var got doc
	require.NoError(t, LoadJSON(path, &got))
	assert.Len(t, got.Repos, 8)
}

func TestUpdateJSON_ErrorSkipsSave(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.json")
	boom := errors.New("boom")
	var d doc
	assert.ErrorIs(t, UpdateJSON(path, &d, func() error { return boom }), boom)
	assert.NoFileExists(t, path)
}

func TestFileLock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.lock")
	held := NewFileLock(path)
	require.NoError(t, held.Acquire(context.Background()))

	t.Run("times out while held", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, NewFileLock(path).Acquire(ctx), context.DeadlineExceeded)
	})

	t.Run("acquires after release", func(t *testing.T) {
		go func() {
			time.Sleep(40 * time.Millisecond)
			held.Release()
		}()
		next := NewFileLock(path)
		require.NoError(t, next.Acquire(context.Background()))
		assert.NoError(t, next.Release())
		assert.NoError(t, next.Release())
	})
}

func TestFileLock_BadPath(t *testing.T) {
	t.Parallel()

	assert.Error(t, NewFileLock("/nonexistent-dir/x.lock").Acquire(context.Background()))
}
