// Package storage keeps brancher's JSON state files in ~/.brancher/.
// Writes replace files atomically; read-modify-write cycles are serialized
// between processes with a lock file.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HomeEnv overrides the state directory.
const HomeEnv = "BRANCHER_HOME"

// lockTimeout bounds how long UpdateJSON waits for another process.
const lockTimeout = 10 * time.Second

// Dir returns the state directory, creating it if needed.
func Dir() (string, error) {
	dir := os.Getenv(HomeEnv)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".brancher")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return dir, nil
}

// Path returns the location of a state file.
func Path(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// LoadJSON decodes path into dest. A missing file yields an error
// satisfying errors.Is(err, os.ErrNotExist).
func LoadJSON(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SaveJSON writes v to a temporary file next to path and renames it into
// place, so readers see either the old or the new document.
func SaveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// UpdateJSON loads path into dest, runs fn and saves dest, holding the lock
// on path+".lock" throughout. A missing file leaves dest as is. An error
// from fn skips the save.
func UpdateJSON(path string, dest any, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	lock := NewFileLock(path + ".lock")
	if err := lock.Acquire(ctx); err != nil {
		return fmt.Errorf("lock %s: %w", filepath.Base(path), err)
	}
	defer lock.Release()

	if err := LoadJSON(path, dest); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return SaveJSON(path, dest)
}
