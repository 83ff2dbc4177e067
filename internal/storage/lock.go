package storage

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"
)

const lockPollInterval = 20 * time.Millisecond

// FileLock is an exclusive flock(2) on a file shared by brancher processes.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock returns an unheld lock. The file is created on Acquire.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// Acquire polls for the lock until it is free or ctx is done.
func (l *FileLock) Acquire(ctx context.Context) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()
	for {
		err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		switch {
		case err == nil:
			l.file = f
			return nil
		case !errors.Is(err, syscall.EWOULDBLOCK):
			f.Close()
			return err
		}
		select {
		case <-ctx.Done():
			f.Close()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Release drops the lock. Releasing an unheld lock does nothing.
func (l *FileLock) Release() error {
	f := l.file
	if f == nil {
		return nil
	}
	l.file = nil
	unlockErr := syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	return errors.Join(unlockErr, f.Close())
}
