package repo

import "errors"

// Error types for repository reads.
var (
	// ErrNotRepository indicates the path has no readable git dir.
	ErrNotRepository = errors.New("not a git repository")

	// ErrWatcherClosed indicates the watcher has been closed.
	ErrWatcherClosed = errors.New("watcher closed")
)
