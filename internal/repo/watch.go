package repo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/raphi011/brancher/internal/log"
)

// settleDelay coalesces the burst of events a single git command produces
// (lock file, rename, reflog) into one re-read.
const settleDelay = 50 * time.Millisecond

// stateFiles are the entries of the git dir whose change can alter a snapshot.
var stateFiles = map[string]bool{
	"HEAD":         true,
	"MERGE_HEAD":   true,
	"packed-refs":  true,
	"config":       true,
	"rebase-apply": true,
	"rebase-merge": true,
	"refs":         true,
}

// Watcher caches the latest snapshot of one repository and invalidates it
// on filesystem events. Any relevant event causes a full re-read; the cache
// is never patched.
type Watcher struct {
	mu sync.Mutex

	reader  *Reader
	read    func(context.Context) (BranchState, error)
	fsw     *fsnotify.Watcher
	watched map[string]bool

	cached *BranchState
	// gen counts invalidations; a read only fills the cache if none
	// happened while it ran.
	gen  uint64
	subs []chan BranchState

	closed  bool
	closeCh chan struct{}
	done    sync.WaitGroup
}

// NewWatcher starts watching the repository read by r. ctx carries the
// logger and bounds the background re-reads.
func NewWatcher(ctx context.Context, r *Reader) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		reader:  r,
		read:    r.ReadState,
		fsw:     fsw,
		watched: make(map[string]bool),
		closeCh: make(chan struct{}),
	}
	for _, dir := range r.files.WatchDirs() {
		if err := w.add(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	w.done.Add(1)
	go w.loop(ctx)
	return w, nil
}

func (w *Watcher) add(dir string) error {
	if w.watched[dir] {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return err
	}
	w.watched[dir] = true
	return nil
}

// State returns the cached snapshot, reading a fresh one if the cache was
// invalidated since the last call.
func (w *Watcher) State(ctx context.Context) (BranchState, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return BranchState{}, ErrWatcherClosed
	}
	if w.cached != nil {
		s := *w.cached
		w.mu.Unlock()
		return s, nil
	}
	gen := w.gen
	w.mu.Unlock()

	s, err := w.read(ctx)
	if err != nil {
		return BranchState{}, err
	}

	w.mu.Lock()
	if w.gen == gen {
		w.cached = &s
	}
	w.mu.Unlock()
	return s, nil
}

// Invalidate drops the cached snapshot.
func (w *Watcher) Invalidate() {
	w.mu.Lock()
	w.cached = nil
	w.gen++
	w.mu.Unlock()
}

// Subscribe returns a channel receiving a fresh snapshot after every change.
// A slow subscriber only ever sees the latest snapshot. The channel is
// closed by Close.
func (w *Watcher) Subscribe() <-chan BranchState {
	ch := make(chan BranchState, 1)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		close(ch)
		return ch
	}
	w.subs = append(w.subs, ch)
	return ch
}

// Close stops watching and closes subscriber channels.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.done.Wait()

	w.mu.Lock()
	for _, ch := range w.subs {
		close(ch)
	}
	w.subs = nil
	w.mu.Unlock()

	return w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.done.Done()

	timer := time.NewTimer(settleDelay)
	timer.Stop()

	for {
		select {
		case <-w.closeCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.Invalidate()
			timer.Reset(settleDelay)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.FromContext(ctx).Warn("watch error", "repo", w.reader.files.root, "err", err)
			w.Invalidate()

		case <-timer.C:
			w.publish(ctx)
		}
	}
}

// relevant reports whether ev can change a snapshot. New directories under
// refs/ are watched as they appear.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if strings.HasSuffix(ev.Name, ".lock") {
		return false
	}

	refsDir := filepath.Join(w.reader.files.commonDir, "refs")
	if ev.Name == refsDir || strings.HasPrefix(ev.Name, refsDir+string(filepath.Separator)) {
		if ev.Has(fsnotify.Create) {
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				w.mu.Lock()
				_ = w.add(ev.Name)
				w.mu.Unlock()
			}
		}
		return true
	}

	dir := filepath.Dir(ev.Name)
	if dir != w.reader.files.gitDir && dir != w.reader.files.commonDir {
		return false
	}
	return stateFiles[filepath.Base(ev.Name)]
}

func (w *Watcher) publish(ctx context.Context) {
	s, err := w.State(ctx)
	if err != nil {
		log.FromContext(ctx).Warn("re-read failed", "repo", w.reader.files.root, "err", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subs {
		// Replace an unread snapshot with the newer one.
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}
