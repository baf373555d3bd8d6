package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
	"github.com/custodia-labs/guidekit/internal/logger"
)

// DefaultDebounce is the quiet period before a batch of file events is delivered.
const DefaultDebounce = 500 * time.Millisecond

// DefaultSettle is how long a file must stay unmodified before it is delivered.
const DefaultSettle = 2 * time.Second

// Watcher reports created or written supported files under a root directory.
// Events are collected until no new event arrives for the debounce window.
// A file is delivered only once its size and modification time have stopped
// changing and it has not been modified for the settle period; files still
// being copied stay queued. Files unsettled at shutdown are dropped and left
// to the next scan.
type Watcher struct {
	root     string
	supports func(path string) bool
	handler  driven.BatchHandler
	debounce time.Duration
	settle   time.Duration
	watcher  *fsnotify.Watcher
}

// fileState is the size and modification time of a queued file.
type fileState struct {
	size    int64
	modTime time.Time
}

func (s fileState) equal(o fileState) bool {
	return s.size == o.size && s.modTime.Equal(o.modTime)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the debounce window. Non-positive values keep the default.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithSettle sets how long a file must stay unmodified before delivery.
// Non-positive values keep the default.
func WithSettle(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// NewWatcher creates a watcher for root. Call Run to start watching.
func NewWatcher(root string, supports func(path string) bool, handler driven.BatchHandler, opts ...WatcherOption) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("watcher handler is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:     root,
		supports: supports,
		handler:  handler,
		debounce: DefaultDebounce,
		settle:   DefaultSettle,
		watcher:  fsw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is cancelled. Settled files are flushed before returning.
// The handler receives deduplicated paths in sorted order.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	logger.Debug("watching %s (debounce %s)", w.root, w.debounce)

	pending := make(map[string]fileState)
	var timer *time.Timer
	var timerC <-chan time.Time

	schedule := func(d time.Duration) {
		if timer == nil {
			timer = time.NewTimer(d)
			timerC = timer.C
		} else {
			timer.Reset(d)
		}
	}

	flush := func(final bool) {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
		ready, wait := w.settled(pending, time.Now())
		if final {
			for p := range pending {
				logger.Debug("dropping %s: still being written", p)
			}
			clear(pending)
		} else if len(pending) > 0 {
			schedule(wait)
		}
		if len(ready) > 0 {
			w.handler(ctx, ready)
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush(true)
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				flush(true)
				return nil
			}

			// New directories are watched too
			if event.Has(fsnotify.Create) && !w.hidden(event.Name) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						logger.Warn("watch %s: %v", event.Name, err)
					}
					continue
				}
			}

			path, state, ok := w.handleFsEvent(event)
			if !ok {
				continue
			}
			pending[path] = state
			schedule(w.debounce)

		case <-timerC:
			timer, timerC = nil, nil
			flush(false)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				flush(true)
				return nil
			}
			logger.Warn("watcher error: %v", err)
		}
	}
}

// handleFsEvent returns the path and current state of a created or written
// supported file. Removes, renames, chmods, directories and hidden files are ignored.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, fileState, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", fileState{}, false
	}
	if w.hidden(event.Name) {
		return "", fileState{}, false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", fileState{}, false
	}
	if w.supports != nil && !w.supports(event.Name) {
		return "", fileState{}, false
	}
	return event.Name, fileState{size: info.Size(), modTime: info.ModTime()}, true
}

// settled removes and returns, sorted, the queued files that are complete.
// A file is complete when its state matches the one last seen and it has not
// been modified for the settle period. Vanished files are dropped. Files still
// changing get their state refreshed; wait is how long until the earliest of
// them may be complete.
func (w *Watcher) settled(pending map[string]fileState, now time.Time) (ready []string, wait time.Duration) {
	wait = w.settle
	for path, seen := range pending {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			delete(pending, path)
			continue
		}
		cur := fileState{size: info.Size(), modTime: info.ModTime()}
		age := now.Sub(cur.modTime)
		if cur.equal(seen) && age >= w.settle {
			ready = append(ready, path)
			delete(pending, path)
			continue
		}

		pending[path] = cur
		remaining := w.settle - age
		if !cur.equal(seen) || remaining > w.settle {
			remaining = w.settle
		}
		wait = min(wait, max(remaining, w.debounce))
	}
	sort.Strings(ready)
	return ready, wait
}

func (w *Watcher) addRecursive(root string) error {
	for dir, err := range walkDirs(root) {
		if err != nil {
			logger.Debug("skip %s: %v", dir, err)
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return nil
}

// hidden checks path below the root, so a root inside a dot directory
// (such as ~/.guidekit/guidelines) is still watched.
func (w *Watcher) hidden(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return isHidden(path)
	}
	return isHidden(rel)
}
