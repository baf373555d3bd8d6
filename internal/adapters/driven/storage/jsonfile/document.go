package jsonfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// document is one JSON file shared by every process that opens the data
// directory. Access is serialised across processes with an advisory lock on
// <file>.lock. Mutations always reload the file under the exclusive lock
// before applying a change, so a write from another process is never
// replaced by a stale copy.
type document[T any] struct {
	mu        sync.Mutex
	path      string
	lock      *flock.Flock
	normalize func(T) T

	value  T
	stamp  fileStamp
	loaded bool
}

// fileStamp identifies the on-disk version a cached value was read from.
// Every write renames a new file into place, so the file identity changes
// along with the modification time.
type fileStamp struct {
	info    os.FileInfo
	modTime time.Time
	size    int64
}

func (s fileStamp) same(o fileStamp) bool {
	if s.info == nil || o.info == nil {
		return s.info == nil && o.info == nil
	}
	return os.SameFile(s.info, o.info) && s.size == o.size && s.modTime.Equal(o.modTime)
}

// openDocument loads path once so a corrupt file is reported when the store opens.
// normalize replaces nil containers in a freshly decoded value.
func openDocument[T any](path string, normalize func(T) T) (*document[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating directory: %w", err)
	}
	d := &document[T]{
		path:      path,
		lock:      flock.New(path + ".lock"),
		normalize: normalize,
	}
	if err := d.view(func(T) error { return nil }); err != nil {
		return nil, err
	}
	return d, nil
}

// view calls fn with the current value under a shared lock. fn must copy
// anything it keeps.
func (d *document[T]) view(fn func(T) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.lock.RLock(); err != nil {
		return fmt.Errorf("locking %s: %w", filepath.Base(d.path), err)
	}
	defer d.lock.Unlock() //nolint:errcheck // released on close anyway

	if err := d.refresh(false); err != nil {
		return err
	}
	return fn(d.value)
}

// update reloads the file under an exclusive lock, calls fn and writes the
// value it returns. The cached value is discarded when fn or the write fails,
// since fn may have modified it in place.
func (d *document[T]) update(fn func(T) (T, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.lock.Lock(); err != nil {
		return fmt.Errorf("locking %s: %w", filepath.Base(d.path), err)
	}
	defer d.lock.Unlock() //nolint:errcheck // released on close anyway

	if err := d.refresh(true); err != nil {
		return err
	}
	next, err := fn(d.value)
	if err != nil {
		d.loaded = false
		return err
	}
	if err := writeJSON(d.path, next); err != nil {
		d.loaded = false
		return err
	}

	stamp, err := statFile(d.path)
	d.value = next
	d.stamp = stamp
	d.loaded = err == nil
	return nil
}

// refresh reloads the file when it changed since the last read, or always when force is set.
func (d *document[T]) refresh(force bool) error {
	stamp, err := statFile(d.path)
	if err != nil {
		return err
	}
	if d.loaded && !force && stamp.same(d.stamp) {
		return nil
	}

	var v T
	if stamp.info != nil {
		if err := readJSON(d.path, &v); err != nil {
			d.loaded = false
			return err
		}
	}
	d.value = d.normalize(v)
	d.stamp = stamp
	d.loaded = true
	return nil
}

func statFile(path string) (fileStamp, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fileStamp{}, nil
	}
	if err != nil {
		return fileStamp{}, fmt.Errorf("checking %s: %w", filepath.Base(path), err)
	}
	return fileStamp{info: info, modTime: info.ModTime(), size: info.Size()}, nil
}
