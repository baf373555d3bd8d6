package filesystem

import (
	"context"
	"iter"

	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// Source lists and watches documents on the local filesystem.
type Source struct {
	opts []WatcherOption
}

// NewSource creates a filesystem source. Options apply to every Watch call.
func NewSource(opts ...WatcherOption) *Source {
	return &Source{opts: opts}
}

// Walk lazily yields supported files under root. See Walk.
func (s *Source) Walk(ctx context.Context, root string, supports func(path string) bool) iter.Seq2[string, error] {
	return Walk(ctx, root, supports)
}

// Watch blocks, delivering debounced batches to handler until ctx is cancelled.
func (s *Source) Watch(ctx context.Context, root string, supports func(path string) bool, handler driven.BatchHandler) error {
	w, err := NewWatcher(root, supports, handler, s.opts...)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
