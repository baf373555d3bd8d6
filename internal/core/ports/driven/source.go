package driven

import (
	"context"
	"iter"
)

// BatchHandler receives the paths of one debounced batch of file events.
type BatchHandler func(ctx context.Context, paths []string)

// DocumentSource lists and watches candidate document files.
type DocumentSource interface {
	// Walk lazily yields files under root accepted by supports.
	// Per-file errors are yielded and the walk continues.
	// Ranging over the sequence again restarts the walk.
	Walk(ctx context.Context, root string, supports func(path string) bool) iter.Seq2[string, error]

	// Watch reports created or written files under root accepted by supports,
	// in debounced batches, until ctx is cancelled.
	Watch(ctx context.Context, root string, supports func(path string) bool, handler BatchHandler) error
}
