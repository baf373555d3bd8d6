package driving

import "context"

// WatchService keeps the registry in step with a directory.
type WatchService interface {
	// Run registers documents already under root, then registers new ones
	// as they appear until ctx is cancelled.
	Run(ctx context.Context, root string) error
}
