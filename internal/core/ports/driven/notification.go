package driven

import (
	"context"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// NotificationLog is an append-only record of registry events.
type NotificationLog interface {
	// Append adds an event at the end of the log.
	Append(ctx context.Context, event domain.NotificationEvent) error

	// List returns events in append order.
	List(ctx context.Context) ([]domain.NotificationEvent, error)

	// Acknowledge marks an event as acknowledged.
	// Returns domain.ErrNotFound if the id is unknown.
	Acknowledge(ctx context.Context, id string) error
}
