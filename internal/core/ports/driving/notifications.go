package driving

import (
	"context"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// NotificationService exposes the registry event log.
type NotificationService interface {
	// List returns events in append order.
	List(ctx context.Context, unacknowledgedOnly bool) ([]domain.NotificationEvent, error)

	// Acknowledge marks one event as acknowledged.
	Acknowledge(ctx context.Context, id string) error

	// AcknowledgeAll marks every event as acknowledged and returns how many changed.
	AcknowledgeAll(ctx context.Context) (int, error)
}
