package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// Ensure NotificationLog implements the interface.
var _ driven.NotificationLog = (*NotificationLog)(nil)

// NotificationLog is an in-memory implementation of driven.NotificationLog.
type NotificationLog struct {
	mu     sync.RWMutex
	events []domain.NotificationEvent
}

// NewNotificationLog creates an empty log.
func NewNotificationLog() *NotificationLog {
	return &NotificationLog{}
}

// Append adds an event at the end of the log.
func (l *NotificationLog) Append(_ context.Context, event domain.NotificationEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

// List returns events in append order.
func (l *NotificationLog) List(_ context.Context) ([]domain.NotificationEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make([]domain.NotificationEvent, len(l.events))
	copy(result, l.events)
	return result, nil
}

// Acknowledge marks an event as acknowledged.
func (l *NotificationLog) Acknowledge(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.events {
		if l.events[i].ID == id {
			l.events[i].Acknowledged = true
			return nil
		}
	}
	return domain.ErrNotFound
}
