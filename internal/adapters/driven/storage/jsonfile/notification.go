package jsonfile

import (
	"context"
	"path/filepath"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// NotificationFile is the notification log document name.
const NotificationFile = "notifications.json"

// Ensure NotificationLog implements the interface.
var _ driven.NotificationLog = (*NotificationLog)(nil)

type eventList = []domain.NotificationEvent

// NotificationLog persists events as an ordered JSON array.
type NotificationLog struct {
	doc *document[eventList]
}

// NewNotificationLog opens (or creates) the log in dataDir.
func NewNotificationLog(dataDir string) (*NotificationLog, error) {
	doc, err := openDocument(filepath.Join(dataDir, NotificationFile), func(e eventList) eventList { return e })
	if err != nil {
		return nil, err
	}
	return &NotificationLog{doc: doc}, nil
}

// Append adds an event at the end of the log.
func (l *NotificationLog) Append(_ context.Context, event domain.NotificationEvent) error {
	return l.doc.update(func(events eventList) (eventList, error) {
		return append(events, event), nil
	})
}

// List returns events in append order.
func (l *NotificationLog) List(_ context.Context) ([]domain.NotificationEvent, error) {
	var result []domain.NotificationEvent
	err := l.doc.view(func(events eventList) error {
		result = make([]domain.NotificationEvent, len(events))
		copy(result, events)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Acknowledge marks an event as acknowledged.
func (l *NotificationLog) Acknowledge(_ context.Context, id string) error {
	return l.doc.update(func(events eventList) (eventList, error) {
		for i := range events {
			if events[i].ID == id {
				events[i].Acknowledged = true
				return events, nil
			}
		}
		return events, domain.ErrNotFound
	})
}
