package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
	"github.com/custodia-labs/guidekit/internal/logger"
)

// Ensure NotificationService implements the interface.
var _ driving.NotificationService = (*NotificationService)(nil)

// NotificationService exposes the append-only event log.
type NotificationService struct {
	log driven.NotificationLog
}

// NewNotificationService creates a new notification service.
func NewNotificationService(log driven.NotificationLog) *NotificationService {
	return &NotificationService{log: log}
}

// List returns events in append order, optionally only unacknowledged ones.
func (s *NotificationService) List(ctx context.Context, unacknowledgedOnly bool) ([]domain.NotificationEvent, error) {
	events, err := s.log.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if !unacknowledgedOnly {
		return events, nil
	}

	open := make([]domain.NotificationEvent, 0, len(events))
	for _, e := range events {
		if !e.Acknowledged {
			open = append(open, e)
		}
	}
	return open, nil
}

// Acknowledge marks one event as acknowledged.
func (s *NotificationService) Acknowledge(ctx context.Context, id string) error {
	if err := s.log.Acknowledge(ctx, id); err != nil {
		return fmt.Errorf("acknowledge %s: %w", id, err)
	}
	return nil
}

// AcknowledgeAll marks every open event as acknowledged.
func (s *NotificationService) AcknowledgeAll(ctx context.Context) (int, error) {
	open, err := s.List(ctx, true)
	if err != nil {
		return 0, err
	}
	for _, e := range open {
		if err := s.log.Acknowledge(ctx, e.ID); err != nil {
			return 0, fmt.Errorf("acknowledge %s: %w", e.ID, err)
		}
	}
	return len(open), nil
}

// notify appends an event. A failed append is logged, never propagated:
// the state change it describes has already happened.
func notify(ctx context.Context, log driven.NotificationLog, eventType, filename, message string, details map[string]string) {
	if log == nil {
		return
	}
	event := domain.NotificationEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		Filename:  filename,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Details:   details,
	}
	if err := log.Append(ctx, event); err != nil {
		logger.Warn("append %s notification: %v", eventType, err)
	}
}
