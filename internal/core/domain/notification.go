package domain

import "time"

// Notification event types.
const (
	EventNewDocument         = "new_document"
	EventProcessingCompleted = "processing_completed"
	EventProcessingFailed    = "processing_failed"
	EventFunctionApproved    = "function_approved"
	EventFunctionRejected    = "function_rejected"
	EventWebUpdateExecuted   = "web_update_executed"
)

// NotificationEvent is an append-only record of a registry event.
// Only Acknowledged is ever mutated.
type NotificationEvent struct {
	ID           string            `json:"id"`
	EventType    string            `json:"event_type"`
	Filename     string            `json:"filename"`
	Message      string            `json:"message"`
	Timestamp    time.Time         `json:"timestamp"`
	Acknowledged bool              `json:"acknowledged"`
	Details      map[string]string `json:"details,omitempty"`
}
