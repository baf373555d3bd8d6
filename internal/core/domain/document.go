package domain

import "time"

// ProcessingStatus is the lifecycle state of a DocumentRecord.
type ProcessingStatus string

// Processing statuses.
const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s ProcessingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// DocumentRecord tracks one known source document.
// Identity is the content hash: byte-identical files under different names
// or paths are the same record.
type DocumentRecord struct {
	// Filename is the base name at first detection.
	Filename string `json:"filename"`

	// Filepath is the location at first detection.
	Filepath string `json:"filepath"`

	// ContentHash is the hex SHA-256 over the full file bytes.
	ContentHash string `json:"content_hash"`

	// ByteSize is the file size in bytes.
	ByteSize int64 `json:"byte_size"`

	// DetectedAt is when the document was first registered.
	DetectedAt time.Time `json:"detected_at"`

	// Processed is true once extraction completed and the result is indexed.
	Processed bool `json:"processed"`

	// Title is the classified title. Empty when classification was uncertain.
	Title string `json:"title,omitempty"`

	// DocumentType is the classified type (e.g. "guideline"). Nil when uncertain.
	DocumentType *string `json:"document_type"`

	// DocumentYear is the classified publication year. Nil when uncertain.
	DocumentYear *int `json:"document_year"`

	// ProcessingStatus is the lifecycle state.
	ProcessingStatus ProcessingStatus `json:"processing_status"`

	// Notes holds free-text follow-up notes, such as failure reasons.
	Notes string `json:"notes"`

	// UpdatedAt is when the record was last mutated.
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordUpdate carries the fields to change on an existing record.
// Nil fields are left untouched.
type RecordUpdate struct {
	Processed        *bool
	Title            *string
	DocumentType     *string
	DocumentYear     *int
	ProcessingStatus *ProcessingStatus
	Notes            *string
}

// Apply mutates the record with the non-nil fields of the update.
func (u RecordUpdate) Apply(rec *DocumentRecord) {
	if u.Processed != nil {
		rec.Processed = *u.Processed
	}
	if u.Title != nil {
		rec.Title = *u.Title
	}
	if u.DocumentType != nil {
		t := *u.DocumentType
		rec.DocumentType = &t
	}
	if u.DocumentYear != nil {
		y := *u.DocumentYear
		rec.DocumentYear = &y
	}
	if u.ProcessingStatus != nil {
		rec.ProcessingStatus = *u.ProcessingStatus
	}
	if u.Notes != nil {
		rec.Notes = *u.Notes
	}
}

// Candidate is a supported file found by a scan whose hash is not yet registered.
type Candidate struct {
	// Path is the file location.
	Path string

	// Filename is the base name.
	Filename string

	// ContentHash is the hex SHA-256 over the full file bytes.
	ContentHash string

	// ByteSize is the file size in bytes.
	ByteSize int64
}

// Classification is the heuristic (title, type, year) hint for a document.
// Every field is a hint requiring confirmation, never a guaranteed fact.
type Classification struct {
	Title        string
	DocumentType *string
	DocumentYear *int
}

// Uncertain reports whether type or year could not be derived.
func (c Classification) Uncertain() bool {
	return c.DocumentType == nil || c.DocumentYear == nil
}
