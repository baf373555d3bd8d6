package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Always recoverable by re-listing.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIntegrityViolation indicates a precondition protecting reviewed
	// content did not hold. Never silently coerced.
	ErrIntegrityViolation = errors.New("integrity violation")

	// ErrParseFailure indicates a document or generated code could not be parsed.
	ErrParseFailure = errors.New("parse failure")

	// ErrUnsupportedType indicates an unknown document format or update type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Proposal Errors.

	// ErrNoTemplate indicates no synthesis template matched the selected content.
	ErrNoTemplate = errors.New("no synthesis template matched")

	// ErrProposalClosed indicates the proposal already reached a terminal status.
	ErrProposalClosed = errors.New("proposal already decided")

	// Web Errors.

	// ErrWebUnavailable indicates the web client is not configured.
	ErrWebUnavailable = errors.New("web access unavailable")
)

// Specific errors wrap a taxonomy root so errors.Is matches both.
var (
	// ErrCodeHashMismatch indicates the hash supplied on approval differs from the stored hash.
	ErrCodeHashMismatch = fmt.Errorf("code hash mismatch: %w", ErrIntegrityViolation)

	// ErrInvalidOption indicates a confirmed option is not among the proposal's options.
	ErrInvalidOption = fmt.Errorf("invalid option: %w", ErrIntegrityViolation)

	// ErrSyntax indicates generated code does not parse.
	ErrSyntax = fmt.Errorf("syntax error: %w", ErrParseFailure)

	// ErrUnreadableDocument indicates a source document could not be read or parsed.
	ErrUnreadableDocument = fmt.Errorf("unreadable document: %w", ErrParseFailure)
)
