package driven

import "context"

// ArtifactWriter stores approved generated code.
type ArtifactWriter interface {
	// Validate checks that source parses. Errors wrap domain.ErrSyntax.
	Validate(source string) error

	// Write stores source under name and returns its location.
	// Returns domain.ErrAlreadyExists if an artifact with that name exists.
	Write(ctx context.Context, name, source string) (string, error)

	// Remove deletes an artifact written by Write.
	Remove(ctx context.Context, name string) error
}
