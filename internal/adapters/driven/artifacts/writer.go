// Package artifacts stores approved generated Go code on the local filesystem.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.ArtifactWriter = (*Writer)(nil)

// validName is a lowercase Go file stem.
var validName = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// Writer writes one <name>.go file per approved proposal into a directory.
type Writer struct {
	dir string
}

// NewWriter creates a writer for dir. The directory is created on first write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the artifact directory.
func (w *Writer) Dir() string {
	return w.dir
}

// ValidName reports whether name can be used as an artifact name.
func ValidName(name string) bool {
	return validName.MatchString(name) && !isTestStem(name)
}

// Validate checks that source is a syntactically valid Go file.
func (w *Writer) Validate(source string) error {
	if _, err := parser.ParseFile(token.NewFileSet(), "proposal.go", source, parser.AllErrors); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSyntax, err)
	}
	return nil
}

// Write stores source as <name>.go. The file appears complete or not at all,
// and an existing artifact is never replaced.
func (w *Writer) Write(ctx context.Context, name, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !ValidName(name) {
		return "", fmt.Errorf("%w: artifact name %q", domain.ErrInvalidInput, name)
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("creating artifact directory: %w", err)
	}

	path := filepath.Join(w.dir, name+".go")
	tmp, err := os.CreateTemp(w.dir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // best-effort cleanup

	if _, err := tmp.WriteString(source); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return "", fmt.Errorf("setting permissions: %w", err)
	}

	// A hard link fails if the target exists, unlike rename
	if err := os.Link(tmpName, path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: artifact %s", domain.ErrAlreadyExists, filepath.Base(path))
		}
		return "", fmt.Errorf("committing %s: %w", filepath.Base(path), err)
	}
	return path, nil
}

// Remove deletes an artifact. A missing artifact is not an error.
func (w *Writer) Remove(_ context.Context, name string) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: artifact name %q", domain.ErrInvalidInput, name)
	}
	err := os.Remove(filepath.Join(w.dir, name+".go"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing artifact %s: %w", name, err)
	}
	return nil
}

// isTestStem rejects names the Go toolchain would treat as test files.
func isTestStem(name string) bool {
	return len(name) >= 5 && name[len(name)-5:] == "_test"
}
