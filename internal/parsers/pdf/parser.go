// Package pdf parses PDF guidelines. Page text comes from poppler's
// pdftotext in layout mode and the native outline is read with
// github.com/ledongthuc/pdf.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
	"github.com/custodia-labs/guidekit/internal/logger"
	"github.com/custodia-labs/guidekit/internal/parsers/plaintext"
)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

// Parser handles PDF documents.
type Parser struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// New creates a PDF parser that shells out to pdftotext.
func New() *Parser {
	return &Parser{runner: execRunner{}, lookPath: exec.LookPath}
}

// NewWithRunner creates a PDF parser with an injected command runner.
// The pdftotext availability check is skipped.
func NewWithRunner(runner CommandRunner) *Parser {
	return &Parser{runner: runner}
}

// CheckAvailable reports whether pdftotext can be found.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions explains how to install pdftotext.
func InstallInstructions() string {
	return `PDF parsing requires pdftotext from poppler:
  macOS:         brew install poppler
  Debian/Ubuntu: apt install poppler-utils
  Fedora:        dnf install poppler-utils`
}

// Name returns the parser name.
func (p *Parser) Name() string {
	return "pdf"
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *Parser) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 50
}

// Parse extracts per-page text and the outline. Pages are separated by form
// feeds in pdftotext output. Tables are left to text detection.
func (p *Parser) Parse(ctx context.Context, _ string, content []byte) (*domain.ParsedDocument, error) {
	if p.lookPath != nil {
		if _, err := p.lookPath("pdftotext"); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrUnreadableDocument, ErrPDFToolNotFound)
		}
	}

	tmp, err := os.CreateTemp("", "guidekit-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("writing temp file: %w", err)
	}

	out, err := p.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("%w: pdftotext failed: %v", domain.ErrUnreadableDocument, err)
	}

	outline, title := readOutline(content)

	metadata := map[string]string{"format": "pdf"}
	if title != "" {
		metadata["title"] = title
	}

	return &domain.ParsedDocument{
		Pages:    plaintext.SplitPages(string(out)),
		Outline:  outline,
		Metadata: metadata,
	}, nil
}

// readOutline returns the flattened outline and the Info title.
// The library panics on some malformed files; any failure yields no outline.
func readOutline(content []byte) (nodes []domain.OutlineNode, title string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("pdf outline unreadable: %v", r)
			nodes, title = nil, ""
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		logger.Debug("pdf outline unreadable: %v", err)
		return nil, ""
	}

	title = strings.TrimSpace(reader.Trailer().Key("Info").Key("Title").Text())
	nodes = flattenOutline(reader.Outline().Child, 1)
	return nodes, title
}

// flattenOutline walks the outline tree depth-first. Page targets are not
// resolved, so Page is 0 and the extractor locates titles in the text.
func flattenOutline(items []pdflib.Outline, level int) []domain.OutlineNode {
	var nodes []domain.OutlineNode
	for _, item := range items {
		title := strings.Join(strings.Fields(item.Title), " ")
		if title != "" {
			nodes = append(nodes, domain.OutlineNode{Title: title, Level: level})
		}
		nodes = append(nodes, flattenOutline(item.Child, level+1)...)
	}
	return nodes
}
