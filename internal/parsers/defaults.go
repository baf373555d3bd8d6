package parsers

import (
	"github.com/custodia-labs/guidekit/internal/parsers/docx"
	"github.com/custodia-labs/guidekit/internal/parsers/html"
	"github.com/custodia-labs/guidekit/internal/parsers/markdown"
	"github.com/custodia-labs/guidekit/internal/parsers/pdf"
	"github.com/custodia-labs/guidekit/internal/parsers/plaintext"
)

// RegisterDefaults registers all built-in parsers with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(pdf.New())
	r.Register(markdown.New())
	r.Register(docx.New())
	r.Register(html.New())
	r.Register(plaintext.New())
}

// NewDefaultRegistry returns a registry with the built-in parsers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
