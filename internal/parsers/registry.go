package parsers

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ParserRegistry = (*Registry)(nil)

// Registry maps file extensions to parsers.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string][]driven.DocumentParser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string][]driven.DocumentParser)}
}

// Register adds a parser for each of its extensions.
// Parsers for the same extension are kept ordered by descending priority.
func (r *Registry) Register(p driven.DocumentParser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range p.SupportedExtensions() {
		ext = strings.ToLower(ext)
		list := append(r.byExt[ext], p)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byExt[ext] = list
	}
}

// ForPath returns the highest priority parser for the file's extension.
func (r *Registry) ForPath(path string) (driven.DocumentParser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	list := r.byExt[ext]
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, ext)
	}
	return list[0], nil
}

// Supports reports whether any parser handles the file's extension.
func (r *Registry) Supports(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byExt[strings.ToLower(filepath.Ext(path))]) > 0
}

// Extensions returns all registered extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
