package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guidekit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/guidekit/internal/connectors/filesystem"
	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
	"github.com/custodia-labs/guidekit/internal/parsers"
	"github.com/custodia-labs/guidekit/internal/parsers/markdown"
	"github.com/custodia-labs/guidekit/internal/parsers/plaintext"
	"github.com/custodia-labs/guidekit/internal/postprocessors"
)

// testEnv wires in-memory stores with the real filesystem source and parsers.
type testEnv struct {
	dir           string
	registryStore *memory.RegistryStore
	log           *memory.NotificationLog
	knowledge     *memory.KnowledgeStore
	proposals     *memory.ProposalStore
	parsers       *parsers.Registry
	registry      *RegistryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	reg := parsers.NewRegistry()
	reg.Register(markdown.New())
	reg.Register(plaintext.New())

	env := &testEnv{
		dir:           t.TempDir(),
		registryStore: memory.NewRegistryStore(),
		log:           memory.NewNotificationLog(),
		knowledge:     memory.NewKnowledgeStore(),
		proposals:     memory.NewProposalStore(),
		parsers:       reg,
	}
	env.registry = NewRegistryService(env.registryStore, env.log, filesystem.NewSource(), reg)
	return env
}

func (e *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func (e *testEnv) register(t *testing.T, name, content string) domain.DocumentRecord {
	t.Helper()
	candidate, err := CandidateFromPath(e.write(t, name, content))
	require.NoError(t, err)
	result, err := e.registry.Register(context.Background(), candidate)
	require.NoError(t, err)
	return result.Record
}

func (e *testEnv) extractor(t *testing.T) *Extractor {
	t.Helper()
	r := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(r)
	pipeline, err := r.BuildPipeline(postprocessors.DefaultOrder, map[string]any{
		postprocessors.ConfigVocabulary: testVocabulary,
	})
	require.NoError(t, err)
	return NewExtractor(pipeline, domain.DefaultSettings().Extract)
}

var testVocabulary = []string{
	"aortic stenosis", "aortic valve", "mitral regurgitation", "valve replacement",
	"tavi", "heart failure", "atrial fibrillation", "anticoagulation", "stroke",
}

// failingParser fails for filenames containing "broken".
type failingParser struct {
	driven.DocumentParser
}

func (p failingParser) Parse(ctx context.Context, path string, content []byte) (*domain.ParsedDocument, error) {
	if strings.Contains(filepath.Base(path), "broken") {
		return nil, errors.New("boom")
	}
	return p.DocumentParser.Parse(ctx, path, content)
}

// panickingParser panics for filenames containing "panic".
type panickingParser struct {
	driven.DocumentParser
}

func (p panickingParser) Parse(ctx context.Context, path string, content []byte) (*domain.ParsedDocument, error) {
	if strings.Contains(filepath.Base(path), "panic") {
		panic("parser exploded")
	}
	return p.DocumentParser.Parse(ctx, path, content)
}
