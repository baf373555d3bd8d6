package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })

	return store, dir
}

func sampleEntry(hash string) domain.KnowledgeEntry {
	return domain.KnowledgeEntry{
		ContentHash: hash,
		ExtractionResult: domain.ExtractionResult{
			GuidelineInfo: domain.GuidelineInfo{
				Title:        "2023 ESC Guidelines for the management of endocarditis",
				Filename:     "endocarditis.pdf",
				DocumentType: "guideline",
				DocumentYear: 2023,
				PageCount:    95,
				OutlineUsed:  true,
				ExtractedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
			},
			Chapters: []domain.Chapter{
				{
					Number:      "1",
					Title:       "Introduction",
					StartOffset: 0,
					EndOffset:   120,
					RawText:     "Introduction text",
					Keywords:    []string{"endocarditis"},
				},
				{
					Number:            "5",
					Title:             "Diagnosis",
					StartOffset:       120,
					EndOffset:         900,
					RawText:           "Duke criteria ...",
					Keywords:          []string{"diagnosis", "echocardiography"},
					FunctionPotential: domain.PotentialAutoGenerate,
					Tables: []domain.Table{{
						Title:             "Table 4",
						Content:           [][]string{{"Criterion", "Points"}, {"Fever", "1"}},
						FunctionPotential: domain.PotentialAutoGenerate,
					}},
				},
			},
			Tables: []domain.Table{{Title: "Abbreviations", Content: [][]string{{"IE", "infective endocarditis"}}}},
		},
	}
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	store, dir := setupTestStore(t)
	assert.Equal(t, filepath.Join(dir, DatabaseFile), store.Path())
}

func TestNewStore_RejectsEmptyDir(t *testing.T) {
	_, err := NewStore("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	store, dir := setupTestStore(t)
	require.NoError(t, store.Put(context.Background(), sampleEntry("h1")))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(context.Background(), "h1")
	require.NoError(t, err)
	assert.Len(t, got.Chapters, 2)
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	want := sampleEntry("h1")
	require.NoError(t, store.Put(ctx, want))

	got, err := store.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, want.GuidelineInfo.Title, got.GuidelineInfo.Title)
	assert.True(t, want.GuidelineInfo.ExtractedAt.Equal(got.GuidelineInfo.ExtractedAt))
	require.Len(t, got.Chapters, 2)
	assert.Equal(t, "Diagnosis", got.Chapters[1].Title)
	assert.Equal(t, domain.PotentialAutoGenerate, got.Chapters[1].FunctionPotential)
	require.Len(t, got.Chapters[1].Tables, 1)
	assert.Equal(t, "Fever", got.Chapters[1].Tables[0].Content[1][0])
	require.Len(t, got.Tables, 1)
}

func TestStore_PutReplacesChapters(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleEntry("h1")))

	smaller := sampleEntry("h1")
	smaller.Chapters = smaller.Chapters[:1]
	require.NoError(t, store.Put(ctx, smaller))

	got, err := store.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Len(t, got.Chapters, 1)
}

func TestStore_ListOrderedByHash(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	for _, h := range []string{"bbb", "aaa", "ccc"} {
		require.NoError(t, store.Put(ctx, sampleEntry(h)))
	}

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "aaa", entries[0].ContentHash)
	assert.Equal(t, "ccc", entries[2].ContentHash)
	assert.Len(t, entries[1].Chapters, 2)
}

func TestStore_DeleteAndNotFound(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleEntry("h1")))
	require.NoError(t, store.Delete(ctx, "h1"))

	_, err := store.Get(ctx, "h1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "h1"), domain.ErrNotFound)
}

func TestStore_PutEmptyHash(t *testing.T) {
	store, _ := setupTestStore(t)
	assert.ErrorIs(t, store.Put(context.Background(), domain.KnowledgeEntry{}), domain.ErrInvalidInput)
}
