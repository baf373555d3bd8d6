package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

func TestNewVocabularyStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewVocabularyStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestNewVocabularyStore_NoIOInConstructor(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vocabulary")

	_, err := NewVocabularyStore(dir)
	require.NoError(t, err)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestVocabularyStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewVocabularyStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.VocabularyClinicalTerms)
	require.NoError(t, err)

	for _, f := range []string{"clinical_terms.txt", "stopwords.txt"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestVocabularyStore_Load_Defaults(t *testing.T) {
	store, err := NewVocabularyStore(t.TempDir())
	require.NoError(t, err)

	terms, err := store.Load(driven.VocabularyClinicalTerms)
	require.NoError(t, err)
	assert.Contains(t, terms, "atrial fibrillation")
	assert.Contains(t, terms, "endocarditis")
	for _, term := range terms {
		assert.NotContains(t, term, "#")
	}

	stop, err := store.Load(driven.VocabularyStopwords)
	require.NoError(t, err)
	assert.Contains(t, stop, "the")
}

func TestVocabularyStore_Load_CustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "# local list\nSTEMI\nNSTEMI\nstemi\n\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clinical_terms.txt"), []byte(custom), 0600))

	store, err := NewVocabularyStore(dir)
	require.NoError(t, err)

	terms, err := store.Load(driven.VocabularyClinicalTerms)
	require.NoError(t, err)
	assert.Equal(t, []string{"stemi", "nstemi"}, terms)
}

func TestVocabularyStore_Reload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewVocabularyStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.VocabularyStopwords)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "stopwords.txt"), []byte("only\n"), 0600))
	cached, err := store.Load(driven.VocabularyStopwords)
	require.NoError(t, err)
	assert.NotEqual(t, []string{"only"}, cached)

	store.Reload()
	fresh, err := store.Load(driven.VocabularyStopwords)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, fresh)
}

func TestVocabularyStore_UnknownName(t *testing.T) {
	store, err := NewVocabularyStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("unknown")
	assert.Error(t, err)
}

func TestVocabularyStore_InitFailureFallsBack(t *testing.T) {
	store, err := NewVocabularyStore("/dev/null/cannot/create")
	require.NoError(t, err)

	terms, err := store.Load(driven.VocabularyClinicalTerms)
	require.NoError(t, err)
	assert.NotEmpty(t, terms)
}

func TestVocabularyStore_ConcurrentLoad(t *testing.T) {
	store, err := NewVocabularyStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Load(driven.VocabularyClinicalTerms)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
