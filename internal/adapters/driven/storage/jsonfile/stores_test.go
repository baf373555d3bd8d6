package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

func TestNotificationLog_AppendAndAcknowledge(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	log, err := NewNotificationLog(dir)
	require.NoError(t, err)

	require.NoError(t, log.Append(ctx, domain.NotificationEvent{ID: "e1", EventType: domain.EventNewDocument}))
	require.NoError(t, log.Append(ctx, domain.NotificationEvent{ID: "e2", EventType: domain.EventProcessingFailed}))
	require.NoError(t, log.Acknowledge(ctx, "e2"))

	reopened, err := NewNotificationLog(dir)
	require.NoError(t, err)
	events, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0].ID)
	assert.False(t, events[0].Acknowledged)
	assert.True(t, events[1].Acknowledged)

	assert.ErrorIs(t, reopened.Acknowledge(ctx, "missing"), domain.ErrNotFound)
}

func TestKnowledgeStore_PutReplacesWholesale(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewKnowledgeStore(dir)
	require.NoError(t, err)

	first := domain.KnowledgeEntry{ContentHash: "h1", ExtractionResult: domain.ExtractionResult{
		Chapters: []domain.Chapter{{Title: "1 Introduction"}, {Title: "2 Diagnosis"}},
	}}
	second := domain.KnowledgeEntry{ContentHash: "h1", ExtractionResult: domain.ExtractionResult{
		Chapters: []domain.Chapter{{Title: "Only Chapter"}},
	}}
	require.NoError(t, store.Put(ctx, first))
	require.NoError(t, store.Put(ctx, second))

	got, err := store.Get(ctx, "h1")
	require.NoError(t, err)
	require.Len(t, got.Chapters, 1)
	assert.Equal(t, "Only Chapter", got.Chapters[0].Title)

	// Persisted shape is a map keyed by hash.
	data, err := os.ReadFile(filepath.Join(dir, KnowledgeFile))
	require.NoError(t, err)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "h1")
}

func TestKnowledgeStore_ListSortedAndDelete(t *testing.T) {
	store, err := NewKnowledgeStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, h := range []string{"c", "a", "b"} {
		require.NoError(t, store.Put(ctx, domain.KnowledgeEntry{ContentHash: h}))
	}
	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].ContentHash)
	assert.Equal(t, "c", entries[2].ContentHash)

	require.NoError(t, store.Delete(ctx, "b"))
	assert.ErrorIs(t, store.Delete(ctx, "b"), domain.ErrNotFound)
	_, err = store.Get(ctx, "b")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestKnowledgeStore_RejectsEmptyHash(t *testing.T) {
	store, err := NewKnowledgeStore(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, store.Put(context.Background(), domain.KnowledgeEntry{}), domain.ErrInvalidInput)
}

func TestProposalStore_TransitionAtMostOnce(t *testing.T) {
	store, err := NewProposalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.SaveFunction(ctx, domain.FunctionProposal{
		ProposalID:   "p1",
		FunctionCode: "package generated",
		CodeHash:     "hash",
		Status:       domain.ProposalProposed,
		CreatedAt:    time.Now(),
	}))

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			to := domain.ProposalApproved
			if i%2 == 0 {
				to = domain.ProposalRejected
			}
			_, err := store.TransitionFunction(ctx, "p1", to, nil)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrProposalClosed)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestProposalStore_TransitionKeepsCode(t *testing.T) {
	store, err := NewProposalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.SaveFunction(ctx, domain.FunctionProposal{
		ProposalID: "p1", FunctionCode: "original", CodeHash: "h", Status: domain.ProposalProposed,
	}))

	got, err := store.TransitionFunction(ctx, "p1", domain.ProposalRejected, func(p *domain.FunctionProposal) {
		p.Reason = "not useful"
		p.FunctionCode = "tampered"
	})
	require.NoError(t, err)
	assert.Equal(t, "original", got.FunctionCode)
	assert.Equal(t, "not useful", got.Reason)
	assert.Equal(t, domain.ProposalRejected, got.Status)
	assert.NotNil(t, got.DecidedAt)
}

func TestProposalStore_TakeWebIsSingleUse(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewProposalStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveWeb(ctx, domain.WebUpdateProposal{ProposalID: "w1", Options: []string{"a"}}))

	taken, err := store.TakeWeb(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "w1", taken.ProposalID)

	_, err = store.TakeWeb(ctx, "w1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	reopened, err := NewProposalStore(dir)
	require.NoError(t, err)
	_, err = reopened.GetWeb(ctx, "w1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProposalStore_PersistedShape(t *testing.T) {
	dir := t.TempDir()
	store, err := NewProposalStore(dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.SaveFunction(ctx, domain.FunctionProposal{ProposalID: "p1", Status: domain.ProposalProposed}))
	require.NoError(t, store.SaveWeb(ctx, domain.WebUpdateProposal{ProposalID: "w1"}))

	data, err := os.ReadFile(filepath.Join(dir, ProposalFile))
	require.NoError(t, err)
	var raw map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw["function_proposals"], "p1")
	assert.Contains(t, raw["web_proposals"], "w1")
}
