package jsonfile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// Two stores on one directory stand in for a long-running server and a CLI call.

func TestProposalStore_DecisionSurvivesOtherWriter(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	server, err := NewProposalStore(dir)
	require.NoError(t, err)
	require.NoError(t, server.SaveFunction(ctx, domain.FunctionProposal{
		ProposalID: "p1", FunctionCode: "package generated", CodeHash: "h", Status: domain.ProposalProposed,
	}))

	cli, err := NewProposalStore(dir)
	require.NoError(t, err)
	_, err = cli.TransitionFunction(ctx, "p1", domain.ProposalApproved, nil)
	require.NoError(t, err)

	// The server writes something unrelated after the CLI decision.
	require.NoError(t, server.SaveWeb(ctx, domain.WebUpdateProposal{ProposalID: "w1"}))

	fresh, err := NewProposalStore(dir)
	require.NoError(t, err)
	p, err := fresh.GetFunction(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalApproved, p.Status)
	_, err = fresh.GetWeb(ctx, "w1")
	assert.NoError(t, err)

	_, err = server.TransitionFunction(ctx, "p1", domain.ProposalRejected, nil)
	assert.ErrorIs(t, err, domain.ErrProposalClosed)

	seen, err := server.GetFunction(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalApproved, seen.Status)
}

func TestProposalStore_TakenWebProposalStaysTaken(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	server, err := NewProposalStore(dir)
	require.NoError(t, err)
	require.NoError(t, server.SaveWeb(ctx, domain.WebUpdateProposal{ProposalID: "w1"}))

	cli, err := NewProposalStore(dir)
	require.NoError(t, err)
	_, err = cli.TakeWeb(ctx, "w1")
	require.NoError(t, err)

	require.NoError(t, server.SaveWeb(ctx, domain.WebUpdateProposal{ProposalID: "w2"}))

	_, err = server.TakeWeb(ctx, "w1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	open, err := cli.ListWeb(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "w2", open[0].ProposalID)
}

func TestRegistryStore_InsertsFromBothWritersKept(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	watch, err := NewRegistryStore(dir)
	require.NoError(t, err)
	scan, err := NewRegistryStore(dir)
	require.NoError(t, err)

	_, err = watch.Insert(ctx, newRecord("aaa", "a.pdf", time.Now()))
	require.NoError(t, err)
	_, err = scan.Insert(ctx, newRecord("bbb", "b.pdf", time.Now()))
	require.NoError(t, err)
	status := domain.StatusCompleted
	_, err = watch.Update(ctx, "aaa", domain.RecordUpdate{ProcessingStatus: &status})
	require.NoError(t, err)

	inserted, err := watch.Insert(ctx, newRecord("bbb", "copy-of-b.pdf", time.Now()))
	require.NoError(t, err)
	assert.False(t, inserted)

	records, err := scan.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	rec, err := scan.Get(ctx, "aaa")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, rec.ProcessingStatus)
}

func TestNotificationLog_AcknowledgementSurvivesOtherWriter(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	server, err := NewNotificationLog(dir)
	require.NoError(t, err)
	require.NoError(t, server.Append(ctx, domain.NotificationEvent{ID: "e1"}))

	cli, err := NewNotificationLog(dir)
	require.NoError(t, err)
	require.NoError(t, cli.Acknowledge(ctx, "e1"))

	require.NoError(t, server.Append(ctx, domain.NotificationEvent{ID: "e2"}))

	events, err := cli.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Acknowledged)
	assert.False(t, events[1].Acknowledged)
}

func TestKnowledgeStore_SeesOtherWriter(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	a, err := NewKnowledgeStore(dir)
	require.NoError(t, err)
	b, err := NewKnowledgeStore(dir)
	require.NoError(t, err)

	require.NoError(t, a.Put(ctx, domain.KnowledgeEntry{ContentHash: "h1"}))
	require.NoError(t, b.Put(ctx, domain.KnowledgeEntry{ContentHash: "h2"}))

	entries, err := a.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "h2", entries[1].ContentHash)
}
