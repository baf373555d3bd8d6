package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
)

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ranked chapters", func(t *testing.T) {
		mockSearch := &mockSearchService{
			results: []domain.SearchResult{{
				ContentHash:     "abc",
				GuidelineTitle:  "2020 ESC AF guidelines",
				Chapter:         domain.Chapter{Title: "Stroke risk", Tables: []domain.Table{{Title: "CHA2DS2-VASc"}}},
				Score:           0.82,
				MatchedKeywords: []string{"stroke"},
			}},
		}
		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "stroke risk", TopK: 3})
		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, "abc", output.Results[0].ContentHash)
		assert.Equal(t, "Stroke risk", output.Results[0].ChapterTitle)
		assert.Equal(t, 1, output.Results[0].Tables)
		assert.Equal(t, 3, mockSearch.topK)
	})

	t.Run("default top_k", func(t *testing.T) {
		mockSearch := &mockSearchService{}
		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "x"})
		require.NoError(t, err)
		assert.Zero(t, output.Count)
		assert.Equal(t, defaultTopK, mockSearch.topK)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{err: errors.New("search failed")}})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "x"})
		assert.ErrorContains(t, err, "search failed")
	})
}

func TestServer_handleGetChapter(t *testing.T) {
	ch := &domain.Chapter{
		Title:   "Stroke risk",
		RawText: "text",
		Tables:  []domain.Table{{Title: "t", Content: [][]string{{"a", "1"}}}},
	}
	server, err := NewServer(&Ports{Search: &mockSearchService{chapter: ch}})
	require.NoError(t, err)

	_, out, err := server.handleGetChapter(context.Background(), nil, ChapterInput{ContentHash: "abc", Title: "stroke risk"})
	require.NoError(t, err)
	assert.Equal(t, "text", out.Text)
	require.Len(t, out.Tables, 1)
	assert.Equal(t, [][]string{{"a", "1"}}, out.Tables[0].Content)

	server, err = NewServer(&Ports{Search: &mockSearchService{}})
	require.NoError(t, err)
	_, _, err = server.handleGetChapter(context.Background(), nil, ChapterInput{ContentHash: "abc", Title: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServer_handleScanDefaultsToWatchDir(t *testing.T) {
	ports := fullPorts()
	registry := &mockRegistryService{outcomes: map[string]driving.ScanOutcome{
		"/watch/b.pdf": {Path: "/watch/b.pdf", IsNew: true},
		"/watch/a.pdf": {Path: "/watch/a.pdf", Error: "unreadable"},
	}}
	ports.Registry = registry
	server, err := NewServer(ports)
	require.NoError(t, err)

	_, out, err := server.handleScan(context.Background(), nil, ScanInput{})
	require.NoError(t, err)
	assert.Equal(t, "/watch", registry.location)
	assert.Equal(t, 1, out.Registered)
	assert.Equal(t, "/watch/a.pdf", out.Outcomes[0].Path)
}

func TestServer_handleProcess(t *testing.T) {
	ports := fullPorts()
	ports.Processing = &mockProcessingService{outcomes: map[string]driving.ProcessOutcome{
		"h1": {ContentHash: "h1", Filename: "a.pdf", Status: "completed", Chapters: 4},
		"h2": {ContentHash: "h2", Filename: "b.pdf", Status: "failed", Error: "unreadable"},
	}}
	server, err := NewServer(ports)
	require.NoError(t, err)

	_, out, err := server.handleProcess(context.Background(), nil, ProcessInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Completed)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, "a.pdf", out.Outcomes[0].Filename)
}

func TestServer_ProposalTools(t *testing.T) {
	ctx := context.Background()
	ports := fullPorts()
	proposals := &mockProposalService{proposal: &domain.FunctionProposal{
		ProposalID:   "p1",
		FunctionName: "Cha2ds2VascScore",
		FunctionCode: "package generated\n",
		CodeHash:     "hash",
		RuleSet:      domain.RuleSet{Kind: domain.RuleKindRiskScore},
		Status:       domain.ProposalProposed,
		TestCases:    []domain.TestCase{{Name: "no_criteria"}},
	}}
	ports.Proposals = proposals
	server, err := NewServer(ports)
	require.NoError(t, err)

	_, out, err := server.handleProposeFunction(ctx, nil, ProposeFunctionInput{Query: "stroke"})
	require.NoError(t, err)
	assert.Equal(t, "risk_score", out.Kind)
	assert.Equal(t, "hash", out.CodeHash)
	assert.Equal(t, 1, out.Tests)

	_, _, err = server.handleApprove(ctx, nil, ApproveInput{ProposalID: "p1", CodeHash: "other", TargetName: "x"})
	assert.ErrorIs(t, err, domain.ErrCodeHashMismatch)
	assert.Empty(t, proposals.approved)

	_, out, err = server.handleApprove(ctx, nil, ApproveInput{ProposalID: "p1", CodeHash: "hash", TargetName: "cha2ds2_vasc"})
	require.NoError(t, err)
	assert.Equal(t, "approved", out.Status)
	assert.Equal(t, []string{"p1:cha2ds2_vasc"}, proposals.approved)

	_, out, err = server.handleReject(ctx, nil, RejectInput{ProposalID: "p1", Reason: "wrong points"})
	require.NoError(t, err)
	assert.Equal(t, "wrong points", out.Reason)
}

func TestServer_WebTools(t *testing.T) {
	ctx := context.Background()
	ports := fullPorts()
	broker := &mockBrokerService{}
	ports.Broker = broker
	server, err := NewServer(ports)
	require.NoError(t, err)

	_, _, err = server.handleProposeWeb(ctx, nil, WebProposeInput{QueryOrURL: "x", UpdateType: "email"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, proposal, err := server.handleProposeWeb(ctx, nil, WebProposeInput{QueryOrURL: "heart failure", UpdateType: "websearch"})
	require.NoError(t, err)
	assert.Equal(t, []string{"heart failure"}, proposal.Options)
	assert.Empty(t, broker.confirmed, "proposing does not execute")

	_, outcome, err := server.handleConfirmWeb(ctx, nil, WebConfirmInput{ProposalID: proposal.ProposalID, Option: "1"})
	require.NoError(t, err)
	assert.Len(t, outcome.Hits, 1)
	assert.Equal(t, []string{"w1:1"}, broker.confirmed)
}

func TestServer_handleNotifications(t *testing.T) {
	ports := fullPorts()
	ports.Notifications = &mockNotificationService{events: []domain.NotificationEvent{
		{ID: "1", EventType: domain.EventNewDocument, Acknowledged: true, Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{ID: "2", EventType: domain.EventProcessingFailed},
	}}
	server, err := NewServer(ports)
	require.NoError(t, err)

	_, out, err := server.handleNotifications(context.Background(), nil, NotificationsInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, "2024-01-02T03:04:05Z", out.Events[0].Timestamp)

	_, out, err = server.handleNotifications(context.Background(), nil, NotificationsInput{UnacknowledgedOnly: true})
	require.NoError(t, err)
	require.Len(t, out.Events, 1)
	assert.Equal(t, domain.EventProcessingFailed, out.Events[0].EventType)
}
