package mcp

import (
	"context"
	"iter"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	chapter *domain.Chapter
	err     error
	topK    int
}

func (m *mockSearchService) Search(_ context.Context, _ string, topK int) ([]domain.SearchResult, error) {
	m.topK = topK
	return m.results, m.err
}

func (m *mockSearchService) GetChapter(_ context.Context, _, _ string) (*domain.Chapter, error) {
	if m.chapter == nil {
		return nil, domain.ErrNotFound
	}
	return m.chapter, m.err
}

// mockRegistryService is a mock implementation of driving.RegistryService.
type mockRegistryService struct {
	outcomes map[string]driving.ScanOutcome
	records  []domain.DocumentRecord
	location string
}

func (m *mockRegistryService) Scan(context.Context, string) iter.Seq2[domain.Candidate, error] {
	return func(func(domain.Candidate, error) bool) {}
}

func (m *mockRegistryService) Register(context.Context, domain.Candidate) (*driving.RegisterResult, error) {
	return nil, domain.ErrInvalidInput
}

func (m *mockRegistryService) ScanAndRegister(_ context.Context, location string) (map[string]driving.ScanOutcome, error) {
	m.location = location
	return m.outcomes, nil
}

func (m *mockRegistryService) Update(context.Context, string, domain.RecordUpdate) error {
	return nil
}

func (m *mockRegistryService) Get(context.Context, string) (*domain.DocumentRecord, error) {
	return nil, domain.ErrNotFound
}

func (m *mockRegistryService) List(context.Context) ([]domain.DocumentRecord, error) {
	return m.records, nil
}

func (m *mockRegistryService) GetPending(context.Context) ([]domain.DocumentRecord, error) {
	return nil, nil
}

// mockProcessingService is a mock implementation of driving.ProcessingService.
type mockProcessingService struct {
	outcomes map[string]driving.ProcessOutcome
}

func (m *mockProcessingService) ProcessAllPending(context.Context) (map[string]driving.ProcessOutcome, error) {
	return m.outcomes, nil
}

func (m *mockProcessingService) ProcessOne(context.Context, string) (driving.ProcessOutcome, error) {
	return driving.ProcessOutcome{}, nil
}

// mockProposalService is a mock implementation of driving.ProposalService.
type mockProposalService struct {
	proposal *domain.FunctionProposal
	err      error
	approved []string
}

func (m *mockProposalService) ProposeFunction(context.Context, string) (*domain.FunctionProposal, error) {
	return m.proposal, m.err
}

func (m *mockProposalService) Approve(_ context.Context, id, codeHash, target string) (*domain.FunctionProposal, error) {
	if codeHash != m.proposal.CodeHash {
		return nil, domain.ErrCodeHashMismatch
	}
	m.approved = append(m.approved, id+":"+target)
	p := *m.proposal
	p.Status = domain.ProposalApproved
	return &p, nil
}

func (m *mockProposalService) Reject(_ context.Context, _, reason string) (*domain.FunctionProposal, error) {
	p := *m.proposal
	p.Status = domain.ProposalRejected
	p.Reason = reason
	return &p, nil
}

func (m *mockProposalService) Get(_ context.Context, id string) (*domain.FunctionProposal, error) {
	if m.proposal == nil || m.proposal.ProposalID != id {
		return nil, domain.ErrNotFound
	}
	return m.proposal, nil
}

func (m *mockProposalService) List(context.Context) ([]domain.FunctionProposal, error) {
	if m.proposal == nil {
		return nil, nil
	}
	return []domain.FunctionProposal{*m.proposal}, nil
}

// mockBrokerService is a mock implementation of driving.BrokerService.
type mockBrokerService struct {
	proposal  *domain.WebUpdateProposal
	confirmed []string
}

func (m *mockBrokerService) ProposeWebUpdate(_ context.Context, q string, t domain.UpdateType) (*domain.WebUpdateProposal, error) {
	if !t.IsValid() {
		return nil, domain.ErrUnsupportedType
	}
	m.proposal = &domain.WebUpdateProposal{ProposalID: "w1", UpdateType: t, QueryOrURL: q, Options: []string{q}}
	return m.proposal, nil
}

func (m *mockBrokerService) ConfirmWebUpdate(_ context.Context, id, option string) (*domain.WebUpdateOutcome, error) {
	m.confirmed = append(m.confirmed, id+":"+option)
	return &domain.WebUpdateOutcome{ProposalID: id, Option: option, Hits: []domain.WebHit{{Title: "hit"}}}, nil
}

func (m *mockBrokerService) List(context.Context) ([]domain.WebUpdateProposal, error) {
	return nil, nil
}

// mockNotificationService is a mock implementation of driving.NotificationService.
type mockNotificationService struct {
	events []domain.NotificationEvent
}

func (m *mockNotificationService) List(_ context.Context, unackOnly bool) ([]domain.NotificationEvent, error) {
	var out []domain.NotificationEvent
	for _, e := range m.events {
		if unackOnly && e.Acknowledged {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *mockNotificationService) Acknowledge(context.Context, string) error { return nil }

func (m *mockNotificationService) AcknowledgeAll(context.Context) (int, error) { return 0, nil }
