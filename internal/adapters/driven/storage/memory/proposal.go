package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// Ensure ProposalStore implements the interface.
var _ driven.ProposalStore = (*ProposalStore)(nil)

// ProposalStore is an in-memory implementation of driven.ProposalStore.
type ProposalStore struct {
	mu        sync.Mutex
	functions map[string]domain.FunctionProposal
	web       map[string]domain.WebUpdateProposal
}

// NewProposalStore creates an empty proposal store.
func NewProposalStore() *ProposalStore {
	return &ProposalStore{
		functions: make(map[string]domain.FunctionProposal),
		web:       make(map[string]domain.WebUpdateProposal),
	}
}

// SaveFunction stores a new function proposal.
func (s *ProposalStore) SaveFunction(_ context.Context, p domain.FunctionProposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.functions[p.ProposalID]; exists {
		return domain.ErrAlreadyExists
	}
	s.functions[p.ProposalID] = p
	return nil
}

// GetFunction retrieves a function proposal by id.
func (s *ProposalStore) GetFunction(_ context.Context, id string) (*domain.FunctionProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.functions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// ListFunctions returns function proposals ordered by creation time.
func (s *ProposalStore) ListFunctions(_ context.Context) ([]domain.FunctionProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.FunctionProposal, 0, len(s.functions))
	for _, p := range s.functions {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ProposalID < result[j].ProposalID
	})
	return result, nil
}

// TransitionFunction moves a proposal out of ProposalProposed exactly once.
func (s *ProposalStore) TransitionFunction(
	_ context.Context, id string, to domain.ProposalStatus, mutate func(*domain.FunctionProposal),
) (*domain.FunctionProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.functions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if prev.Status.IsTerminal() {
		return nil, domain.ErrProposalClosed
	}
	next := prev
	if mutate != nil {
		mutate(&next)
	}
	now := time.Now()
	next.Status = to
	next.DecidedAt = &now
	next.FunctionCode = prev.FunctionCode
	next.CodeHash = prev.CodeHash
	s.functions[id] = next
	return &next, nil
}

// SaveWeb stores a new web-update proposal.
func (s *ProposalStore) SaveWeb(_ context.Context, p domain.WebUpdateProposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.web[p.ProposalID]; exists {
		return domain.ErrAlreadyExists
	}
	s.web[p.ProposalID] = p
	return nil
}

// GetWeb retrieves a web-update proposal by id.
func (s *ProposalStore) GetWeb(_ context.Context, id string) (*domain.WebUpdateProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.web[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// ListWeb returns web-update proposals ordered by creation time.
func (s *ProposalStore) ListWeb(_ context.Context) ([]domain.WebUpdateProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]domain.WebUpdateProposal, 0, len(s.web))
	for _, p := range s.web {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ProposalID < result[j].ProposalID
	})
	return result, nil
}

// TakeWeb removes and returns a web-update proposal.
func (s *ProposalStore) TakeWeb(_ context.Context, id string) (*domain.WebUpdateProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.web[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(s.web, id)
	return &p, nil
}
