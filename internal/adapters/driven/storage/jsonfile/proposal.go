package jsonfile

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
)

// ProposalFile is the proposal store document name.
const ProposalFile = "proposals.json"

// Ensure ProposalStore implements the interface.
var _ driven.ProposalStore = (*ProposalStore)(nil)

// proposalDocument is the persisted shape of the proposal store.
type proposalDocument struct {
	FunctionProposals map[string]domain.FunctionProposal  `json:"function_proposals"`
	WebProposals      map[string]domain.WebUpdateProposal `json:"web_proposals"`
}

func normalizeProposals(d proposalDocument) proposalDocument {
	if d.FunctionProposals == nil {
		d.FunctionProposals = make(map[string]domain.FunctionProposal)
	}
	if d.WebProposals == nil {
		d.WebProposals = make(map[string]domain.WebUpdateProposal)
	}
	return d
}

// ProposalStore persists function and web-update proposals in one JSON document.
type ProposalStore struct {
	doc *document[proposalDocument]
}

// NewProposalStore opens (or creates) the proposal store in dataDir.
func NewProposalStore(dataDir string) (*ProposalStore, error) {
	doc, err := openDocument(filepath.Join(dataDir, ProposalFile), normalizeProposals)
	if err != nil {
		return nil, err
	}
	return &ProposalStore{doc: doc}, nil
}

// SaveFunction stores a new function proposal.
func (s *ProposalStore) SaveFunction(_ context.Context, p domain.FunctionProposal) error {
	return s.doc.update(func(d proposalDocument) (proposalDocument, error) {
		if _, ok := d.FunctionProposals[p.ProposalID]; ok {
			return d, domain.ErrAlreadyExists
		}
		d.FunctionProposals[p.ProposalID] = p
		return d, nil
	})
}

// GetFunction retrieves a function proposal by id.
func (s *ProposalStore) GetFunction(_ context.Context, id string) (*domain.FunctionProposal, error) {
	var p domain.FunctionProposal
	err := s.doc.view(func(d proposalDocument) error {
		found, ok := d.FunctionProposals[id]
		if !ok {
			return domain.ErrNotFound
		}
		p = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListFunctions returns function proposals ordered by creation time.
func (s *ProposalStore) ListFunctions(_ context.Context) ([]domain.FunctionProposal, error) {
	var result []domain.FunctionProposal
	err := s.doc.view(func(d proposalDocument) error {
		result = make([]domain.FunctionProposal, 0, len(d.FunctionProposals))
		for _, p := range d.FunctionProposals {
			result = append(result, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
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
// The status check runs against the document as it is on disk, so a decision
// taken by another process is never overwritten.
func (s *ProposalStore) TransitionFunction(
	_ context.Context, id string, to domain.ProposalStatus, mutate func(*domain.FunctionProposal),
) (*domain.FunctionProposal, error) {
	var next domain.FunctionProposal
	err := s.doc.update(func(d proposalDocument) (proposalDocument, error) {
		prev, ok := d.FunctionProposals[id]
		if !ok {
			return d, domain.ErrNotFound
		}
		if prev.Status.IsTerminal() {
			return d, domain.ErrProposalClosed
		}

		next = prev
		if mutate != nil {
			mutate(&next)
		}
		now := time.Now()
		next.Status = to
		next.DecidedAt = &now
		next.FunctionCode = prev.FunctionCode
		next.CodeHash = prev.CodeHash

		d.FunctionProposals[id] = next
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// SaveWeb stores a new web-update proposal.
func (s *ProposalStore) SaveWeb(_ context.Context, p domain.WebUpdateProposal) error {
	return s.doc.update(func(d proposalDocument) (proposalDocument, error) {
		if _, ok := d.WebProposals[p.ProposalID]; ok {
			return d, domain.ErrAlreadyExists
		}
		d.WebProposals[p.ProposalID] = p
		return d, nil
	})
}

// GetWeb retrieves a web-update proposal by id.
func (s *ProposalStore) GetWeb(_ context.Context, id string) (*domain.WebUpdateProposal, error) {
	var p domain.WebUpdateProposal
	err := s.doc.view(func(d proposalDocument) error {
		found, ok := d.WebProposals[id]
		if !ok {
			return domain.ErrNotFound
		}
		p = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListWeb returns web-update proposals ordered by creation time.
func (s *ProposalStore) ListWeb(_ context.Context) ([]domain.WebUpdateProposal, error) {
	var result []domain.WebUpdateProposal
	err := s.doc.view(func(d proposalDocument) error {
		result = make([]domain.WebUpdateProposal, 0, len(d.WebProposals))
		for _, p := range d.WebProposals {
			result = append(result, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
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
	var p domain.WebUpdateProposal
	err := s.doc.update(func(d proposalDocument) (proposalDocument, error) {
		found, ok := d.WebProposals[id]
		if !ok {
			return d, domain.ErrNotFound
		}
		p = found
		delete(d.WebProposals, id)
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
