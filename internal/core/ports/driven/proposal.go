package driven

import (
	"context"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// ProposalStore persists function and web-update proposals.
type ProposalStore interface {
	// SaveFunction stores a new function proposal.
	SaveFunction(ctx context.Context, p domain.FunctionProposal) error

	// GetFunction retrieves a function proposal by id.
	GetFunction(ctx context.Context, id string) (*domain.FunctionProposal, error)

	// ListFunctions returns function proposals ordered by creation time.
	ListFunctions(ctx context.Context) ([]domain.FunctionProposal, error)

	// TransitionFunction moves a proposal out of ProposalProposed.
	// The mutate callback may set decision fields; it runs only if the
	// current status is ProposalProposed. Returns domain.ErrProposalClosed
	// if the proposal is already terminal. At most one transition ever succeeds.
	TransitionFunction(ctx context.Context, id string, to domain.ProposalStatus,
		mutate func(*domain.FunctionProposal)) (*domain.FunctionProposal, error)

	// SaveWeb stores a new web-update proposal.
	SaveWeb(ctx context.Context, p domain.WebUpdateProposal) error

	// GetWeb retrieves a web-update proposal by id.
	GetWeb(ctx context.Context, id string) (*domain.WebUpdateProposal, error)

	// ListWeb returns web-update proposals ordered by creation time.
	ListWeb(ctx context.Context) ([]domain.WebUpdateProposal, error)

	// TakeWeb removes and returns a web-update proposal.
	// Returns domain.ErrNotFound if absent, so only one caller can take it.
	TakeWeb(ctx context.Context, id string) (*domain.WebUpdateProposal, error)
}
