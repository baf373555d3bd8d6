package driving

import (
	"context"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// ProposalService turns indexed content into hash-gated code proposals.
type ProposalService interface {
	// ProposeFunction synthesizes a proposal from the best chapter for query.
	// Returns domain.ErrNoTemplate, persisting nothing, when no template matches.
	ProposeFunction(ctx context.Context, query string) (*domain.FunctionProposal, error)

	// Approve writes the reviewed code under targetName.
	// Fails with domain.ErrCodeHashMismatch if codeHash differs from the stored hash.
	Approve(ctx context.Context, proposalID, codeHash, targetName string) (*domain.FunctionProposal, error)

	// Reject closes the proposal with a reason.
	Reject(ctx context.Context, proposalID, reason string) (*domain.FunctionProposal, error)

	// Get retrieves a proposal.
	Get(ctx context.Context, proposalID string) (*domain.FunctionProposal, error)

	// List returns all function proposals.
	List(ctx context.Context) ([]domain.FunctionProposal, error)
}

// BrokerService proposes and executes human-confirmed external updates.
type BrokerService interface {
	// ProposeWebUpdate builds ranked options for an update. No network access.
	ProposeWebUpdate(ctx context.Context, queryOrURL string, updateType domain.UpdateType) (*domain.WebUpdateProposal, error)

	// ConfirmWebUpdate executes exactly the chosen option and consumes the proposal.
	ConfirmWebUpdate(ctx context.Context, proposalID, option string) (*domain.WebUpdateOutcome, error)

	// List returns open web-update proposals.
	List(ctx context.Context) ([]domain.WebUpdateProposal, error)
}
