// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// ProposalsLoaded carries the proposals awaiting review.
type ProposalsLoaded struct {
	Proposals []domain.FunctionProposal
	Err       error
}

// Decision is what the reviewer did with a proposal.
type Decision string

// Decisions.
const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// ProposalDecided carries the result of an approve or reject.
type ProposalDecided struct {
	Decision Decision
	Proposal *domain.FunctionProposal
	Err      error
}

// ErrorOccurred is sent when an error needs to be displayed.
type ErrorOccurred struct {
	Err error
}
