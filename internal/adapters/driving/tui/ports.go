// Package tui provides the interactive proposal review screen for guidekit.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Proposals lists and decides function proposals.
	Proposals driving.ProposalService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Proposals == nil {
		return ErrMissingProposalService
	}
	return nil
}
