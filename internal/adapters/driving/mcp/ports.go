package mcp

import (
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// Tools are only registered for the ports that are set.
type Ports struct {
	// Search ranks indexed chapters.
	Search driving.SearchService

	// Registry scans and tracks source documents.
	Registry driving.RegistryService

	// Processing extracts and indexes pending documents.
	Processing driving.ProcessingService

	// Proposals manages function proposals.
	Proposals driving.ProposalService

	// Broker manages web-update proposals.
	Broker driving.BrokerService

	// Notifications exposes the event log.
	Notifications driving.NotificationService

	// WatchDir is scanned when scan_documents is called without a location.
	WatchDir string
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
