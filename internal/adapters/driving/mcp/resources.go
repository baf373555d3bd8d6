package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for guidekit resources.
	uriScheme = "guidekit://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Registry != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "documents",
			Name:        "documents",
			Description: "Registered guideline documents and their processing status",
			MIMEType:    "application/json",
		}, s.handleDocumentsResource)
	}

	if s.ports.Proposals != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "proposals/{proposalId}",
			Name:        "proposal-code",
			Description: "Generated source code of a function proposal",
			MIMEType:    "text/x-go",
		}, s.handleProposalResource)
	}
}

// handleDocumentsResource returns the registry as JSON.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	records, err := s.ports.Registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	type docInfo struct {
		ContentHash string `json:"content_hash"`
		Filename    string `json:"filename"`
		Title       string `json:"title,omitempty"`
		Status      string `json:"status"`
		Processed   bool   `json:"processed"`
		Year        *int   `json:"year,omitempty"`
	}

	infos := make([]docInfo, len(records))
	for i := range records {
		infos[i] = docInfo{
			ContentHash: records[i].ContentHash,
			Filename:    records[i].Filename,
			Title:       records[i].Title,
			Status:      string(records[i].ProcessingStatus),
			Processed:   records[i].Processed,
			Year:        records[i].DocumentYear,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleProposalResource returns the code of a proposal.
func (s *Server) handleProposalResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractProposalID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	p, err := s.ports.Proposals.Get(ctx, id)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/x-go",
			Text:     p.FunctionCode,
		}},
	}, nil
}

// extractProposalID extracts the id from a URI like guidekit://proposals/{proposalId}.
func extractProposalID(uri string) string {
	const prefix = uriScheme + "proposals/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
