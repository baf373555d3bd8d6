package mcp

import (
	"context"
	"sort"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
)

// defaultTopK is used when search_guidelines is called without top_k.
const defaultTopK = 5

// SearchInput is the input schema for the search_guidelines tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"free-text query, e.g. a score name or clinical question"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of chapters to return (default 5)"`
}

// SearchOutput is the output schema for the search_guidelines tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single ranked chapter.
type SearchResultOutput struct {
	ContentHash     string   `json:"content_hash"`
	GuidelineTitle  string   `json:"guideline_title"`
	ChapterTitle    string   `json:"chapter_title"`
	Score           float64  `json:"score"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	Tables          int      `json:"tables"`
}

// ChapterInput is the input schema for the get_chapter tool.
type ChapterInput struct {
	ContentHash string `json:"content_hash" jsonschema:"content hash of the indexed document"`
	Title       string `json:"title" jsonschema:"exact chapter title (case-insensitive)"`
}

// ChapterOutput is a chapter with its text and tables.
type ChapterOutput struct {
	Number   string        `json:"number,omitempty"`
	Title    string        `json:"title"`
	Text     string        `json:"text"`
	Keywords []string      `json:"keywords,omitempty"`
	Tables   []TableOutput `json:"tables,omitempty"`
}

// TableOutput is a table of a chapter.
type TableOutput struct {
	Title   string     `json:"title,omitempty"`
	Content [][]string `json:"content"`
}

// ScanInput is the input schema for the scan_documents tool.
type ScanInput struct {
	Location string `json:"location,omitempty" jsonschema:"directory to scan (default: the watch directory)"`
}

// ScanOutput lists per-file registration outcomes.
type ScanOutput struct {
	Outcomes   []driving.ScanOutcome `json:"outcomes"`
	Registered int                   `json:"registered"`
}

// ProcessInput is the input schema for the process_pending tool.
type ProcessInput struct{}

// ProcessOutput lists per-document processing outcomes.
type ProcessOutput struct {
	Outcomes  []driving.ProcessOutcome `json:"outcomes"`
	Completed int                      `json:"completed"`
	Failed    int                      `json:"failed"`
}

// ProposeFunctionInput is the input schema for the propose_function tool.
type ProposeFunctionInput struct {
	Query string `json:"query" jsonschema:"what to build, e.g. 'CHA2DS2-VASc stroke risk score'"`
}

// ProposalOutput summarises a function proposal for review.
type ProposalOutput struct {
	ProposalID      string   `json:"proposal_id"`
	FunctionName    string   `json:"function_name"`
	Kind            string   `json:"kind"`
	Status          string   `json:"status"`
	FunctionCode    string   `json:"function_code"`
	CodeHash        string   `json:"code_hash"`
	SourceType      string   `json:"source_type"`
	SourceTitle     string   `json:"source_title"`
	EvidenceSources []string `json:"evidence_sources"`
	Tests           int      `json:"tests"`
	Reason          string   `json:"reason,omitempty"`
	ArtifactPath    string   `json:"artifact_path,omitempty"`
}

// ApproveInput is the input schema for the approve_function tool.
type ApproveInput struct {
	ProposalID string `json:"proposal_id"`
	CodeHash   string `json:"code_hash" jsonschema:"code_hash of the reviewed code; must match exactly"`
	TargetName string `json:"target_name" jsonschema:"lower_snake_case file name for the artifact"`
}

// RejectInput is the input schema for the reject_function tool.
type RejectInput struct {
	ProposalID string `json:"proposal_id"`
	Reason     string `json:"reason"`
}

// WebProposeInput is the input schema for the propose_web_update tool.
type WebProposeInput struct {
	QueryOrURL string `json:"query_or_url,omitempty" jsonschema:"search query, or URLs for download"`
	UpdateType string `json:"update_type" jsonschema:"websearch, download or guideline_check"`
}

// WebProposalOutput is a proposed web update with its ranked options.
type WebProposalOutput struct {
	ProposalID string   `json:"proposal_id"`
	UpdateType string   `json:"update_type"`
	Reason     string   `json:"reason"`
	Options    []string `json:"options"`
}

// WebConfirmInput is the input schema for the confirm_web_update tool.
type WebConfirmInput struct {
	ProposalID string `json:"proposal_id"`
	Option     string `json:"option" jsonschema:"one of the proposed options, verbatim or by 1-based number"`
}

// WebOutcomeOutput reports what a confirmed web update did.
type WebOutcomeOutput struct {
	Option         string          `json:"option"`
	Hits           []domain.WebHit `json:"hits,omitempty"`
	DownloadedPath string          `json:"downloaded_path,omitempty"`
	ContentHash    string          `json:"content_hash,omitempty"`
	IsNew          bool            `json:"is_new,omitempty"`
}

// NotificationsInput is the input schema for the list_notifications tool.
type NotificationsInput struct {
	UnacknowledgedOnly bool `json:"unacknowledged_only,omitempty"`
}

// NotificationsOutput lists registry events.
type NotificationsOutput struct {
	Events []NotificationOutput `json:"events"`
	Count  int                  `json:"count"`
}

// NotificationOutput is one registry event.
type NotificationOutput struct {
	ID           string            `json:"id"`
	EventType    string            `json:"event_type"`
	Filename     string            `json:"filename"`
	Message      string            `json:"message"`
	Timestamp    string            `json:"timestamp"`
	Acknowledged bool              `json:"acknowledged"`
	Details      map[string]string `json:"details,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_guidelines",
		Description: "Rank indexed guideline chapters against a free-text query",
	}, s.handleSearch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_chapter",
		Description: "Return the full text and tables of one chapter",
	}, s.handleGetChapter)

	if s.ports.Registry != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "scan_documents",
			Description: "Register new guideline documents found in a directory",
		}, s.handleScan)
	}
	if s.ports.Processing != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "process_pending",
			Description: "Extract and index every registered document that is not yet processed",
		}, s.handleProcess)
	}
	if s.ports.Proposals != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "propose_function",
			Description: "Synthesize a decision function from the best matching chapter. Nothing is written until approved",
		}, s.handleProposeFunction)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "approve_function",
			Description: "Write an approved proposal to disk. Requires the exact code_hash of the reviewed code",
		}, s.handleApprove)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "reject_function",
			Description: "Reject a proposal with a reason",
		}, s.handleReject)
	}
	if s.ports.Broker != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "propose_web_update",
			Description: "Propose ranked web actions (websearch, download, guideline_check). Does not access the network",
		}, s.handleProposeWeb)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "confirm_web_update",
			Description: "Execute exactly one proposed web action. The proposal is consumed on success",
		}, s.handleConfirmWeb)
	}
	if s.ports.Notifications != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_notifications",
			Description: "List registry events such as new documents and processing failures",
		}, s.handleNotifications)
	}
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	topK := input.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	results, err := s.ports.Search.Search(ctx, input.Query, topK)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			ContentHash:     results[i].ContentHash,
			GuidelineTitle:  results[i].GuidelineTitle,
			ChapterTitle:    results[i].Chapter.Title,
			Score:           results[i].Score,
			MatchedKeywords: results[i].MatchedKeywords,
			Tables:          len(results[i].Chapter.Tables),
		}
	}
	return nil, output, nil
}

func (s *Server) handleGetChapter(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChapterInput,
) (*mcp.CallToolResult, ChapterOutput, error) {
	ch, err := s.ports.Search.GetChapter(ctx, input.ContentHash, input.Title)
	if err != nil {
		return nil, ChapterOutput{}, err
	}
	return nil, toChapterOutput(ch), nil
}

func (s *Server) handleScan(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ScanInput,
) (*mcp.CallToolResult, ScanOutput, error) {
	location := input.Location
	if location == "" {
		location = s.ports.WatchDir
	}

	outcomes, err := s.ports.Registry.ScanAndRegister(ctx, location)
	if err != nil {
		return nil, ScanOutput{}, err
	}

	output := ScanOutput{Outcomes: make([]driving.ScanOutcome, 0, len(outcomes))}
	for _, o := range outcomes {
		output.Outcomes = append(output.Outcomes, o)
		if o.IsNew {
			output.Registered++
		}
	}
	sort.Slice(output.Outcomes, func(i, j int) bool { return output.Outcomes[i].Path < output.Outcomes[j].Path })
	return nil, output, nil
}

func (s *Server) handleProcess(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ProcessInput,
) (*mcp.CallToolResult, ProcessOutput, error) {
	outcomes, err := s.ports.Processing.ProcessAllPending(ctx)
	if err != nil {
		return nil, ProcessOutput{}, err
	}

	output := ProcessOutput{Outcomes: make([]driving.ProcessOutcome, 0, len(outcomes))}
	for _, o := range outcomes {
		output.Outcomes = append(output.Outcomes, o)
		if o.Error != "" {
			output.Failed++
		} else {
			output.Completed++
		}
	}
	sort.Slice(output.Outcomes, func(i, j int) bool { return output.Outcomes[i].Filename < output.Outcomes[j].Filename })
	return nil, output, nil
}

func (s *Server) handleProposeFunction(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProposeFunctionInput,
) (*mcp.CallToolResult, ProposalOutput, error) {
	p, err := s.ports.Proposals.ProposeFunction(ctx, input.Query)
	if err != nil {
		return nil, ProposalOutput{}, err
	}
	return nil, toProposalOutput(p), nil
}

func (s *Server) handleApprove(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ApproveInput,
) (*mcp.CallToolResult, ProposalOutput, error) {
	p, err := s.ports.Proposals.Approve(ctx, input.ProposalID, input.CodeHash, input.TargetName)
	if err != nil {
		return nil, ProposalOutput{}, err
	}
	return nil, toProposalOutput(p), nil
}

func (s *Server) handleReject(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RejectInput,
) (*mcp.CallToolResult, ProposalOutput, error) {
	p, err := s.ports.Proposals.Reject(ctx, input.ProposalID, input.Reason)
	if err != nil {
		return nil, ProposalOutput{}, err
	}
	return nil, toProposalOutput(p), nil
}

func (s *Server) handleProposeWeb(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input WebProposeInput,
) (*mcp.CallToolResult, WebProposalOutput, error) {
	p, err := s.ports.Broker.ProposeWebUpdate(ctx, input.QueryOrURL, domain.UpdateType(input.UpdateType))
	if err != nil {
		return nil, WebProposalOutput{}, err
	}
	return nil, WebProposalOutput{
		ProposalID: p.ProposalID,
		UpdateType: string(p.UpdateType),
		Reason:     p.Reason,
		Options:    p.Options,
	}, nil
}

func (s *Server) handleConfirmWeb(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input WebConfirmInput,
) (*mcp.CallToolResult, WebOutcomeOutput, error) {
	outcome, err := s.ports.Broker.ConfirmWebUpdate(ctx, input.ProposalID, input.Option)
	if err != nil {
		return nil, WebOutcomeOutput{}, err
	}
	return nil, WebOutcomeOutput{
		Option:         outcome.Option,
		Hits:           outcome.Hits,
		DownloadedPath: outcome.DownloadedPath,
		ContentHash:    outcome.ContentHash,
		IsNew:          outcome.IsNew,
	}, nil
}

func (s *Server) handleNotifications(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input NotificationsInput,
) (*mcp.CallToolResult, NotificationsOutput, error) {
	events, err := s.ports.Notifications.List(ctx, input.UnacknowledgedOnly)
	if err != nil {
		return nil, NotificationsOutput{}, err
	}

	output := NotificationsOutput{Events: make([]NotificationOutput, len(events)), Count: len(events)}
	for i, e := range events {
		output.Events[i] = NotificationOutput{
			ID:           e.ID,
			EventType:    e.EventType,
			Filename:     e.Filename,
			Message:      e.Message,
			Timestamp:    e.Timestamp.Format(time.RFC3339),
			Acknowledged: e.Acknowledged,
			Details:      e.Details,
		}
	}
	return nil, output, nil
}

func toChapterOutput(ch *domain.Chapter) ChapterOutput {
	out := ChapterOutput{
		Number:   ch.Number,
		Title:    ch.Title,
		Text:     ch.RawText,
		Keywords: ch.Keywords,
	}
	for _, t := range ch.Tables {
		out.Tables = append(out.Tables, TableOutput{Title: t.Title, Content: t.Content})
	}
	return out
}

func toProposalOutput(p *domain.FunctionProposal) ProposalOutput {
	return ProposalOutput{
		ProposalID:      p.ProposalID,
		FunctionName:    p.FunctionName,
		Kind:            string(p.RuleSet.Kind),
		Status:          string(p.Status),
		FunctionCode:    p.FunctionCode,
		CodeHash:        p.CodeHash,
		SourceType:      string(p.SourceType),
		SourceTitle:     p.SourceTitle,
		EvidenceSources: p.EvidenceSources,
		Tests:           len(p.TestCases),
		Reason:          p.Reason,
		ArtifactPath:    p.ArtifactPath,
	}
}
