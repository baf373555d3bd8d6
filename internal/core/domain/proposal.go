package domain

import "time"

// ProposalStatus is the state of a FunctionProposal.
// proposed -> {approved | rejected | replaced}; every other state is terminal.
type ProposalStatus string

// Proposal statuses.
const (
	ProposalProposed ProposalStatus = "proposed"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
	ProposalReplaced ProposalStatus = "replaced"
)

// IsTerminal reports whether no further transition is allowed.
func (s ProposalStatus) IsTerminal() bool {
	return s != ProposalProposed
}

// SourceType identifies what a proposal was synthesized from.
type SourceType string

// Source types.
const (
	SourceChapter SourceType = "chapter"
	SourceTable   SourceType = "table"
)

// RuleKind is the synthesis template that produced a RuleSet.
type RuleKind string

// Rule kinds, in template order.
const (
	RuleKindRiskScore           RuleKind = "risk_score"
	RuleKindRecommendationTable RuleKind = "recommendation_table"
	RuleKindClassification      RuleKind = "classification"
)

// Rule is one {condition, action, evidence} step of a RuleSet.
type Rule struct {
	// Condition is the fact key the rule tests (snake_case identifier).
	Condition string `json:"condition"`

	// Label is the human-readable criterion the condition was derived from.
	Label string `json:"label"`

	// Action is what the rule yields when the condition holds.
	Action string `json:"action"`

	// Points is the score contribution for risk scores.
	Points int `json:"points,omitempty"`

	// Evidence cites where the rule came from.
	Evidence string `json:"evidence"`
}

// RuleSet is the data form of a generated decision routine.
// It is consumed by a generic evaluator; source code is only rendered for review.
type RuleSet struct {
	Kind  RuleKind `json:"kind"`
	Name  string   `json:"name"`
	Rules []Rule   `json:"rules"`
}

// Inputs returns the distinct fact keys in rule order.
func (r RuleSet) Inputs() []string {
	seen := make(map[string]bool, len(r.Rules))
	inputs := make([]string, 0, len(r.Rules))
	for _, rule := range r.Rules {
		if !seen[rule.Condition] {
			seen[rule.Condition] = true
			inputs = append(inputs, rule.Condition)
		}
	}
	return inputs
}

// Evaluation is the result of running a RuleSet against facts.
type Evaluation struct {
	// Score is the summed points for risk scores.
	Score int `json:"score"`

	// Actions lists the actions of every matched rule, in rule order.
	Actions []string `json:"actions"`

	// Matched lists the conditions that held.
	Matched []string `json:"matched"`
}

// TestCase is a placeholder test for a proposed function.
type TestCase struct {
	Name     string          `json:"name"`
	Facts    map[string]bool `json:"facts"`
	Expected Evaluation      `json:"expected"`
	Note     string          `json:"note"`
}

// FunctionProposal is a pending, uncommitted generated routine.
// FunctionCode and CodeHash never change once created.
type FunctionProposal struct {
	ProposalID      string         `json:"proposal_id"`
	FunctionName    string         `json:"function_name"`
	FunctionCode    string         `json:"function_code"`
	RuleSet         RuleSet        `json:"rule_set"`
	SourceType      SourceType     `json:"source_type"`
	SourceTitle     string         `json:"source_title"`
	SourcePreview   string         `json:"source_preview"`
	EvidenceSources []string       `json:"evidence_sources"`
	TestCases       []TestCase     `json:"test_cases"`
	CodeHash        string         `json:"code_hash"`
	CreatedAt       time.Time      `json:"created_at"`
	Status          ProposalStatus `json:"status"`

	// Decision fields, set on the single terminal transition.
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	ArtifactPath string     `json:"artifact_path,omitempty"`
}

// UpdateType is the kind of external knowledge update.
type UpdateType string

// Update types.
const (
	UpdateWebSearch      UpdateType = "websearch"
	UpdateDownload       UpdateType = "download"
	UpdateGuidelineCheck UpdateType = "guideline_check"
)

// IsValid returns true if the update type is recognised.
func (t UpdateType) IsValid() bool {
	switch t {
	case UpdateWebSearch, UpdateDownload, UpdateGuidelineCheck:
		return true
	default:
		return false
	}
}

// WebUpdateProposal is a proposed external action. Consumed exactly once by confirm.
type WebUpdateProposal struct {
	ProposalID string     `json:"proposal_id"`
	UpdateType UpdateType `json:"update_type"`
	QueryOrURL string     `json:"query_or_url"`
	Reason     string     `json:"reason"`
	Options    []string   `json:"options"`
	CreatedAt  time.Time  `json:"created_at"`
}

// WebHit is one web search result.
type WebHit struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Snippet    string `json:"snippet"`
	FileFormat string `json:"file_format,omitempty"`
}

// WebUpdateOutcome reports what a confirmed web update did.
type WebUpdateOutcome struct {
	ProposalID string     `json:"proposal_id"`
	UpdateType UpdateType `json:"update_type"`
	Option     string     `json:"option"`

	// Hits holds ranked results for search-type updates.
	Hits []WebHit `json:"hits,omitempty"`

	// DownloadedPath is the saved file for downloads.
	DownloadedPath string `json:"downloaded_path,omitempty"`

	// ContentHash and IsNew describe the registration of a download.
	ContentHash string `json:"content_hash,omitempty"`
	IsNew       bool   `json:"is_new,omitempty"`
}
