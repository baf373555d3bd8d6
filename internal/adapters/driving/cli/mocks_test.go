package cli

import (
	"bytes"
	"context"
	"iter"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
)

// execute runs the root command with args and returns everything it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default so runs do not leak into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// useServices installs s for one test.
func useServices(t *testing.T, s *Services) {
	t.Helper()
	SetServices(s)
	t.Cleanup(func() { SetServices(&Services{}) })
}

// useTerminal pretends stdin is a terminal that answers with input.
func useTerminal(t *testing.T, input string) {
	t.Helper()
	origInput, origTerminal := promptInput, isTerminal
	promptInput = strings.NewReader(input)
	isTerminal = func() bool { return true }
	t.Cleanup(func() {
		promptInput = origInput
		isTerminal = origTerminal
	})
}

type mockRegistry struct {
	outcomes map[string]driving.ScanOutcome
	records  []domain.DocumentRecord
	location string
}

func (m *mockRegistry) Scan(context.Context, string) iter.Seq2[domain.Candidate, error] {
	return func(func(domain.Candidate, error) bool) {}
}

func (m *mockRegistry) Register(context.Context, domain.Candidate) (*driving.RegisterResult, error) {
	return nil, domain.ErrInvalidInput
}

func (m *mockRegistry) ScanAndRegister(_ context.Context, location string) (map[string]driving.ScanOutcome, error) {
	m.location = location
	return m.outcomes, nil
}

func (m *mockRegistry) Update(context.Context, string, domain.RecordUpdate) error {
	return nil
}

func (m *mockRegistry) Get(_ context.Context, hash string) (*domain.DocumentRecord, error) {
	for i := range m.records {
		if m.records[i].ContentHash == hash {
			return &m.records[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockRegistry) List(context.Context) ([]domain.DocumentRecord, error) {
	return m.records, nil
}

func (m *mockRegistry) GetPending(context.Context) ([]domain.DocumentRecord, error) {
	var out []domain.DocumentRecord
	for _, r := range m.records {
		if !r.Processed {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockProcessing struct {
	outcomes map[string]driving.ProcessOutcome
	one      []string
}

func (m *mockProcessing) ProcessAllPending(context.Context) (map[string]driving.ProcessOutcome, error) {
	return m.outcomes, nil
}

func (m *mockProcessing) ProcessOne(_ context.Context, hash string) (driving.ProcessOutcome, error) {
	m.one = append(m.one, hash)
	o, ok := m.outcomes[hash]
	if !ok {
		return driving.ProcessOutcome{}, domain.ErrNotFound
	}
	return o, nil
}

type mockSearch struct {
	results []domain.SearchResult
	chapter *domain.Chapter
	query   string
	topK    int
}

func (m *mockSearch) Search(_ context.Context, query string, topK int) ([]domain.SearchResult, error) {
	m.query, m.topK = query, topK
	return m.results, nil
}

func (m *mockSearch) GetChapter(_ context.Context, _, title string) (*domain.Chapter, error) {
	if m.chapter == nil || !strings.EqualFold(m.chapter.Title, title) {
		return nil, domain.ErrNotFound
	}
	return m.chapter, nil
}

type mockProposals struct {
	proposal *domain.FunctionProposal
	err      error
	approved []string
	rejected []string
}

func (m *mockProposals) ProposeFunction(context.Context, string) (*domain.FunctionProposal, error) {
	return m.proposal, m.err
}

func (m *mockProposals) Approve(_ context.Context, id, codeHash, name string) (*domain.FunctionProposal, error) {
	if m.proposal == nil || m.proposal.ProposalID != id {
		return nil, domain.ErrNotFound
	}
	if codeHash != m.proposal.CodeHash {
		return nil, domain.ErrCodeHashMismatch
	}
	m.approved = append(m.approved, id+":"+name)
	p := *m.proposal
	p.Status = domain.ProposalApproved
	p.ArtifactPath = "/artifacts/" + name + ".go"
	return &p, nil
}

func (m *mockProposals) Reject(_ context.Context, id, reason string) (*domain.FunctionProposal, error) {
	if m.proposal == nil || m.proposal.ProposalID != id {
		return nil, domain.ErrNotFound
	}
	m.rejected = append(m.rejected, id+":"+reason)
	p := *m.proposal
	p.Status = domain.ProposalRejected
	p.Reason = reason
	return &p, nil
}

func (m *mockProposals) Get(_ context.Context, id string) (*domain.FunctionProposal, error) {
	if m.proposal == nil || m.proposal.ProposalID != id {
		return nil, domain.ErrNotFound
	}
	return m.proposal, nil
}

func (m *mockProposals) List(context.Context) ([]domain.FunctionProposal, error) {
	if m.proposal == nil {
		return nil, nil
	}
	return []domain.FunctionProposal{*m.proposal}, nil
}

type mockBroker struct {
	proposal  *domain.WebUpdateProposal
	outcome   *domain.WebUpdateOutcome
	confirmed []string
}

func (m *mockBroker) ProposeWebUpdate(_ context.Context, q string, t domain.UpdateType) (*domain.WebUpdateProposal, error) {
	if !t.IsValid() {
		return nil, domain.ErrUnsupportedType
	}
	m.proposal = &domain.WebUpdateProposal{
		ProposalID: "w1",
		UpdateType: t,
		QueryOrURL: q,
		Reason:     "search trusted sources",
		Options:    []string{"site:escardio.org " + q, q},
	}
	return m.proposal, nil
}

func (m *mockBroker) ConfirmWebUpdate(_ context.Context, id, option string) (*domain.WebUpdateOutcome, error) {
	m.confirmed = append(m.confirmed, id+":"+option)
	if m.outcome != nil {
		return m.outcome, nil
	}
	return &domain.WebUpdateOutcome{ProposalID: id, UpdateType: domain.UpdateWebSearch, Option: option}, nil
}

func (m *mockBroker) List(context.Context) ([]domain.WebUpdateProposal, error) {
	if m.proposal == nil {
		return nil, nil
	}
	return []domain.WebUpdateProposal{*m.proposal}, nil
}

type mockNotifications struct {
	events []domain.NotificationEvent
	acked  []string
}

func (m *mockNotifications) List(_ context.Context, unackOnly bool) ([]domain.NotificationEvent, error) {
	var out []domain.NotificationEvent
	for _, e := range m.events {
		if unackOnly && e.Acknowledged {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *mockNotifications) Acknowledge(_ context.Context, id string) error {
	for i := range m.events {
		if m.events[i].ID == id {
			m.events[i].Acknowledged = true
			m.acked = append(m.acked, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockNotifications) AcknowledgeAll(context.Context) (int, error) {
	n := 0
	for i := range m.events {
		if !m.events[i].Acknowledged {
			m.events[i].Acknowledged = true
			n++
		}
	}
	return n, nil
}

type mockSettings struct {
	settings domain.Settings
	set      map[string]string
}

func (m *mockSettings) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettings) Set(key, value string) error {
	if key != "web.api_key" && key != "search.default_limit" {
		return domain.ErrInvalidInput
	}
	if m.set == nil {
		m.set = make(map[string]string)
	}
	m.set[key] = value
	return nil
}

func (m *mockSettings) Keys() []string {
	return []string{"search.default_limit", "web.api_key"}
}

type mockWatcher struct {
	root string
}

func (m *mockWatcher) Run(_ context.Context, root string) error {
	m.root = root
	return nil
}
