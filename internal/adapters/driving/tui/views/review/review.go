// Package review provides the proposal review view for the TUI.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/guidekit/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/guidekit/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/guidekit/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/guidekit/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/guidekit/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
)

// mode is what the keyboard currently drives.
type mode int

const (
	modeBrowse mode = iota
	modeName
	modeReason
)

// listHeight is the number of proposal rows shown above the code.
const listHeight = 6

// View lists open function proposals and lets the reviewer approve or reject
// the selected one. Approval always sends the code hash of the proposal on
// screen, so only the code the reviewer saw can be written.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	proposals driving.ProposalService
	prompt    *input.Prompt
	bar       *status.Bar

	ctx      context.Context
	items    []domain.FunctionProposal
	selected int
	offset   int
	codeTop  int
	mode     mode
	showHelp bool
	loading  bool
	err      error
	width    int
	height   int
}

// NewView creates a new review view.
func NewView(s *styles.Styles, proposals driving.ProposalService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()
	return &View{
		styles:    s,
		keymap:    km,
		proposals: proposals,
		prompt:    input.NewPrompt(s),
		bar:       status.NewBar(s, km),
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the open proposals.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.bar.SetState(status.StateLoading)
	return v.load()
}

func (v *View) load() tea.Cmd {
	ctx, svc := v.ctx, v.proposals
	return func() tea.Msg {
		if svc == nil {
			return messages.ProposalsLoaded{Err: errors.New("proposal service not available")}
		}
		all, err := svc.List(ctx)
		if err != nil {
			return messages.ProposalsLoaded{Err: err}
		}
		open := make([]domain.FunctionProposal, 0, len(all))
		for _, p := range all {
			if p.Status == domain.ProposalProposed {
				open = append(open, p)
			}
		}
		return messages.ProposalsLoaded{Proposals: open}
	}
}

// Update handles messages for the review view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.mode != modeBrowse {
			return v.handleInputKey(msg)
		}
		return v.handleBrowseKey(msg)

	case messages.ProposalsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			v.bar.SetState(status.StateError)
			v.bar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.err = nil
		v.items = msg.Proposals
		if v.selected >= len(v.items) {
			v.selected = max(len(v.items)-1, 0)
		}
		v.adjustScroll()
		v.bar.SetOpenCount(len(v.items))
		if v.bar.State() == status.StateLoading {
			v.bar.Clear()
		}
		return v, nil

	case messages.ProposalDecided:
		if msg.Err != nil {
			v.bar.SetState(status.StateError)
			v.bar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.bar.SetState(status.StateDone)
		if msg.Decision == messages.DecisionApproved {
			v.bar.SetMessage(fmt.Sprintf("Approved %s -> %s", msg.Proposal.FunctionName, msg.Proposal.ArtifactPath))
		} else {
			v.bar.SetMessage(fmt.Sprintf("Rejected %s", msg.Proposal.FunctionName))
		}
		return v, v.load()

	case messages.ErrorOccurred:
		v.bar.SetState(status.StateError)
		v.bar.SetMessage(msg.Err.Error())
		return v, nil
	}

	if v.mode != modeBrowse {
		var cmd tea.Cmd
		v.prompt, cmd = v.prompt.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) handleBrowseKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Quit):
		return v, tea.Quit
	case keymap.Matches(k, v.keymap.Help):
		v.showHelp = !v.showHelp
	case keymap.Matches(k, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
			v.codeTop = 0
			v.adjustScroll()
		}
	case keymap.Matches(k, v.keymap.Down):
		if v.selected < len(v.items)-1 {
			v.selected++
			v.codeTop = 0
			v.adjustScroll()
		}
	case keymap.Matches(k, v.keymap.ScrollUp):
		v.codeTop = max(v.codeTop-v.codeHeight(), 0)
	case keymap.Matches(k, v.keymap.ScrollDown):
		if p := v.Selected(); p != nil {
			last := max(len(strings.Split(p.FunctionCode, "\n"))-v.codeHeight(), 0)
			v.codeTop = min(v.codeTop+v.codeHeight(), last)
		}
	case keymap.Matches(k, v.keymap.Reload):
		v.loading = true
		return v, v.load()
	case keymap.Matches(k, v.keymap.Approve):
		if p := v.Selected(); p != nil {
			return v, v.startInput(modeName, "Name", "lower_snake_case", SuggestName(p.FunctionName),
				"Name the artifact file for "+p.FunctionName)
		}
	case keymap.Matches(k, v.keymap.Reject):
		if p := v.Selected(); p != nil {
			return v, v.startInput(modeReason, "Reason", "why is this proposal rejected?", "",
				"Give a reason for rejecting "+p.FunctionName)
		}
	}
	return v, nil
}

func (v *View) startInput(m mode, label, placeholder, value, hint string) tea.Cmd {
	v.mode = m
	v.bar.SetState(status.StateInput)
	v.bar.SetMessage(hint)
	return v.prompt.Open(label, placeholder, value)
}

func (v *View) handleInputKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case k == "ctrl+c":
		return v, tea.Quit
	case keymap.Matches(k, v.keymap.Cancel):
		v.endInput()
		return v, nil
	case keymap.Matches(k, v.keymap.Submit):
		value := strings.TrimSpace(v.prompt.Value())
		if value == "" {
			return v, nil
		}
		p := v.Selected()
		m := v.mode
		v.endInput()
		if p == nil {
			return v, nil
		}
		if m == modeName {
			return v, v.approve(p.ProposalID, p.CodeHash, value)
		}
		return v, v.reject(p.ProposalID, value)
	}

	var cmd tea.Cmd
	v.prompt, cmd = v.prompt.Update(msg)
	return v, cmd
}

func (v *View) endInput() {
	v.mode = modeBrowse
	v.prompt.Close()
	v.bar.Clear()
}

func (v *View) approve(id, codeHash, name string) tea.Cmd {
	ctx, svc := v.ctx, v.proposals
	return func() tea.Msg {
		p, err := svc.Approve(ctx, id, codeHash, name)
		return messages.ProposalDecided{Decision: messages.DecisionApproved, Proposal: p, Err: err}
	}
}

func (v *View) reject(id, reason string) tea.Cmd {
	ctx, svc := v.ctx, v.proposals
	return func() tea.Msg {
		p, err := svc.Reject(ctx, id, reason)
		return messages.ProposalDecided{Decision: messages.DecisionRejected, Proposal: p, Err: err}
	}
}

// Selected returns the highlighted proposal, or nil when the list is empty.
func (v *View) Selected() *domain.FunctionProposal {
	if v.selected < 0 || v.selected >= len(v.items) {
		return nil
	}
	return &v.items[v.selected]
}

// Proposals returns the proposals on screen.
func (v *View) Proposals() []domain.FunctionProposal {
	return v.items
}

// InputActive reports whether the prompt has the keyboard.
func (v *View) InputActive() bool {
	return v.mode != modeBrowse
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.prompt.SetWidth(width)
	v.bar.SetWidth(width)
}

func (v *View) adjustScroll() {
	if v.selected < v.offset {
		v.offset = v.selected
	} else if v.selected >= v.offset+listHeight {
		v.offset = v.selected - listHeight + 1
	}
}

// codeHeight is the number of code lines that fit below the list and details.
func (v *View) codeHeight() int {
	// title, list, details, prompt and status bar
	reserved := listHeight + 14
	return max(v.height-reserved, 3)
}

// View renders the review view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Proposals awaiting review (%d)", len(v.items))))
	b.WriteString("\n\n")

	switch {
	case v.loading && len(v.items) == 0:
		b.WriteString(v.styles.Muted.Render("Loading proposals..."))
		b.WriteString("\n")
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n")
	case len(v.items) == 0:
		b.WriteString(v.styles.Muted.Render("No open proposals. Create one with: guidekit propose <query>"))
		b.WriteString("\n")
	default:
		b.WriteString(v.renderList())
		b.WriteString("\n")
		b.WriteString(v.renderDetails())
	}

	if v.mode != modeBrowse {
		b.WriteString("\n")
		b.WriteString(v.prompt.View())
		b.WriteString("\n")
	}
	if v.showHelp {
		b.WriteString("\n")
		b.WriteString(v.renderHelp())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.bar.View())
	return b.String()
}

func (v *View) renderList() string {
	var b strings.Builder
	for i := v.offset; i < len(v.items) && i < v.offset+listHeight; i++ {
		p := &v.items[i]
		line := fmt.Sprintf("%-32s %-22s %s", p.FunctionName, p.RuleSet.Kind, p.SourceTitle)
		line = truncate(line, max(v.width-4, 20))
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + line))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + line))
		}
		b.WriteString("\n")
	}
	if len(v.items) > listHeight {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.offset+1, min(v.offset+listHeight, len(v.items)), len(v.items))))
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderDetails() string {
	p := v.Selected()
	if p == nil {
		return ""
	}
	var b strings.Builder

	b.WriteString(v.styles.Subtitle.Render(p.FunctionName))
	b.WriteString(" ")
	b.WriteString(v.styles.Status(p.Status).Render(string(p.Status)))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%s %q, %d rule(s), %d test case(s)",
		p.SourceType, p.SourceTitle, len(p.RuleSet.Rules), len(p.TestCases))))
	b.WriteString("\n")
	for _, e := range p.EvidenceSources {
		b.WriteString(v.styles.Muted.Render("evidence: " + e))
		b.WriteString("\n")
	}
	b.WriteString(v.styles.Muted.Render("code hash: "))
	b.WriteString(v.styles.Hash.Render(p.CodeHash))
	b.WriteString("\n\n")

	lines := strings.Split(p.FunctionCode, "\n")
	top := min(v.codeTop, len(lines))
	end := min(top+v.codeHeight(), len(lines))
	b.WriteString(v.styles.Code.Render(strings.Join(lines[top:end], "\n")))
	b.WriteString("\n")
	if len(lines) > end-top {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  lines %d-%d of %d", top+1, end, len(lines))))
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderHelp() string {
	var rows []string
	for _, group := range v.keymap.FullHelp() {
		hints := make([]string, 0, len(group))
		for _, k := range group {
			h := k.Help()
			hints = append(hints, fmt.Sprintf("%s %s", h.Key, h.Desc))
		}
		rows = append(rows, strings.Join(hints, "  "))
	}
	return v.styles.Help.Render(strings.Join(rows, "\n"))
}

// SuggestName turns a Go identifier such as HASBLEDScore into an artifact
// name such as hasbled_score.
func SuggestName(identifier string) string {
	runes := []rune(identifier)
	var b strings.Builder
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			continue
		}
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				if !strings.HasSuffix(b.String(), "_") {
					b.WriteByte('_')
				}
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	name := strings.Trim(b.String(), "_")
	for name != "" && (name[0] < 'a' || name[0] > 'z') {
		name = name[1:]
	}
	if len(name) > 64 {
		name = strings.TrimRight(name[:64], "_")
	}
	return name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
