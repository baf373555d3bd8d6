package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

func sampleProposal() *domain.FunctionProposal {
	return &domain.FunctionProposal{
		ProposalID:      "p-1",
		FunctionName:    "HASBLEDScore",
		FunctionCode:    "package generated\n\nfunc HASBLEDScore() int { return 0 }",
		RuleSet:         domain.RuleSet{Kind: domain.RuleKindRiskScore},
		SourceType:      domain.SourceTable,
		SourceTitle:     "HAS-BLED bleeding risk score",
		EvidenceSources: []string{"2020 ESC AF Guidelines"},
		CodeHash:        "c0de",
		Status:          domain.ProposalProposed,
	}
}

func TestProposeCmd(t *testing.T) {
	useServices(t, &Services{Proposals: &mockProposals{proposal: sampleProposal()}})

	out, err := execute(t, "propose", "bleeding", "risk")

	require.NoError(t, err)
	assert.Contains(t, out, "Function:  HASBLEDScore (risk_score, 0 rules)")
	assert.Contains(t, out, "Evidence:  2020 ESC AF Guidelines")
	assert.Contains(t, out, "func HASBLEDScore() int")
	assert.Contains(t, out, "guidekit approve p-1 --hash c0de --name <file_name>")
}

func TestProposeCmd_NoTemplate(t *testing.T) {
	useServices(t, &Services{Proposals: &mockProposals{err: domain.ErrNoTemplate}})

	_, err := execute(t, "propose", "history of cardiology")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoTemplate)
	assert.Contains(t, err.Error(), "nothing was proposed")
}

func TestApproveCmd_WithYes(t *testing.T) {
	svc := &mockProposals{proposal: sampleProposal()}
	useServices(t, &Services{Proposals: svc})

	out, err := execute(t, "approve", "p-1", "--hash", "c0de", "--name", "has_bled", "--yes")

	require.NoError(t, err)
	assert.Equal(t, []string{"p-1:has_bled"}, svc.approved)
	assert.Contains(t, out, "Approved HASBLEDScore -> /artifacts/has_bled.go")
}

func TestApproveCmd_HashMismatch(t *testing.T) {
	svc := &mockProposals{proposal: sampleProposal()}
	useServices(t, &Services{Proposals: svc})

	_, err := execute(t, "approve", "p-1", "--hash", "tampered", "--name", "has_bled", "-y")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCodeHashMismatch)
	assert.Equal(t, 3, ExitCode(err))
	assert.Empty(t, svc.approved)
}

func TestApproveCmd_RequiresHashAndName(t *testing.T) {
	useServices(t, &Services{Proposals: &mockProposals{proposal: sampleProposal()}})

	_, err := execute(t, "approve", "p-1", "--yes")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestApproveCmd_Prompt(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		approved bool
	}{
		{"yes", "y\n", true},
		{"full yes", "YES\n", true},
		{"no", "n\n", false},
		{"default no", "\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockProposals{proposal: sampleProposal()}
			useServices(t, &Services{Proposals: svc})
			useTerminal(t, tt.answer)

			out, err := execute(t, "approve", "p-1", "--hash", "c0de", "--name", "has_bled")

			require.NoError(t, err)
			assert.Contains(t, out, "Write HASBLEDScore as has_bled.go? [y/N]")
			assert.Equal(t, tt.approved, len(svc.approved) == 1)
			if !tt.approved {
				assert.Contains(t, out, "Aborted.")
			}
		})
	}
}

func TestApproveCmd_NoTerminalWithoutYes(t *testing.T) {
	svc := &mockProposals{proposal: sampleProposal()}
	useServices(t, &Services{Proposals: svc})
	orig := isTerminal
	isTerminal = func() bool { return false }
	t.Cleanup(func() { isTerminal = orig })

	_, err := execute(t, "approve", "p-1", "--hash", "c0de", "--name", "has_bled")

	assert.ErrorIs(t, err, errNoTerminal)
	assert.Empty(t, svc.approved)
}

func TestRejectCmd(t *testing.T) {
	svc := &mockProposals{proposal: sampleProposal()}
	useServices(t, &Services{Proposals: svc})

	out, err := execute(t, "reject", "p-1", "-r", "thresholds outdated")

	require.NoError(t, err)
	assert.Equal(t, []string{"p-1:thresholds outdated"}, svc.rejected)
	assert.Contains(t, out, "Rejected HASBLEDScore (p-1).")
}

func TestProposalsList(t *testing.T) {
	tests := []struct {
		name   string
		status domain.ProposalStatus
		args   []string
		want   string
	}{
		{"all", domain.ProposalApproved, []string{"proposals", "list"}, "p-1  approved"},
		{"open keeps proposed", domain.ProposalProposed, []string{"proposals", "list", "--open"}, "p-1  proposed"},
		{"open hides decided", domain.ProposalRejected, []string{"proposals", "list", "--open"}, "No proposals."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sampleProposal()
			p.Status = tt.status
			useServices(t, &Services{Proposals: &mockProposals{proposal: p}})

			out, err := execute(t, tt.args...)

			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestProposalsGet(t *testing.T) {
	useServices(t, &Services{Proposals: &mockProposals{proposal: sampleProposal()}})

	out, err := execute(t, "proposals", "get", "p-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Code hash: c0de")

	_, err = execute(t, "proposals", "get", "p-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
