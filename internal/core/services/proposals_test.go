package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guidekit/internal/adapters/driven/artifacts"
	"github.com/custodia-labs/guidekit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/guidekit/internal/core/domain"
)

type proposalFixture struct {
	service     *ProposalService
	store       *memory.ProposalStore
	log         *memory.NotificationLog
	artifactDir string
}

func newProposalFixture(t *testing.T) *proposalFixture {
	t.Helper()
	ctx := context.Background()

	index := NewKnowledgeIndex(memory.NewKnowledgeStore())
	require.NoError(t, index.Index(ctx, "aaa", &domain.ExtractionResult{
		GuidelineInfo: domain.GuidelineInfo{Title: "2020 ESC AF guidelines", DocumentYear: 2020},
		Chapters: []domain.Chapter{
			chadsVascChapter(),
			chapter("Anticoagulation",
				"Oral anticoagulation prevents stroke in most patients with atrial fibrillation.",
				"anticoagulation", "stroke"),
		},
	}))

	f := &proposalFixture{
		store:       memory.NewProposalStore(),
		log:         memory.NewNotificationLog(),
		artifactDir: filepath.Join(t.TempDir(), "generated"),
	}
	search := NewSearchService(index, nil, domain.DefaultSettings().Search)
	f.service = NewProposalService(f.store, search, artifacts.NewWriter(f.artifactDir), f.log, "generated")
	return f
}

func (f *proposalFixture) propose(t *testing.T) *domain.FunctionProposal {
	t.Helper()
	p, err := f.service.ProposeFunction(context.Background(), "CHA2DS2-VASc stroke risk score")
	require.NoError(t, err)
	return p
}

func (f *proposalFixture) artifacts(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.artifactDir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestProposalService_ProposeFunction(t *testing.T) {
	f := newProposalFixture(t)
	p := f.propose(t)

	assert.NotEmpty(t, p.ProposalID)
	assert.Equal(t, "Cha2ds2VascScore", p.FunctionName)
	assert.Equal(t, domain.ProposalProposed, p.Status)
	assert.Equal(t, domain.SourceTable, p.SourceType)
	assert.Equal(t, HashBytes([]byte(p.FunctionCode)), p.CodeHash)
	assert.Contains(t, p.FunctionCode, "func Cha2ds2VascScore(")
	assert.Contains(t, p.EvidenceSources, "content_hash:aaa")
	assert.Len(t, p.TestCases, 6)

	stored, err := f.store.GetFunction(context.Background(), p.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, p.CodeHash, stored.CodeHash)
	assert.Empty(t, f.artifacts(t), "proposing never writes artifacts")
}

func TestProposalService_ScenarioC_NothingPersisted(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()

	_, err := f.service.ProposeFunction(ctx, "oral anticoagulation prevents stroke")
	assert.ErrorIs(t, err, domain.ErrNoTemplate)

	_, err = f.service.ProposeFunction(ctx, "zebrafish")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	proposals, err := f.service.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, proposals)
}

func TestProposalService_ProposeReplacesEarlier(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()

	first := f.propose(t)
	second := f.propose(t)

	old, err := f.service.Get(ctx, first.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalReplaced, old.Status)
	assert.Equal(t, "replaced by "+second.ProposalID, old.Reason)

	_, err = f.service.Approve(ctx, first.ProposalID, first.CodeHash, "old_score")
	assert.ErrorIs(t, err, domain.ErrProposalClosed)
	assert.Empty(t, f.artifacts(t))
}

func TestProposalService_HashGate(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()
	p := f.propose(t)

	for _, hash := range []string{"", "deadbeef", HashBytes([]byte(p.FunctionCode + " "))} {
		_, err := f.service.Approve(ctx, p.ProposalID, hash, "cha2ds2_vasc")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrCodeHashMismatch)
		assert.ErrorIs(t, err, domain.ErrIntegrityViolation)
	}

	assert.Empty(t, f.artifacts(t))
	stored, err := f.service.Get(ctx, p.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalProposed, stored.Status)
}

func TestProposalService_Approve(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()
	p := f.propose(t)

	approved, err := f.service.Approve(ctx, p.ProposalID, p.CodeHash, "cha2ds2_vasc")
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalApproved, approved.Status)
	assert.NotNil(t, approved.DecidedAt)
	assert.Equal(t, filepath.Join(f.artifactDir, "cha2ds2_vasc.go"), approved.ArtifactPath)

	data, err := os.ReadFile(approved.ArtifactPath)
	require.NoError(t, err)
	assert.Equal(t, p.FunctionCode, string(data))

	events, err := f.log.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventFunctionApproved, events[0].EventType)
	assert.Equal(t, p.ProposalID, events[0].Details["proposal_id"])

	_, err = f.service.Approve(ctx, p.ProposalID, p.CodeHash, "another_name")
	assert.ErrorIs(t, err, domain.ErrProposalClosed)
	_, err = f.service.Reject(ctx, p.ProposalID, "too late")
	assert.ErrorIs(t, err, domain.ErrProposalClosed)
	assert.Equal(t, []string{"cha2ds2_vasc.go"}, f.artifacts(t))
}

func TestProposalService_ApprovePreconditions(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()

	_, err := f.service.Approve(ctx, "missing", "x", "name")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p := f.propose(t)
	_, err = f.service.Approve(ctx, p.ProposalID, p.CodeHash, "../escape")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Occupy the target name with an earlier approval
	require.NoError(t, os.MkdirAll(f.artifactDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(f.artifactDir, "taken.go"), []byte("package generated\n"), 0644))
	_, err = f.service.Approve(ctx, p.ProposalID, p.CodeHash, "taken")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	stored, err := f.service.Get(ctx, p.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalProposed, stored.Status, "failed approvals leave the proposal open")
}

func TestProposalService_ApproveSyntaxError(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()

	code := "package generated\n\nfunc Broken( {\n"
	require.NoError(t, f.store.SaveFunction(ctx, domain.FunctionProposal{
		ProposalID:   "bad",
		FunctionName: "Broken",
		FunctionCode: code,
		CodeHash:     HashBytes([]byte(code)),
		CreatedAt:    time.Now(),
		Status:       domain.ProposalProposed,
	}))

	_, err := f.service.Approve(ctx, "bad", HashBytes([]byte(code)), "broken")
	assert.ErrorIs(t, err, domain.ErrSyntax)
	assert.Empty(t, f.artifacts(t))
}

func TestProposalService_ApproveDetectsTamperedStore(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.SaveFunction(ctx, domain.FunctionProposal{
		ProposalID:   "tampered",
		FunctionCode: "package generated\n",
		CodeHash:     "0000",
		CreatedAt:    time.Now(),
		Status:       domain.ProposalProposed,
	}))

	_, err := f.service.Approve(ctx, "tampered", "0000", "tampered")
	assert.ErrorIs(t, err, domain.ErrIntegrityViolation)
	assert.Empty(t, f.artifacts(t))
}

func TestProposalService_Reject(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()
	p := f.propose(t)

	_, err := f.service.Reject(ctx, p.ProposalID, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	rejected, err := f.service.Reject(ctx, p.ProposalID, "points do not match the 2024 update")
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalRejected, rejected.Status)
	assert.Equal(t, "points do not match the 2024 update", rejected.Reason)

	_, err = f.service.Reject(ctx, "missing", "reason")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.service.Approve(ctx, p.ProposalID, p.CodeHash, "cha2ds2_vasc")
	assert.ErrorIs(t, err, domain.ErrProposalClosed)
	assert.Empty(t, f.artifacts(t))
}

func TestProposalService_AtMostOneTerminalTransition(t *testing.T) {
	f := newProposalFixture(t)
	ctx := context.Background()
	p := f.propose(t)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes []string
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			kind := "reject"
			if i%2 == 0 {
				kind = "approve"
				_, err = f.service.Approve(ctx, p.ProposalID, p.CodeHash, fmt.Sprintf("score_%d", i))
			} else {
				_, err = f.service.Reject(ctx, p.ProposalID, "no")
			}
			if err == nil {
				mu.Lock()
				successes = append(successes, kind)
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrProposalClosed)
		}(i)
	}
	wg.Wait()

	require.Len(t, successes, 1)
	if successes[0] == "approve" {
		assert.Len(t, f.artifacts(t), 1)
	} else {
		assert.Empty(t, f.artifacts(t))
	}
}
