package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
	"github.com/custodia-labs/guidekit/internal/logger"
)

// Ensure ProposalService implements the interface.
var _ driving.ProposalService = (*ProposalService)(nil)

// proposeTopK is how many search results a proposal considers.
const proposeTopK = 3

// ProposalService turns indexed chapters into hash-gated code proposals.
// Approval is the only operation that writes generated code.
type ProposalService struct {
	store     driven.ProposalStore
	search    driving.SearchService
	synth     *Synthesizer
	artifacts driven.ArtifactWriter
	log       driven.NotificationLog
	pkg       string
	locks     *keyedMutex
	proposeMu sync.Mutex
	now       func() time.Time
}

// NewProposalService creates a proposal service. pkg is the package
// name of rendered code.
func NewProposalService(
	store driven.ProposalStore,
	search driving.SearchService,
	artifacts driven.ArtifactWriter,
	log driven.NotificationLog,
	pkg string,
) *ProposalService {
	if pkg == "" {
		pkg = domain.DefaultSettings().Artifacts.Package
	}
	return &ProposalService{
		store:     store,
		search:    search,
		synth:     NewSynthesizer(),
		artifacts: artifacts,
		log:       log,
		pkg:       pkg,
		locks:     newKeyedMutex(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ProposeFunction synthesizes a proposal from the best-ranked chapter.
// Nothing is persisted unless a template matches.
func (s *ProposalService) ProposeFunction(ctx context.Context, query string) (*domain.FunctionProposal, error) {
	logger.Section("Propose Function")
	logger.Debug("Query: %q", query)

	results, err := s.search.Search(ctx, query, proposeTopK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no indexed chapter matches %q", domain.ErrNotFound, query)
	}

	top := results[0]
	logger.Debug("Top chapter: %q (score %.3f)", top.Chapter.Title, top.Score)
	syn, err := s.synth.Synthesize(top.GuidelineTitle, top.Chapter)
	if err != nil {
		logger.Debug("No template for %q", top.Chapter.Title)
		return nil, err
	}

	code, err := RenderGo(syn.RuleSet, s.pkg, syn.Evidence)
	if err != nil {
		return nil, err
	}

	p := domain.FunctionProposal{
		ProposalID:      uuid.NewString(),
		FunctionName:    syn.RuleSet.Name,
		FunctionCode:    code,
		RuleSet:         syn.RuleSet,
		SourceType:      syn.SourceType,
		SourceTitle:     syn.SourceTitle,
		SourcePreview:   syn.SourcePreview,
		EvidenceSources: append(append([]string{}, syn.Evidence...), "content_hash:"+top.ContentHash),
		TestCases:       PlaceholderTests(syn.RuleSet),
		CodeHash:        HashBytes([]byte(code)),
		CreatedAt:       s.now(),
		Status:          domain.ProposalProposed,
	}

	s.proposeMu.Lock()
	defer s.proposeMu.Unlock()

	if err := s.store.SaveFunction(ctx, p); err != nil {
		return nil, fmt.Errorf("save proposal: %w", err)
	}
	s.replaceEarlier(ctx, p)

	logger.Info("Proposed %s (%s, %d rules)", p.FunctionName, p.RuleSet.Kind, len(p.RuleSet.Rules))
	return &p, nil
}

// replaceEarlier closes open proposals for the same function name.
func (s *ProposalService) replaceEarlier(ctx context.Context, current domain.FunctionProposal) {
	existing, err := s.store.ListFunctions(ctx)
	if err != nil {
		logger.Warn("list proposals: %v", err)
		return
	}
	for _, p := range existing {
		if p.ProposalID == current.ProposalID || p.FunctionName != current.FunctionName ||
			p.Status != domain.ProposalProposed {
			continue
		}
		unlock := s.locks.Lock(p.ProposalID)
		_, err := s.store.TransitionFunction(ctx, p.ProposalID, domain.ProposalReplaced, func(fp *domain.FunctionProposal) {
			fp.Reason = "replaced by " + current.ProposalID
		})
		unlock()
		if err != nil && !errors.Is(err, domain.ErrProposalClosed) {
			logger.Warn("replace proposal %s: %v", p.ProposalID, err)
			continue
		}
		logger.Debug("Proposal %s replaced", p.ProposalID)
	}
}

// Approve writes the reviewed code under targetName. Every precondition
// is checked before the artifact is written; if the status transition then
// fails the artifact is removed again.
func (s *ProposalService) Approve(ctx context.Context, proposalID, codeHash, targetName string) (*domain.FunctionProposal, error) {
	logger.Section("Approve Function")

	unlock := s.locks.Lock(proposalID)
	defer unlock()

	p, err := s.store.GetFunction(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("proposal %s: %w", proposalID, err)
	}
	if p.Status.IsTerminal() {
		return nil, fmt.Errorf("proposal %s is %s: %w", proposalID, p.Status, domain.ErrProposalClosed)
	}
	if !strings.EqualFold(strings.TrimSpace(codeHash), p.CodeHash) {
		logger.Warn("Code hash mismatch for proposal %s", proposalID)
		return nil, fmt.Errorf("proposal %s: %w", proposalID, domain.ErrCodeHashMismatch)
	}
	if HashBytes([]byte(p.FunctionCode)) != p.CodeHash {
		return nil, fmt.Errorf("proposal %s: stored code does not match its hash: %w", proposalID, domain.ErrIntegrityViolation)
	}
	if err := s.artifacts.Validate(p.FunctionCode); err != nil {
		return nil, fmt.Errorf("proposal %s: %w", proposalID, err)
	}

	path, err := s.artifacts.Write(ctx, targetName, p.FunctionCode)
	if err != nil {
		return nil, fmt.Errorf("write artifact: %w", err)
	}

	approved, err := s.store.TransitionFunction(ctx, proposalID, domain.ProposalApproved, func(fp *domain.FunctionProposal) {
		fp.ArtifactPath = path
	})
	if err != nil {
		if rmErr := s.artifacts.Remove(context.WithoutCancel(ctx), targetName); rmErr != nil {
			logger.Error("remove artifact %s after failed approval: %v", path, rmErr)
		}
		return nil, fmt.Errorf("approve %s: %w", proposalID, err)
	}

	logger.Info("Approved %s -> %s", approved.FunctionName, path)
	notify(ctx, s.log, domain.EventFunctionApproved, targetName+".go",
		fmt.Sprintf("Function %s approved", approved.FunctionName),
		map[string]string{"proposal_id": proposalID, "artifact_path": path, "code_hash": approved.CodeHash})
	return approved, nil
}

// Reject closes the proposal with a reason.
func (s *ProposalService) Reject(ctx context.Context, proposalID, reason string) (*domain.FunctionProposal, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: a rejection reason is required", domain.ErrInvalidInput)
	}

	unlock := s.locks.Lock(proposalID)
	defer unlock()

	rejected, err := s.store.TransitionFunction(ctx, proposalID, domain.ProposalRejected, func(fp *domain.FunctionProposal) {
		fp.Reason = reason
	})
	if err != nil {
		return nil, fmt.Errorf("reject %s: %w", proposalID, err)
	}

	logger.Info("Rejected %s: %s", rejected.FunctionName, reason)
	notify(ctx, s.log, domain.EventFunctionRejected, rejected.FunctionName,
		fmt.Sprintf("Function %s rejected: %s", rejected.FunctionName, reason),
		map[string]string{"proposal_id": proposalID})
	return rejected, nil
}

// Get retrieves a proposal.
func (s *ProposalService) Get(ctx context.Context, proposalID string) (*domain.FunctionProposal, error) {
	return s.store.GetFunction(ctx, proposalID)
}

// List returns all function proposals in creation order.
func (s *ProposalService) List(ctx context.Context) ([]domain.FunctionProposal, error) {
	return s.store.ListFunctions(ctx)
}
