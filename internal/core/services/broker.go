package services

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
	"github.com/custodia-labs/guidekit/internal/logger"
)

// Ensure BrokerService implements the interface.
var _ driving.BrokerService = (*BrokerService)(nil)

// webHitLimit is how many hits a confirmed search returns.
const webHitLimit = 10

// slideExtensions are presentation formats ranked below documents.
var slideExtensions = map[string]bool{".ppt": true, ".pptx": true, ".key": true, ".odp": true}

// BrokerConfig holds the settings the broker needs.
type BrokerConfig struct {
	Web        domain.WebSettings
	RecentYear int
	WatchDir   string
}

// BrokerService proposes and executes human-confirmed external updates.
// Proposing never touches the network; confirming runs exactly one action.
type BrokerService struct {
	store      driven.ProposalStore
	index      *KnowledgeIndex
	registry   *RegistryService
	log        driven.NotificationLog
	searcher   driven.WebSearcher
	downloader driven.Downloader
	cfg        BrokerConfig
	now        func() time.Time
}

// BrokerOption configures a BrokerService.
type BrokerOption func(*BrokerService)

// WithWebSearcher enables websearch and guideline_check execution.
func WithWebSearcher(s driven.WebSearcher) BrokerOption {
	return func(b *BrokerService) {
		b.searcher = s
	}
}

// WithDownloader enables download execution.
func WithDownloader(d driven.Downloader) BrokerOption {
	return func(b *BrokerService) {
		b.downloader = d
	}
}

// NewBrokerService creates a broker. Without a searcher or downloader the
// matching confirmations fail with domain.ErrWebUnavailable.
func NewBrokerService(
	store driven.ProposalStore,
	index *KnowledgeIndex,
	registry *RegistryService,
	log driven.NotificationLog,
	cfg BrokerConfig,
	opts ...BrokerOption,
) *BrokerService {
	if cfg.Web.Timeout <= 0 {
		cfg.Web.Timeout = domain.DefaultSettings().Web.Timeout
	}
	if len(cfg.Web.TrustedSources) == 0 {
		cfg.Web.TrustedSources = domain.DefaultTrustedSources
	}
	b := &BrokerService{
		store:    store,
		index:    index,
		registry: registry,
		log:      log,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ProposeWebUpdate builds and stores ranked options for an update.
func (b *BrokerService) ProposeWebUpdate(
	ctx context.Context, queryOrURL string, updateType domain.UpdateType,
) (*domain.WebUpdateProposal, error) {
	logger.Section("Propose Web Update")

	queryOrURL = strings.TrimSpace(queryOrURL)
	if !updateType.IsValid() {
		return nil, fmt.Errorf("%w: update type %q", domain.ErrUnsupportedType, updateType)
	}
	if queryOrURL == "" && updateType != domain.UpdateGuidelineCheck {
		return nil, fmt.Errorf("%w: a query or URL is required", domain.ErrInvalidInput)
	}

	var (
		options []string
		reason  string
		err     error
	)
	switch updateType {
	case domain.UpdateWebSearch:
		options = b.searchOptions(queryOrURL)
		reason = fmt.Sprintf("Search trusted guideline publishers for %q; the unrestricted query is listed last.", queryOrURL)
	case domain.UpdateDownload:
		options, err = b.downloadOptions(queryOrURL)
		reason = "Download into the watch directory for registration; official sources first, slide decks last."
	case domain.UpdateGuidelineCheck:
		options, reason, err = b.guidelineCheckOptions(ctx, queryOrURL)
	}
	if err != nil {
		return nil, err
	}

	p := domain.WebUpdateProposal{
		ProposalID: uuid.NewString(),
		UpdateType: updateType,
		QueryOrURL: queryOrURL,
		Reason:     reason,
		Options:    options,
		CreatedAt:  b.now(),
	}
	if err := b.store.SaveWeb(ctx, p); err != nil {
		return nil, fmt.Errorf("save web proposal: %w", err)
	}
	logger.Info("Proposed %s update with %d options", updateType, len(options))
	return &p, nil
}

// ConfirmWebUpdate executes the chosen option and consumes the proposal.
// The option may be given verbatim or as its 1-based position. On failure
// the proposal is restored so the caller can retry.
func (b *BrokerService) ConfirmWebUpdate(ctx context.Context, proposalID, option string) (*domain.WebUpdateOutcome, error) {
	logger.Section("Confirm Web Update")

	p, err := b.store.GetWeb(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("web proposal %s: %w", proposalID, err)
	}
	chosen, ok := resolveOption(p.Options, option)
	if !ok {
		return nil, fmt.Errorf("%q is not an option of proposal %s: %w", option, proposalID, domain.ErrInvalidOption)
	}

	// Taking the proposal is the single-use guard; a concurrent confirm gets ErrNotFound.
	p, err = b.store.TakeWeb(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("web proposal %s: %w", proposalID, err)
	}

	tctx, cancel := context.WithTimeout(ctx, b.cfg.Web.Timeout)
	defer cancel()

	outcome, err := b.execute(tctx, *p, chosen)
	if err != nil {
		if restoreErr := b.store.SaveWeb(context.WithoutCancel(ctx), *p); restoreErr != nil {
			logger.Error("restore web proposal %s: %v", proposalID, restoreErr)
		}
		logger.Warn("Web update %s failed: %v", proposalID, err)
		return nil, fmt.Errorf("confirm %s: %w", proposalID, err)
	}

	details := map[string]string{"proposal_id": proposalID, "option": chosen, "update_type": string(p.UpdateType)}
	if outcome.ContentHash != "" {
		details["content_hash"] = outcome.ContentHash
	}
	filename := chosen
	if outcome.DownloadedPath != "" {
		filename = path.Base(outcome.DownloadedPath)
	}
	notify(ctx, b.log, domain.EventWebUpdateExecuted, filename,
		fmt.Sprintf("Executed %s: %s", p.UpdateType, chosen), details)
	return outcome, nil
}

// List returns open web-update proposals.
func (b *BrokerService) List(ctx context.Context) ([]domain.WebUpdateProposal, error) {
	return b.store.ListWeb(ctx)
}

func (b *BrokerService) execute(ctx context.Context, p domain.WebUpdateProposal, option string) (*domain.WebUpdateOutcome, error) {
	outcome := &domain.WebUpdateOutcome{ProposalID: p.ProposalID, UpdateType: p.UpdateType, Option: option}

	switch p.UpdateType {
	case domain.UpdateWebSearch, domain.UpdateGuidelineCheck:
		if b.searcher == nil {
			return nil, fmt.Errorf("%w: no web searcher configured", domain.ErrWebUnavailable)
		}
		hits, err := b.searcher.Search(ctx, option, webHitLimit)
		if err != nil {
			return nil, err
		}
		outcome.Hits = rankHits(hits)
		logger.Info("Web search returned %d hits", len(hits))

	case domain.UpdateDownload:
		if b.downloader == nil {
			return nil, fmt.Errorf("%w: no downloader configured", domain.ErrWebUnavailable)
		}
		saved, err := b.downloader.Download(ctx, option, b.cfg.WatchDir)
		if err != nil {
			return nil, err
		}
		outcome.DownloadedPath = saved

		if b.registry != nil {
			candidate, err := CandidateFromPath(saved)
			if err != nil {
				return nil, err
			}
			result, err := b.registry.Register(context.WithoutCancel(ctx), candidate)
			if err != nil {
				return nil, err
			}
			outcome.ContentHash = result.Record.ContentHash
			outcome.IsNew = result.IsNew
		}

	default:
		return nil, fmt.Errorf("%w: update type %q", domain.ErrUnsupportedType, p.UpdateType)
	}
	return outcome, nil
}

// searchOptions lists one site-restricted query per trusted source in
// trust order, then the unrestricted query.
func (b *BrokerService) searchOptions(query string) []string {
	options := make([]string, 0, len(b.cfg.Web.TrustedSources)+1)
	for _, domainName := range b.cfg.Web.TrustedSources {
		options = append(options, "site:"+domainName+" "+query)
	}
	return append(options, query)
}

// downloadOptions ranks the URLs in text: trusted sources in trust order,
// then other sources, then slide decks.
func (b *BrokerService) downloadOptions(text string) ([]string, error) {
	type candidate struct {
		url  string
		rank int
	}
	var candidates []candidate
	seen := make(map[string]bool)
	for _, field := range strings.Fields(text) {
		u, err := url.Parse(strings.Trim(field, "<>\"',;()"))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			continue
		}
		s := u.String()
		if seen[s] {
			continue
		}
		seen[s] = true
		candidates = append(candidates, candidate{url: s, rank: b.sourceRank(u.Hostname(), s)})
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no http(s) URL in %q", domain.ErrInvalidInput, text)
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].rank < candidates[j].rank })
	options := make([]string, len(candidates))
	for i, c := range candidates {
		options[i] = c.url
	}
	return options, nil
}

// sourceRank orders trusted hosts by trust, then unknown hosts, then slides.
func (b *BrokerService) sourceRank(host, rawURL string) int {
	trusted := len(b.cfg.Web.TrustedSources)
	if isSlideDeck(rawURL, "") {
		return 2*trusted + 1
	}
	host = strings.ToLower(host)
	for i, d := range b.cfg.Web.TrustedSources {
		if host == d || strings.HasSuffix(host, "."+d) {
			return i
		}
	}
	return trusted
}

// guidelineCheckOptions proposes a search for each indexed guideline older
// than the recent-year threshold whose title matches the query.
func (b *BrokerService) guidelineCheckOptions(ctx context.Context, query string) ([]string, string, error) {
	if b.index == nil {
		return nil, "", fmt.Errorf("%w: no knowledge index", domain.ErrNotFound)
	}
	entries, err := b.index.List(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("list index: %w", err)
	}

	terms := toSet(tokenize(query))
	var options []string
	seen := make(map[string]bool)
	for _, e := range entries {
		info := e.GuidelineInfo
		if info.DocumentYear == 0 || info.DocumentYear >= b.cfg.RecentYear {
			continue
		}
		title := info.Title
		if title == "" {
			title = info.Filename
		}
		if len(terms) > 0 && jaccard(terms, toSet(tokenize(title))) == 0 {
			continue
		}
		option := fmt.Sprintf("%s guideline update since %d", title, info.DocumentYear)
		if !seen[option] {
			seen[option] = true
			options = append(options, option)
		}
	}
	if len(options) == 0 {
		return nil, "", fmt.Errorf("%w: no indexed guideline before %d matches %q",
			domain.ErrNotFound, b.cfg.RecentYear, query)
	}
	reason := fmt.Sprintf("%d indexed guideline(s) predate %d and may have been superseded.", len(options), b.cfg.RecentYear)
	return options, reason, nil
}

// resolveOption matches an option verbatim or by 1-based index.
func resolveOption(options []string, choice string) (string, bool) {
	choice = strings.TrimSpace(choice)
	for _, o := range options {
		if o == choice {
			return o, true
		}
	}
	if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], true
	}
	return "", false
}

// rankHits keeps engine order but moves slide decks to the end.
func rankHits(hits []domain.WebHit) []domain.WebHit {
	ranked := append([]domain.WebHit(nil), hits...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return !isSlideDeck(ranked[i].URL, ranked[i].FileFormat) && isSlideDeck(ranked[j].URL, ranked[j].FileFormat)
	})
	if ranked == nil {
		ranked = []domain.WebHit{}
	}
	return ranked
}

// isSlideDeck reports presentation formats, which are not authoritative sources.
func isSlideDeck(rawURL, fileFormat string) bool {
	if strings.Contains(strings.ToLower(fileFormat), "powerpoint") {
		return true
	}
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	p = strings.ToLower(p)
	if slideExtensions[path.Ext(p)] {
		return true
	}
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '-' || r == '_' || r == '.' }) {
		if seg == "slides" || seg == "slide" || seg == "slidedeck" {
			return true
		}
	}
	return false
}
