// Command guidekit indexes clinical guideline documents and turns reviewed
// chapters into decision functions.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/guidekit/internal/adapters/driven/artifacts"
	"github.com/custodia-labs/guidekit/internal/adapters/driven/config/file"
	"github.com/custodia-labs/guidekit/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/guidekit/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/guidekit/internal/adapters/driven/web"
	"github.com/custodia-labs/guidekit/internal/adapters/driving/cli"
	"github.com/custodia-labs/guidekit/internal/connectors/filesystem"
	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
	"github.com/custodia-labs/guidekit/internal/core/services"
	"github.com/custodia-labs/guidekit/internal/logger"
	"github.com/custodia-labs/guidekit/internal/parsers"
	"github.com/custodia-labs/guidekit/internal/postprocessors"
)

func main() {
	cli.SetBootstrap(bootstrap)
	err := cli.Execute()
	if closeErr := cli.Close(); closeErr != nil {
		logger.Warn("closing stores: %v", closeErr)
	}
	if err != nil {
		os.Exit(cli.ExitCode(err))
	}
}

// bootstrap wires stores, adapters and services for one command run.
func bootstrap(configDir string) (*cli.Services, error) {
	if configDir == "" {
		dir, err := file.DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("config store: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, configDir)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	logger.Debug("config dir %s, data dir %s, index %s", configDir, settings.Paths.DataDir, settings.Index)

	vocab, err := file.NewVocabularyStore(filepath.Join(configDir, "vocabulary"))
	if err != nil {
		return nil, fmt.Errorf("vocabulary store: %w", err)
	}

	registryStore, err := jsonfile.NewRegistryStore(settings.Paths.DataDir)
	if err != nil {
		return nil, fmt.Errorf("registry store: %w", err)
	}
	notificationLog, err := jsonfile.NewNotificationLog(settings.Paths.DataDir)
	if err != nil {
		return nil, fmt.Errorf("notification log: %w", err)
	}
	proposalStore, err := jsonfile.NewProposalStore(settings.Paths.DataDir)
	if err != nil {
		return nil, fmt.Errorf("proposal store: %w", err)
	}
	knowledgeStore, err := openKnowledgeStore(settings)
	if err != nil {
		return nil, err
	}

	pipeline, err := buildPipeline(vocab, settings.Extract)
	if err != nil {
		_ = knowledgeStore.Close()
		return nil, err
	}

	parserRegistry := parsers.NewDefaultRegistry()
	source := filesystem.NewSource()

	registry := services.NewRegistryService(registryStore, notificationLog, source, parserRegistry)
	index := services.NewKnowledgeIndex(knowledgeStore)
	extractor := services.NewExtractor(pipeline, settings.Extract)
	processing := services.NewProcessingService(
		registryStore, notificationLog, parserRegistry, extractor, index, settings.Extract.Workers,
	)
	search := services.NewSearchService(index, vocab, settings.Search)
	proposals := services.NewProposalService(
		proposalStore, search, artifacts.NewWriter(settings.Paths.ArtifactDir), notificationLog, settings.Artifacts.Package,
	)
	broker := services.NewBrokerService(proposalStore, index, registry, notificationLog, services.BrokerConfig{
		Web:        settings.Web,
		RecentYear: settings.Search.Weights.RecentYear,
		WatchDir:   settings.Paths.WatchDir,
	}, brokerOptions(settings.Web)...)

	return &cli.Services{
		Registry:      registry,
		Processing:    processing,
		Search:        search,
		Proposals:     proposals,
		Broker:        broker,
		Notifications: services.NewNotificationService(notificationLog),
		Settings:      settingsService,
		Watcher: func(autoProcess bool) driving.WatchService {
			opts := []services.WatchOption{
				services.WithBatchCallback(func(registered, processed int) {
					logger.Info("registered %d, processed %d", registered, processed)
				}),
			}
			if autoProcess {
				opts = append(opts, services.WithAutoProcess(processing))
			}
			return services.NewWatchService(registry, source, parserRegistry, opts...)
		},
		WatchDir: settings.Paths.WatchDir,
		Close:    knowledgeStore.Close,
	}, nil
}

// openKnowledgeStore opens the index backend selected in the settings.
func openKnowledgeStore(settings *domain.Settings) (driven.KnowledgeStore, error) {
	switch settings.Index {
	case domain.IndexBackendSQLite:
		store, err := sqlite.NewStore(settings.Paths.DataDir)
		if err != nil {
			return nil, fmt.Errorf("sqlite index: %w", err)
		}
		return store, nil
	default:
		store, err := jsonfile.NewKnowledgeStore(settings.Paths.DataDir)
		if err != nil {
			return nil, fmt.Errorf("json index: %w", err)
		}
		return store, nil
	}
}

// buildPipeline builds the keyword and function-potential post-processors.
func buildPipeline(vocab driven.VocabularyStore, cfg domain.ExtractSettings) (driven.PostProcessorPipeline, error) {
	terms, err := vocab.Load(driven.VocabularyClinicalTerms)
	if err != nil {
		logger.Warn("clinical vocabulary unavailable: %v", err)
	}
	stopwords, err := vocab.Load(driven.VocabularyStopwords)
	if err != nil {
		logger.Warn("stopword list unavailable: %v", err)
	}

	r := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(r)
	pipeline, err := r.BuildPipeline(postprocessors.DefaultOrder, map[string]any{
		postprocessors.ConfigMaxKeywords: cfg.MaxKeywords,
		postprocessors.ConfigVocabulary:  terms,
		postprocessors.ConfigStopwords:   stopwords,
	})
	if err != nil {
		return nil, fmt.Errorf("post-processor pipeline: %w", err)
	}
	return pipeline, nil
}

// brokerOptions enables the web clients that are configured. Searching
// needs an API key and engine id; downloading always works.
func brokerOptions(cfg domain.WebSettings) []services.BrokerOption {
	opts := []services.BrokerOption{services.WithDownloader(web.NewDownloader())}

	searcher, err := web.NewSearcher(context.Background(), cfg)
	switch {
	case errors.Is(err, domain.ErrWebUnavailable):
		logger.Debug("web search disabled: %v", err)
	case err != nil:
		logger.Warn("web search disabled: %v", err)
	default:
		opts = append(opts, services.WithWebSearcher(searcher))
	}
	return opts
}
