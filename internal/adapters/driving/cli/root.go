// Package cli implements the guidekit command line.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
	"github.com/custodia-labs/guidekit/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// Services holds the driving ports the commands call.
type Services struct {
	Registry      driving.RegistryService
	Processing    driving.ProcessingService
	Search        driving.SearchService
	Proposals     driving.ProposalService
	Broker        driving.BrokerService
	Notifications driving.NotificationService
	Settings      driving.SettingsService

	// Watcher builds a watch service; autoProcess also processes new documents.
	Watcher func(autoProcess bool) driving.WatchService

	// WatchDir is the default scan and watch location.
	WatchDir string

	// Close releases stores. May be nil.
	Close func() error
}

// Bootstrap builds the services for a configuration directory.
type Bootstrap func(configDir string) (*Services, error)

var (
	registryService     driving.RegistryService
	processingService   driving.ProcessingService
	searchService       driving.SearchService
	proposalService     driving.ProposalService
	brokerService       driving.BrokerService
	notificationService driving.NotificationService
	settingsService     driving.SettingsService
	newWatcher          func(autoProcess bool) driving.WatchService
	watchDir            string
	closeServices       func() error

	bootstrap Bootstrap
)

var (
	verboseFlag   bool
	configDirFlag string
	jsonFlag      bool
)

var rootCmd = &cobra.Command{
	Use:   "guidekit",
	Short: "Index clinical guidelines and turn them into reviewed decision functions",
	Long: `guidekit registers guideline documents from a watch directory, extracts
chapters and tables, and ranks them for free-text queries.

Indexed content can be turned into proposed decision functions (risk scores,
recommendation tables, classifications). Nothing is written until a reviewer
approves a proposal with its exact code hash. Web updates are proposed with
ranked options and only run when one option is confirmed.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "configuration directory (default ~/.guidekit)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output as JSON")
}

// SetBootstrap registers the function that wires services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs the driving ports directly.
func SetServices(s *Services) {
	registryService = s.Registry
	processingService = s.Processing
	searchService = s.Search
	proposalService = s.Proposals
	brokerService = s.Broker
	notificationService = s.Notifications
	settingsService = s.Settings
	newWatcher = s.Watcher
	watchDir = s.WatchDir
	closeServices = s.Close
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)
	if bootstrap == nil || cmd == versionCmd {
		return nil
	}
	services, err := bootstrap(configDirFlag)
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	SetServices(services)
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	return Close()
}

// Close releases the stores of the wired services. Safe to call twice.
func Close() error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// errNotConfigured reports a missing service in the current wiring.
func errNotConfigured(name string) error {
	return fmt.Errorf("%s service not configured", name)
}

// ExitCode maps errors to process exit codes.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, domain.ErrIntegrityViolation):
		return 3
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoTemplate):
		return 4
	default:
		return 1
	}
}
