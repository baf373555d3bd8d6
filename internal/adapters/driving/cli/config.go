package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage application settings",
	Long: `View and change settings stored in config.toml.

Use "config keys" to list every recognised key.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Stores one value. Numbers must be positive. List values such as
web.trusted_sources are comma separated, in trust order.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if jsonFlag {
		masked := *settings
		masked.Web.APIKey = maskAPIKey(settings.Web.APIKey)
		return printJSON(cmd, masked)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Paths]")
	cmd.Printf("  Watch dir:    %s\n", settings.Paths.WatchDir)
	cmd.Printf("  Data dir:     %s\n", settings.Paths.DataDir)
	cmd.Printf("  Artifact dir: %s\n", settings.Paths.ArtifactDir)
	cmd.Printf("  Index:        %s\n", settings.Index)
	cmd.Println()

	w := settings.Search.Weights
	cmd.Println("[Search]")
	cmd.Printf("  Weights: title %.2f, keywords %.2f, phrase %.2f, term frequency %.2f\n",
		w.Title, w.Keywords, w.Phrase, w.TermFrequency)
	cmd.Printf("  Recent boost: x%.2f from %d\n", w.RecentBoost, w.RecentYear)
	cmd.Printf("  Default limit: %d\n", settings.Search.DefaultLimit)
	cmd.Println()

	cmd.Println("[Extract]")
	cmd.Printf("  Outline depth: %d\n", settings.Extract.OutlineDepth)
	cmd.Printf("  Max keywords:  %d\n", settings.Extract.MaxKeywords)
	cmd.Printf("  Workers:       %d\n", settings.Extract.Workers)
	cmd.Println()

	cmd.Println("[Web]")
	cmd.Printf("  Timeout: %s\n", settings.Web.Timeout)
	if settings.Web.APIKey != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Web.APIKey))
	} else {
		cmd.Println("  API Key: (not set)")
	}
	cmd.Printf("  Engine ID: %s\n", orDash(settings.Web.EngineID))
	cmd.Printf("  Trusted sources: %s\n", strings.Join(settings.Web.TrustedSources, ", "))
	cmd.Printf("  Requests/second: %.2f\n", settings.Web.RequestsPerSecond)
	cmd.Println()

	cmd.Println("[Artifacts]")
	cmd.Printf("  Package: %s\n", settings.Artifacts.Package)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("Set %s.\n", args[0])
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

func maskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
