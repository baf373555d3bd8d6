package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
)

var processCmd = &cobra.Command{
	Use:   "process [content-hash]",
	Short: "Extract and index pending documents",
	Long: `Extracts chapters, tables and keywords from registered documents and
adds them to the knowledge index. Without an argument every pending document
is processed; a failure in one document does not stop the others.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if processingService == nil {
		return errNotConfigured("processing")
	}

	if len(args) > 0 {
		outcome, err := processingService.ProcessOne(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("processing failed: %w", err)
		}
		if jsonFlag {
			return printJSON(cmd, outcome)
		}
		printProcessOutcome(cmd, outcome)
		return nil
	}

	if !jsonFlag {
		cmd.Println("Processing pending documents...")
	}
	outcomes, err := processingService.ProcessAllPending(cmd.Context())
	if err != nil {
		return fmt.Errorf("processing interrupted: %w", err)
	}

	sorted := make([]driving.ProcessOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		sorted = append(sorted, o)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Filename < sorted[j].Filename })

	if jsonFlag {
		return printJSON(cmd, sorted)
	}
	if len(sorted) == 0 {
		cmd.Println("Nothing to process.")
		return nil
	}

	failed := 0
	for _, o := range sorted {
		if o.Error != "" {
			failed++
		}
		printProcessOutcome(cmd, o)
	}
	cmd.Printf("\nProcessed %d document(s), %d failed.\n", len(sorted)-failed, failed)
	return nil
}

func printProcessOutcome(cmd *cobra.Command, o driving.ProcessOutcome) {
	if o.Error != "" {
		cmd.Printf("  FAILED  %s (%s): %s\n", o.Filename, shortHash(o.ContentHash), o.Error)
		return
	}
	cmd.Printf("  %-7s %s (%s): %d chapters, %d tables\n",
		o.Status, o.Filename, shortHash(o.ContentHash), o.Chapters, o.Tables)
}
