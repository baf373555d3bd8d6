package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/guidekit/internal/core/domain"
	"github.com/custodia-labs/guidekit/internal/core/ports/driving"
)

var scanCmd = &cobra.Command{
	Use:   "scan [location]",
	Short: "Register new documents",
	Long: `Scans a directory (default: the watch directory) for supported documents
and registers every file whose content hash is not yet known. Renamed or
copied files with identical content are not registered twice.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

var documentCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"document", "docs"},
	Short:   "Inspect registered documents",
	Long:    `List registered documents, show one record, or list those awaiting processing.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [content-hash]",
	Short: "Show a document record",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List documents awaiting processing",
	Args:  cobra.NoArgs,
	RunE:  runDocumentPending,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentPendingCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(documentCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if registryService == nil {
		return errNotConfigured("registry")
	}
	loc, err := location(args)
	if err != nil {
		return err
	}

	outcomes, err := registryService.ScanAndRegister(cmd.Context(), loc)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	sorted := make([]driving.ScanOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		sorted = append(sorted, o)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	if jsonFlag {
		return printJSON(cmd, sorted)
	}

	if len(sorted) == 0 {
		cmd.Println("No new documents found.")
		return nil
	}
	registered := 0
	for _, o := range sorted {
		switch {
		case o.Error != "":
			cmd.Printf("  FAILED  %s: %s\n", o.Path, o.Error)
		case o.IsNew:
			registered++
			cmd.Printf("  NEW     %s (%s)\n", o.Path, shortHash(o.ContentHash))
		default:
			cmd.Printf("  KNOWN   %s (%s)\n", o.Path, shortHash(o.ContentHash))
		}
	}
	cmd.Printf("\nRegistered %d of %d document(s).\n", registered, len(sorted))
	return nil
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if registryService == nil {
		return errNotConfigured("registry")
	}
	records, err := registryService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	return outputRecords(cmd, records, "No documents registered.")
}

func runDocumentPending(cmd *cobra.Command, _ []string) error {
	if registryService == nil {
		return errNotConfigured("registry")
	}
	records, err := registryService.GetPending(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list pending documents: %w", err)
	}
	return outputRecords(cmd, records, "No documents awaiting processing.")
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if registryService == nil {
		return errNotConfigured("registry")
	}
	rec, err := registryService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("document %s: %w", args[0], err)
	}
	if jsonFlag {
		return printJSON(cmd, rec)
	}

	cmd.Printf("Filename:  %s\n", rec.Filename)
	cmd.Printf("Path:      %s\n", rec.Filepath)
	cmd.Printf("Hash:      %s\n", rec.ContentHash)
	cmd.Printf("Size:      %d bytes\n", rec.ByteSize)
	cmd.Printf("Detected:  %s\n", rec.DetectedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("Status:    %s\n", rec.ProcessingStatus)
	cmd.Printf("Title:     %s\n", orDash(rec.Title))
	cmd.Printf("Type:      %s\n", orDash(deref(rec.DocumentType)))
	if rec.DocumentYear != nil {
		cmd.Printf("Year:      %d\n", *rec.DocumentYear)
	} else {
		cmd.Println("Year:      -")
	}
	if rec.Notes != "" {
		cmd.Printf("Notes:\n%s\n", rec.Notes)
	}
	return nil
}

func outputRecords(cmd *cobra.Command, records []domain.DocumentRecord, empty string) error {
	if jsonFlag {
		return printJSON(cmd, records)
	}
	if len(records) == 0 {
		cmd.Println(empty)
		return nil
	}
	for _, r := range records {
		year := "----"
		if r.DocumentYear != nil {
			year = fmt.Sprintf("%d", *r.DocumentYear)
		}
		cmd.Printf("  %s  %-10s  %s  %s\n", shortHash(r.ContentHash), r.ProcessingStatus, year, r.Filename)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
