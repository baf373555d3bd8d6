package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed guideline chapters",
	Long: `Ranks indexed chapters against a free-text query. Title matches weigh
most, then keywords, exact phrases and term frequency. Recent guidelines get
a small boost.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var chapterCmd = &cobra.Command{
	Use:   "chapter [content-hash] [title]",
	Short: "Print one chapter with its tables",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runChapter,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from config)")
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(chapterCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errNotConfigured("search")
	}

	query := strings.Join(args, " ")
	results, err := searchService.Search(cmd.Context(), query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if jsonFlag {
		return printJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := results[i]
		// Format: [N] Chapter - Guideline (Score)
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, r.Chapter.Title, r.Score)
		cmd.Printf("      %s  %s\n", shortHash(r.ContentHash), r.GuidelineTitle)
		if len(r.MatchedKeywords) > 0 {
			cmd.Printf("      keywords: %s\n", strings.Join(r.MatchedKeywords, ", "))
		}
		if n := len(r.Chapter.Tables); n > 0 {
			cmd.Printf("      %d table(s)\n", n)
		}
		cmd.Println()
	}
	return nil
}

func runChapter(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errNotConfigured("search")
	}

	title := strings.Join(args[1:], " ")
	ch, err := searchService.GetChapter(cmd.Context(), args[0], title)
	if err != nil {
		return fmt.Errorf("chapter %q: %w", title, err)
	}
	if jsonFlag {
		return printJSON(cmd, ch)
	}

	heading := ch.Title
	if ch.Number != "" && !strings.HasPrefix(ch.Title, ch.Number) {
		heading = ch.Number + " " + ch.Title
	}
	cmd.Println(heading)
	cmd.Println(strings.Repeat("=", len([]rune(heading))))
	cmd.Println(ch.RawText)
	for _, t := range ch.Tables {
		cmd.Println()
		cmd.Printf("Table: %s\n", orDash(t.Title))
		for _, row := range t.Content {
			cmd.Printf("  | %s |\n", strings.Join(row, " | "))
		}
	}
	return nil
}
