package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Propose and confirm external guideline updates",
	Long: `External updates run in two steps. "web propose" lists ranked options
without touching the network; "web confirm" runs exactly one of them.

Update types:
  websearch        - search trusted guideline publishers for a query
  download         - download a URL into the watch directory and register it
  guideline_check  - look for newer versions of old indexed guidelines`,
}

var webProposeCmd = &cobra.Command{
	Use:   "propose [type] [query-or-url...]",
	Short: "Propose an external update",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWebPropose,
}

var webConfirmCmd = &cobra.Command{
	Use:   "confirm [proposal-id] [option]",
	Short: "Run one option of a proposed update",
	Long: `Runs the chosen option, given verbatim or by its number in the list.
The proposal is consumed on success and kept for a retry on failure.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runWebConfirm,
}

var webListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open update proposals",
	Args:  cobra.NoArgs,
	RunE:  runWebList,
}

var webConfirmYes bool

func init() {
	webConfirmCmd.Flags().BoolVarP(&webConfirmYes, "yes", "y", false, "skip the confirmation prompt")
	webCmd.AddCommand(webProposeCmd)
	webCmd.AddCommand(webConfirmCmd)
	webCmd.AddCommand(webListCmd)
	rootCmd.AddCommand(webCmd)
}

func runWebPropose(cmd *cobra.Command, args []string) error {
	if brokerService == nil {
		return errNotConfigured("web update")
	}

	p, err := brokerService.ProposeWebUpdate(cmd.Context(), strings.Join(args[1:], " "), domain.UpdateType(args[0]))
	if err != nil {
		return fmt.Errorf("propose failed: %w", err)
	}
	if jsonFlag {
		return printJSON(cmd, p)
	}
	printWebProposal(cmd, p)
	cmd.Println()
	cmd.Printf("Run one with: guidekit web confirm %s <number>\n", p.ProposalID)
	return nil
}

func runWebConfirm(cmd *cobra.Command, args []string) error {
	if brokerService == nil {
		return errNotConfigured("web update")
	}
	id, option := args[0], strings.Join(args[1:], " ")

	if !webConfirmYes {
		ok, err := confirm(cmd, fmt.Sprintf("Run %q?", option))
		if err != nil {
			return err
		}
		if !ok {
			cmd.Println("Aborted.")
			return nil
		}
	}

	outcome, err := brokerService.ConfirmWebUpdate(cmd.Context(), id, option)
	if err != nil {
		return fmt.Errorf("confirm failed: %w", err)
	}
	if jsonFlag {
		return printJSON(cmd, outcome)
	}

	cmd.Printf("Executed %s: %s\n", outcome.UpdateType, outcome.Option)
	if outcome.DownloadedPath != "" {
		state := "already registered"
		if outcome.IsNew {
			state = "registered"
		}
		cmd.Printf("Saved %s (%s, %s)\n", outcome.DownloadedPath, shortHash(outcome.ContentHash), state)
	}
	for i, h := range outcome.Hits {
		cmd.Printf("  [%d] %s\n      %s\n", i+1, h.Title, h.URL)
		if h.Snippet != "" {
			cmd.Printf("      %s\n", truncate(h.Snippet, 160))
		}
	}
	return nil
}

func runWebList(cmd *cobra.Command, _ []string) error {
	if brokerService == nil {
		return errNotConfigured("web update")
	}
	proposals, err := brokerService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list web proposals: %w", err)
	}
	if jsonFlag {
		return printJSON(cmd, proposals)
	}
	if len(proposals) == 0 {
		cmd.Println("No open update proposals.")
		return nil
	}
	for i := range proposals {
		printWebProposal(cmd, &proposals[i])
		cmd.Println()
	}
	return nil
}

func printWebProposal(cmd *cobra.Command, p *domain.WebUpdateProposal) {
	cmd.Printf("Proposal: %s (%s)\n", p.ProposalID, p.UpdateType)
	cmd.Printf("Reason:   %s\n", p.Reason)
	for i, o := range p.Options {
		cmd.Printf("  %d. %s\n", i+1, o)
	}
}
