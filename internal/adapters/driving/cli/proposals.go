package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

var proposeCmd = &cobra.Command{
	Use:   "propose [query]",
	Short: "Propose a decision function from indexed guidelines",
	Long: `Finds the best chapter for the query and synthesizes a risk score,
recommendation table or classification from it. The generated code and its
hash are printed for review; nothing is written until the proposal is approved.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPropose,
}

var approveCmd = &cobra.Command{
	Use:   "approve [proposal-id]",
	Short: "Approve a proposal and write its code",
	Long: `Writes the proposed code to the artifact directory as <name>.go.
The --hash flag must be the code hash printed with the proposal; a different
hash is refused so only reviewed code is written.`,
	Args: cobra.ExactArgs(1),
	RunE: runApprove,
}

var rejectCmd = &cobra.Command{
	Use:   "reject [proposal-id]",
	Short: "Reject a proposal",
	Args:  cobra.ExactArgs(1),
	RunE:  runReject,
}

var proposalsCmd = &cobra.Command{
	Use:   "proposals",
	Short: "Inspect function proposals",
}

var proposalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List function proposals",
	Args:  cobra.NoArgs,
	RunE:  runProposalsList,
}

var proposalsGetCmd = &cobra.Command{
	Use:   "get [proposal-id]",
	Short: "Show a proposal with its code",
	Args:  cobra.ExactArgs(1),
	RunE:  runProposalsGet,
}

var (
	approveHash   string
	approveName   string
	approveYes    bool
	rejectReason  string
	proposalsOpen bool
)

func init() {
	approveCmd.Flags().StringVar(&approveHash, "hash", "", "code hash of the reviewed code (required)")
	approveCmd.Flags().StringVar(&approveName, "name", "", "artifact file name, lower_snake_case (required)")
	approveCmd.Flags().BoolVarP(&approveYes, "yes", "y", false, "skip the confirmation prompt")
	_ = approveCmd.MarkFlagRequired("hash")
	_ = approveCmd.MarkFlagRequired("name")

	rejectCmd.Flags().StringVarP(&rejectReason, "reason", "r", "", "why the proposal is rejected (required)")
	_ = rejectCmd.MarkFlagRequired("reason")

	proposalsListCmd.Flags().BoolVar(&proposalsOpen, "open", false, "only proposals awaiting a decision")

	proposalsCmd.AddCommand(proposalsListCmd)
	proposalsCmd.AddCommand(proposalsGetCmd)
	rootCmd.AddCommand(proposeCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(proposalsCmd)
}

func runPropose(cmd *cobra.Command, args []string) error {
	if proposalService == nil {
		return errNotConfigured("proposal")
	}

	query := strings.Join(args, " ")
	p, err := proposalService.ProposeFunction(cmd.Context(), query)
	if errors.Is(err, domain.ErrNoTemplate) {
		return fmt.Errorf("no decision logic recognised for %q; nothing was proposed: %w", query, err)
	}
	if err != nil {
		return fmt.Errorf("propose failed: %w", err)
	}

	if jsonFlag {
		return printJSON(cmd, p)
	}
	printProposal(cmd, p)
	cmd.Println()
	cmd.Printf("Approve with: guidekit approve %s --hash %s --name <file_name>\n", p.ProposalID, p.CodeHash)
	return nil
}

func runApprove(cmd *cobra.Command, args []string) error {
	if proposalService == nil {
		return errNotConfigured("proposal")
	}
	id := args[0]

	if !approveYes {
		p, err := proposalService.Get(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("proposal %s: %w", id, err)
		}
		ok, err := confirm(cmd, fmt.Sprintf("Write %s as %s.go?", p.FunctionName, approveName))
		if err != nil {
			return err
		}
		if !ok {
			cmd.Println("Aborted.")
			return nil
		}
	}

	p, err := proposalService.Approve(cmd.Context(), id, approveHash, approveName)
	if err != nil {
		return fmt.Errorf("approve failed: %w", err)
	}
	if jsonFlag {
		return printJSON(cmd, p)
	}
	cmd.Printf("Approved %s -> %s\n", p.FunctionName, p.ArtifactPath)
	return nil
}

func runReject(cmd *cobra.Command, args []string) error {
	if proposalService == nil {
		return errNotConfigured("proposal")
	}
	p, err := proposalService.Reject(cmd.Context(), args[0], rejectReason)
	if err != nil {
		return fmt.Errorf("reject failed: %w", err)
	}
	if jsonFlag {
		return printJSON(cmd, p)
	}
	cmd.Printf("Rejected %s (%s).\n", p.FunctionName, p.ProposalID)
	return nil
}

func runProposalsList(cmd *cobra.Command, _ []string) error {
	if proposalService == nil {
		return errNotConfigured("proposal")
	}
	proposals, err := proposalService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list proposals: %w", err)
	}
	if proposalsOpen {
		open := proposals[:0]
		for _, p := range proposals {
			if p.Status == domain.ProposalProposed {
				open = append(open, p)
			}
		}
		proposals = open
	}

	if jsonFlag {
		return printJSON(cmd, proposals)
	}
	if len(proposals) == 0 {
		cmd.Println("No proposals.")
		return nil
	}
	for _, p := range proposals {
		cmd.Printf("  %s  %-9s %-22s %s\n", p.ProposalID, p.Status, p.RuleSet.Kind, p.FunctionName)
	}
	return nil
}

func runProposalsGet(cmd *cobra.Command, args []string) error {
	if proposalService == nil {
		return errNotConfigured("proposal")
	}
	p, err := proposalService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("proposal %s: %w", args[0], err)
	}
	if jsonFlag {
		return printJSON(cmd, p)
	}
	printProposal(cmd, p)
	return nil
}

func printProposal(cmd *cobra.Command, p *domain.FunctionProposal) {
	cmd.Printf("Proposal:  %s\n", p.ProposalID)
	cmd.Printf("Function:  %s (%s, %d rules)\n", p.FunctionName, p.RuleSet.Kind, len(p.RuleSet.Rules))
	cmd.Printf("Status:    %s\n", p.Status)
	if p.Reason != "" {
		cmd.Printf("Reason:    %s\n", p.Reason)
	}
	if p.ArtifactPath != "" {
		cmd.Printf("Artifact:  %s\n", p.ArtifactPath)
	}
	cmd.Printf("Source:    %s %q\n", p.SourceType, p.SourceTitle)
	for _, e := range p.EvidenceSources {
		cmd.Printf("Evidence:  %s\n", e)
	}
	cmd.Printf("Tests:     %d placeholder case(s)\n", len(p.TestCases))
	cmd.Printf("Code hash: %s\n", p.CodeHash)
	cmd.Println()
	cmd.Println(p.FunctionCode)
}
