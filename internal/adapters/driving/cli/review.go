package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/guidekit/internal/adapters/driving/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review open proposals in the terminal UI",
	Long: `Launch the interactive review screen for function proposals.

The selected proposal's code and code hash are shown. Approving sends that
exact hash, so only the code on screen can be written.

Controls:
  ↑/k, ↓/j   - Select proposal
  pgup/pgdn  - Scroll code
  a          - Approve (asks for the artifact name)
  r          - Reject (asks for a reason)
  ctrl+r     - Reload
  ?          - Toggle help
  q          - Quit`,
	Args: cobra.NoArgs,
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if !isTerminal() {
		return errors.New("review requires an interactive terminal")
	}

	app, err := tui.NewApp(&tui.Ports{Proposals: proposalService})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
