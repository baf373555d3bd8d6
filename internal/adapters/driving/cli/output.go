package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/guidekit/internal/connectors/filesystem"
)

// Overridden in tests.
var (
	promptInput io.Reader = os.Stdin
	isTerminal            = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

// errNoTerminal is returned when a confirmation cannot be asked.
var errNoTerminal = errors.New("confirmation requires an interactive terminal (use --yes to skip)")

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// confirm asks a yes/no question on the terminal. The default is no.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	if !isTerminal() {
		return false, errNoTerminal
	}
	cmd.Printf("%s [y/N]: ", question)
	answer := strings.ToLower(readLine(bufio.NewReader(promptInput)))
	return answer == "y" || answer == "yes", nil
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// location resolves a location argument, falling back to the watch directory.
func location(args []string) (string, error) {
	if len(args) > 0 {
		return filesystem.ResolvePath(args[0])
	}
	if watchDir == "" {
		return "", errors.New("no location given and no watch directory configured")
	}
	return filesystem.ResolvePath(watchDir)
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func truncate(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
