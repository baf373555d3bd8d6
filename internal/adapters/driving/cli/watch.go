package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchProcess bool

var watchCmd = &cobra.Command{
	Use:   "watch [location]",
	Short: "Register documents as they appear",
	Long: `Registers documents already in the directory (default: the watch
directory), then keeps watching it and registers new or changed files.
With --process every newly registered document is extracted and indexed.
Stop with Ctrl+C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchProcess, "process", "p", false, "process new documents right away")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if newWatcher == nil {
		return errNotConfigured("watch")
	}
	loc, err := location(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", loc)
	if err := newWatcher(watchProcess).Run(ctx, loc); err != nil {
		return err
	}
	if ctx.Err() == context.Canceled {
		cmd.Println("Stopped.")
	}
	return nil
}
