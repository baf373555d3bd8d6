package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Show registry events",
	Long:  `List and acknowledge events such as new documents, processing results and approvals.`,
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsList,
}

var notificationsAckCmd = &cobra.Command{
	Use:   "ack [event-id]",
	Short: "Acknowledge an event",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runNotificationsAck,
}

var (
	notificationsUnread bool
	ackAll              bool
)

func init() {
	notificationsListCmd.Flags().BoolVarP(&notificationsUnread, "unread", "u", false, "only unacknowledged events")
	notificationsAckCmd.Flags().BoolVarP(&ackAll, "all", "a", false, "acknowledge every event")
	notificationsCmd.AddCommand(notificationsListCmd)
	notificationsCmd.AddCommand(notificationsAckCmd)
	rootCmd.AddCommand(notificationsCmd)
}

func runNotificationsList(cmd *cobra.Command, _ []string) error {
	if notificationService == nil {
		return errNotConfigured("notification")
	}
	events, err := notificationService.List(cmd.Context(), notificationsUnread)
	if err != nil {
		return fmt.Errorf("failed to list notifications: %w", err)
	}
	if jsonFlag {
		return printJSON(cmd, events)
	}
	if len(events) == 0 {
		cmd.Println("No notifications.")
		return nil
	}
	for _, e := range events {
		mark := "*"
		if e.Acknowledged {
			mark = " "
		}
		cmd.Printf("%s %s  %s  %-20s %s\n", mark, e.Timestamp.Format("2006-01-02 15:04"), shortHash(e.ID), e.EventType, e.Message)
	}
	return nil
}

func runNotificationsAck(cmd *cobra.Command, args []string) error {
	if notificationService == nil {
		return errNotConfigured("notification")
	}
	if ackAll {
		n, err := notificationService.AcknowledgeAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to acknowledge: %w", err)
		}
		cmd.Printf("Acknowledged %d event(s).\n", n)
		return nil
	}
	if len(args) == 0 {
		return errors.New("an event id or --all is required")
	}
	if err := notificationService.Acknowledge(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to acknowledge %s: %w", args[0], err)
	}
	cmd.Printf("Acknowledged %s.\n", args[0])
	return nil
}
