package command

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"inboxhub/cmd/cli/command/client"
	"inboxhub/internal/microservices/http-api/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// inbox.go holds the commands a regular user runs against their own inbox.

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Read and manage your notifications",
}

var inboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications in your inbox, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}

		var opts client.InboxOptions
		opts.UnreadOnly, _ = cmd.Flags().GetBool("unread")
		opts.Type, _ = cmd.Flags().GetString("type")
		opts.Page, _ = cmd.Flags().GetInt("page")
		opts.PageSize, _ = cmd.Flags().GetInt("page-size")

		page, err := c.ListInbox(opts)
		if err != nil {
			return err
		}
		printInbox(cmd.OutOrStdout(), page)
		return nil
	},
}

var inboxUnreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Show the number of unread notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		n, err := c.UnreadCount()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

var inboxReadCmd = &cobra.Command{
	Use:   "read <record-id>",
	Short: "Show a notification and mark it as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		record, err := c.GetRecord(args[0])
		if err != nil {
			return err
		}
		if !record.IsRead {
			if err := c.MarkRead(args[0]); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		n := record.Notification
		color.New(color.Bold).Fprintf(out, "%s\n", n.Title)
		fmt.Fprintf(out, "%s | priority %d | %s\n\n", n.Type, n.Priority, record.CreatedAt.Local().Format("2006-01-02 15:04"))
		fmt.Fprintln(out, n.Content)
		if n.ActionURL != nil {
			fmt.Fprintf(out, "\n%s\n", *n.ActionURL)
		}
		return nil
	},
}

var inboxReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		res, err := c.MarkAllRead()
		if err != nil {
			return err
		}
		color.Green("✓ %d notifications marked as read", res.Count)
		return nil
	},
}

var inboxDeleteCmd = &cobra.Command{
	Use:   "delete <record-id>",
	Short: "Remove a notification from your inbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		if err := c.DeleteRecord(args[0]); err != nil {
			return err
		}
		color.Green("✓ Deleted")
		return nil
	},
}

var inboxWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print notifications as they arrive",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		// the socket cannot refresh, so make sure the access token is fresh first
		if _, err := c.Me(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return client.Watch(ctx, apiURL, c.Token(), cmd.OutOrStdout())
	},
}

func printInbox(out io.Writer, page *dto.InboxListResponse) {
	if len(page.Items) == 0 {
		fmt.Fprintln(out, "No notifications.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tTITLE\tRECEIVED\t")
	for _, r := range page.Items {
		marker := "*"
		if r.IsRead {
			marker = " "
		}
		fmt.Fprintf(w, "%s %s\t%s\t%s\t%s\t\n",
			marker, r.ID, r.Notification.Type, r.Notification.Title, r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
	fmt.Fprintf(out, "\npage %d, %d of %d shown, %d unread\n", page.Page, len(page.Items), page.Total, page.UnreadCount)
}

func init() {
	inboxCmd.AddCommand(inboxListCmd, inboxUnreadCmd, inboxReadCmd, inboxReadAllCmd, inboxDeleteCmd, inboxWatchCmd)

	inboxListCmd.Flags().Bool("unread", false, "only unread notifications")
	inboxListCmd.Flags().String("type", "", "filter by type (system, business, reminder, announcement)")
	inboxListCmd.Flags().Int("page", 1, "page number")
	inboxListCmd.Flags().Int("page-size", 20, "items per page")
}
