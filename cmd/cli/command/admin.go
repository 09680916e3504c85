package command

import (
	"fmt"
	"text/tabwriter"
	"time"

	"inboxhub/internal/microservices/http-api/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// admin.go = notification management, the logged in account needs the admin role.

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Create and send notifications (admin only)",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a notification",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}

		var req dto.CreateNotificationRequest
		req.Type, _ = cmd.Flags().GetString("type")
		req.Title, _ = cmd.Flags().GetString("title")
		req.Content, _ = cmd.Flags().GetString("content")
		req.Priority, _ = cmd.Flags().GetInt("priority")
		if actionURL, _ := cmd.Flags().GetString("action-url"); actionURL != "" {
			req.ActionURL = &actionURL
		}
		if ttl, _ := cmd.Flags().GetDuration("expires-in"); ttl > 0 {
			expires := time.Now().UTC().Add(ttl)
			req.ExpiresAt = &expires
		}

		n, err := c.CreateNotification(&req)
		if err != nil {
			return err
		}
		color.Green("✓ Notification created")
		fmt.Fprintf(cmd.OutOrStdout(), "ID: %s\n", n.ID)
		return nil
	},
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		skip, _ := cmd.Flags().GetInt("skip")
		limit, _ := cmd.Flags().GetInt("limit")

		page, err := c.ListNotifications(skip, limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tPRIORITY\tTITLE\tEXPIRES\t")
		for _, n := range page.Items {
			expires := "-"
			if n.ExpiresAt != nil {
				expires = n.ExpiresAt.Local().Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t\n", n.ID, n.Type, n.Priority, n.Title, expires)
		}
		w.Flush()
		fmt.Fprintf(out, "\n%d of %d shown\n", len(page.Items), page.Total)
		return nil
	},
}

var adminSendCmd = &cobra.Command{
	Use:   "send <notification-id>",
	Short: "Deliver a notification to users",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.SendNotificationRequest
		req.UserIDs, _ = cmd.Flags().GetStringSlice("user")
		req.SendToAll, _ = cmd.Flags().GetBool("all")
		if !req.SendToAll && len(req.UserIDs) == 0 {
			return fmt.Errorf("either --user or --all is required")
		}

		c, _, err := authedClient()
		if err != nil {
			return err
		}
		res, err := c.SendNotification(args[0], &req)
		if err != nil {
			return err
		}
		color.Green("✓ %s", res.Message)
		return nil
	},
}

var adminDeleteCmd = &cobra.Command{
	Use:   "delete <notification-id>",
	Short: "Delete a notification and every inbox entry of it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		if err := c.DeleteNotification(args[0]); err != nil {
			return err
		}
		color.Green("✓ Deleted")
		return nil
	},
}

func init() {
	adminCmd.AddCommand(adminCreateCmd, adminListCmd, adminSendCmd, adminDeleteCmd)

	adminCreateCmd.Flags().StringP("type", "t", "system", "system, business, reminder or announcement")
	adminCreateCmd.Flags().String("title", "", "notification title")
	adminCreateCmd.Flags().String("content", "", "notification body")
	adminCreateCmd.Flags().String("action-url", "", "link opened from the notification")
	adminCreateCmd.Flags().Int("priority", 0, "0 normal, 1 important, 2 urgent")
	adminCreateCmd.Flags().Duration("expires-in", 0, "expire after this long, e.g. 72h")
	adminCreateCmd.MarkFlagRequired("title")
	adminCreateCmd.MarkFlagRequired("content")

	adminListCmd.Flags().Int("skip", 0, "items to skip")
	adminListCmd.Flags().Int("limit", 20, "max items")

	adminSendCmd.Flags().StringSlice("user", nil, "recipient user id, repeatable")
	adminSendCmd.Flags().Bool("all", false, "send to every user")
}
