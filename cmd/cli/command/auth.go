package command

import (
	"errors"
	"fmt"

	"inboxhub/cmd/cli/authentication"
	"inboxhub/cmd/cli/command/client"
	"inboxhub/internal/microservices/http-api/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// auth.go handles authentication commands for the inboxctl application.

// authCmd represents the auth command for authentication related subcommands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Authenticate with the InboxHub API server. Supports register, login, logout and me.`,
}

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new InboxHub account",
	RunE: func(cmd *cobra.Command, args []string) error {
		// get data from flags
		var req dto.RegisterRequest
		req.Username, _ = cmd.Flags().GetString("username")
		req.Password, _ = cmd.Flags().GetString("password")
		req.Email, _ = cmd.Flags().GetString("email")

		user, err := client.NewHTTPClient(apiURL).Register(&req)
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}

		color.Green("✓ Registration successful! Please login to continue.")
		fmt.Fprintf(cmd.OutOrStdout(), "UserID: %s\n", user.ID)
		return nil
	},
}

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to your InboxHub account",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.LoginRequest
		req.Username, _ = cmd.Flags().GetString("username")
		req.Password, _ = cmd.Flags().GetString("password")

		pair, err := client.NewHTTPClient(apiURL).Login(&req)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		saveSession(req.Username, pair)
		color.Green("✓ Successfully logged in as %s", req.Username)
		return nil
	},
}

// logoutCmd revokes the session server side, then forgets it locally
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from your InboxHub account",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if errors.Is(err, authentication.ErrNotLoggedIn) {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
			return nil
		}
		if err != nil {
			return err
		}

		// the local session is dropped even when the server is unreachable
		if err := c.Logout(); err != nil {
			color.Yellow("warning: server logout failed: %v", err)
		}
		if err := authentication.DeleteTokens(); err != nil {
			return err
		}
		color.Green("✓ Successfully logged out.")
		return nil
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the logged in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		if status != "" {
			if err := c.UpdateStatus(status); err != nil {
				return fmt.Errorf("update status: %w", err)
			}
		}

		user, err := c.Me()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:       %s\n", user.ID)
		fmt.Fprintf(out, "Username: %s\n", user.Username)
		fmt.Fprintf(out, "Email:    %s\n", user.Email)
		fmt.Fprintf(out, "Role:     %s\n", user.Role)
		fmt.Fprintf(out, "Status:   %s\n", user.Status)
		return nil
	},
}

// init function to add auth commands to root command
func init() {
	authCmd.AddCommand(registerCmd, loginCmd, logoutCmd, meCmd)

	// add flags for register command
	registerCmd.Flags().StringP("username", "u", "", "Username for the new account")
	registerCmd.Flags().StringP("password", "p", "", "Password for the new account")
	registerCmd.Flags().StringP("email", "e", "", "Email address for the new account")
	registerCmd.MarkFlagRequired("username")
	registerCmd.MarkFlagRequired("password")
	registerCmd.MarkFlagRequired("email")

	// add flags for login command
	loginCmd.Flags().StringP("username", "u", "", "Username or email of the account")
	loginCmd.Flags().StringP("password", "p", "", "Password for the account")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")

	meCmd.Flags().String("status", "", "set presence first (online, offline, away, busy)")
}
