package command

// root.go defines the root command for the inboxctl application.
// set up the global flags and the shared client helpers here.

import (
	"fmt"
	"os"
	"time"

	"inboxhub/cmd/cli/authentication"
	"inboxhub/cmd/cli/command/client"
	"inboxhub/internal/microservices/http-api/dto"

	"github.com/spf13/cobra"
)

const defaultAPIURL = "http://localhost:8080/api/v1"

var (
	apiURL  string // Global flag for API server URL
	envFile string // .env path used by secret and config commands
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "inboxctl",
	Short: "inboxctl - InboxHub Command Line Interface",
	Long: `inboxctl talks to the InboxHub API. User can use this application to:
- Register, login and manage the current session
- Read and manage the notification inbox
- Watch notifications arrive in realtime
- Create and send notifications (admin accounts)

Use "inboxctl command --help" or "inboxctl command -h" to see all available commands.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err) // Print error to standard error
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("INBOXCTL_API", defaultAPIURL), "API server URL including the API prefix")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-path", ".env", "path of the server .env file")

	rootCmd.AddCommand(authCmd, inboxCmd, adminCmd, secretCmd, configCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// authedClient builds a client from the keyring session. Refreshed tokens are
// written back so the next invocation starts from the rotated pair.
func authedClient() (*client.HTTPClient, *authentication.StoredCredentials, error) {
	creds, err := authentication.GetTokens()
	if err != nil {
		return nil, nil, err
	}

	c := client.NewHTTPClient(apiURL)
	c.SetToken(creds.AccessToken)
	c.SetRefresh(creds.RefreshToken, func(pair *dto.TokenResponse) {
		saveSession(creds.Username, pair)
	})
	return c, creds, nil
}

func saveSession(username string, pair *dto.TokenResponse) {
	creds := &authentication.StoredCredentials{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Username:     username,
		APIURL:       apiURL,
		ExpiresAt:    time.Now().Add(time.Duration(pair.ExpiresIn) * time.Second).Unix(),
	}
	if err := authentication.StoreTokens(creds); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not store tokens:", err)
	}
}
