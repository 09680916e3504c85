package command

import (
	"fmt"

	"inboxhub/internal/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the server configuration",
}

// configCheckCmd loads the server configuration the way api-server does.
var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load and validate the server configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigFrom(envFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		color.Green("✓ configuration is valid")
		fmt.Fprintf(out, "env:       %s\n", cfg.GoEnv)
		fmt.Fprintf(out, "listen:    %s%s\n", cfg.HTTPAddr(), cfg.APIPrefix)
		fmt.Fprintf(out, "database:  %s\n", cfg.DBDriver)
		if cfg.RedisEnabled() {
			fmt.Fprintln(out, "redis:     enabled")
		} else {
			fmt.Fprintln(out, "redis:     disabled (single instance mode)")
		}
		fmt.Fprintf(out, "admin:     %t\n", cfg.AdminBootstrapEnabled())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configCheckCmd)
}
