package command

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// secret.go = JWT signing secret generation for the server .env file.

const (
	secretEnvKey     = "JWT_SECRET"
	minSecretLength  = 32
	jwtSectionHeader = "# JWT"
)

var secretLinePattern = regexp.MustCompile(`(?m)^` + secretEnvKey + `=.*$`)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage the server JWT secret",
}

var secretGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random JWT secret and optionally write it to .env",
	Example: `  inboxctl secret generate
  inboxctl secret generate --length 128
  inboxctl secret generate --update --yes --env-path deploy/.env`,
	RunE: func(cmd *cobra.Command, args []string) error {
		length, _ := cmd.Flags().GetInt("length")
		update, _ := cmd.Flags().GetBool("update")
		yes, _ := cmd.Flags().GetBool("yes")
		noBackup, _ := cmd.Flags().GetBool("no-backup")

		secret, err := GenerateSecret(length)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\nGenerated %s (length %d):\n", secretEnvKey, len(secret))
		fmt.Fprintln(out, strings.Repeat("=", 70))
		fmt.Fprintln(out, secret)
		fmt.Fprintln(out, strings.Repeat("=", 70))

		if !update {
			fmt.Fprintln(out, "\nHint: pass --update to write it to the .env file")
			return nil
		}

		if !yes {
			fmt.Fprintf(out, "\nUpdate %s? (y/N): ", envFile)
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			answer = strings.ToLower(strings.TrimSpace(answer))
			if answer != "y" && answer != "yes" {
				fmt.Fprintln(out, "Cancelled")
				return nil
			}
		}

		backup, err := UpdateEnvFile(envFile, secret, !noBackup)
		if err != nil {
			return err
		}
		if backup != "" {
			fmt.Fprintf(out, "Backup written to %s\n", backup)
		}
		color.Green("✓ %s updated in %s", secretEnvKey, envFile)
		color.Yellow("Keep the secret out of version control. Running servers must be restarted and every issued token becomes invalid.")
		return nil
	},
}

// GenerateSecret returns a URL safe random string of exactly length characters.
func GenerateSecret(length int) (string, error) {
	if length < minSecretLength {
		return "", fmt.Errorf("secret length must be at least %d", minSecretLength)
	}

	// base64 yields 4 characters per 3 bytes
	buf := make([]byte, length*3/4+1)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:length], nil
}

// UpdateEnvFile sets JWT_SECRET in the dotenv file at path. An existing line
// is replaced in place, otherwise the key goes below the "# JWT" comment or
// at the end of the file. It returns the backup path when one was written.
func UpdateEnvFile(path, secret string, backup bool) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("env file: %w", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var backupPath string
	if backup {
		backupPath = path + ".backup"
		if err := os.WriteFile(backupPath, content, 0o600); err != nil {
			return "", fmt.Errorf("write backup: %w", err)
		}
	}

	line := secretEnvKey + "=" + secret
	text := string(content)
	switch {
	case secretLinePattern.MatchString(text):
		text = secretLinePattern.ReplaceAllLiteralString(text, line)
	case strings.Contains(text, jwtSectionHeader):
		idx := strings.Index(text, jwtSectionHeader)
		end := strings.IndexByte(text[idx:], '\n')
		if end < 0 {
			text += "\n" + line + "\n"
		} else {
			pos := idx + end + 1
			text = text[:pos] + line + "\n" + text[pos:]
		}
	default:
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		text += "\n" + jwtSectionHeader + "\n" + line + "\n"
	}

	if err := os.WriteFile(path, []byte(text), info.Mode().Perm()); err != nil {
		return backupPath, fmt.Errorf("write env file: %w", err)
	}
	return backupPath, nil
}

func init() {
	secretCmd.AddCommand(secretGenerateCmd)

	secretGenerateCmd.Flags().IntP("length", "l", 64, "secret length in characters")
	secretGenerateCmd.Flags().BoolP("update", "u", false, "write the secret to the .env file given by --env-path")
	secretGenerateCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	secretGenerateCmd.Flags().Bool("no-backup", false, "do not keep a .backup copy of the .env file")
}
