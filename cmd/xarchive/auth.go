package main

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zxoir/twitter-month-archiver/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage X API credentials",
	Long: `Manage stored X API bearer tokens securely.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your bearer token or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store an X API bearer token securely",
	Long: `Store an X API v2 bearer token in the system keychain or encrypted file.

You will be prompted for the token; input is hidden. To obtain a token,
create a project and app in the X developer portal and copy the app's
bearer token from the "Keys and tokens" page.`,
	Example: `  # Store a token under the default profile
  xarchive auth login

  # Store a token under a named profile
  xarchive auth login work`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove a stored bearer token",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List stored credentials with tokens masked",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	credProfile := auth.DefaultProfile
	if len(args) > 0 {
		credProfile = args[0]
	}

	fmt.Printf("Bearer token for profile %q (input hidden): ", credProfile)
	tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	token := strings.TrimSpace(string(tokenBytes))
	if token == "" {
		return fmt.Errorf("bearer token must not be empty")
	}

	if err := manager.Store(&auth.Credential{Profile: credProfile, BearerToken: token}); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	fmt.Printf("Stored token %s under profile %q\n", auth.MaskToken(token), credProfile)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	credProfile := auth.DefaultProfile
	if len(args) > 0 {
		credProfile = args[0]
	}

	if err := manager.Delete(credProfile); err != nil {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}

	fmt.Printf("Removed credentials for profile %q\n", credProfile)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	creds, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list credentials: %w", err)
	}
	if len(creds) == 0 {
		fmt.Println("No stored credentials. Run 'xarchive auth login' to add one.")
		return nil
	}

	for _, cred := range creds {
		fmt.Printf("  %-12s %s  (modified %s)\n",
			cred.Profile, auth.MaskToken(cred.BearerToken),
			cred.LastModified.Format("2006-01-02 15:04"))
	}
	return nil
}
