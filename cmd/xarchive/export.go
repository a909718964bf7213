package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Zxoir/twitter-month-archiver/pkg/archive"
	"github.com/Zxoir/twitter-month-archiver/pkg/auth"
	"github.com/Zxoir/twitter-month-archiver/pkg/config"
	"github.com/Zxoir/twitter-month-archiver/pkg/logger"
)

var (
	// Export command flags
	month           string
	outputDir       string
	pageSize        int
	rateLimit       int
	includeReplies  bool
	includeRetweets bool
	forceRestart    bool
	bearerToken     string
	profile         string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <handle> [handle...]",
	Short: "Archive one month of posts for the given accounts",
	Long: `Archive every post the given accounts published in one UTC calendar
month. Each account produces a single JSON file named <handle>_<month>.json
in the output directory.

A bearer token for the X API v2 must be available through one of:
  - Stored credentials (use 'xarchive auth login' to store)
  - The X_BEARER_TOKEN environment variable
  - The --bearer-token flag or the configuration file

Interrupted runs leave a checkpoint next to the archive and resume from it
on the next invocation with the same handle and month.`,
	Example: `  # Archive August 2024 for one account
  xarchive export jack --month 2024-08

  # Multiple accounts, custom output directory
  xarchive export jack jill --month 2024-08 --output ./archives

  # Include replies and retweets
  xarchive export jack --month 2024-08 --include-replies --include-retweets

  # Ignore an existing checkpoint and refetch from scratch
  xarchive export jack --month 2024-08 --force-restart`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&month, "month", "m", "", "calendar month to archive, YYYY-MM (UTC)")
	exportCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for archives")
	exportCmd.Flags().IntVar(&pageSize, "page-size", 0, "items requested per API page")
	exportCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "requests per minute")
	exportCmd.Flags().BoolVar(&includeReplies, "include-replies", false, "include the account's replies")
	exportCmd.Flags().BoolVar(&includeRetweets, "include-retweets", false, "include the account's retweets")
	exportCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "ignore existing checkpoints and refetch from scratch")
	exportCmd.Flags().StringVar(&bearerToken, "bearer-token", "", "X API v2 bearer token")
	exportCmd.Flags().StringVar(&profile, "profile", "", "stored credential profile to use")

	_ = exportCmd.MarkFlagRequired("month")
}

func runExport(cmd *cobra.Command, args []string) error {
	// Only pass flags the user actually set, so config file and env values
	// are not clobbered by flag defaults
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("output") {
		flags["output"] = outputDir
	}
	if cmd.Flags().Changed("page-size") {
		flags["page-size"] = pageSize
	}
	if cmd.Flags().Changed("rate-limit") {
		flags["requests-per-minute"] = rateLimit
	}
	if cmd.Flags().Changed("include-replies") {
		flags["include-replies"] = includeReplies
	}
	if cmd.Flags().Changed("include-retweets") {
		flags["include-retweets"] = includeRetweets
	}
	if cmd.Flags().Changed("bearer-token") {
		flags["bearer-token"] = bearerToken
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Initialize(&cfg.Logging)
	log := logger.GetLogger()
	log.WithField("version", version).Info("xarchive starting")

	// Fall back to stored credentials when config and flags carry no token
	if cfg.API.BearerToken == "" {
		credManager, err := auth.NewManager()
		if err != nil {
			return fmt.Errorf("failed to initialize credential manager: %w", err)
		}
		lookup := profile
		if lookup == "" {
			lookup = auth.DefaultProfile
		}
		cred, err := credManager.Retrieve(lookup)
		if err != nil {
			fmt.Fprintln(os.Stderr, "No X API bearer token found.")
			fmt.Fprintln(os.Stderr, "\nTo store a token securely, run:")
			fmt.Fprintln(os.Stderr, "  xarchive auth login")
			fmt.Fprintln(os.Stderr, "\nOr set an environment variable:")
			fmt.Fprintln(os.Stderr, "  export X_BEARER_TOKEN=your_bearer_token")
			return fmt.Errorf("no credentials available")
		}
		cfg.API.BearerToken = cred.BearerToken
		log.WithField("profile", cred.Profile).Info("using stored credentials")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	archiver, err := archive.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize archiver: %w", err)
	}

	summary, err := archiver.Run(ctx, args, month, forceRestart)
	if err != nil {
		if summary != nil {
			printSummary(summary)
		}
		return err
	}

	printSummary(summary)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d accounts failed", summary.Failed, len(summary.Results))
	}
	return nil
}

func printSummary(summary *archive.Summary) {
	for _, result := range summary.Results {
		if result.Err != nil {
			fmt.Printf("  %-16s failed: %v\n", result.Handle, result.Err)
			continue
		}
		fmt.Printf("  %-16s %d posts -> %s_%s.json\n",
			result.Handle, result.Artifact.Count, result.Handle, result.Artifact.Month)
	}
	fmt.Printf("Done: %d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
}
