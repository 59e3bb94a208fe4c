package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"jdscraper/pkg/browser"
	"jdscraper/pkg/config"
	"jdscraper/pkg/crawler"
	"jdscraper/pkg/logger"
	"jdscraper/pkg/session"
	"jdscraper/pkg/ui"
	"jdscraper/pkg/ui/tui"
)

var (
	// Crawl command flags
	searchEndpoint string
	totalPages     int
	outputDir      string
	cookiesFile    string
	headless       bool
	batchSize      int
	normalize      bool
	profileName    string
	resumeCrawl    bool
	forceRestart   bool
	useTUI         bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl [keyword]",
	Short: "Harvest search result listings for a keyword",
	Long: `Harvest every search results page for a keyword, listings and
images included.

This command requires a bootstrapped storefront session, configured
through one of:
  - Stored session tokens (use 'jdscraper auth bootstrap' to log in)
  - A cookies.json file exported from a browser (--cookies)
  - The JDSCRAPER_COOKIES environment variable

Listings are appended to a JSON store under the output directory and
every listing image is downloaded, normalized to PNG, and written next
to a metadata sidecar describing its listing.`,
	Example: `  # Harvest the configured default keyword
  jdscraper crawl

  # Harvest a keyword across 50 pages into a specific directory
  jdscraper crawl "mechanical keyboard" --pages 50 --output ./harvest

  # Watch the login and challenge flow in a visible browser
  jdscraper crawl figures --headless=false

  # Resume an interrupted crawl
  jdscraper crawl figures --resume

  # Start fresh, ignoring the existing checkpoint
  jdscraper crawl figures --force-restart

  # Interactive terminal UI with live page and fetch tracking
  jdscraper crawl figures --tui`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runCrawl(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().StringVar(&searchEndpoint, "endpoint", "", "search endpoint URL (default from config)")
	crawlCmd.Flags().IntVar(&totalPages, "pages", 0, "number of result pages to harvest (default from config)")
	crawlCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for listings and media")
	crawlCmd.Flags().StringVar(&cookiesFile, "cookies", "", "cookies.json file holding session tokens")
	crawlCmd.Flags().BoolVar(&headless, "headless", true, "run the crawl browser headless")
	crawlCmd.Flags().IntVar(&batchSize, "batch-size", 0, "image downloads per batch (default from config)")
	crawlCmd.Flags().BoolVar(&normalize, "normalize", true, "re-encode downloaded images as PNG")
	crawlCmd.Flags().StringVarP(&profileName, "profile", "a", "", "use a specific stored session profile")
	crawlCmd.Flags().BoolVar(&resumeCrawl, "resume", false, "resume from last checkpoint")
	crawlCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "force restart, ignoring existing checkpoint")
	crawlCmd.Flags().BoolVar(&useTUI, "tui", false, "use interactive terminal UI with real-time progress")

	// Also add these flags to the root command so the bare
	// 'jdscraper <keyword>' form accepts them
	rootCmd.Flags().IntVar(&totalPages, "pages", 0, "number of result pages to harvest (default from config)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for listings and media")
	rootCmd.Flags().StringVar(&cookiesFile, "cookies", "", "cookies.json file holding session tokens")
	rootCmd.Flags().StringVarP(&profileName, "profile", "a", "", "use a specific stored session profile")
	rootCmd.Flags().BoolVar(&resumeCrawl, "resume", false, "resume from last checkpoint")
	rootCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "force restart, ignoring existing checkpoint")
	rootCmd.Flags().BoolVar(&useTUI, "tui", false, "use interactive terminal UI with real-time progress")
}

func runCrawl(cmd *cobra.Command, args []string) {
	// Build flags map from command line; only flags the user actually
	// set override the config file and environment.
	flags := make(map[string]interface{})
	if len(args) > 0 {
		flags["keyword"] = strings.TrimSpace(args[0])
	}
	if searchEndpoint != "" {
		flags["endpoint"] = searchEndpoint
	}
	if totalPages > 0 {
		flags["pages"] = totalPages
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if cookiesFile != "" {
		flags["cookies"] = cookiesFile
	}
	if !headless {
		flags["headless"] = false
	}
	if batchSize > 0 {
		flags["batch-size"] = batchSize
	}
	if !normalize {
		flags["normalize"] = false
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	if !notifications {
		cfg.Notifications.Enabled = false
	}

	logger.Initialize(&cfg.Logging)
	log := logger.GetLogger()
	log.WithField("version", version).Info("JD Scraper starting")

	keyword := cfg.Target.Keyword
	if !useTUI {
		ui.PrintInfo("Target Keyword", keyword)
		ui.PrintInfo("Pages", fmt.Sprintf("%d", cfg.Target.Pages))
	}

	tokens := loadSessionTokens(cfg, log)

	// Interrupts leave the checkpoint in place so the crawl can resume.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory := browser.NewFactory(cfg, log)
	defer factory.Close()

	c, err := crawler.New(cfg, tokens, factory, log)
	if err != nil {
		ui.PrintError("Failed to initialize crawler", err.Error())
		os.Exit(1)
	}

	if useTUI {
		terminal := tui.NewTUI(cfg.Target.PageBatchSize, c.AcknowledgeChallenge)
		c.SetTUI(terminal)

		// Run the crawl in a goroutine while the TUI owns the terminal.
		crawlDone := make(chan error)
		go func() {
			crawlDone <- c.RunWithResume(ctx, resumeCrawl, forceRestart)
		}()

		tuiDone := make(chan error)
		go func() {
			tuiDone <- terminal.Start()
		}()

		select {
		case err := <-crawlDone:
			terminal.Stop()
			<-tuiDone // Wait for TUI to finish
			if err != nil {
				log.WithError(err).WithField("keyword", keyword).Error("Crawl failed")
				os.Exit(1)
			}
		case err := <-tuiDone:
			if err != nil {
				log.WithError(err).Error("TUI failed")
				os.Exit(1)
			}
		}

		log.WithField("keyword", keyword).Info("Crawl completed successfully")
	} else {
		if err := c.RunWithResume(ctx, resumeCrawl, forceRestart); err != nil {
			log.WithError(err).WithField("keyword", keyword).Error("Crawl failed")
			ui.PrintError("HARVEST FAILED", err.Error())
			os.Exit(1)
		}
		log.WithField("keyword", keyword).Info("Crawl completed successfully")
	}

	stats := c.Stats()
	if !ui.IsQuietMode() {
		fmt.Printf("\n%s %d pages, %d listings, %d images\n",
			ui.Green("Harvested:"), stats.PagesCompleted, stats.Records, stats.MediaFetched)
		if stats.PagesFailed > 0 {
			fmt.Printf("%s %d pages failed, rerun with --resume to retry them\n",
				ui.Yellow("Warning:"), stats.PagesFailed)
		}
	}
}

// loadSessionTokens resolves session tokens from the configured stores.
// A missing session is fatal: the storefront serves anonymous traffic a
// login wall on the first page.
func loadSessionTokens(cfg *config.Config, log logger.Logger) *session.TokenSet {
	manager, err := session.NewManager(cfg.Session.Store, cfg.Session.CookiesFile)
	if err != nil {
		ui.PrintError("Failed to initialize session manager", err.Error())
		os.Exit(1)
	}

	var tokens *session.TokenSet
	if profileName != "" {
		tokens, err = manager.Retrieve(profileName)
		if err != nil {
			ui.PrintError("Session profile not found", profileName)
			ui.PrintInfo("Available profiles", "Use 'jdscraper auth list' to see stored sessions")
			os.Exit(1)
		}
	} else {
		tokens, err = manager.RetrieveDefault()
		if err != nil {
			log.Error("No session tokens found")
			ui.PrintError("No storefront session found", "")
			session.ShowQuickBootstrapGuide()
			os.Exit(1)
		}
	}

	if len(tokens.Tokens) == 0 {
		ui.PrintError("Stored session is empty", "Run 'jdscraper auth bootstrap' to log in again")
		os.Exit(1)
	}

	log.WithField("profile", tokens.Profile).Info("Using stored session tokens")
	if !useTUI {
		ui.PrintInfo("Using session profile", tokens.Profile)
	}
	return tokens
}

// Make crawl the default command when no subcommand is specified
func init() {
	origRunE := rootCmd.RunE
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if origRunE != nil {
			return origRunE(cmd, args)
		}
		if len(args) > 0 && !isKnownCommand(args[0]) {
			// If the first argument is not a known command, treat it as
			// a search keyword
			return crawlCmd.RunE(crawlCmd, args)
		}
		// Otherwise show help
		return cmd.Help()
	}

	// Set Args to allow arbitrary arguments
	rootCmd.Args = cobra.ArbitraryArgs
}

func isKnownCommand(arg string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == arg || cmd.HasAlias(arg) {
			return true
		}
	}
	return false
}
