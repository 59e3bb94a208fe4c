package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"jdscraper/pkg/config"
	"jdscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage JD Scraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'jdscraper.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources:
  - Command line flags
  - Environment variables
  - Configuration file
  - Default values`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value types and ranges
  - Path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	// Determine config file path
	configPath := configFile
	if configPath == "" {
		configPath = "jdscraper.yaml"
	}

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	// Create example configuration
	exampleConfig := `# JD Scraper Configuration File
#
# This file contains all available configuration options.
# You can also use environment variables prefixed with JDSCRAPER_
# For example: JDSCRAPER_KEYWORD, JDSCRAPER_PAGES

# Crawl target
target:
  # Search endpoint
  search_endpoint: "https://search.jd.com/Search"

  # Default search keyword
  keyword: "明日方舟"

  # Number of result pages to harvest
  pages: 150

  # Page tasks that run concurrently in one batch
  page_batch_size: 6

  # Location substrings that mark a bounce to the login wall
  redirect_patterns:
    - "passport.jd"

  # Location substrings that mark the verification service
  challenge_patterns:
    - "cfe.m.jd"

  # Location substrings the login bootstrap waits to leave
  bootstrap_patterns:
    - "passport.jd"
    - "qq.com"

  # Minimum records per field sequence below which a redirect is
  # treated as a login wall rather than a thin page
  min_field_length: 20

  # How long to wait for a human to clear a verification challenge
  challenge_timeout: 10m

# Browser configuration
browser:
  # Run the crawl browser headless
  headless: true

  # Browser binary path (empty resolves the default)
  chrome_path: ""

  # User agent override (empty uses the browser default)
  user_agent: ""

  # Timeout for page navigations
  navigation_timeout: 60s

  # Delay after navigation before collection starts
  settle_delay: 2s

# Infinite scroll configuration
scroll:
  # Maximum scroll iterations per page
  max_iterations: 12

  # Random delay range between scroll iterations
  min_delay: 500ms
  max_delay: 1500ms

# Media pipeline configuration
media:
  # Image downloads per batch
  batch_size: 5

  # Per-image download timeout
  fetch_timeout: 60s

  # Re-encode every downloaded image as PNG
  normalize: true

  # Keep the original file next to the normalized PNG
  keep_originals: false

# Session token storage
session:
  # Preferred store: file, keyring, encrypted, env
  store: "keyring"

  # cookies.json file used by the file store
  cookies_file: "cookies.json"

  # Domain session tokens are pinned to
  domain: ".jd.com"

# Rate limiting configuration
rate_limit:
  # Media requests per minute (0 disables limiting)
  requests_per_minute: 60

  # Burst size
  burst_size: 10

# Retry configuration
retry:
  # Retry page tasks bounced to the login wall
  enabled: true

  # Maximum attempts per page task
  max_attempts: 3

  # Backoff between attempts
  base_delay: 5s
  max_delay: 2m
  multiplier: 1.5
  jitter_factor: 0.4

# Output configuration
output:
  # Base directory for harvest output
  base_directory: "./harvest"

  # Media subdirectory
  media_directory: "media"

  # Listing store file
  listings_file: "listings.json"

  # Create a subdirectory per keyword
  create_keyword_folders: true

# Desktop notifications
notifications:
  enabled: true
  on_complete: true
  on_error: true
  on_challenge: true

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (empty logs to stdout only)
  file: ""

  # Maximum log file size in MB
  max_size: 100

  # Maximum number of old log files to keep
  max_backups: 3

  # Maximum age of log files in days
  max_age: 30
`

	// Write configuration file
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Adjust the keyword, page count and output directory")
	fmt.Println("2. Run 'jdscraper config validate' to check the configuration")
	fmt.Println("3. Bootstrap a session with 'jdscraper auth bootstrap'")
	fmt.Println("4. Start harvesting with 'jdscraper crawl <keyword>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	// Load configuration
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Convert to YAML for display
	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	// Show configuration sources
	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (JDSCRAPER_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	// Check if config file is specified
	if configFile == "" {
		// Try to find config file in common locations
		possiblePaths := []string{
			"jdscraper.yaml",
			"jdscraper.yml",
			".jdscraper.yaml",
			".jdscraper.yml",
			filepath.Join(os.Getenv("HOME"), ".jdscraper.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "jdscraper", "config.yaml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", configFile)

	// Try to load and validate configuration
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	// Perform additional validation checks
	warnings := []string{}
	errors := []string{}

	if cfg.Target.Keyword == "" {
		warnings = append(warnings, "no default keyword configured, crawl will require one on the command line")
	}

	// Check paths
	if cfg.Output.BaseDirectory != "" {
		if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("Cannot create output directory: %v", err))
		}
	}

	// Check logging file path
	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	// Check value ranges
	if cfg.Target.PageBatchSize < 1 || cfg.Target.PageBatchSize > 20 {
		errors = append(errors, "page_batch_size must be between 1 and 20")
	}
	if cfg.Media.BatchSize < 1 || cfg.Media.BatchSize > 20 {
		errors = append(errors, "media batch_size must be between 1 and 20")
	}
	if cfg.Scroll.MaxIterations < 1 || cfg.Scroll.MaxIterations > 100 {
		errors = append(errors, "max_iterations must be between 1 and 100")
	}
	if cfg.Scroll.MinDelay.Duration > cfg.Scroll.MaxDelay.Duration {
		errors = append(errors, "scroll min_delay must not exceed max_delay")
	}
	if cfg.Retry.MaxAttempts < 0 || cfg.Retry.MaxAttempts > 10 {
		errors = append(errors, "max_attempts must be between 0 and 10")
	}

	// Display results
	if len(errors) > 0 {
		ui.PrintError("Configuration has errors:", "")
		for _, err := range errors {
			fmt.Printf("  - %s\n", err)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:", "")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	// Show summary
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Keyword: %s\n", cfg.Target.Keyword)
	fmt.Printf("  Pages: %d (batches of %d)\n", cfg.Target.Pages, cfg.Target.PageBatchSize)
	fmt.Printf("  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Printf("  Media batch size: %d\n", cfg.Media.BatchSize)
	fmt.Printf("  Normalize to PNG: %v\n", cfg.Media.Normalize)
	fmt.Printf("  Max retries: %d\n", cfg.Retry.MaxAttempts)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
