package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the storefront scraper
type Config struct {
	// Search target settings
	Target TargetConfig `yaml:"target" json:"target"`

	// Browser session settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Infinite scroll collection settings
	Scroll ScrollConfig `yaml:"scroll" json:"scroll"`

	// Media fetch and normalization settings
	Media MediaConfig `yaml:"media" json:"media"`

	// Session token storage settings
	Session SessionConfig `yaml:"session" json:"session"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Login-wall recovery configuration
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TargetConfig holds the search endpoint and anti-bot detection patterns
type TargetConfig struct {
	SearchEndpoint    string   `yaml:"search_endpoint" json:"search_endpoint"`
	Keyword           string   `yaml:"keyword" json:"keyword"`
	Pages             int      `yaml:"pages" json:"pages"`
	PageBatchSize     int      `yaml:"page_batch_size" json:"page_batch_size"`
	RedirectPatterns  []string `yaml:"redirect_patterns" json:"redirect_patterns"`
	ChallengePatterns []string `yaml:"challenge_patterns" json:"challenge_patterns"`
	BootstrapPatterns []string `yaml:"bootstrap_patterns" json:"bootstrap_patterns"`
	MinFieldLength    int      `yaml:"min_field_length" json:"min_field_length"`
	ChallengeTimeout  Duration `yaml:"challenge_timeout" json:"challenge_timeout"`
}

// BreakPatterns returns every location pattern that should end a
// scroll loop early, combining redirect and challenge patterns.
func (t *TargetConfig) BreakPatterns() []string {
	patterns := make([]string, 0, len(t.RedirectPatterns)+len(t.ChallengePatterns))
	patterns = append(patterns, t.RedirectPatterns...)
	patterns = append(patterns, t.ChallengePatterns...)
	return patterns
}

// BrowserConfig holds browser session configuration
type BrowserConfig struct {
	Headless          bool     `yaml:"headless" json:"headless"`
	UserAgent         string   `yaml:"user_agent" json:"user_agent"`
	ChromePath        string   `yaml:"chrome_path" json:"chrome_path"`
	NavigationTimeout Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	SettleDelay       Duration `yaml:"settle_delay" json:"settle_delay"`
}

// ScrollConfig holds infinite scroll collection configuration
type ScrollConfig struct {
	MaxIterations    int      `yaml:"max_iterations" json:"max_iterations"`
	MinDelay         Duration `yaml:"min_delay" json:"min_delay"`
	MaxDelay         Duration `yaml:"max_delay" json:"max_delay"`
	LoadMoreSelector string   `yaml:"load_more_selector" json:"load_more_selector"`
}

// MediaConfig holds media fetch and normalization configuration
type MediaConfig struct {
	BatchSize     int      `yaml:"batch_size" json:"batch_size"`
	FetchTimeout  Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	Normalize     bool     `yaml:"normalize" json:"normalize"`
	KeepOriginals bool     `yaml:"keep_originals" json:"keep_originals"`
	MinFileSize   int64    `yaml:"min_file_size" json:"min_file_size"`
	MaxFileSize   int64    `yaml:"max_file_size" json:"max_file_size"`
}

// SessionConfig holds session token storage configuration
type SessionConfig struct {
	CookiesFile string `yaml:"cookies_file" json:"cookies_file"`
	Store       string `yaml:"store" json:"store"`
	Domain      string `yaml:"domain" json:"domain"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds login-wall recovery configuration. MaxAttempts caps
// how many times a discarded page task is re-run from navigation.
type RetryConfig struct {
	Enabled      bool     `yaml:"enabled" json:"enabled"`
	MaxAttempts  int      `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay    Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64  `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64  `yaml:"jitter_factor" json:"jitter_factor"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory        string `yaml:"base_directory" json:"base_directory"`
	MediaDirectory       string `yaml:"media_directory" json:"media_directory"`
	ListingsFile         string `yaml:"listings_file" json:"listings_file"`
	CreateKeywordFolders bool   `yaml:"create_keyword_folders" json:"create_keyword_folders"`
	OverwriteExisting    bool   `yaml:"overwrite_existing" json:"overwrite_existing"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	OnComplete       bool   `yaml:"on_complete" json:"on_complete"`
	OnError          bool   `yaml:"on_error" json:"on_error"`
	OnChallenge      bool   `yaml:"on_challenge" json:"on_challenge"`
	ProgressInterval int    `yaml:"progress_interval" json:"progress_interval"`
	NotificationType string `yaml:"notification_type" json:"notification_type"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			SearchEndpoint:    "https://search.jd.com/Search",
			Keyword:           "明日方舟",
			Pages:             150,
			PageBatchSize:     6,
			RedirectPatterns:  []string{"passport.jd"},
			ChallengePatterns: []string{"cfe.m.jd"},
			BootstrapPatterns: []string{"passport.jd", "qq.com"},
			MinFieldLength:    20,
			ChallengeTimeout:  NewDuration(10 * time.Minute),
		},
		Browser: BrowserConfig{
			Headless:          true,
			UserAgent:         "", // empty selects randomly from the pool
			ChromePath:        "",
			NavigationTimeout: NewDuration(30 * time.Second),
			SettleDelay:       NewDuration(3 * time.Second),
		},
		Scroll: ScrollConfig{
			MaxIterations:    12,
			MinDelay:         NewDuration(500 * time.Millisecond),
			MaxDelay:         NewDuration(1500 * time.Millisecond),
			LoadMoreSelector: "#J_scroll_loading span a",
		},
		Media: MediaConfig{
			BatchSize:     5,
			FetchTimeout:  NewDuration(30 * time.Second),
			Normalize:     true,
			KeepOriginals: false,
			MinFileSize:   0,
			MaxFileSize:   0, // 0 means no limit
		},
		Session: SessionConfig{
			CookiesFile: "cookies.json",
			Store:       "file",
			Domain:      ".jd.com",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
		Retry: RetryConfig{
			Enabled:      true,
			MaxAttempts:  3,
			BaseDelay:    NewDuration(5 * time.Second),
			MaxDelay:     NewDuration(2 * time.Minute),
			Multiplier:   1.5,
			JitterFactor: 0.4,
		},
		Output: OutputConfig{
			BaseDirectory:        "./output",
			MediaDirectory:       "media",
			ListingsFile:         "listings.json",
			CreateKeywordFolders: true,
			OverwriteExisting:    false,
		},
		Notifications: NotificationConfig{
			Enabled:          true,
			OnComplete:       true,
			OnError:          true,
			OnChallenge:      true,
			ProgressInterval: 10,
			NotificationType: "terminal",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Search target
	if keyword := os.Getenv("JDSCRAPER_KEYWORD"); keyword != "" {
		c.Target.Keyword = keyword
	}
	if endpoint := os.Getenv("JDSCRAPER_SEARCH_ENDPOINT"); endpoint != "" {
		c.Target.SearchEndpoint = endpoint
	}
	if pages := os.Getenv("JDSCRAPER_PAGES"); pages != "" {
		var val int
		fmt.Sscanf(pages, "%d", &val)
		if val > 0 {
			c.Target.Pages = val
		}
	}

	// Browser
	if userAgent := os.Getenv("JDSCRAPER_USER_AGENT"); userAgent != "" {
		c.Browser.UserAgent = userAgent
	}
	if headless := os.Getenv("JDSCRAPER_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) == "true"
	}

	// Session
	if cookies := os.Getenv("JDSCRAPER_COOKIES_FILE"); cookies != "" {
		c.Session.CookiesFile = cookies
	}

	// Output directory
	if outputDir := os.Getenv("JDSCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	// Media batch size
	if batch := os.Getenv("JDSCRAPER_MEDIA_BATCH_SIZE"); batch != "" {
		var val int
		fmt.Sscanf(batch, "%d", &val)
		if val > 0 {
			c.Media.BatchSize = val
		}
	}

	// Rate limiting
	if rpm := os.Getenv("JDSCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	// Notifications
	if notifEnabled := os.Getenv("JDSCRAPER_NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = strings.ToLower(notifEnabled) == "true"
	}

	// Logging level
	if logLevel := os.Getenv("JDSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".jdscraper.yaml",
		".jdscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "jdscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "jdscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".jdscraper.yaml"),
		filepath.Join(os.Getenv("HOME"), ".jdscraper.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Validate search target
	if c.Target.SearchEndpoint == "" {
		errs = append(errs, errors.New("search endpoint is required"))
	}
	if c.Target.Keyword == "" {
		errs = append(errs, errors.New("search keyword is required"))
	}
	if c.Target.Pages <= 0 {
		errs = append(errs, errors.New("page count must be positive"))
	}
	if c.Target.PageBatchSize <= 0 {
		errs = append(errs, errors.New("page batch size must be positive"))
	}
	if c.Target.MinFieldLength <= 0 {
		errs = append(errs, errors.New("min field length must be positive"))
	}
	if len(c.Target.RedirectPatterns) == 0 {
		errs = append(errs, errors.New("at least one redirect pattern is required"))
	}
	if len(c.Target.ChallengePatterns) == 0 {
		errs = append(errs, errors.New("at least one challenge pattern is required"))
	}
	if c.Target.ChallengeTimeout.Duration <= 0 {
		errs = append(errs, errors.New("challenge timeout must be positive"))
	}

	// Validate scroll settings
	if c.Scroll.MaxIterations <= 0 {
		errs = append(errs, errors.New("scroll iterations must be positive"))
	}
	if c.Scroll.MinDelay.Duration <= 0 {
		errs = append(errs, errors.New("scroll min delay must be positive"))
	}
	if c.Scroll.MaxDelay.Duration < c.Scroll.MinDelay.Duration {
		errs = append(errs, errors.New("scroll max delay must not be less than min delay"))
	}

	// Validate media settings
	if c.Media.BatchSize <= 0 {
		errs = append(errs, errors.New("media batch size must be positive"))
	}
	if c.Media.BatchSize > 16 {
		errs = append(errs, errors.New("media batch size should not exceed 16"))
	}
	if c.Media.FetchTimeout.Duration <= 0 {
		errs = append(errs, errors.New("media fetch timeout must be positive"))
	}
	if c.Media.MaxFileSize > 0 && c.Media.MaxFileSize < c.Media.MinFileSize {
		errs = append(errs, errors.New("media max file size must not be less than min file size"))
	}

	// Validate session settings
	validStores := map[string]bool{
		"file": true, "keyring": true, "encrypted": true, "env": true,
	}
	if !validStores[strings.ToLower(c.Session.Store)] {
		errs = append(errs, errors.New("invalid session store"))
	}
	if strings.ToLower(c.Session.Store) == "file" && c.Session.CookiesFile == "" {
		errs = append(errs, errors.New("cookies file is required for the file session store"))
	}

	// Validate rate limiting
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	// Validate retry settings
	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry max attempts must be positive"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry multiplier must be at least 1"))
	}
	if c.Retry.JitterFactor < 0 || c.Retry.JitterFactor > 1 {
		errs = append(errs, errors.New("retry jitter factor must be between 0 and 1"))
	}

	// Validate output settings
	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.MediaDirectory == "" {
		errs = append(errs, errors.New("media directory is required"))
	}
	if c.Output.ListingsFile == "" {
		errs = append(errs, errors.New("listings file is required"))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	// Validate notification type
	validNotifTypes := map[string]bool{
		"terminal": true, "desktop": true, "none": true,
	}
	if !validNotifTypes[strings.ToLower(c.Notifications.NotificationType)] {
		errs = append(errs, errors.New("invalid notification type"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Callers only insert keys for flags the user actually set, so absent
// keys never clobber file or environment values.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if keyword, ok := flags["keyword"].(string); ok && keyword != "" {
		c.Target.Keyword = keyword
	}
	if endpoint, ok := flags["endpoint"].(string); ok && endpoint != "" {
		c.Target.SearchEndpoint = endpoint
	}
	if pages, ok := flags["pages"].(int); ok && pages > 0 {
		c.Target.Pages = pages
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if cookies, ok := flags["cookies"].(string); ok && cookies != "" {
		c.Session.CookiesFile = cookies
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if batch, ok := flags["batch-size"].(int); ok && batch > 0 {
		c.Media.BatchSize = batch
	}
	if normalize, ok := flags["normalize"].(bool); ok {
		c.Media.Normalize = normalize
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".jdscraper.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
