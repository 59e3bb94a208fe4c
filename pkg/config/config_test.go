package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)

	// Test Target defaults
	assert.Equal(t, "https://search.jd.com/Search", cfg.Target.SearchEndpoint)
	assert.Equal(t, "明日方舟", cfg.Target.Keyword)
	assert.Equal(t, 150, cfg.Target.Pages)
	assert.Equal(t, 6, cfg.Target.PageBatchSize)
	assert.Equal(t, []string{"passport.jd"}, cfg.Target.RedirectPatterns)
	assert.Equal(t, []string{"cfe.m.jd"}, cfg.Target.ChallengePatterns)
	assert.Equal(t, []string{"passport.jd", "qq.com"}, cfg.Target.BootstrapPatterns)
	assert.Equal(t, 20, cfg.Target.MinFieldLength)
	assert.Equal(t, 10*time.Minute, cfg.Target.ChallengeTimeout.Duration)

	// Test Browser defaults
	assert.True(t, cfg.Browser.Headless)
	assert.Empty(t, cfg.Browser.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.Browser.NavigationTimeout.Duration)
	assert.Equal(t, 3*time.Second, cfg.Browser.SettleDelay.Duration)

	// Test Scroll defaults
	assert.Equal(t, 12, cfg.Scroll.MaxIterations)
	assert.Equal(t, 500*time.Millisecond, cfg.Scroll.MinDelay.Duration)
	assert.Equal(t, 1500*time.Millisecond, cfg.Scroll.MaxDelay.Duration)
	assert.Equal(t, "#J_scroll_loading span a", cfg.Scroll.LoadMoreSelector)

	// Test Media defaults
	assert.Equal(t, 5, cfg.Media.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.Media.FetchTimeout.Duration)
	assert.True(t, cfg.Media.Normalize)
	assert.False(t, cfg.Media.KeepOriginals)
	assert.Equal(t, int64(0), cfg.Media.MinFileSize)
	assert.Equal(t, int64(0), cfg.Media.MaxFileSize)

	// Test Session defaults
	assert.Equal(t, "cookies.json", cfg.Session.CookiesFile)
	assert.Equal(t, "file", cfg.Session.Store)
	assert.Equal(t, ".jd.com", cfg.Session.Domain)

	// Test RateLimit defaults
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 10, cfg.RateLimit.BurstSize)

	// Test Retry defaults
	assert.True(t, cfg.Retry.Enabled)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Retry.BaseDelay.Duration)
	assert.Equal(t, 2*time.Minute, cfg.Retry.MaxDelay.Duration)
	assert.Equal(t, 1.5, cfg.Retry.Multiplier)
	assert.Equal(t, 0.4, cfg.Retry.JitterFactor)

	// Test Output defaults
	assert.Equal(t, "./output", cfg.Output.BaseDirectory)
	assert.Equal(t, "media", cfg.Output.MediaDirectory)
	assert.Equal(t, "listings.json", cfg.Output.ListingsFile)
	assert.True(t, cfg.Output.CreateKeywordFolders)
	assert.False(t, cfg.Output.OverwriteExisting)

	// Test Notifications defaults
	assert.True(t, cfg.Notifications.Enabled)
	assert.True(t, cfg.Notifications.OnComplete)
	assert.True(t, cfg.Notifications.OnError)
	assert.True(t, cfg.Notifications.OnChallenge)
	assert.Equal(t, 10, cfg.Notifications.ProgressInterval)
	assert.Equal(t, "terminal", cfg.Notifications.NotificationType)

	// Test Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File)
	assert.Equal(t, 100, cfg.Logging.MaxSize)
	assert.Equal(t, 3, cfg.Logging.MaxBackups)
	assert.Equal(t, 7, cfg.Logging.MaxAge)
	assert.False(t, cfg.Logging.Compress)

	// Defaults validate as-is
	assert.NoError(t, cfg.Validate())
}

func TestDurationParsing(t *testing.T) {
	t.Run("parse duration strings from yaml", func(t *testing.T) {
		yamlContent := `
target:
  challenge_timeout: 5m
browser:
  navigation_timeout: 45s
  settle_delay: 1500ms
scroll:
  min_delay: 500ms
  max_delay: 1.5s
media:
  fetch_timeout: 1m30s
retry:
  base_delay: 2s
  max_delay: 30s
`
		var cfg Config
		err := yaml.Unmarshal([]byte(yamlContent), &cfg)
		require.NoError(t, err)

		assert.Equal(t, 5*time.Minute, cfg.Target.ChallengeTimeout.Duration)
		assert.Equal(t, 45*time.Second, cfg.Browser.NavigationTimeout.Duration)
		assert.Equal(t, 1500*time.Millisecond, cfg.Browser.SettleDelay.Duration)
		assert.Equal(t, 500*time.Millisecond, cfg.Scroll.MinDelay.Duration)
		assert.Equal(t, 1500*time.Millisecond, cfg.Scroll.MaxDelay.Duration)
		assert.Equal(t, 90*time.Second, cfg.Media.FetchTimeout.Duration)
		assert.Equal(t, 2*time.Second, cfg.Retry.BaseDelay.Duration)
		assert.Equal(t, 30*time.Second, cfg.Retry.MaxDelay.Duration)
	})

	t.Run("parse integer nanoseconds from yaml", func(t *testing.T) {
		yamlContent := `
browser:
  settle_delay: 1500000000
`
		var cfg Config
		err := yaml.Unmarshal([]byte(yamlContent), &cfg)
		require.NoError(t, err)

		assert.Equal(t, 1500*time.Millisecond, cfg.Browser.SettleDelay.Duration)
	})

	t.Run("invalid duration string", func(t *testing.T) {
		yamlContent := `
browser:
  settle_delay: not a duration
`
		var cfg Config
		err := yaml.Unmarshal([]byte(yamlContent), &cfg)
		assert.Error(t, err)
	})

	t.Run("yaml marshal round trip", func(t *testing.T) {
		original := NewDuration(90 * time.Second)

		data, err := yaml.Marshal(original)
		require.NoError(t, err)
		assert.Equal(t, "1m30s\n", string(data))

		var loaded Duration
		err = yaml.Unmarshal(data, &loaded)
		require.NoError(t, err)
		assert.Equal(t, original.Duration, loaded.Duration)
	})

	t.Run("json marshal round trip", func(t *testing.T) {
		original := NewDuration(45 * time.Second)

		data, err := original.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, `"45s"`, string(data))

		var loaded Duration
		err = loaded.UnmarshalJSON(data)
		require.NoError(t, err)
		assert.Equal(t, original.Duration, loaded.Duration)
	})
}

func TestLoadFromEnv(t *testing.T) {
	// Save current env vars
	oldEnv := make(map[string]string)
	envVars := []string{
		"JDSCRAPER_KEYWORD",
		"JDSCRAPER_SEARCH_ENDPOINT",
		"JDSCRAPER_PAGES",
		"JDSCRAPER_USER_AGENT",
		"JDSCRAPER_HEADLESS",
		"JDSCRAPER_COOKIES_FILE",
		"JDSCRAPER_OUTPUT_DIR",
		"JDSCRAPER_MEDIA_BATCH_SIZE",
		"JDSCRAPER_REQUESTS_PER_MINUTE",
		"JDSCRAPER_NOTIFICATIONS_ENABLED",
		"JDSCRAPER_LOG_LEVEL",
	}

	for _, key := range envVars {
		oldEnv[key] = os.Getenv(key)
	}

	// Restore env vars after test
	defer func() {
		for key, value := range oldEnv {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	}()

	// Set test env vars
	os.Setenv("JDSCRAPER_KEYWORD", "env_keyword")
	os.Setenv("JDSCRAPER_SEARCH_ENDPOINT", "https://env.example.com/Search")
	os.Setenv("JDSCRAPER_PAGES", "42")
	os.Setenv("JDSCRAPER_USER_AGENT", "env_agent")
	os.Setenv("JDSCRAPER_HEADLESS", "false")
	os.Setenv("JDSCRAPER_COOKIES_FILE", "/env/cookies.json")
	os.Setenv("JDSCRAPER_OUTPUT_DIR", "/env/output")
	os.Setenv("JDSCRAPER_MEDIA_BATCH_SIZE", "8")
	os.Setenv("JDSCRAPER_REQUESTS_PER_MINUTE", "120")
	os.Setenv("JDSCRAPER_NOTIFICATIONS_ENABLED", "false")
	os.Setenv("JDSCRAPER_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "env_keyword", cfg.Target.Keyword)
	assert.Equal(t, "https://env.example.com/Search", cfg.Target.SearchEndpoint)
	assert.Equal(t, 42, cfg.Target.Pages)
	assert.Equal(t, "env_agent", cfg.Browser.UserAgent)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, "/env/cookies.json", cfg.Session.CookiesFile)
	assert.Equal(t, "/env/output", cfg.Output.BaseDirectory)
	assert.Equal(t, 8, cfg.Media.BatchSize)
	assert.Equal(t, 120, cfg.RateLimit.RequestsPerMinute)
	assert.False(t, cfg.Notifications.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	t.Run("valid yaml file", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "test_config.yaml")

		testConfig := `
target:
  search_endpoint: https://file.example.com/Search
  keyword: file_keyword
  pages: 30
  page_batch_size: 4
  redirect_patterns: ["login.example"]
  challenge_patterns: ["verify.example"]
  min_field_length: 10
  challenge_timeout: 5m

browser:
  headless: false
  user_agent: file_agent
  navigation_timeout: 45s
  settle_delay: 2s

scroll:
  max_iterations: 8
  min_delay: 300ms
  max_delay: 900ms
  load_more_selector: ".load-more a"

media:
  batch_size: 3
  fetch_timeout: 60s
  normalize: false
  keep_originals: true
  min_file_size: 1024
  max_file_size: 10485760

session:
  cookies_file: /file/cookies.json
  store: keyring
  domain: .example.com

rate_limit:
  requests_per_minute: 30
  burst_size: 5

retry:
  enabled: false
  max_attempts: 2
  base_delay: 2s
  max_delay: 30s
  multiplier: 2.0
  jitter_factor: 0.2

output:
  base_directory: /file/output
  media_directory: pictures
  listings_file: records.json
  create_keyword_folders: false
  overwrite_existing: true

notifications:
  enabled: false
  on_complete: false
  on_error: true
  on_challenge: false
  progress_interval: 20
  notification_type: desktop

logging:
  level: warn
  file: /var/log/jdscraper.log
  max_size: 50
  max_backups: 5
  max_age: 14
  compress: true
`

		err := os.WriteFile(configPath, []byte(testConfig), 0644)
		require.NoError(t, err)

		cfg := DefaultConfig()
		err = cfg.LoadFromFile(configPath)
		require.NoError(t, err)

		// Verify all values were loaded
		assert.Equal(t, "https://file.example.com/Search", cfg.Target.SearchEndpoint)
		assert.Equal(t, "file_keyword", cfg.Target.Keyword)
		assert.Equal(t, 30, cfg.Target.Pages)
		assert.Equal(t, 4, cfg.Target.PageBatchSize)
		assert.Equal(t, []string{"login.example"}, cfg.Target.RedirectPatterns)
		assert.Equal(t, []string{"verify.example"}, cfg.Target.ChallengePatterns)
		assert.Equal(t, 10, cfg.Target.MinFieldLength)
		assert.Equal(t, 5*time.Minute, cfg.Target.ChallengeTimeout.Duration)

		assert.False(t, cfg.Browser.Headless)
		assert.Equal(t, "file_agent", cfg.Browser.UserAgent)
		assert.Equal(t, 45*time.Second, cfg.Browser.NavigationTimeout.Duration)
		assert.Equal(t, 2*time.Second, cfg.Browser.SettleDelay.Duration)

		assert.Equal(t, 8, cfg.Scroll.MaxIterations)
		assert.Equal(t, 300*time.Millisecond, cfg.Scroll.MinDelay.Duration)
		assert.Equal(t, 900*time.Millisecond, cfg.Scroll.MaxDelay.Duration)
		assert.Equal(t, ".load-more a", cfg.Scroll.LoadMoreSelector)

		assert.Equal(t, 3, cfg.Media.BatchSize)
		assert.Equal(t, 60*time.Second, cfg.Media.FetchTimeout.Duration)
		assert.False(t, cfg.Media.Normalize)
		assert.True(t, cfg.Media.KeepOriginals)
		assert.Equal(t, int64(1024), cfg.Media.MinFileSize)
		assert.Equal(t, int64(10485760), cfg.Media.MaxFileSize)

		assert.Equal(t, "/file/cookies.json", cfg.Session.CookiesFile)
		assert.Equal(t, "keyring", cfg.Session.Store)
		assert.Equal(t, ".example.com", cfg.Session.Domain)

		assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
		assert.Equal(t, 5, cfg.RateLimit.BurstSize)

		assert.False(t, cfg.Retry.Enabled)
		assert.Equal(t, 2, cfg.Retry.MaxAttempts)
		assert.Equal(t, 2*time.Second, cfg.Retry.BaseDelay.Duration)
		assert.Equal(t, 30*time.Second, cfg.Retry.MaxDelay.Duration)
		assert.Equal(t, 2.0, cfg.Retry.Multiplier)
		assert.Equal(t, 0.2, cfg.Retry.JitterFactor)

		assert.Equal(t, "/file/output", cfg.Output.BaseDirectory)
		assert.Equal(t, "pictures", cfg.Output.MediaDirectory)
		assert.Equal(t, "records.json", cfg.Output.ListingsFile)
		assert.False(t, cfg.Output.CreateKeywordFolders)
		assert.True(t, cfg.Output.OverwriteExisting)

		assert.False(t, cfg.Notifications.Enabled)
		assert.False(t, cfg.Notifications.OnComplete)
		assert.True(t, cfg.Notifications.OnError)
		assert.False(t, cfg.Notifications.OnChallenge)
		assert.Equal(t, 20, cfg.Notifications.ProgressInterval)
		assert.Equal(t, "desktop", cfg.Notifications.NotificationType)

		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, "/var/log/jdscraper.log", cfg.Logging.File)
		assert.Equal(t, 50, cfg.Logging.MaxSize)
		assert.Equal(t, 5, cfg.Logging.MaxBackups)
		assert.Equal(t, 14, cfg.Logging.MaxAge)
		assert.True(t, cfg.Logging.Compress)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "invalid.yaml")

		invalidYAML := `
target:
  keyword: [this is invalid
`
		err := os.WriteFile(configPath, []byte(invalidYAML), 0644)
		require.NoError(t, err)

		cfg := DefaultConfig()
		err = cfg.LoadFromFile(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("non-existent file", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.LoadFromFile("/non/existent/path/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("empty path searches default locations", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.LoadFromFile("")
		// Should not error, just returns nil if no config found
		assert.NoError(t, err)
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Run("finds config in current directory", func(t *testing.T) {
		tempDir := t.TempDir()
		oldDir, _ := os.Getwd()
		defer os.Chdir(oldDir)

		err := os.Chdir(tempDir)
		require.NoError(t, err)

		// Create config file
		configPath := filepath.Join(tempDir, ".jdscraper.yaml")
		err = os.WriteFile(configPath, []byte("test: true"), 0644)
		require.NoError(t, err)

		cfg := DefaultConfig()
		found := cfg.findConfigFile()
		assert.Equal(t, ".jdscraper.yaml", found)
	})

	t.Run("no config file found", func(t *testing.T) {
		tempDir := t.TempDir()
		oldDir, _ := os.Getwd()
		defer os.Chdir(oldDir)

		err := os.Chdir(tempDir)
		require.NoError(t, err)

		cfg := DefaultConfig()
		found := cfg.findConfigFile()
		assert.Empty(t, found)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		setupConfig   func(*Config)
		expectError   bool
		errorContains []string
	}{
		{
			name:        "valid config",
			setupConfig: func(cfg *Config) {},
			expectError: false,
		},
		{
			name: "missing target settings",
			setupConfig: func(cfg *Config) {
				cfg.Target.SearchEndpoint = ""
				cfg.Target.Keyword = ""
			},
			expectError:   true,
			errorContains: []string{"search endpoint is required", "search keyword is required"},
		},
		{
			name: "invalid page settings",
			setupConfig: func(cfg *Config) {
				cfg.Target.Pages = 0
				cfg.Target.PageBatchSize = -1
			},
			expectError: true,
			errorContains: []string{
				"page count must be positive",
				"page batch size must be positive",
			},
		},
		{
			name: "missing detection patterns",
			setupConfig: func(cfg *Config) {
				cfg.Target.RedirectPatterns = nil
				cfg.Target.ChallengePatterns = nil
			},
			expectError: true,
			errorContains: []string{
				"at least one redirect pattern is required",
				"at least one challenge pattern is required",
			},
		},
		{
			name: "invalid scroll delays",
			setupConfig: func(cfg *Config) {
				cfg.Scroll.MinDelay = NewDuration(2 * time.Second)
				cfg.Scroll.MaxDelay = NewDuration(1 * time.Second)
			},
			expectError:   true,
			errorContains: []string{"scroll max delay must not be less than min delay"},
		},
		{
			name: "invalid scroll iterations",
			setupConfig: func(cfg *Config) {
				cfg.Scroll.MaxIterations = 0
			},
			expectError:   true,
			errorContains: []string{"scroll iterations must be positive"},
		},
		{
			name: "media batch size too large",
			setupConfig: func(cfg *Config) {
				cfg.Media.BatchSize = 32
			},
			expectError:   true,
			errorContains: []string{"media batch size should not exceed 16"},
		},
		{
			name: "invalid session store",
			setupConfig: func(cfg *Config) {
				cfg.Session.Store = "redis"
			},
			expectError:   true,
			errorContains: []string{"invalid session store"},
		},
		{
			name: "file store without cookies file",
			setupConfig: func(cfg *Config) {
				cfg.Session.Store = "file"
				cfg.Session.CookiesFile = ""
			},
			expectError:   true,
			errorContains: []string{"cookies file is required"},
		},
		{
			name: "invalid rate limit",
			setupConfig: func(cfg *Config) {
				cfg.RateLimit.RequestsPerMinute = -1
				cfg.RateLimit.BurstSize = 0
			},
			expectError: true,
			errorContains: []string{
				"requests per minute must be positive",
				"burst size must be positive",
			},
		},
		{
			name: "invalid retry settings",
			setupConfig: func(cfg *Config) {
				cfg.Retry.MaxAttempts = 0
				cfg.Retry.Multiplier = 0.5
				cfg.Retry.JitterFactor = 1.5
			},
			expectError: true,
			errorContains: []string{
				"retry max attempts must be positive",
				"retry multiplier must be at least 1",
				"retry jitter factor must be between 0 and 1",
			},
		},
		{
			name: "invalid output settings",
			setupConfig: func(cfg *Config) {
				cfg.Output.BaseDirectory = ""
				cfg.Output.ListingsFile = ""
			},
			expectError: true,
			errorContains: []string{
				"output directory is required",
				"listings file is required",
			},
		},
		{
			name: "invalid log level",
			setupConfig: func(cfg *Config) {
				cfg.Logging.Level = "invalid"
			},
			expectError:   true,
			errorContains: []string{"invalid log level"},
		},
		{
			name: "invalid notification type",
			setupConfig: func(cfg *Config) {
				cfg.Notifications.NotificationType = "invalid"
			},
			expectError:   true,
			errorContains: []string{"invalid notification type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.setupConfig(cfg)

			err := cfg.Validate()

			if tt.expectError {
				assert.Error(t, err)
				for _, contains := range tt.errorContains {
					assert.Contains(t, err.Error(), contains)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSave(t *testing.T) {
	t.Run("save to new file", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "saved_config.yaml")

		cfg := DefaultConfig()
		cfg.Target.Keyword = "save_test"
		cfg.Target.Pages = 25

		err := cfg.Save(configPath)
		require.NoError(t, err)

		// Verify file exists
		_, err = os.Stat(configPath)
		assert.NoError(t, err)

		// Load and verify
		loadedCfg := DefaultConfig()
		err = loadedCfg.LoadFromFile(configPath)
		require.NoError(t, err)

		assert.Equal(t, cfg.Target.Keyword, loadedCfg.Target.Keyword)
		assert.Equal(t, cfg.Target.Pages, loadedCfg.Target.Pages)
	})

	t.Run("creates directory if needed", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "subdir", "config.yaml")

		cfg := DefaultConfig()
		err := cfg.Save(configPath)
		require.NoError(t, err)

		// Verify directory was created
		_, err = os.Stat(filepath.Dir(configPath))
		assert.NoError(t, err)
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "config.yaml")

		// Create initial file
		cfg1 := DefaultConfig()
		cfg1.Target.Keyword = "first"
		err := cfg1.Save(configPath)
		require.NoError(t, err)

		// Overwrite with new config
		cfg2 := DefaultConfig()
		cfg2.Target.Keyword = "second"
		err = cfg2.Save(configPath)
		require.NoError(t, err)

		// Load and verify
		loadedCfg := DefaultConfig()
		err = loadedCfg.LoadFromFile(configPath)
		require.NoError(t, err)

		assert.Equal(t, "second", loadedCfg.Target.Keyword)
	})
}

func TestMergeCommandLineFlags(t *testing.T) {
	t.Run("merge all flags", func(t *testing.T) {
		cfg := DefaultConfig()

		cfg.MergeCommandLineFlags(map[string]interface{}{
			"keyword":    "flag_keyword",
			"endpoint":   "https://flag.example.com/Search",
			"pages":      12,
			"headless":   false,
			"cookies":    "/flag/cookies.json",
			"output":     "/flag/output",
			"batch-size": 7,
			"normalize":  false,
			"log-level":  "error",
		})

		assert.Equal(t, "flag_keyword", cfg.Target.Keyword)
		assert.Equal(t, "https://flag.example.com/Search", cfg.Target.SearchEndpoint)
		assert.Equal(t, 12, cfg.Target.Pages)
		assert.False(t, cfg.Browser.Headless)
		assert.Equal(t, "/flag/cookies.json", cfg.Session.CookiesFile)
		assert.Equal(t, "/flag/output", cfg.Output.BaseDirectory)
		assert.Equal(t, 7, cfg.Media.BatchSize)
		assert.False(t, cfg.Media.Normalize)
		assert.Equal(t, "error", cfg.Logging.Level)
	})

	t.Run("partial flags leave other settings alone", func(t *testing.T) {
		cfg := DefaultConfig()

		cfg.MergeCommandLineFlags(map[string]interface{}{
			"keyword": "partial_keyword",
			"output":  "/partial/output",
		})

		assert.Equal(t, "partial_keyword", cfg.Target.Keyword)
		assert.Equal(t, "/partial/output", cfg.Output.BaseDirectory)
		assert.Equal(t, 150, cfg.Target.Pages)
		assert.True(t, cfg.Browser.Headless)
	})

	t.Run("empty flags", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MergeCommandLineFlags(map[string]interface{}{})

		assert.Equal(t, "明日方舟", cfg.Target.Keyword)
	})

	t.Run("invalid flag types ignored", func(t *testing.T) {
		cfg := DefaultConfig()

		cfg.MergeCommandLineFlags(map[string]interface{}{
			"pages":      "not a number",
			"batch-size": -1,
		})

		assert.Equal(t, 150, cfg.Target.Pages)
		assert.Equal(t, 5, cfg.Media.BatchSize)
	})
}

func TestLoad(t *testing.T) {
	t.Run("precedence order", func(t *testing.T) {
		tempDir := t.TempDir()

		// Create config file
		configPath := filepath.Join(tempDir, "config.yaml")
		configContent := `
target:
  keyword: file_keyword
  pages: 42
output:
  base_directory: /file/output
`
		err := os.WriteFile(configPath, []byte(configContent), 0644)
		require.NoError(t, err)

		// Set environment variables
		os.Setenv("JDSCRAPER_KEYWORD", "env_keyword")
		os.Setenv("JDSCRAPER_OUTPUT_DIR", "/env/output")
		defer os.Unsetenv("JDSCRAPER_KEYWORD")
		defer os.Unsetenv("JDSCRAPER_OUTPUT_DIR")

		// Command line flags
		flags := map[string]interface{}{
			"keyword": "flag_keyword",
		}

		cfg, err := Load(configPath, flags)
		require.NoError(t, err)

		// Verify precedence: flags > env > file > defaults
		assert.Equal(t, "flag_keyword", cfg.Target.Keyword)       // From flags
		assert.Equal(t, 42, cfg.Target.Pages)                     // From file (no env or flag)
		assert.Equal(t, "/env/output", cfg.Output.BaseDirectory)  // From env (no flag)
		assert.Equal(t, 6, cfg.Target.PageBatchSize)              // Default
	})

	t.Run("validation failure", func(t *testing.T) {
		tempDir := t.TempDir()
		configPath := filepath.Join(tempDir, "config.yaml")
		configContent := `
target:
  pages: -5
`
		err := os.WriteFile(configPath, []byte(configContent), 0644)
		require.NoError(t, err)

		cfg, err := Load(configPath, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
		assert.Nil(t, cfg)
	})

	t.Run("loads .env file", func(t *testing.T) {
		tempDir := t.TempDir()
		oldDir, _ := os.Getwd()
		defer os.Chdir(oldDir)

		err := os.Chdir(tempDir)
		require.NoError(t, err)

		// Create .env file
		envContent := `JDSCRAPER_KEYWORD=dotenv_keyword
JDSCRAPER_COOKIES_FILE=/dotenv/cookies.json`
		err = os.WriteFile(".env", []byte(envContent), 0644)
		require.NoError(t, err)

		// Clear any existing env vars; godotenv sets them for the
		// whole process, so clean up afterwards too
		os.Unsetenv("JDSCRAPER_KEYWORD")
		os.Unsetenv("JDSCRAPER_COOKIES_FILE")
		defer os.Unsetenv("JDSCRAPER_KEYWORD")
		defer os.Unsetenv("JDSCRAPER_COOKIES_FILE")

		cfg, err := Load("", nil)
		require.NoError(t, err)

		assert.Equal(t, "dotenv_keyword", cfg.Target.Keyword)
		assert.Equal(t, "/dotenv/cookies.json", cfg.Session.CookiesFile)
	})
}

func TestConfigSerialization(t *testing.T) {
	t.Run("yaml round trip", func(t *testing.T) {
		original := DefaultConfig()
		original.Target.Keyword = "round_trip"
		original.Target.Pages = 45
		original.Media.BatchSize = 8
		original.Scroll.MaxDelay = NewDuration(2 * time.Second)

		// Marshal to YAML
		data, err := yaml.Marshal(original)
		require.NoError(t, err)

		// Unmarshal back
		var loaded Config
		err = yaml.Unmarshal(data, &loaded)
		require.NoError(t, err)

		// Compare key fields
		assert.Equal(t, original.Target.Keyword, loaded.Target.Keyword)
		assert.Equal(t, original.Target.Pages, loaded.Target.Pages)
		assert.Equal(t, original.Media.BatchSize, loaded.Media.BatchSize)
		assert.Equal(t, original.Scroll.MaxDelay.Duration, loaded.Scroll.MaxDelay.Duration)
	})
}

// Benchmark tests
func BenchmarkDefaultConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = DefaultConfig()
	}
}

func BenchmarkValidate(b *testing.B) {
	cfg := DefaultConfig()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = cfg.Validate()
	}
}

func BenchmarkSaveAndLoad(b *testing.B) {
	tempDir := b.TempDir()
	configPath := filepath.Join(tempDir, "bench_config.yaml")

	cfg := DefaultConfig()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = cfg.Save(configPath)
		loadedCfg := DefaultConfig()
		_ = loadedCfg.LoadFromFile(configPath)
	}
}
