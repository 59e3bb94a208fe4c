// Package logger provides a structured logging interface for the storefront harvester.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - File output
// - Context support for request tracing
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "jdscraper/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File: "/var/log/jdscraper.log",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("Crawl started")
//	logger.WithField("page", 7).Info("Page task accepted")
//	logger.WithError(err).Error("Failed to fetch media")
//
// Advanced Usage:
//
//	// Create a logger instance with fields
//	log := logger.GetLogger().
//	    WithField("component", "collector").
//	    WithField("keyword", keyword)
//
//	// Use structured logging
//	log.InfoWithFields("Scroll loop finished", map[string]interface{}{
//	    "iterations": 12,
//	    "records":    58,
//	    "duration":   time.Second * 14,
//	})
//
// The logger supports the following configuration options:
// - Level: Log level (debug, info, warn, error, fatal)
// - File: Path to log file (empty for console only)
// - MaxSize: Maximum size in MB before rotation
// - MaxBackups: Number of old log files to keep
// - MaxAge: Maximum age in days for log files
package logger
