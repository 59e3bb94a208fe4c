// Package checkpoint provides functionality for saving and resuming crawl progress.
//
// The checkpoint system allows the crawler to resume after interruptions
// such as network failures, anti-bot walls, or manual stops. It tracks:
//   - Which result pages have been fully processed
//   - Record and media totals for the run
//
// Checkpoints are stored in platform-specific data directories:
//   - Linux: ~/.local/share/jdscraper/checkpoints/
//   - macOS: ~/Library/Application Support/jdscraper/checkpoints/
//   - Windows: %APPDATA%/jdscraper/checkpoints/
//
// The checkpoint files are saved atomically to prevent corruption and include
// versioning for future compatibility.
package checkpoint
