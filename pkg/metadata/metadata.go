// Package metadata writes JSON sidecars next to downloaded media so a
// saved image can always be traced back to the listing it came from.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jdscraper/pkg/listing"
)

// MediaMetadata describes one downloaded listing image.
type MediaMetadata struct {
	// Core identifiers
	Key       string `json:"key"`
	SourceURL string `json:"source_url"`

	// Listing fields captured at crawl time
	ListingName  string `json:"listing_name"`
	Price        string `json:"price"`
	Shop         string `json:"shop"`
	CommentCount string `json:"comment_count,omitempty"`
	DetailURL    string `json:"detail_url,omitempty"`

	// Crawl context
	Keyword string `json:"keyword,omitempty"`
	Page    int    `json:"page"`

	// File properties
	FileSize     int64     `json:"file_size,omitempty"`
	DownloadedAt time.Time `json:"downloaded_at"`
	NormalizedAt time.Time `json:"normalized_at,omitempty"`
}

// FromRecord builds metadata for a listing image that was just saved.
func FromRecord(rec listing.Record, key string, fileSize int64) *MediaMetadata {
	return &MediaMetadata{
		Key:          key,
		SourceURL:    rec.ImageURL,
		ListingName:  rec.Name,
		Price:        rec.Price,
		Shop:         rec.Shop,
		CommentCount: rec.Comment,
		DetailURL:    rec.URL,
		FileSize:     fileSize,
		DownloadedAt: time.Now(),
	}
}

// MarkNormalized records when the file was re-encoded to PNG.
func (m *MediaMetadata) MarkNormalized() {
	m.NormalizedAt = time.Now()
}

// Save writes the metadata to a JSON sidecar next to the media file.
func (m *MediaMetadata) Save(mediaPath string) error {
	metadataPath := mediaPath + ".json"

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(metadataPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

// Load reads metadata from a media file's sidecar.
func Load(mediaPath string) (*MediaMetadata, error) {
	metadataPath := mediaPath + ".json"

	data, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var meta MediaMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &meta, nil
}

// GetFormattedName returns a truncated listing name for display.
func (m *MediaMetadata) GetFormattedName(maxLength int) string {
	if m.ListingName == "" {
		return ""
	}

	name := m.ListingName
	if len(name) > maxLength {
		name = name[:maxLength-3] + "..."
	}

	return name
}

// MetadataExists checks if a sidecar exists for a media file.
func MetadataExists(mediaPath string) bool {
	metadataPath := mediaPath + ".json"
	_, err := os.Stat(metadataPath)
	return err == nil
}

// Rename moves a sidecar to follow its media file, used after
// normalization swaps the file's extension.
func Rename(oldMediaPath, newMediaPath string) error {
	oldPath := oldMediaPath + ".json"
	if _, err := os.Stat(oldPath); os.IsNotExist(err) {
		return nil
	}
	return os.Rename(oldPath, newMediaPath+".json")
}

// CleanOrphanedMetadata removes sidecars whose media file is gone.
func CleanOrphanedMetadata(directory string) error {
	return filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Check if it's a metadata file
		if filepath.Ext(path) == ".json" && len(path) > 5 {
			mediaPath := path[:len(path)-5] // Remove .json extension

			// Check if corresponding media file exists
			if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
				if err := os.Remove(path); err != nil {
					return fmt.Errorf("failed to remove orphaned metadata %s: %w", path, err)
				}
			}
		}

		return nil
	})
}
