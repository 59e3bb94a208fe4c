// Package listing holds the persisted listing record model and its
// append-only JSON store.
package listing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"jdscraper/pkg/extract"
)

// Record is one harvested listing. The JSON keys define the on-disk
// layout of the listing store and are shared with other tooling, so
// they must not change.
type Record struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	URL      string `json:"url"`
	Comment  string `json:"comment"`
	Shop     string `json:"shop"`
	ImageURL string `json:"img_url"`
}

// FromFields zips the six parallel sequences into records. The result
// is truncated to the shortest sequence, so callers should reject
// unbalanced snapshots first if truncation is not acceptable.
func FromFields(f *extract.Fields) []Record {
	n := f.Min()
	records := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, Record{
			Name:     f.Names[i],
			Price:    f.Prices[i],
			URL:      f.DetailURLs[i],
			Comment:  f.Comments[i],
			Shop:     f.Shops[i],
			ImageURL: f.ImageURLs[i],
		})
	}
	return records
}

// Store persists records as a single growing JSON array.
//
// Every append reads the whole collection, extends it, and rewrites
// the file. Concurrent page tasks all append to the same store, so the
// read-modify-write cycle is serialized by a mutex and the rewrite is
// atomic via a temp file rename. Without both, concurrent appends lose
// records.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by the given file path. The file is
// created on first append.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Append adds records to the store.
func (s *Store) Append(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load()
	if err != nil {
		return err
	}

	existing = append(existing, records...)
	return s.write(existing)
}

// Load returns every record in the store. A missing file is an empty
// store, not an error.
func (s *Store) Load() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Count returns the number of persisted records.
func (s *Store) Count() (int, error) {
	records, err := s.Load()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func (s *Store) load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read listing store: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []Record{}, nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("listing store is corrupt: %w", err)
	}
	return records, nil
}

func (s *Store) write(records []Record) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create listing store directory: %w", err)
		}
	}

	// Listing names carry CJK text, keep it readable on disk.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode listing store: %w", err)
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write listing store: %w", err)
	}
	if err := os.Rename(tempFile, s.path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to replace listing store: %w", err)
	}
	return nil
}
