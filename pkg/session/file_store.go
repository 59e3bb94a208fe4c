package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore implements TokenStore on a plain cookies.json file. The file
// holds a bare JSON array of tokens, the layout other tooling around the
// storefront already reads and writes, so this store carries exactly one
// profile.
type FileStore struct {
	filepath string
	mu       sync.RWMutex
}

// NewFileStore creates a cookies.json-backed token store
func NewFileStore(path string) *FileStore {
	return &FileStore{filepath: path}
}

// Store writes the token set as a JSON array
func (f *FileStore) Store(set *TokenSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if set == nil || len(set.Tokens) == 0 {
		return ErrInvalidTokens
	}

	content, err := json.MarshalIndent(set.Tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}

	dir := filepath.Dir(f.filepath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write to temporary file first
	tempFile := f.filepath + ".tmp"
	if err := os.WriteFile(tempFile, content, 0600); err != nil {
		return fmt.Errorf("failed to write cookies file: %w", err)
	}

	// Rename to final location
	return os.Rename(tempFile, f.filepath)
}

// Retrieve reads the token set from the file. The file carries a single
// anonymous set, so any requested profile resolves to it.
func (f *FileStore) Retrieve(profile string) (*TokenSet, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	content, err := os.ReadFile(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTokensNotFound
		}
		return nil, fmt.Errorf("failed to read cookies file: %w", err)
	}

	var tokens []Token
	if err := json.Unmarshal(content, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse cookies file: %w", err)
	}
	if len(tokens) == 0 {
		return nil, ErrTokensNotFound
	}

	if profile == "" {
		profile = DefaultProfile
	}

	info, err := os.Stat(f.filepath)
	savedAt := time.Now()
	if err == nil {
		savedAt = info.ModTime()
	}

	return &TokenSet{
		Profile: profile,
		Tokens:  tokens,
		SavedAt: savedAt,
	}, nil
}

// List returns the single stored token set, if present
func (f *FileStore) List() ([]*TokenSet, error) {
	set, err := f.Retrieve(DefaultProfile)
	if err != nil {
		return []*TokenSet{}, nil
	}
	return []*TokenSet{set}, nil
}

// Delete removes the cookies file
func (f *FileStore) Delete(profile string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.filepath); err != nil {
		if os.IsNotExist(err) {
			return ErrTokensNotFound
		}
		return fmt.Errorf("failed to remove cookies file: %w", err)
	}
	return nil
}

// Exists checks if the file holds a non-empty token set
func (f *FileStore) Exists(profile string) bool {
	set, err := f.Retrieve(profile)
	return err == nil && set != nil
}

// Path returns the location of the backing file
func (f *FileStore) Path() string {
	return f.filepath
}
