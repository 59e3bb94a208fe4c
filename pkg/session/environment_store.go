package session

import (
	"encoding/json"
	"os"
	"time"
)

// EnvironmentStore implements TokenStore using the JDSCRAPER_COOKIES
// environment variable, which holds the same JSON array a cookies.json
// file would. This is primarily for containerized runs.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based token store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(set *TokenSet) error {
	return ErrStoreUnavailable
}

// Retrieve gets tokens from the environment
func (e *EnvironmentStore) Retrieve(profile string) (*TokenSet, error) {
	raw := os.Getenv("JDSCRAPER_COOKIES")
	if raw == "" {
		return nil, ErrTokensNotFound
	}

	var tokens []Token
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		return nil, ErrInvalidTokens
	}
	if len(tokens) == 0 {
		return nil, ErrTokensNotFound
	}

	// The environment doesn't carry a profile name, so any requested
	// profile resolves to the same set
	if profile == "" {
		profile = DefaultProfile
	}

	return &TokenSet{
		Profile: profile,
		Tokens:  tokens,
		SavedAt: time.Now(),
	}, nil
}

// List returns a single token set if the environment variable is set
func (e *EnvironmentStore) List() ([]*TokenSet, error) {
	set, err := e.Retrieve("")
	if err != nil {
		return []*TokenSet{}, nil
	}
	return []*TokenSet{set}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(profile string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment tokens exist
func (e *EnvironmentStore) Exists(profile string) bool {
	set, err := e.Retrieve(profile)
	return err == nil && set != nil
}
