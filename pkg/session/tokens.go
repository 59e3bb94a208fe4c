package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// DefaultProfile names the token set used when no profile is given.
const DefaultProfile = "default"

// Token represents one storefront session cookie. Field casing in the
// JSON tags matches the cookies.json layout shared with other tooling,
// so it must not be changed.
type Token struct {
	Domain   string `json:"domain"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	Expires  string `json:"expires"`
	Path     string `json:"path"`
	HTTPOnly bool   `json:"httpOnly"`
	HostOnly bool   `json:"HostOnly"`
	Secure   bool   `json:"Secure"`
}

// RawCookie is a name/value pair captured from a live browser session
// before normalization.
type RawCookie struct {
	Name  string
	Value string
}

// Normalize converts raw browser cookies into storefront tokens. Every
// token is pinned to the given domain with a root path, no expiry and
// cleared flags, so headless sessions and plain HTTP clients accept the
// set alike.
func Normalize(cookies []RawCookie, domain string) []Token {
	tokens := make([]Token, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		tokens = append(tokens, Token{
			Domain:   domain,
			Name:     c.Name,
			Value:    c.Value,
			Expires:  "",
			Path:     "/",
			HTTPOnly: false,
			HostOnly: false,
			Secure:   false,
		})
	}
	return tokens
}

// TokenSet is a collection of session tokens captured in one bootstrap.
// The set is read-only once stored: stores hand out copies, and callers
// must not mutate the tokens they receive.
type TokenSet struct {
	Profile string    `json:"profile"`
	Tokens  []Token   `json:"tokens"`
	SavedAt time.Time `json:"saved_at"`
}

// Clone returns a deep copy of the token set
func (ts *TokenSet) Clone() *TokenSet {
	if ts == nil {
		return nil
	}
	tokens := make([]Token, len(ts.Tokens))
	copy(tokens, ts.Tokens)
	return &TokenSet{
		Profile: ts.Profile,
		Tokens:  tokens,
		SavedAt: ts.SavedAt,
	}
}

// CookieHeader renders the set as a Cookie request header value
func (ts *TokenSet) CookieHeader() string {
	if ts == nil || len(ts.Tokens) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(ts.Tokens))
	for _, t := range ts.Tokens {
		pairs = append(pairs, t.Name+"="+t.Value)
	}
	return strings.Join(pairs, "; ")
}

// TokenStore is the interface for storing and retrieving token sets
type TokenStore interface {
	// Store saves a token set under its profile name
	Store(set *TokenSet) error

	// Retrieve gets the token set for a specific profile
	Retrieve(profile string) (*TokenSet, error)

	// List returns all stored token sets
	List() ([]*TokenSet, error)

	// Delete removes the token set for a specific profile
	Delete(profile string) error

	// Exists checks if a token set exists for a profile
	Exists(profile string) bool
}

// Manager handles token storage with fallback mechanisms
type Manager struct {
	stores []TokenStore
}

// NewManager creates a token manager. The preferred backend is tried
// first; the remaining available backends act as fallbacks. Valid
// backends are "file", "keyring", "encrypted" and "env".
func NewManager(preferred, cookiesFile string) (*Manager, error) {
	available := make(map[string]TokenStore)

	if keyringStore, err := NewKeyringStore(); err == nil {
		available["keyring"] = keyringStore
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "tokens.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	available["encrypted"] = encryptedStore

	if cookiesFile != "" {
		available["file"] = NewFileStore(cookiesFile)
	}

	available["env"] = NewEnvironmentStore()

	// Preferred store first, then the rest in a stable fallback order
	var stores []TokenStore
	preferred = strings.ToLower(preferred)
	if store, ok := available[preferred]; ok {
		stores = append(stores, store)
		delete(available, preferred)
	}
	for _, name := range []string{"file", "keyring", "encrypted", "env"} {
		if store, ok := available[name]; ok {
			stores = append(stores, store)
		}
	}

	return &Manager{stores: stores}, nil
}

// Store saves a token set using the first store that accepts it
func (m *Manager) Store(set *TokenSet) error {
	if set == nil {
		return ErrInvalidTokens
	}
	if set.Profile == "" {
		set.Profile = DefaultProfile
	}
	if len(set.Tokens) == 0 {
		return errors.New("token set is empty")
	}
	for _, t := range set.Tokens {
		if t.Name == "" {
			return errors.New("token name is required")
		}
	}

	set.SavedAt = time.Now()

	// Try each store in order
	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(set); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store tokens: %w", lastErr)
	}
	return errors.New("no available token stores")
}

// Retrieve gets the token set from the first store that has it
func (m *Manager) Retrieve(profile string) (*TokenSet, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	for _, store := range m.stores {
		if set, err := store.Retrieve(profile); err == nil && set != nil {
			return set, nil
		}
	}
	return nil, fmt.Errorf("tokens not found for profile: %s", profile)
}

// RetrieveDefault gets the default token set or the first available one
func (m *Manager) RetrieveDefault() (*TokenSet, error) {
	if set, err := m.Retrieve(DefaultProfile); err == nil {
		return set, nil
	}

	sets, err := m.List()
	if err == nil && len(sets) > 0 {
		return sets[0], nil
	}

	return nil, errors.New("no session tokens found")
}

// List returns all stored token sets from all stores
func (m *Manager) List() ([]*TokenSet, error) {
	setMap := make(map[string]*TokenSet)

	for _, store := range m.stores {
		sets, err := store.List()
		if err != nil {
			continue
		}
		for _, set := range sets {
			// Use the most recently saved version
			if existing, ok := setMap[set.Profile]; !ok || set.SavedAt.After(existing.SavedAt) {
				setMap[set.Profile] = set
			}
		}
	}

	var result []*TokenSet
	for _, set := range setMap {
		result = append(result, set)
	}

	return result, nil
}

// Delete removes the token set from all stores
func (m *Manager) Delete(profile string) error {
	if profile == "" {
		profile = DefaultProfile
	}

	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(profile); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete tokens: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("tokens not found for profile: %s", profile)
	}

	return nil
}

// DeleteAll removes all stored token sets
func (m *Manager) DeleteAll() error {
	sets, err := m.List()
	if err != nil {
		return err
	}

	for _, set := range sets {
		_ = m.Delete(set.Profile) // Ignore individual errors
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "jdscraper")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "jdscraper")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "jdscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "jdscraper")
		}
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeTokens creates a copy of the token set with values masked for
// display
func SanitizeTokens(set *TokenSet) *TokenSet {
	if set == nil {
		return nil
	}

	masked := set.Clone()
	for i := range masked.Tokens {
		masked.Tokens[i].Value = maskString(masked.Tokens[i].Value)
	}
	return masked
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrTokensNotFound   = errors.New("session tokens not found")
	ErrInvalidTokens    = errors.New("invalid session tokens")
	ErrStoreUnavailable = errors.New("token store unavailable")
)
