package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	raw := []RawCookie{
		{Name: "pt_key", Value: "abc123"},
		{Name: "pt_pin", Value: "someuser"},
		{Name: "", Value: "dropped"},
	}

	tokens := Normalize(raw, ".jd.com")

	if len(tokens) != 2 {
		t.Fatalf("Expected 2 tokens (nameless cookie dropped), got %d", len(tokens))
	}

	for _, tok := range tokens {
		if tok.Domain != ".jd.com" {
			t.Errorf("Expected domain .jd.com, got %s", tok.Domain)
		}
		if tok.Path != "/" {
			t.Errorf("Expected path /, got %s", tok.Path)
		}
		if tok.Expires != "" {
			t.Errorf("Expected empty expires, got %s", tok.Expires)
		}
		if tok.HTTPOnly || tok.HostOnly || tok.Secure {
			t.Error("Expected all flags to be cleared")
		}
	}

	if tokens[0].Name != "pt_key" || tokens[0].Value != "abc123" {
		t.Errorf("First token mismatch: %+v", tokens[0])
	}
}

func TestTokenJSONLayout(t *testing.T) {
	tok := Token{
		Domain:   ".jd.com",
		Name:     "pt_key",
		Value:    "abc123",
		Expires:  "",
		Path:     "/",
		HTTPOnly: false,
		HostOnly: false,
		Secure:   false,
	}

	data, err := json.Marshal(tok)
	if err != nil {
		t.Fatalf("Failed to marshal token: %v", err)
	}

	// The key casing is shared with other tooling and must stay stable
	for _, key := range []string{`"domain"`, `"name"`, `"value"`, `"expires"`, `"path"`, `"httpOnly"`, `"HostOnly"`, `"Secure"`} {
		if !contains(data, []byte(key)) {
			t.Errorf("Expected JSON key %s in %s", key, data)
		}
	}
}

func TestCookieHeader(t *testing.T) {
	set := &TokenSet{
		Profile: DefaultProfile,
		Tokens: []Token{
			{Name: "pt_key", Value: "abc"},
			{Name: "pt_pin", Value: "user"},
		},
	}

	header := set.CookieHeader()
	if header != "pt_key=abc; pt_pin=user" {
		t.Errorf("Unexpected cookie header: %s", header)
	}

	var empty *TokenSet
	if empty.CookieHeader() != "" {
		t.Error("Expected empty header for nil set")
	}
}

func TestTokenManager(t *testing.T) {
	// Use mock manager for reliable testing
	manager, mockStore := NewMockManager()

	// Test storing a token set
	set := &TokenSet{
		Profile: "testprofile",
		Tokens: []Token{
			{Domain: ".jd.com", Name: "pt_key", Value: "test_value_12345", Path: "/"},
		},
	}

	err := manager.Store(set)
	if err != nil {
		t.Errorf("Failed to store token set: %v", err)
	}

	// Test retrieving
	retrieved, err := manager.Retrieve("testprofile")
	if err != nil {
		t.Errorf("Failed to retrieve token set: %v", err)
	}

	if retrieved.Profile != set.Profile {
		t.Errorf("Profile mismatch: got %s, want %s", retrieved.Profile, set.Profile)
	}
	if len(retrieved.Tokens) != 1 || retrieved.Tokens[0].Value != "test_value_12345" {
		t.Errorf("Token mismatch: %+v", retrieved.Tokens)
	}

	// Test listing
	sets, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list token sets: %v", err)
	}
	if len(sets) == 0 {
		t.Error("Expected at least one token set in list")
	}

	// Test sanitization
	sanitized := SanitizeTokens(set)
	if sanitized.Tokens[0].Value == set.Tokens[0].Value {
		t.Error("Token value should be masked")
	}
	if sanitized.Tokens[0].Name != set.Tokens[0].Name {
		t.Error("Token name should not be masked")
	}

	// Test deletion
	err = manager.Delete("testprofile")
	if err != nil {
		t.Errorf("Failed to delete token set: %v", err)
	}

	// Verify deletion
	_, err = manager.Retrieve("testprofile")
	if err == nil {
		t.Error("Expected error retrieving deleted token set")
	}

	// Verify mock store state
	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 token sets after deletion, got %d", mockStore.Count())
	}
}

func TestManagerRejectsEmptySet(t *testing.T) {
	manager, _ := NewMockManager()

	err := manager.Store(&TokenSet{Profile: "empty"})
	if err == nil {
		t.Error("Expected error storing empty token set")
	}

	err = manager.Store(&TokenSet{
		Profile: "nameless",
		Tokens:  []Token{{Value: "orphan"}},
	})
	if err == nil {
		t.Error("Expected error storing token without a name")
	}
}

func TestFileStore(t *testing.T) {
	tempDir := t.TempDir()
	cookiesPath := filepath.Join(tempDir, "cookies.json")

	store := NewFileStore(cookiesPath)

	set := &TokenSet{
		Profile: DefaultProfile,
		Tokens: []Token{
			{Domain: ".jd.com", Name: "pt_key", Value: "file_value", Path: "/"},
			{Domain: ".jd.com", Name: "pt_pin", Value: "file_user", Path: "/"},
		},
	}

	// Store
	if err := store.Store(set); err != nil {
		t.Fatalf("Failed to store: %v", err)
	}

	// The file must hold a bare JSON array for interop
	content, err := os.ReadFile(cookiesPath)
	if err != nil {
		t.Fatal(err)
	}
	var rawTokens []map[string]interface{}
	if err := json.Unmarshal(content, &rawTokens); err != nil {
		t.Fatalf("cookies.json is not a JSON array: %v", err)
	}
	if len(rawTokens) != 2 {
		t.Errorf("Expected 2 entries in cookies.json, got %d", len(rawTokens))
	}
	if _, ok := rawTokens[0]["httpOnly"]; !ok {
		t.Error("Expected httpOnly key in cookies.json entries")
	}

	// Retrieve
	retrieved, err := store.Retrieve(DefaultProfile)
	if err != nil {
		t.Fatalf("Failed to retrieve: %v", err)
	}
	if len(retrieved.Tokens) != 2 {
		t.Errorf("Expected 2 tokens, got %d", len(retrieved.Tokens))
	}

	// Exists and Delete
	if !store.Exists(DefaultProfile) {
		t.Error("Expected token set to exist")
	}
	if err := store.Delete(DefaultProfile); err != nil {
		t.Errorf("Failed to delete: %v", err)
	}
	if store.Exists(DefaultProfile) {
		t.Error("Expected token set to be gone after delete")
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	_, err := store.Retrieve(DefaultProfile)
	if err != ErrTokensNotFound {
		t.Errorf("Expected ErrTokensNotFound, got %v", err)
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_tokens.enc")

	// Set test passphrase
	os.Setenv("JDSCRAPER_PASSPHRASE", "test_passphrase_123")
	defer os.Unsetenv("JDSCRAPER_PASSPHRASE")

	// Create store
	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	set := &TokenSet{
		Profile: "encrypted_profile",
		Tokens: []Token{
			{Domain: ".jd.com", Name: "pt_key", Value: "encrypted_value", Path: "/"},
		},
	}

	// Store
	err = store.Store(set)
	if err != nil {
		t.Errorf("Failed to store in encrypted file: %v", err)
	}

	// Retrieve
	retrieved, err := store.Retrieve("encrypted_profile")
	if err != nil {
		t.Errorf("Failed to retrieve from encrypted file: %v", err)
	}

	if retrieved.Tokens[0].Value != set.Tokens[0].Value {
		t.Errorf("Token value mismatch after encryption/decryption")
	}

	// Verify file is actually encrypted
	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}

	// File should not contain plaintext token values
	if contains(fileContent, []byte("encrypted_value")) {
		t.Error("File contains plaintext token value")
	}
	if contains(fileContent, []byte("pt_key")) {
		t.Error("File contains plaintext token name")
	}
}

func TestEnvironmentStore(t *testing.T) {
	cookies := `[{"domain":".jd.com","name":"pt_key","value":"env_value","expires":"","path":"/","httpOnly":false,"HostOnly":false,"Secure":false}]`
	os.Setenv("JDSCRAPER_COOKIES", cookies)
	defer os.Unsetenv("JDSCRAPER_COOKIES")

	store := NewEnvironmentStore()

	// Test retrieve
	set, err := store.Retrieve("")
	if err != nil {
		t.Errorf("Failed to retrieve from environment: %v", err)
	}

	if len(set.Tokens) != 1 || set.Tokens[0].Value != "env_value" {
		t.Errorf("Token mismatch: %+v", set.Tokens)
	}
	if set.Profile != DefaultProfile {
		t.Errorf("Expected default profile, got %s", set.Profile)
	}

	// Test that store is not supported
	err = store.Store(&TokenSet{})
	if err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
}

func TestRealManagerWithEncryptedStore(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "jdscraper-test-real")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	// Set passphrase for testing
	os.Setenv("JDSCRAPER_PASSPHRASE", "test_passphrase_real_manager")
	defer os.Unsetenv("JDSCRAPER_PASSPHRASE")

	// Create manager with only encrypted file store (most reliable for testing)
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(tempDir, "tokens.enc"))
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	manager := NewMockManagerWithStores(encryptedStore)

	set := &TokenSet{
		Profile: "realprofile",
		Tokens: []Token{
			{Domain: ".jd.com", Name: "pt_key", Value: "real_value", Path: "/"},
		},
		SavedAt: time.Now(),
	}

	err = manager.Store(set)
	if err != nil {
		t.Fatalf("Failed to store token set: %v", err)
	}

	// Test listing
	sets, err := manager.List()
	if err != nil {
		t.Fatalf("Failed to list token sets: %v", err)
	}
	if len(sets) != 1 {
		t.Errorf("Expected 1 token set in list, got %d", len(sets))
	}

	// Test retrieving
	retrieved, err := manager.Retrieve("realprofile")
	if err != nil {
		t.Fatalf("Failed to retrieve token set: %v", err)
	}

	if retrieved.Profile != set.Profile {
		t.Errorf("Profile mismatch: got %s, want %s", retrieved.Profile, set.Profile)
	}
	if retrieved.Tokens[0].Value != set.Tokens[0].Value {
		t.Errorf("Token value mismatch: got %s, want %s", retrieved.Tokens[0].Value, set.Tokens[0].Value)
	}
}

func TestMockStore(t *testing.T) {
	store := NewMockStore()

	// Test empty store
	sets, err := store.List()
	if err != nil {
		t.Errorf("Failed to list empty store: %v", err)
	}
	if len(sets) != 0 {
		t.Errorf("Expected 0 token sets, got %d", len(sets))
	}

	// Test storing and retrieving
	set := &TokenSet{
		Profile: "mockprofile",
		Tokens: []Token{
			{Name: "pt_key", Value: "mock_value"},
		},
	}

	err = store.Store(set)
	if err != nil {
		t.Errorf("Failed to store token set: %v", err)
	}

	// Verify count
	if store.Count() != 1 {
		t.Errorf("Expected 1 token set, got %d", store.Count())
	}

	// Test exists
	if !store.Exists("mockprofile") {
		t.Error("Token set should exist")
	}

	// Test error injection
	store.ListError = fmt.Errorf("injected error")
	_, err = store.List()
	if err == nil || err.Error() != "injected error" {
		t.Error("Expected injected error")
	}
}

func contains(data []byte, substr []byte) bool {
	for i := 0; i <= len(data)-len(substr); i++ {
		if string(data[i:i+len(substr)]) == string(substr) {
			return true
		}
	}
	return false
}
