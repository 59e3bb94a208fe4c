package session

import (
	"fmt"
	"sync"
)

// MockStore implements TokenStore for testing purposes
type MockStore struct {
	sets map[string]*TokenSet
	mu   sync.RWMutex

	// Error injection for testing
	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMockStore creates a new mock token store
func NewMockStore() *MockStore {
	return &MockStore{
		sets: make(map[string]*TokenSet),
	}
}

// Store saves a token set to the mock store
func (m *MockStore) Store(set *TokenSet) error {
	if m.StoreError != nil {
		return m.StoreError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if set == nil || set.Profile == "" {
		return ErrInvalidTokens
	}

	// Store a copy to avoid external modifications
	m.sets[set.Profile] = set.Clone()

	return nil
}

// Retrieve gets a token set from the mock store
func (m *MockStore) Retrieve(profile string) (*TokenSet, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if profile == "" {
		return nil, ErrInvalidTokens
	}

	set, exists := m.sets[profile]
	if !exists {
		return nil, ErrTokensNotFound
	}

	// Return a copy to avoid external modifications
	return set.Clone(), nil
}

// List returns all stored token sets from the mock store
func (m *MockStore) List() ([]*TokenSet, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var sets []*TokenSet
	for _, set := range m.sets {
		sets = append(sets, set.Clone())
	}

	return sets, nil
}

// Delete removes a token set from the mock store
func (m *MockStore) Delete(profile string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if profile == "" {
		return ErrInvalidTokens
	}

	if _, exists := m.sets[profile]; !exists {
		return ErrTokensNotFound
	}

	delete(m.sets, profile)
	return nil
}

// Exists checks if a token set exists in the mock store
func (m *MockStore) Exists(profile string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.sets[profile]
	return exists
}

// Clear removes all token sets from the mock store (useful for test cleanup)
func (m *MockStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sets = make(map[string]*TokenSet)
}

// Count returns the number of token sets in the mock store (useful for testing)
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sets)
}

// NewMockManager creates a Manager with a mock store for testing
func NewMockManager() (*Manager, *MockStore) {
	mockStore := NewMockStore()
	manager := &Manager{
		stores: []TokenStore{mockStore},
	}
	return manager, mockStore
}

// NewMockManagerWithStores creates a Manager with specific stores for testing
func NewMockManagerWithStores(stores ...TokenStore) *Manager {
	return &Manager{
		stores: stores,
	}
}

// GetSet returns a copy of the stored set for inspection (useful for testing)
func (m *MockStore) GetSet(profile string) (*TokenSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, exists := m.sets[profile]
	if !exists {
		return nil, fmt.Errorf("token set not found: %s", profile)
	}

	return set.Clone(), nil
}
