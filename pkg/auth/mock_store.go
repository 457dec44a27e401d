package auth

import (
	"sync"
	"sync/atomic"
)

// MockStore keeps API keys in memory for tests
type MockStore struct {
	mu   sync.Mutex
	keys map[string]string

	// Injected failures
	StoreError    error
	RetrieveError error

	retrieves atomic.Int32
}

// NewMockStore creates an empty in-memory store
func NewMockStore() *MockStore {
	return &MockStore{keys: make(map[string]string)}
}

func (m *MockStore) Name() string {
	return "mock"
}

func (m *MockStore) Store(account *Account) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if account == nil || account.Username == "" || account.Key == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[account.Username] = account.Key
	return nil
}

func (m *MockStore) Retrieve(username string) (*Account, error) {
	m.retrieves.Add(1)
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.keys[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &Account{Username: username, Key: key}, nil
}

func (m *MockStore) Delete(username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[username]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.keys, username)
	return nil
}

func (m *MockStore) Exists(username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[username]
	return ok
}

// Count returns the number of stored keys
func (m *MockStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

// Retrieves returns how many lookups the store has served
func (m *MockStore) Retrieves() int {
	return int(m.retrieves.Load())
}
