package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Account holds a Kaggle username and API key
type Account struct {
	Username string `json:"username"`
	Key      string `json:"key"`
}

// CredentialStore keeps API keys outside kaggle.json, keyed by username
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(username string) (*Account, error)
	Delete(username string) error
	Exists(username string) bool

	// Name identifies the backend in status output
	Name() string
}

// Manager tries secret stores in fallback order: the system keychain, then an
// encrypted file in the application config directory
type Manager struct {
	stores []CredentialStore
}

// NewManager resolves the store locations. Nothing is created on disk or in
// the keychain until a key is stored.
func NewManager() (*Manager, error) {
	dir, err := secretsDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return NewManagerWithStores(
		NewKeyringStore(),
		NewEncryptedFileStore(filepath.Join(dir, "credentials.enc")),
	), nil
}

// NewManagerWithStores creates a Manager over explicit stores
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the key in the first store that accepts it and returns that
// store's name
func (m *Manager) Store(account *Account) (string, error) {
	if account == nil || account.Username == "" {
		return "", errors.New("username is required")
	}
	if account.Key == "" {
		return "", errors.New("API key is required")
	}

	var lastErr error = ErrStoreUnavailable
	for _, store := range m.stores {
		if err := store.Store(account); err != nil {
			lastErr = err
			continue
		}
		return store.Name(), nil
	}
	return "", fmt.Errorf("failed to store API key: %w", lastErr)
}

// Retrieve returns the key from the first store that has one for username
func (m *Manager) Retrieve(username string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(username); err == nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w for user: %s", ErrCredentialsNotFound, username)
}

// Locate returns the names of stores holding a key for username
func (m *Manager) Locate(username string) []string {
	var names []string
	for _, store := range m.stores {
		if store.Exists(username) {
			names = append(names, store.Name())
		}
	}
	return names
}

// Delete removes the key for username from every store
func (m *Manager) Delete(username string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(username); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrCredentialsNotFound) {
			lastErr = err
		}
	}

	switch {
	case deleted:
		return nil
	case lastErr != nil:
		return fmt.Errorf("failed to delete API key: %w", lastErr)
	default:
		return fmt.Errorf("%w for user: %s", ErrCredentialsNotFound, username)
	}
}

// secretsDir returns the per-user application config directory
func secretsDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "kagglefetch"), nil
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "kagglefetch"), nil
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kagglefetch"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "kagglefetch"), nil
}

// SanitizeAccount creates a copy of the account with the key masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}
	return &Account{Username: account.Username, Key: maskString(account.Key)}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
