package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// keyringService groups kagglefetch entries in the system keychain; each
// entry is keyed by Kaggle username and holds the bare API key
const keyringService = "kagglefetch"

// KeyringStore keeps API keys in the system keychain. Opening it touches
// nothing; an unavailable keychain surfaces on the first call.
type KeyringStore struct{}

// NewKeyringStore returns the keychain-backed store
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (k *KeyringStore) Name() string {
	return "system keychain"
}

// Store saves account.Key under account.Username
func (k *KeyringStore) Store(account *Account) error {
	if account == nil || account.Username == "" || account.Key == "" {
		return ErrInvalidCredentials
	}
	if err := keyring.Set(keyringService, account.Username, account.Key); err != nil {
		return fmt.Errorf("keychain unavailable: %w", err)
	}
	return nil
}

// Retrieve returns the key stored for username
func (k *KeyringStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	key, err := keyring.Get(keyringService, username)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return nil, ErrCredentialsNotFound
	case err != nil:
		return nil, fmt.Errorf("keychain unavailable: %w", err)
	}
	return &Account{Username: username, Key: key}, nil
}

// Delete forgets the key stored for username
func (k *KeyringStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}

	err := keyring.Delete(keyringService, username)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return ErrCredentialsNotFound
	case err != nil:
		return fmt.Errorf("keychain unavailable: %w", err)
	}
	return nil
}

// Exists reports whether a key is stored for username
func (k *KeyringStore) Exists(username string) bool {
	_, err := k.Retrieve(username)
	return err == nil
}
