package auth

import "os"

// Environment variables understood by the official Kaggle tooling
const (
	EnvUsername = "KAGGLE_USERNAME"
	EnvKey      = "KAGGLE_KEY"
)

// EnvironmentStore reads an account from KAGGLE_USERNAME and KAGGLE_KEY. It is
// read-only and always consulted before kaggle.json's key.
type EnvironmentStore struct{}

// NewEnvironmentStore creates the environment lookup
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Name() string {
	return "environment"
}

// Retrieve returns the environment account. An empty username matches any
// KAGGLE_USERNAME; KAGGLE_KEY alone is accepted for the given username.
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	envUser := os.Getenv(EnvUsername)
	key := os.Getenv(EnvKey)

	if key == "" {
		return nil, ErrCredentialsNotFound
	}

	switch {
	case envUser == "" && username == "":
		return nil, ErrCredentialsNotFound
	case envUser == "":
		envUser = username
	case username != "" && username != envUser:
		return nil, ErrCredentialsNotFound
	}

	return &Account{Username: envUser, Key: key}, nil
}
