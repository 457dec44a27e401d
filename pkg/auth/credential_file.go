package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// CredentialFileName is the file the Kaggle tooling reads credentials from
	CredentialFileName = "kaggle.json"

	// ConfigDirEnv relocates the credential directory
	ConfigDirEnv = "KAGGLE_CONFIG_DIR"

	// credentialFileMode is owner read/write only
	credentialFileMode os.FileMode = 0600
)

// kaggleJSON mirrors the file downloaded from the Kaggle account page
type kaggleJSON struct {
	Username string `json:"username"`
	Key      string `json:"key,omitempty"`
}

// CredentialFile is a reference to kaggle.json on disk
type CredentialFile struct {
	Path string
}

// DefaultCredentialPath resolves kaggle.json: the override directory if set,
// else $KAGGLE_CONFIG_DIR, else ~/.kaggle
func DefaultCredentialPath(override string) (string, error) {
	dir := override
	if dir == "" {
		dir = os.Getenv(ConfigDirEnv)
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".kaggle")
	}
	return filepath.Join(expandHome(dir), CredentialFileName), nil
}

// NewCredentialFile returns a reference to the resolved kaggle.json
func NewCredentialFile(override string) (*CredentialFile, error) {
	path, err := DefaultCredentialPath(override)
	if err != nil {
		return nil, err
	}
	return &CredentialFile{Path: path}, nil
}

// Exists reports whether the file is present
func (f *CredentialFile) Exists() bool {
	info, err := os.Stat(f.Path)
	return err == nil && !info.IsDir()
}

// Mode returns the file's permission bits
func (f *CredentialFile) Mode() (os.FileMode, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return 0, err
	}
	return info.Mode().Perm(), nil
}

// Tighten narrows the file to owner read/write. It is a no-op on Windows,
// where POSIX permission bits do not apply.
func (f *CredentialFile) Tighten() error {
	if runtime.GOOS == "windows" {
		return nil
	}
	if err := os.Chmod(f.Path, credentialFileMode); err != nil {
		return fmt.Errorf("failed to restrict permissions on %s: %w", f.Path, err)
	}
	return nil
}

// Read parses the file. The key may be empty when it lives in a secret store.
func (f *CredentialFile) Read() (*Account, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}

	var kj kaggleJSON
	if err := json.Unmarshal(data, &kj); err != nil {
		return nil, fmt.Errorf("%s is not valid JSON: %w", f.Path, err)
	}
	if strings.TrimSpace(kj.Username) == "" {
		return nil, fmt.Errorf("%s: %w: username is missing", f.Path, ErrInvalidCredentials)
	}

	return &Account{Username: strings.TrimSpace(kj.Username), Key: strings.TrimSpace(kj.Key)}, nil
}

// Write saves the account with mode 0600. The key is omitted when withKey is false.
func (f *CredentialFile) Write(account *Account, withKey bool) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}

	kj := kaggleJSON{Username: account.Username}
	if withKey {
		kj.Key = account.Key
	}
	data, err := json.MarshalIndent(kj, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.Path), 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(f.Path), err)
	}

	tempFile := f.Path + ".tmp"
	if err := os.WriteFile(tempFile, append(data, '\n'), credentialFileMode); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := os.Rename(tempFile, f.Path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to replace credentials: %w", err)
	}
	return f.Tighten()
}

// Remove deletes the file; a missing file is not an error
func (f *CredentialFile) Remove() error {
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", f.Path, err)
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
