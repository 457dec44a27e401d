package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000

	// PassphraseEnv overrides the generated passphrase file
	PassphraseEnv = "KAGGLEFETCH_PASSPHRASE"

	// passphraseFile sits next to the key file
	passphraseFile = ".passphrase"

	keyFileVersion = 2
)

// keyFile is the on-disk layout. Sealed holds the AES-GCM encrypted JSON map
// of username to API key, prefixed with its nonce.
type keyFile struct {
	Version  int       `json:"version"`
	Salt     string    `json:"salt"`
	Sealed   string    `json:"sealed"`
	Modified time.Time `json:"modified"`
}

// EncryptedFileStore keeps API keys in a PBKDF2/AES-GCM sealed file for
// machines without a usable keychain. Nothing is written until the first
// Store: the directory and the passphrase file are created then.
type EncryptedFileStore struct {
	path string
	mu   sync.Mutex
}

// NewEncryptedFileStore returns a store sealed at path
func NewEncryptedFileStore(path string) *EncryptedFileStore {
	return &EncryptedFileStore{path: path}
}

func (e *EncryptedFileStore) Name() string {
	return "encrypted file"
}

// Path returns the location of the sealed file
func (e *EncryptedFileStore) Path() string {
	return e.path
}

// Store seals account.Key under account.Username. A fresh salt is drawn on
// every write.
func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Username == "" || account.Key == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(e.path), 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(e.path), err)
	}
	passphrase, err := e.passphrase(true)
	if err != nil {
		return err
	}

	keys, err := e.open(passphrase)
	if err != nil && !errors.Is(err, ErrCredentialsNotFound) {
		return err
	}
	if keys == nil {
		keys = make(map[string]string)
	}
	keys[account.Username] = account.Key
	return e.seal(passphrase, keys)
}

// Retrieve returns the key sealed for username
func (e *EncryptedFileStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	keys, err := e.load()
	if err != nil {
		return nil, err
	}
	key, ok := keys[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &Account{Username: username, Key: key}, nil
}

// Delete removes the key for username. The file goes with the last key.
func (e *EncryptedFileStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	keys, err := e.load()
	if err != nil {
		return err
	}
	if _, ok := keys[username]; !ok {
		return ErrCredentialsNotFound
	}

	delete(keys, username)
	if len(keys) == 0 {
		return os.Remove(e.path)
	}

	passphrase, err := e.passphrase(false)
	if err != nil {
		return err
	}
	return e.seal(passphrase, keys)
}

// Exists reports whether a key is sealed for username
func (e *EncryptedFileStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}

// load opens the sealed file with the existing passphrase
func (e *EncryptedFileStore) load() (map[string]string, error) {
	if _, err := os.Stat(e.path); os.IsNotExist(err) {
		return nil, ErrCredentialsNotFound
	}
	passphrase, err := e.passphrase(false)
	if err != nil {
		return nil, err
	}
	return e.open(passphrase)
}

// open decrypts the key map; a missing file is ErrCredentialsNotFound
func (e *EncryptedFileStore) open(passphrase string) (map[string]string, error) {
	content, err := os.ReadFile(e.path)
	if os.IsNotExist(err) {
		return nil, ErrCredentialsNotFound
	}
	if err != nil {
		return nil, err
	}

	var file keyFile
	if err := json.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", e.path, err)
	}
	if file.Version != keyFileVersion {
		return nil, fmt.Errorf("%s: unsupported version %d", e.path, file.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(file.Sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", e.path, err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("sealed data too short")
	}
	plain, err := gcm.Open(nil, sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s: %w", e.path, err)
	}

	var keys map[string]string
	if err := json.Unmarshal(plain, &keys); err != nil {
		return nil, fmt.Errorf("failed to parse keys: %w", err)
	}
	return keys, nil
}

// seal encrypts keys and replaces the file atomically
func (e *EncryptedFileStore) seal(passphrase string, keys map[string]string) error {
	plain, err := json.Marshal(keys)
	if err != nil {
		return err
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	content, err := json.MarshalIndent(keyFile{
		Version:  keyFileVersion,
		Salt:     base64.StdEncoding.EncodeToString(salt),
		Sealed:   base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, plain, nil)),
		Modified: time.Now(),
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, e.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", e.path, err)
	}
	return nil
}

// passphrase returns PassphraseEnv, else the passphrase file. With create
// set, a missing file is generated.
func (e *EncryptedFileStore) passphrase(create bool) (string, error) {
	if pass := os.Getenv(PassphraseEnv); pass != "" {
		return pass, nil
	}

	path := filepath.Join(filepath.Dir(e.path), passphraseFile)
	if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
		return string(content), nil
	}
	if !create {
		return "", fmt.Errorf("%w: no passphrase at %s", ErrStoreUnavailable, path)
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	pass := base64.URLEncoding.EncodeToString(b)
	if err := os.WriteFile(path, []byte(pass), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return pass, nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(pbkdf2.Key([]byte(passphrase), salt, iterations, keySize, sha256.New))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
