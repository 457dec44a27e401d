package auth

import (
	"context"
	"errors"
	"os"

	errs "kagglefetch/pkg/errors"
	"kagglefetch/pkg/kaggle"
	"kagglefetch/pkg/logger"
)

// ErrCredentialFileMissing marks an absent kaggle.json
var ErrCredentialFileMissing = errors.New("kaggle.json not found")

// ClientFactory builds an API client for resolved credentials
type ClientFactory func(creds kaggle.Credentials) (*kaggle.Client, error)

// SecretSource looks up API keys kept outside kaggle.json
type SecretSource interface {
	Retrieve(username string) (*Account, error)
}

// SecretOpener opens the secret stores. It is only called when kaggle.json
// names a user without a key.
type SecretOpener func() SecretSource

// Loader turns the local credential file into an authenticated client
type Loader struct {
	file    *CredentialFile
	env     *EnvironmentStore
	secrets SecretOpener
	factory ClientFactory
	verify  bool
	logger  logger.Logger
}

// NewLoader creates a loader. secrets may be nil.
func NewLoader(file *CredentialFile, secrets SecretOpener, factory ClientFactory, verify bool, log logger.Logger) *Loader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Loader{
		file:    file,
		env:     NewEnvironmentStore(),
		secrets: secrets,
		factory: factory,
		verify:  verify,
		logger:  log,
	}
}

// CredentialPath returns the kaggle.json location this loader checks
func (l *Loader) CredentialPath() string {
	return l.file.Path
}

// Resolve locates the account without touching the network. The credential
// file must exist; its permissions are narrowed to 0600 on every call.
// The key comes from KAGGLE_USERNAME/KAGGLE_KEY, then kaggle.json, then the
// secret stores. The returned source names where the key was found.
func (l *Loader) Resolve() (*Account, string, error) {
	const op = "auth.Resolve"

	if !l.file.Exists() {
		return nil, "", errs.Wrapf(errs.ErrorTypeConfiguration, op, ErrCredentialFileMissing, "expected at %s", l.file.Path)
	}

	if err := l.file.Tighten(); err != nil {
		return nil, "", errs.Wrap(errs.ErrorTypeConfiguration, op, err)
	}

	if account, err := l.env.Retrieve(""); err == nil {
		return account, l.env.Name(), nil
	}

	account, err := l.file.Read()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", errs.Wrapf(errs.ErrorTypeConfiguration, op, ErrCredentialFileMissing, "expected at %s", l.file.Path)
		}
		return nil, "", errs.Wrap(errs.ErrorTypeConfiguration, op, err)
	}

	if envAccount, err := l.env.Retrieve(account.Username); err == nil {
		return envAccount, l.env.Name(), nil
	}

	if account.Key != "" {
		return account, CredentialFileName, nil
	}

	if l.secrets != nil {
		if source := l.secrets(); source != nil {
			if stored, err := source.Retrieve(account.Username); err == nil && stored.Key != "" {
				stored.Username = account.Username
				return stored, "secret store", nil
			}
		}
	}

	return nil, "", errs.New(errs.ErrorTypeConfiguration, op,
		"no API key for "+account.Username+" in "+l.file.Path+", the environment or the secret stores")
}

// EnsureAuthenticated resolves credentials and returns a client for them.
// With verification enabled it also performs one authenticated request.
func (l *Loader) EnsureAuthenticated(ctx context.Context) (*kaggle.Client, error) {
	const op = "auth.EnsureAuthenticated"

	account, source, err := l.Resolve()
	if err != nil {
		return nil, err
	}

	client, err := l.factory(kaggle.Credentials{Username: account.Username, Key: account.Key})
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeAuthentication, op, err)
	}

	if l.verify {
		if err := client.Authenticate(ctx); err != nil {
			return nil, err
		}
	}

	l.logger.InfoWithFields("Kaggle API authentication successful", map[string]interface{}{
		"username": account.Username,
		"source":   source,
		"verified": l.verify,
	})

	return client, nil
}
