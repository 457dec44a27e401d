package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "kagglefetch/pkg/errors"
	"kagglefetch/pkg/kaggle"
	"kagglefetch/pkg/logger"
	"kagglefetch/pkg/retry"
)

func clearKaggleEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvKey, "")
}

func writeKaggleJSON(t *testing.T, dir, body string, mode os.FileMode) *CredentialFile {
	t.Helper()
	path := filepath.Join(dir, CredentialFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), mode))
	return &CredentialFile{Path: path}
}

// openStore returns an opener that counts how often the stores were opened
func openStore(store SecretSource, opened ...*int32) SecretOpener {
	return func() SecretSource {
		for _, n := range opened {
			atomic.AddInt32(n, 1)
		}
		return store
	}
}

// recordingFactory counts client constructions and points them at baseURL
func recordingFactory(baseURL string, calls *int32, got *kaggle.Credentials) ClientFactory {
	return func(creds kaggle.Credentials) (*kaggle.Client, error) {
		atomic.AddInt32(calls, 1)
		if got != nil {
			*got = creds
		}
		return kaggle.NewClient(creds, time.Second, logger.NewNopLogger(),
			kaggle.WithBaseURL(baseURL),
			kaggle.WithRetry(&retry.Config{MaxAttempts: 1}))
	}
}

func TestMissingCredentialFile(t *testing.T) {
	clearKaggleEnv(t)

	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer server.Close()

	var factoryCalls int32
	file := &CredentialFile{Path: filepath.Join(t.TempDir(), CredentialFileName)}
	loader := NewLoader(file, nil, recordingFactory(server.URL, &factoryCalls, nil), true, logger.NewNopLogger())

	client, err := loader.EnsureAuthenticated(context.Background())
	require.Error(t, err)
	assert.Nil(t, client)
	assert.True(t, errors.Is(err, ErrCredentialFileMissing))
	assert.Equal(t, errs.ErrorTypeConfiguration, errs.TypeOf(err))
	assert.Contains(t, err.Error(), file.Path)

	assert.Equal(t, int32(0), atomic.LoadInt32(&factoryCalls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&requests))

	// missing file wins even when the environment carries a full account
	t.Setenv(EnvUsername, "env_user")
	t.Setenv(EnvKey, "env_key")
	_, err = loader.EnsureAuthenticated(context.Background())
	assert.True(t, errors.Is(err, ErrCredentialFileMissing))
}

func TestEnsureAuthenticatedTightensPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions")
	}
	clearKaggleEnv(t)

	file := writeKaggleJSON(t, t.TempDir(), `{"username":"alice","key":"file_key"}`, 0644)

	var calls int32
	var got kaggle.Credentials
	loader := NewLoader(file, nil, recordingFactory("http://127.0.0.1:1", &calls, &got), false, logger.NewNopLogger())

	for i := 0; i < 2; i++ {
		client, err := loader.EnsureAuthenticated(context.Background())
		require.NoError(t, err)
		require.NotNil(t, client)

		mode, err := file.Mode()
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), mode)
	}

	assert.Equal(t, kaggle.Credentials{Username: "alice", Key: "file_key"}, got)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestResolveKeyPrecedence(t *testing.T) {
	dir := t.TempDir()
	secrets := NewMockStore()
	require.NoError(t, secrets.Store(&Account{Username: "alice", Key: "stored_key"}))

	tests := []struct {
		name       string
		file       string
		envUser    string
		envKey     string
		wantUser   string
		wantKey    string
		wantSource string
	}{
		{"file key", `{"username":"alice","key":"file_key"}`, "", "", "alice", "file_key", CredentialFileName},
		{"environment account", `{"username":"alice","key":"file_key"}`, "bob", "env_key", "bob", "env_key", "environment"},
		{"environment key only", `{"username":"alice","key":"file_key"}`, "", "env_key", "alice", "env_key", "environment"},
		{"secret store", `{"username":"alice"}`, "", "", "alice", "stored_key", "secret store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvUsername, tt.envUser)
			t.Setenv(EnvKey, tt.envKey)
			file := writeKaggleJSON(t, dir, tt.file, 0600)

			loader := NewLoader(file, openStore(secrets), nil, false, logger.NewNopLogger())
			account, source, err := loader.Resolve()
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, account.Username)
			assert.Equal(t, tt.wantKey, account.Key)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func TestResolveErrors(t *testing.T) {
	clearKaggleEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"username":`},
		{"missing username", `{"key":"abc"}`},
		{"no key anywhere", `{"username":"alice"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := writeKaggleJSON(t, dir, tt.body, 0600)
			loader := NewLoader(file, openStore(NewMockStore()), nil, false, logger.NewNopLogger())

			_, _, err := loader.Resolve()
			require.Error(t, err)
			assert.Equal(t, errs.ErrorTypeConfiguration, errs.TypeOf(err))
		})
	}
}

func TestEnsureAuthenticatedVerifies(t *testing.T) {
	clearKaggleEnv(t)

	t.Run("accepted", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, key, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "alice", user)
			assert.Equal(t, "file_key", key)
			_ = json.NewEncoder(w).Encode([]kaggle.Competition{})
		}))
		defer server.Close()

		file := writeKaggleJSON(t, t.TempDir(), `{"username":"alice","key":"file_key"}`, 0600)
		log := logger.NewTestLogger()
		var calls int32
		loader := NewLoader(file, nil, recordingFactory(server.URL, &calls, nil), true, log)

		client, err := loader.EnsureAuthenticated(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "alice", client.Username())
		assert.True(t, log.HasMessage("Kaggle API authentication successful"))
	})

	t.Run("rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		file := writeKaggleJSON(t, t.TempDir(), `{"username":"alice","key":"bad_key"}`, 0600)
		var calls int32
		loader := NewLoader(file, nil, recordingFactory(server.URL, &calls, nil), true, logger.NewNopLogger())

		_, err := loader.EnsureAuthenticated(context.Background())
		require.Error(t, err)
		assert.True(t, errs.HasType(err, errs.ErrorTypeAuthentication))
	})
}

func TestEnsureAuthenticatedFactoryError(t *testing.T) {
	clearKaggleEnv(t)
	file := writeKaggleJSON(t, t.TempDir(), `{"username":"alice","key":"k"}`, 0600)

	loader := NewLoader(file, nil, func(kaggle.Credentials) (*kaggle.Client, error) {
		return nil, errors.New("boom")
	}, false, logger.NewNopLogger())

	_, err := loader.EnsureAuthenticated(context.Background())
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeAuthentication, errs.TypeOf(err))
}

func TestSecretStoresOpenedOnlyWithoutFileKey(t *testing.T) {
	clearKaggleEnv(t)
	dir := t.TempDir()
	secrets := NewMockStore()
	require.NoError(t, secrets.Store(&Account{Username: "alice", Key: "stored_key"}))

	var opened int32
	missing := &CredentialFile{Path: filepath.Join(dir, "absent", CredentialFileName)}
	_, _, err := NewLoader(missing, openStore(secrets, &opened), nil, false, logger.NewNopLogger()).Resolve()
	require.ErrorIs(t, err, ErrCredentialFileMissing)
	assert.Equal(t, int32(0), atomic.LoadInt32(&opened))

	file := writeKaggleJSON(t, dir, `{"username":"alice","key":"file_key"}`, 0600)
	account, _, err := NewLoader(file, openStore(secrets, &opened), nil, false, logger.NewNopLogger()).Resolve()
	require.NoError(t, err)
	assert.Equal(t, "file_key", account.Key)
	assert.Equal(t, int32(0), atomic.LoadInt32(&opened))
	assert.Equal(t, 0, secrets.Retrieves())

	file = writeKaggleJSON(t, dir, `{"username":"alice"}`, 0600)
	account, _, err = NewLoader(file, openStore(secrets, &opened), nil, false, logger.NewNopLogger()).Resolve()
	require.NoError(t, err)
	assert.Equal(t, "stored_key", account.Key)
	assert.Equal(t, int32(1), atomic.LoadInt32(&opened))
}
