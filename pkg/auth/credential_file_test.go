package auth

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCredentialPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv(ConfigDirEnv, "")
	path, err := DefaultCredentialPath("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".kaggle", "kaggle.json"), path)

	t.Setenv(ConfigDirEnv, "/tmp/kaggle-env")
	path, err = DefaultCredentialPath("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/kaggle-env", "kaggle.json"), path)

	path, err = DefaultCredentialPath("~/custom")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "custom", "kaggle.json"), path)
}

func TestCredentialFileRoundTrip(t *testing.T) {
	file := &CredentialFile{Path: filepath.Join(t.TempDir(), "nested", CredentialFileName)}
	assert.False(t, file.Exists())

	require.NoError(t, file.Write(&Account{Username: "alice", Key: "secret"}, true))
	assert.True(t, file.Exists())

	if runtime.GOOS != "windows" {
		mode, err := file.Mode()
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), mode)
	}

	account, err := file.Read()
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Username)
	assert.Equal(t, "secret", account.Key)

	require.NoError(t, file.Write(&Account{Username: "alice", Key: "secret"}, false))
	data, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), `"key"`)

	require.NoError(t, file.Remove())
	assert.False(t, file.Exists())
	assert.NoError(t, file.Remove())
}

func TestMissingCredentialsHelp(t *testing.T) {
	help := MissingCredentialsHelp("/home/u/.kaggle/kaggle.json")
	assert.Contains(t, help, AccountSettingsURL)
	assert.Contains(t, help, "/home/u/.kaggle/kaggle.json")
}
