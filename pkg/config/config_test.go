package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Output.RawDirectory != "data/raw" {
		t.Errorf("Expected default raw directory to be data/raw, got %s", config.Output.RawDirectory)
	}
	if config.Output.ExternalDirectory != "data/external" {
		t.Errorf("Expected default external directory to be data/external, got %s", config.Output.ExternalDirectory)
	}
	if config.Output.CompetitionsDirectory != "data/competitions" {
		t.Errorf("Expected default competitions directory to be data/competitions, got %s", config.Output.CompetitionsDirectory)
	}
	if config.Output.NotebooksDirectory != "notebooks/reference" {
		t.Errorf("Expected default notebooks directory to be notebooks/reference, got %s", config.Output.NotebooksDirectory)
	}
	if config.Listing.CompetitionsLimit != 10 || config.Listing.NotebooksLimit != 5 {
		t.Errorf("Unexpected listing limits: %+v", config.Listing)
	}
	if config.Output.WriteManifest {
		t.Error("Expected the manifest to be opt-in")
	}

	assert.NoError(t, config.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KAGGLE_CONFIG_DIR", "/tmp/kaggle-creds")
	t.Setenv("KAGGLEFETCH_BASE_URL", "http://localhost:9999/api/v1")
	t.Setenv("KAGGLEFETCH_RAW_DIR", "/tmp/raw")
	t.Setenv("KAGGLEFETCH_DOWNLOAD_TIMEOUT", "90s")
	t.Setenv("KAGGLEFETCH_SHOW_PROGRESS", "false")
	t.Setenv("KAGGLEFETCH_MAX_RETRIES", "5")
	t.Setenv("KAGGLEFETCH_REQUESTS_PER_MINUTE", "30")
	t.Setenv("KAGGLEFETCH_LOG_LEVEL", "debug")
	t.Setenv("KAGGLEFETCH_WRITE_MANIFEST", "true")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "/tmp/kaggle-creds", config.Kaggle.ConfigDir)
	assert.Equal(t, "http://localhost:9999/api/v1", config.Kaggle.BaseURL)
	assert.Equal(t, "/tmp/raw", config.Output.RawDirectory)
	assert.Equal(t, 90*time.Second, config.Download.Timeout)
	assert.False(t, config.Download.ShowProgress)
	assert.Equal(t, 5, config.Retry.MaxAttempts)
	assert.Equal(t, 30, config.RateLimit.RequestsPerMinute)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.True(t, config.Output.WriteManifest)
}

func TestLoadFromEnvInvalid(t *testing.T) {
	t.Setenv("KAGGLEFETCH_DOWNLOAD_TIMEOUT", "forever")

	config := DefaultConfig()
	assert.Error(t, config.LoadFromEnv())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{
			name:      "defaults",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "empty raw directory",
			mutate:    func(c *Config) { c.Output.RawDirectory = "" },
			wantError: true,
		},
		{
			name:      "negative retries",
			mutate:    func(c *Config) { c.Retry.MaxAttempts = -1 },
			wantError: true,
		},
		{
			name:      "zero rate limit",
			mutate:    func(c *Config) { c.RateLimit.RequestsPerMinute = 0 },
			wantError: true,
		},
		{
			name:      "bad log level",
			mutate:    func(c *Config) { c.Logging.Level = "verbose" },
			wantError: true,
		},
		{
			name:      "zero listing limit",
			mutate:    func(c *Config) { c.Listing.NotebooksLimit = 0 },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	configContent := `
kaggle:
  base_url: http://example.test/api/v1
output:
  competitions_directory: /srv/competitions
download:
  timeout: 10m
listing:
  competitions_limit: 20
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(configPath))

	assert.Equal(t, "http://example.test/api/v1", config.Kaggle.BaseURL)
	assert.Equal(t, "/srv/competitions", config.Output.CompetitionsDirectory)
	assert.Equal(t, 10*time.Minute, config.Download.Timeout)
	assert.Equal(t, 20, config.Listing.CompetitionsLimit)
	assert.Equal(t, "warn", config.Logging.Level)
	// untouched values keep their defaults
	assert.Equal(t, "data/raw", config.Output.RawDirectory)
	assert.Equal(t, 5, config.Listing.NotebooksLimit)
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	err := config.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"config-dir":  "/creds",
		"log-level":   "error",
		"no-progress": true,
		"no-extract":  true,
		"max-retries": 0,
		"verify":      true,
		"manifest":    true,
	})

	assert.Equal(t, "/creds", config.Kaggle.ConfigDir)
	assert.Equal(t, "error", config.Logging.Level)
	assert.False(t, config.Download.ShowProgress)
	assert.False(t, config.Download.Extract)
	assert.Equal(t, 0, config.Retry.MaxAttempts)
	assert.True(t, config.Kaggle.VerifyCredentials)
	assert.True(t, config.Output.WriteManifest)
}

func TestLoadPrecedence(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("logging:\n  level: warn\n"), 0644))

	t.Setenv("HOME", tempDir)
	t.Setenv("KAGGLEFETCH_LOG_LEVEL", "debug")

	config, err := Load(configPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", config.Logging.Level, "environment beats file")

	config, err = Load(configPath, map[string]interface{}{"log-level": "error"})
	require.NoError(t, err)
	assert.Equal(t, "error", config.Logging.Level, "flags beat environment")
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config := DefaultConfig()
	config.Listing.CompetitionsLimit = 25
	require.NoError(t, config.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 25, loaded.Listing.CompetitionsLimit)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
