package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default layout for downloaded material
const (
	DefaultRawDir          = "data/raw"
	DefaultExternalDir     = "data/external"
	DefaultCompetitionsDir = "data/competitions"
	DefaultNotebooksDir    = "notebooks/reference"
)

// Config holds all configuration options for kagglefetch
type Config struct {
	// Kaggle API and credential settings
	Kaggle KaggleConfig `yaml:"kaggle" json:"kaggle"`

	// Output layout
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Retry settings for transient HTTP failures
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Listing sizes
	Listing ListingConfig `yaml:"listing" json:"listing"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// KaggleConfig holds Kaggle-specific configuration
type KaggleConfig struct {
	BaseURL           string `yaml:"base_url" json:"base_url"`
	ConfigDir         string `yaml:"config_dir" json:"config_dir"`
	UserAgent         string `yaml:"user_agent" json:"user_agent"`
	VerifyCredentials bool   `yaml:"verify_credentials" json:"verify_credentials"`
}

// OutputConfig holds destination directory defaults
type OutputConfig struct {
	RawDirectory          string `yaml:"raw_directory" json:"raw_directory"`
	ExternalDirectory     string `yaml:"external_directory" json:"external_directory"`
	CompetitionsDirectory string `yaml:"competitions_directory" json:"competitions_directory"`
	NotebooksDirectory    string `yaml:"notebooks_directory" json:"notebooks_directory"`
	WriteManifest         bool   `yaml:"write_manifest" json:"write_manifest"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	ShowProgress bool          `yaml:"show_progress" json:"show_progress"`
	Extract      bool          `yaml:"extract" json:"extract"`
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int    `yaml:"requests_per_minute" json:"requests_per_minute"`
	Strategy          string `yaml:"strategy" json:"strategy"` // sliding_window or token_bucket
}

// ListingConfig controls how many listing results are printed
type ListingConfig struct {
	CompetitionsLimit int `yaml:"competitions_limit" json:"competitions_limit"`
	NotebooksLimit    int `yaml:"notebooks_limit" json:"notebooks_limit"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Kaggle: KaggleConfig{
			BaseURL:           "https://www.kaggle.com/api/v1",
			ConfigDir:         "",
			UserAgent:         "kagglefetch/1.0",
			VerifyCredentials: false,
		},
		Output: OutputConfig{
			RawDirectory:          DefaultRawDir,
			ExternalDirectory:     DefaultExternalDir,
			CompetitionsDirectory: DefaultCompetitionsDir,
			NotebooksDirectory:    DefaultNotebooksDir,
			WriteManifest:         false,
		},
		Download: DownloadConfig{
			Timeout:      30 * time.Minute,
			ShowProgress: true,
			Extract:      true,
		},
		Retry: RetryConfig{
			Enabled:      true,
			MaxAttempts:  3,
			BaseDelay:    1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			Strategy:          "sliding_window",
		},
		Listing: ListingConfig{
			CompetitionsLimit: 10,
			NotebooksLimit:    5,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if dir := os.Getenv("KAGGLE_CONFIG_DIR"); dir != "" {
		c.Kaggle.ConfigDir = dir
	}
	if baseURL := os.Getenv("KAGGLEFETCH_BASE_URL"); baseURL != "" {
		c.Kaggle.BaseURL = baseURL
	}
	if verify := os.Getenv("KAGGLEFETCH_VERIFY_CREDENTIALS"); verify != "" {
		c.Kaggle.VerifyCredentials = strings.ToLower(verify) == "true"
	}

	if dir := os.Getenv("KAGGLEFETCH_RAW_DIR"); dir != "" {
		c.Output.RawDirectory = dir
	}
	if dir := os.Getenv("KAGGLEFETCH_COMPETITIONS_DIR"); dir != "" {
		c.Output.CompetitionsDirectory = dir
	}
	if manifest := os.Getenv("KAGGLEFETCH_WRITE_MANIFEST"); manifest != "" {
		c.Output.WriteManifest = strings.ToLower(manifest) == "true"
	}

	if timeout := os.Getenv("KAGGLEFETCH_DOWNLOAD_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid KAGGLEFETCH_DOWNLOAD_TIMEOUT: %w", err)
		}
		c.Download.Timeout = d
	}
	if progress := os.Getenv("KAGGLEFETCH_SHOW_PROGRESS"); progress != "" {
		c.Download.ShowProgress = strings.ToLower(progress) == "true"
	}

	if attempts := os.Getenv("KAGGLEFETCH_MAX_RETRIES"); attempts != "" {
		val, err := strconv.Atoi(attempts)
		if err != nil {
			return fmt.Errorf("invalid KAGGLEFETCH_MAX_RETRIES: %w", err)
		}
		c.Retry.MaxAttempts = val
	}
	if rpm := os.Getenv("KAGGLEFETCH_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if logLevel := os.Getenv("KAGGLEFETCH_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("KAGGLEFETCH_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		".kagglefetch.yaml",
		".kagglefetch.yml",
	}
	if home != "" {
		locations = append(locations,
			filepath.Join(home, ".config", "kagglefetch", "config.yaml"),
			filepath.Join(home, ".config", "kagglefetch", "config.yml"),
			filepath.Join(home, ".kagglefetch.yaml"),
		)
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Kaggle.BaseURL == "" {
		errs = append(errs, errors.New("kaggle base URL is required"))
	}

	if c.Output.RawDirectory == "" {
		errs = append(errs, errors.New("raw output directory is required"))
	}
	if c.Output.ExternalDirectory == "" {
		errs = append(errs, errors.New("external output directory is required"))
	}
	if c.Output.CompetitionsDirectory == "" {
		errs = append(errs, errors.New("competitions directory is required"))
	}
	if c.Output.NotebooksDirectory == "" {
		errs = append(errs, errors.New("notebooks directory is required"))
	}

	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max retry attempts cannot be negative"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry multiplier must be at least 1"))
	}
	if c.Retry.JitterFactor < 0 || c.Retry.JitterFactor > 1 {
		errs = append(errs, errors.New("retry jitter factor must be between 0 and 1"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	switch c.RateLimit.Strategy {
	case "", "sliding_window", "token_bucket":
	default:
		errs = append(errs, fmt.Errorf("unknown rate limit strategy %q", c.RateLimit.Strategy))
	}

	if c.Listing.CompetitionsLimit <= 0 || c.Listing.NotebooksLimit <= 0 {
		errs = append(errs, errors.New("listing limits must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dir, ok := flags["config-dir"].(string); ok && dir != "" {
		c.Kaggle.ConfigDir = dir
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		c.Logging.File = logFile
	}
	if noProgress, ok := flags["no-progress"].(bool); ok && noProgress {
		c.Download.ShowProgress = false
	}
	if noExtract, ok := flags["no-extract"].(bool); ok && noExtract {
		c.Download.Extract = false
	}
	if retries, ok := flags["max-retries"].(int); ok && retries >= 0 {
		c.Retry.MaxAttempts = retries
	}
	if verify, ok := flags["verify"].(bool); ok && verify {
		c.Kaggle.VerifyCredentials = true
	}
	if manifest, ok := flags["manifest"].(bool); ok && manifest {
		c.Output.WriteManifest = true
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".kagglefetch.env"))
	}

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
