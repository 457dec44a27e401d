package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kagglefetch/pkg/config"
)

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zlog := zerolog.New(buf).Level(zerolog.DebugLevel)
	return &zerologLogger{
		logger: &zlog,
		fields: make(map[string]interface{}),
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name:    "valid config with info level",
			cfg:     &config.LoggingConfig{Level: "info"},
			wantErr: false,
		},
		{
			name:    "valid config with debug level",
			cfg:     &config.LoggingConfig{Level: "debug"},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			cfg:     &config.LoggingConfig{Level: "invalid"},
			wantErr: true,
		},
		{
			name:    "config with file output",
			cfg:     &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "kagglefetch.log")},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kagglefetch.log")
	logger, err := New(&config.LoggingConfig{Level: "info", File: path})
	require.NoError(t, err)

	logger.WithField("competition", "titanic").Info("file line")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"competition":"titanic"`)
	assert.Contains(t, string(data), `"message":"file line"`)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	for name, fn := range map[string]func(string){
		"debug": logger.Debug,
		"info":  logger.Info,
		"warn":  logger.Warn,
		"error": logger.Error,
	} {
		t.Run(name, func(t *testing.T) {
			buf.Reset()
			fn(name + " message")
			if !strings.Contains(buf.String(), name+" message") {
				t.Errorf("%s message not found in output", name)
			}
		})
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	child := logger.WithFields(map[string]interface{}{
		"string": "value",
		"int":    42,
		"bool":   true,
		"dur":    2 * time.Second,
	})
	child.Info("test message")

	output := buf.String()
	assert.Contains(t, output, `"string":"value"`)
	assert.Contains(t, output, `"int":42`)
	assert.Contains(t, output, `"bool":true`)

	// parent logger stays untouched
	buf.Reset()
	logger.Info("parent")
	assert.NotContains(t, buf.String(), `"string"`)
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	if logger.WithError(nil) != logger {
		t.Error("WithError(nil) should return the same logger")
	}

	logger.WithError(errors.New("zip: not a valid zip file")).Error("error occurred")
	assert.Contains(t, buf.String(), "zip: not a valid zip file")
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogTransfer(tl, "competition", "titanic", "data/raw/titanic.zip", 1024, nil)
	LogTransfer(tl, "dataset", "owner/slug", "data/external/slug.zip", 0, errors.New("boom"))
	LogExtraction(tl, "titanic.zip", "data/raw", 3, nil)
	LogRequest(tl, "GET", "http://x/api", 503, time.Millisecond)

	assert.True(t, tl.HasMessage("Download completed"))
	assert.True(t, tl.HasMessage("Archive extracted"))
	assert.True(t, tl.HasError())

	errs := tl.GetMessagesByLevel("ERROR")
	require.Len(t, errs, 2)
	assert.Equal(t, "owner/slug", errs[0].Fields["ref"])
	assert.EqualError(t, errs[0].Error, "boom")
}

func TestGlobalLogger(t *testing.T) {
	tl := NewTestLogger()
	SetLogger(tl)
	t.Cleanup(func() { SetLogger(nil) })

	WithField("k", "v").Warn("global warn")

	warns := tl.GetMessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, "v", warns[0].Fields["k"])
}
