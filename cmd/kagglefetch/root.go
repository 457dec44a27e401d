package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"kagglefetch/pkg/config"
	"kagglefetch/pkg/logger"
	"kagglefetch/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile  string
	logLevel    string
	logFile     string
	kaggleDir   string
	noColor     bool
	noProgress  bool
	quiet       bool
	strictFlags bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kagglefetch [competition]",
	Short: "Download Kaggle competitions, datasets and notebooks",
	Long: `kagglefetch downloads Kaggle competition data, datasets and notebooks into a
local project layout and unpacks the archives in place.

Credentials are read from kaggle.json (default ~/.kaggle/kaggle.json). Create
the file from your Kaggle account page or with 'kagglefetch auth login'.

Layout:
  data/raw/                   competitions (default --output)
  data/external/              datasets unless --output is given
  data/competitions/<name>/   competitions with --organize
  notebooks/reference/        notebooks unless --output is given`,
	Example: `  # Download and unpack the titanic competition into data/raw
  kagglefetch titanic

  # Keep each competition in its own directory
  kagglefetch titanic --organize

  # Download a dataset into data/external
  kagglefetch --dataset zillow/zecon

  # Pull a notebook into notebooks/reference
  kagglefetch --notebook alexisbcook/titanic-tutorial

  # List competitions, or the top notebooks of one competition
  kagglefetch --list
  kagglefetch --list-notebooks titanic`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}
		if noColor {
			ui.SetColor(false)
		}
	},
	RunE: runFetch,
}

// Execute runs the root command and returns the process exit code
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		report(err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.kagglefetch.yaml or ~/.config/kagglefetch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write JSON logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&kaggleDir, "kaggle-dir", "", "directory holding kaggle.json (default $KAGGLE_CONFIG_DIR or ~/.kaggle)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable download progress bars")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output; errors and listings are still printed")
	rootCmd.PersistentFlags().BoolVar(&strictFlags, "strict-flags", false, "fail instead of ignoring lower-precedence selectors")

	rootCmd.SetVersionTemplate(`kagglefetch {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig layers the config file, environment and flags, then starts logging
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("log-level") {
		flags["log-level"] = logLevel
	}
	if logFile != "" {
		flags["log-file"] = logFile
	}
	if kaggleDir != "" {
		flags["config-dir"] = kaggleDir
	}
	if noProgress {
		flags["no-progress"] = true
	}
	for _, name := range []string{"no-extract", "verify", "manifest"} {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			v, _ := cmd.Flags().GetBool(name)
			flags[name] = v
		}
	}
	if f := cmd.Flags().Lookup("max-retries"); f != nil && f.Changed {
		v, _ := cmd.Flags().GetInt("max-retries")
		flags["max-retries"] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, &cliError{summary: "Failed to load configuration", err: err}
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, &cliError{summary: "Failed to initialize logging", err: err}
	}
	logger.WithField("version", version).Debug("kagglefetch starting")

	return cfg, nil
}

// cliError carries the one-line summary printed for a failed command
type cliError struct {
	summary string
	detail  string
	err     error
}

func (e *cliError) Error() string {
	if e.err == nil {
		return e.summary
	}
	return e.summary + ": " + e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

// report prints a failed command's error for the user
func report(err error) {
	logger.GetLogger().WithError(err).Debug("Command failed")

	if errors.Is(err, context.Canceled) {
		ui.PrintError("Interrupted")
		return
	}

	var ce *cliError
	if !errors.As(err, &ce) {
		ui.PrintError("Error", err)
		return
	}

	if ce.err == nil {
		ui.PrintError(ce.summary)
	} else {
		ui.PrintError(ce.summary, ce.err)
	}
	if ce.detail != "" {
		fmt.Fprintln(ui.Output, ce.detail)
	}
}
