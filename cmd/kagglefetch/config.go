package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"kagglefetch/pkg/config"
	"kagglefetch/pkg/ui"
)

// defaultConfigPath is where 'config init' writes when --config is not given
const defaultConfigPath = ".kagglefetch.yaml"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage kagglefetch configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (KAGGLEFETCH_*, KAGGLE_CONFIG_DIR)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write a configuration file containing every option at its default value.

The file is created as '.kagglefetch.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Load the configuration from all sources and check it.

This command checks:
  - YAML syntax
  - Value ranges
  - Output and log directories can be created`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		return &cliError{
			summary: "Configuration file already exists: " + path,
			detail:  fmt.Sprintf("To overwrite, first remove the existing file:\n  rm %s", path),
		}
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return &cliError{summary: "Failed to create configuration file", err: err}
	}

	ui.PrintSuccess("Configuration file created: " + path)
	out := ui.Writer()
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Adjust output directories, retry and rate limit settings")
	fmt.Fprintln(out, "2. Run 'kagglefetch config validate' to check the configuration")
	fmt.Fprintln(out, "3. Start downloading with 'kagglefetch <competition>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return &cliError{summary: "Failed to format configuration", err: err}
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (KAGGLEFETCH_*, KAGGLE_CONFIG_DIR)")
	fmt.Println("3. .env files (./.env, ~/.kagglefetch.env)")
	if configFile != "" {
		fmt.Printf("4. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("4. Configuration file: (default locations)")
	}
	fmt.Println("5. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return &cliError{summary: "Configuration validation failed", err: err}
	}

	problems := checkPaths(cfg)
	if len(problems) > 0 {
		ui.PrintError("Configuration has errors:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return &cliError{summary: "Configuration validation failed", err: fmt.Errorf("%d problem(s) found", len(problems))}
	}

	ui.PrintSuccess("Configuration is valid")

	out := ui.Writer()
	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  Raw directory: %s\n", cfg.Output.RawDirectory)
	fmt.Fprintf(out, "  Dataset directory: %s\n", cfg.Output.ExternalDirectory)
	fmt.Fprintf(out, "  Competitions directory: %s\n", cfg.Output.CompetitionsDirectory)
	fmt.Fprintf(out, "  Notebooks directory: %s\n", cfg.Output.NotebooksDirectory)
	fmt.Fprintf(out, "  Rate limit: %d requests/minute (%s)\n", cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Strategy)
	fmt.Fprintf(out, "  Max retries: %d\n", cfg.Retry.MaxAttempts)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}

// checkPaths reports configured directories whose parents cannot be created
func checkPaths(cfg *config.Config) []string {
	var problems []string

	dirs := map[string]string{
		"raw_directory":          cfg.Output.RawDirectory,
		"external_directory":     cfg.Output.ExternalDirectory,
		"competitions_directory": cfg.Output.CompetitionsDirectory,
		"notebooks_directory":    cfg.Output.NotebooksDirectory,
	}
	for _, name := range []string{"raw_directory", "external_directory", "competitions_directory", "notebooks_directory"} {
		if err := checkCreatable(dirs[name]); err != nil {
			problems = append(problems, fmt.Sprintf("output.%s: %v", name, err))
		}
	}

	if cfg.Logging.File != "" {
		if err := checkCreatable(filepath.Dir(cfg.Logging.File)); err != nil {
			problems = append(problems, fmt.Sprintf("logging.file: %v", err))
		}
	}

	return problems
}

// checkCreatable fails when dir exists as a file or its nearest existing
// ancestor is not a directory
func checkCreatable(dir string) error {
	for p := filepath.Clean(dir); ; p = filepath.Dir(p) {
		info, err := os.Stat(p)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", p)
			}
			return nil
		}
		if !os.IsNotExist(err) && !errors.Is(err, syscall.ENOTDIR) {
			return err
		}
		if parent := filepath.Dir(p); parent == p {
			return nil
		}
	}
}
