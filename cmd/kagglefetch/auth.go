package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"kagglefetch/pkg/auth"
	"kagglefetch/pkg/ui"
)

var (
	// Auth command flags
	secureKey   bool
	verifyLogin bool
	purgeFile   bool
	assumeYes   bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Kaggle API credentials",
	Long: `Manage the Kaggle API token used for downloads.

The token lives in kaggle.json (default ~/.kaggle/kaggle.json, or
$KAGGLE_CONFIG_DIR/kaggle.json). With --secure the key is kept in the system
keychain, or an encrypted file when no keychain is available, and kaggle.json
only records the username.

KAGGLE_USERNAME and KAGGLE_KEY override the stored key when set.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Create kaggle.json from your username and API key",
	Example: `  # Interactive login
  kagglefetch auth login

  # Keep the key in the system keychain
  kagglefetch auth login myname --secure --verify`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where credentials are read from",
	Long: `Show the kaggle.json location, its permissions and where the API key is found.

The check is local unless --verify is given.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored API keys",
	Long: `Remove the API key from the keychain and encrypted store.

kaggle.json is only removed with --purge.`,
	Example: `  # Forget the key kept in the keychain
  kagglefetch auth logout

  # Also delete kaggle.json
  kagglefetch auth logout --purge`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(logoutCmd)

	loginCmd.Flags().BoolVar(&secureKey, "secure", false, "store the key in the keychain or encrypted file instead of kaggle.json")
	loginCmd.Flags().BoolVar(&verifyLogin, "verify", false, "verify the credentials with an API call")
	statusCmd.Flags().BoolVar(&verifyLogin, "verify", false, "verify the credentials with an API call")
	logoutCmd.Flags().BoolVar(&purgeFile, "purge", false, "also delete kaggle.json")
	logoutCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	file, err := auth.NewCredentialFile(cfg.Kaggle.ConfigDir)
	if err != nil {
		return &cliError{summary: "Failed to locate kaggle.json", err: err}
	}

	reader := bufio.NewReader(os.Stdin)
	auth.ShowSetupGuide(ui.Writer(), file.Path)

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	} else if existing, err := file.Read(); err == nil {
		username = existing.Username
		fmt.Printf("Kaggle username [%s]: ", username)
		if input, _ := reader.ReadString('\n'); strings.TrimSpace(input) != "" {
			username = strings.TrimSpace(input)
		}
	} else {
		fmt.Print("Kaggle username: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return &cliError{summary: "Failed to read username", err: err}
		}
		username = strings.TrimSpace(input)
	}

	if username == "" {
		return &cliError{summary: "Username is required"}
	}

	var key string
	for {
		fmt.Print("API key (hidden): ")
		key, err = readPassword(reader)
		if err != nil {
			return &cliError{summary: "Failed to read API key", err: err}
		}
		if looksLikeAPIKey(key) {
			break
		}

		fmt.Println("That doesn't look like a Kaggle API key.")
		fmt.Println("   It should be 32 hexadecimal characters, as in the \"key\" field of kaggle.json.")
		fmt.Print("Use it anyway? (y/N): ")
		answer, _ := reader.ReadString('\n')
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
			break
		}
	}

	account := &auth.Account{Username: username, Key: key}

	if secureKey {
		manager, err := auth.NewManager()
		if err != nil {
			return &cliError{summary: "Failed to initialize credential stores", err: err}
		}
		store, err := manager.Store(account)
		if err != nil {
			return &cliError{summary: "Failed to store API key", err: err}
		}
		ui.PrintInfo("API key stored in", store)
	}

	if err := file.Write(account, !secureKey); err != nil {
		return &cliError{summary: "Failed to write kaggle.json", err: err}
	}
	ui.PrintSuccess("Credentials saved: " + file.Path)

	if verifyLogin {
		cfg.Kaggle.VerifyCredentials = true
		if _, err := authenticate(cmd, cfg); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("   kagglefetch --list")
	fmt.Println("   kagglefetch titanic")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	file, err := auth.NewCredentialFile(cfg.Kaggle.ConfigDir)
	if err != nil {
		return &cliError{summary: "Failed to locate kaggle.json", err: err}
	}

	ui.PrintHighlight("Kaggle credentials")
	ui.PrintInfo("Credential file", file.Path)

	if !file.Exists() {
		return &cliError{
			summary: "Error: kaggle.json not found!",
			detail:  auth.MissingCredentialsHelp(file.Path),
		}
	}

	if mode, err := file.Mode(); err == nil {
		ui.PrintInfo("Permissions", fmt.Sprintf("%04o", mode))
		if mode&0077 != 0 {
			ui.PrintWarning("kaggle.json is readable by other users; narrowing it to 0600")
		}
	}

	secrets := secretSource()
	loader := auth.NewLoader(file, func() auth.SecretSource { return secrets }, newClientFactory(cfg), false, nil)
	account, source, err := loader.Resolve()
	if err != nil {
		return &cliError{summary: "Credentials incomplete", err: err}
	}

	sanitized := auth.SanitizeAccount(account)
	ui.PrintInfo("Username", sanitized.Username)
	ui.PrintInfo("API key", sanitized.Key)
	ui.PrintInfo("Key source", source)

	if manager, ok := secrets.(*auth.Manager); ok {
		if stores := manager.Locate(account.Username); len(stores) > 0 {
			ui.PrintInfo("Secret stores", strings.Join(stores, ", "))
		}
	}

	if verifyLogin {
		cfg.Kaggle.VerifyCredentials = true
		if _, err := authenticate(cmd, cfg); err != nil {
			return err
		}
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	file, err := auth.NewCredentialFile(cfg.Kaggle.ConfigDir)
	if err != nil {
		return &cliError{summary: "Failed to locate kaggle.json", err: err}
	}

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	} else if account, err := file.Read(); err == nil {
		username = account.Username
	}

	if username != "" {
		manager, err := auth.NewManager()
		if err != nil {
			return &cliError{summary: "Failed to initialize credential stores", err: err}
		}
		switch err := manager.Delete(username); {
		case err == nil:
			ui.PrintSuccess("Stored API key removed: " + username)
		case errors.Is(err, auth.ErrCredentialsNotFound):
			ui.PrintInfo("No stored API key", username)
		default:
			return &cliError{summary: "Failed to remove stored API key", err: err}
		}
	}

	if !purgeFile {
		return nil
	}
	if !file.Exists() {
		ui.PrintInfo("Nothing to purge", file.Path)
		return nil
	}

	if !assumeYes {
		fmt.Printf("Delete %s? This cannot be undone! (yes/N): ", file.Path)
		confirm, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			return nil
		}
	}

	if err := file.Remove(); err != nil {
		return &cliError{summary: "Failed to remove kaggle.json", err: err}
	}
	ui.PrintSuccess("Removed " + file.Path)
	return nil
}

// looksLikeAPIKey reports whether key has the shape of a Kaggle token
func looksLikeAPIKey(key string) bool {
	if len(key) != 32 {
		return false
	}
	for _, r := range key {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

// readPassword reads a secret from stdin without echoing
func readPassword(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(password)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
