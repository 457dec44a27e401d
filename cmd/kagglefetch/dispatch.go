package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kagglefetch/pkg/auth"
	"kagglefetch/pkg/config"
	errs "kagglefetch/pkg/errors"
	"kagglefetch/pkg/fetch"
	"kagglefetch/pkg/kaggle"
	"kagglefetch/pkg/logger"
	"kagglefetch/pkg/ratelimit"
	"kagglefetch/pkg/retry"
	"kagglefetch/pkg/ui"
)

var (
	// Fetch selectors
	listCompetitions bool
	listNotebooks    string
	datasetRef       string
	notebookRef      string
	outputDir        string
	organize         bool

	// Fetch tuning
	noExtract     bool
	verify        bool
	maxRetries    int
	writeManifest bool
)

func init() {
	rootCmd.Flags().BoolVar(&listCompetitions, "list", false, "list available competitions")
	rootCmd.Flags().StringVar(&listNotebooks, "list-notebooks", "", "list top notebooks for a competition")
	rootCmd.Flags().StringVar(&datasetRef, "dataset", "", "dataset to download (format: owner/dataset-name)")
	rootCmd.Flags().StringVar(&notebookRef, "notebook", "", "notebook to download (format: owner/notebook-slug)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", config.DefaultRawDir, "output directory")
	rootCmd.Flags().BoolVar(&organize, "organize", false, "store competition data under data/competitions/<name>")

	rootCmd.Flags().BoolVar(&noExtract, "no-extract", false, "keep downloaded archives compressed")
	rootCmd.Flags().BoolVar(&verify, "verify", false, "verify credentials with an API call before fetching")
	rootCmd.Flags().IntVar(&maxRetries, "max-retries", 3, "maximum attempts for transient HTTP failures")
	rootCmd.Flags().BoolVar(&writeManifest, "manifest", false, "record extracted archives in .kagglefetch-manifest.json in the destination")
}

// action is the single operation an invocation performs
type action int

const (
	actionHelp action = iota
	actionListCompetitions
	actionListNotebooks
	actionDataset
	actionNotebook
	actionCompetition
)

func (a action) String() string {
	switch a {
	case actionListCompetitions:
		return "--list"
	case actionListNotebooks:
		return "--list-notebooks"
	case actionDataset:
		return "--dataset"
	case actionNotebook:
		return "--notebook"
	case actionCompetition:
		return "competition argument"
	default:
		return "help"
	}
}

// selection holds every selector given on the command line
type selection struct {
	List          bool
	ListNotebooks string
	Dataset       string
	Notebook      string
	Competition   string
}

// resolve picks the action by first-match precedence and names the selectors
// that were given but will not run
func (s selection) resolve() (action, []action) {
	var present []action
	if s.List {
		present = append(present, actionListCompetitions)
	}
	if s.ListNotebooks != "" {
		present = append(present, actionListNotebooks)
	}
	if s.Dataset != "" {
		present = append(present, actionDataset)
	}
	if s.Notebook != "" {
		present = append(present, actionNotebook)
	}
	if s.Competition != "" {
		present = append(present, actionCompetition)
	}

	switch len(present) {
	case 0:
		return actionHelp, nil
	case 1:
		return present[0], nil
	}
	return present[0], present[1:]
}

// downloadSummaries heads the error report of each download kind
var downloadSummaries = map[fetch.Kind]string{
	fetch.KindCompetition: "Error downloading competition data",
	fetch.KindDataset:     "Error downloading dataset",
	fetch.KindNotebook:    "Error downloading notebook",
}

// request builds the download for a. ok is false for listing actions.
func (s selection) request(a action, dest string, organize bool) (req fetch.Request, ok bool) {
	switch a {
	case actionDataset:
		return fetch.Request{Kind: fetch.KindDataset, Ref: s.Dataset, Dest: dest}, true
	case actionNotebook:
		return fetch.Request{Kind: fetch.KindNotebook, Ref: s.Notebook, Dest: dest}, true
	case actionCompetition:
		return fetch.Request{Kind: fetch.KindCompetition, Ref: s.Competition, Dest: dest, Organize: organize}, true
	}
	return fetch.Request{}, false
}

// checkAmbiguity warns about ignored selectors, or rejects them when strict
func checkAmbiguity(selected action, ignored []action, strict bool, log logger.Logger) error {
	if len(ignored) == 0 {
		return nil
	}

	names := make([]string, len(ignored))
	for i, a := range ignored {
		names[i] = a.String()
	}

	if strict {
		return errs.New(errs.ErrorTypeConfiguration, "dispatch",
			fmt.Sprintf("%s cannot be combined with %s", selected, strings.Join(names, ", ")))
	}

	log.WarnWithFields("Multiple selectors given, only the first in precedence order runs", map[string]interface{}{
		"selected": selected.String(),
		"ignored":  names,
	})
	return nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	sel := selection{
		List:          listCompetitions,
		ListNotebooks: strings.TrimSpace(listNotebooks),
		Dataset:       strings.TrimSpace(datasetRef),
		Notebook:      strings.TrimSpace(notebookRef),
	}
	if len(args) > 0 {
		sel.Competition = strings.TrimSpace(args[0])
	}

	selected, ignored := sel.resolve()
	if selected == actionHelp {
		return cmd.Help()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	if err := checkAmbiguity(selected, ignored, strictFlags, log); err != nil {
		return &cliError{summary: "Conflicting options", err: err}
	}

	client, err := authenticate(cmd, cfg)
	if err != nil {
		return err
	}

	dest := outputDir
	if !cmd.Flags().Changed("output") {
		dest = cfg.Output.RawDirectory
	}

	f := fetch.New(client, cfg, log, ui.Writer())
	f.SetResultWriter(ui.Output)
	ctx := cmd.Context()

	switch selected {
	case actionListCompetitions:
		if err := f.ListCompetitions(ctx); err != nil {
			return &cliError{summary: "Error listing competitions", err: err}
		}
		return nil
	case actionListNotebooks:
		if err := f.ListNotebooks(ctx, sel.ListNotebooks); err != nil {
			return &cliError{summary: "Error listing notebooks", err: err}
		}
		return nil
	}

	req, _ := sel.request(selected, dest, organize)
	if err := f.Fetch(ctx, req); err != nil {
		return &cliError{summary: downloadSummaries[req.Kind], err: err}
	}
	return nil
}

// authenticate resolves kaggle.json and returns a ready client
func authenticate(cmd *cobra.Command, cfg *config.Config) (*kaggle.Client, error) {
	file, err := auth.NewCredentialFile(cfg.Kaggle.ConfigDir)
	if err != nil {
		return nil, &cliError{summary: "Failed to locate kaggle.json", err: err}
	}

	loader := auth.NewLoader(file, secretSource, newClientFactory(cfg), cfg.Kaggle.VerifyCredentials, logger.GetLogger())
	client, err := loader.EnsureAuthenticated(cmd.Context())
	if err != nil {
		if errors.Is(err, auth.ErrCredentialFileMissing) {
			return nil, &cliError{
				summary: "Error: kaggle.json not found!",
				detail:  auth.MissingCredentialsHelp(loader.CredentialPath()),
			}
		}
		return nil, &cliError{summary: "Error authenticating with Kaggle API", err: err}
	}

	ui.PrintSuccess("Kaggle API authentication successful!")
	return client, nil
}

// secretSource returns the keychain/encrypted-file manager, or nil when no
// store can be opened. The loader calls it only when kaggle.json has no key.
func secretSource() auth.SecretSource {
	manager, err := auth.NewManager()
	if err != nil {
		logger.GetLogger().WithError(err).Debug("Secret stores unavailable")
		return nil
	}
	return manager
}

// newClientFactory wires config into kaggle.Client construction
func newClientFactory(cfg *config.Config) auth.ClientFactory {
	return func(creds kaggle.Credentials) (*kaggle.Client, error) {
		log := logger.GetLogger()
		opts := []kaggle.Option{
			kaggle.WithBaseURL(cfg.Kaggle.BaseURL),
			kaggle.WithUserAgent(cfg.Kaggle.UserAgent),
			kaggle.WithLimiter(ratelimit.New(cfg.RateLimit.Strategy, cfg.RateLimit.RequestsPerMinute)),
			kaggle.WithRetry(retry.FromConfig(&cfg.Retry, log)),
		}
		if ui.ProgressEnabled(cfg.Download.ShowProgress) {
			opts = append(opts, kaggle.WithProgress(ui.ProgressFactory(os.Stderr)))
		}
		return kaggle.NewClient(creds, cfg.Download.Timeout, log, opts...)
	}
}
