package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kagglefetch/pkg/archive"
	"kagglefetch/pkg/config"
	errs "kagglefetch/pkg/errors"
	"kagglefetch/pkg/kaggle"
	"kagglefetch/pkg/logger"
	"kagglefetch/pkg/manifest"
	"kagglefetch/pkg/storage"
	"kagglefetch/pkg/ui"
)

// MetadataFileName is written next to a pulled notebook
const MetadataFileName = "kernel-metadata.json"

// datasetArchives matches every archive a dataset download may leave behind
const datasetArchives = "*.zip"

// Kind is the type of material a Request fetches
type Kind string

const (
	KindCompetition Kind = "competition"
	KindDataset     Kind = "dataset"
	KindNotebook    Kind = "notebook"
)

// Request is one parsed download instruction
type Request struct {
	Kind     Kind
	Ref      string
	Dest     string
	Organize bool // competitions only
}

// Fetcher orchestrates downloads and extraction for one invocation
type Fetcher struct {
	client  KaggleClient
	config  *config.Config
	logger  logger.Logger
	out     io.Writer
	results io.Writer
}

// New creates a Fetcher. Human-readable progress goes to out, and so do
// listings until SetResultWriter points them elsewhere.
func New(client KaggleClient, cfg *config.Config, log logger.Logger, out io.Writer) *Fetcher {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.GetLogger()
	}
	if out == nil {
		out = io.Discard
	}
	return &Fetcher{
		client:  client,
		config:  cfg,
		logger:  log,
		out:     out,
		results: out,
	}
}

// SetResultWriter sends listings to w. Listings are the command's result, so
// they stay visible when progress output is silenced.
func (f *Fetcher) SetResultWriter(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	f.results = w
}

// Fetch runs the operation selected by req
func (f *Fetcher) Fetch(ctx context.Context, req Request) error {
	switch req.Kind {
	case KindCompetition:
		return f.Competition(ctx, req.Ref, req.Dest, req.Organize)
	case KindDataset:
		return f.Dataset(ctx, req.Ref, req.Dest)
	case KindNotebook:
		return f.Notebook(ctx, req.Ref, req.Dest)
	default:
		return errs.New(errs.ErrorTypeConfiguration, "fetch.Fetch", fmt.Sprintf("unknown request kind %q", req.Kind))
	}
}

// Competition downloads a competition archive into dest and extracts <name>.zip
// in place. With organize set, dest becomes <competitions_directory>/<name>.
func (f *Fetcher) Competition(ctx context.Context, name, dest string, organize bool) error {
	const op = "fetch.Competition"

	name = kaggle.NormalizeCompetition(name)
	if err := checkCompetitionName(name); err != nil {
		return errs.Wrap(errs.ErrorTypeConfiguration, op, err)
	}
	if organize {
		dest = filepath.Join(f.config.Output.CompetitionsDirectory, name)
	} else if dest == "" {
		dest = f.config.Output.RawDirectory
	}

	store, err := storage.NewManager(dest)
	if err != nil {
		return errs.Wrapf(errs.ErrorTypeTransfer, op, err, "cannot prepare %s", dest)
	}

	f.printf("Downloading competition data for: %s\n", name)
	archiveName, size, err := f.client.DownloadCompetition(ctx, name, store)
	logger.LogTransfer(f.logger, string(KindCompetition), name, store.Path(archiveName), size, err)
	if err != nil {
		return errs.Wrapf(errs.ErrorTypeTransfer, op, err, "downloading competition %s", name)
	}

	if err := f.materialize(ctx, op, KindCompetition, name, store, archive.Named(name)); err != nil {
		return err
	}

	f.success("Data downloaded successfully to %s", dest)
	if organize {
		f.hint("Competition files are organized under %s", dest)
	}
	return nil
}

// Dataset downloads owner/slug and extracts every archive found in the
// destination. dest falls back to the external directory when it is empty or
// left at the raw default.
func (f *Fetcher) Dataset(ctx context.Context, ref, dest string) error {
	const op = "fetch.Dataset"

	dataset, err := kaggle.ParseDatasetRef(ref)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeConfiguration, op, err)
	}
	dest = f.resolveDest(dest, f.config.Output.ExternalDirectory)

	store, err := storage.NewManager(dest)
	if err != nil {
		return errs.Wrapf(errs.ErrorTypeTransfer, op, err, "cannot prepare %s", dest)
	}

	f.printf("Downloading dataset: %s\n", dataset)
	archiveName, size, err := f.client.DownloadDataset(ctx, dataset, store)
	logger.LogTransfer(f.logger, string(KindDataset), dataset.String(), store.Path(archiveName), size, err)
	if err != nil {
		return errs.Wrapf(errs.ErrorTypeTransfer, op, err, "downloading dataset %s", dataset)
	}

	if err := f.materialize(ctx, op, KindDataset, dataset.String(), store, archive.Glob(datasetArchives)); err != nil {
		return err
	}

	f.success("Dataset downloaded successfully to %s", dest)
	return nil
}

// Notebook pulls a notebook's source into dest as <slug><ext> together with
// its metadata. Nothing is extracted.
func (f *Fetcher) Notebook(ctx context.Context, ref, dest string) error {
	const op = "fetch.Notebook"

	kernel, err := kaggle.ParseKernelRef(ref)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeConfiguration, op, err)
	}
	dest = f.resolveDest(dest, f.config.Output.NotebooksDirectory)

	store, err := storage.NewManager(dest)
	if err != nil {
		return errs.Wrapf(errs.ErrorTypeTransfer, op, err, "cannot prepare %s", dest)
	}

	f.printf("Downloading notebook: %s\n", kernel)
	pull, err := f.client.PullKernel(ctx, kernel)
	if err != nil {
		logger.LogTransfer(f.logger, string(KindNotebook), kernel.String(), dest, 0, err)
		return errs.Wrapf(errs.ErrorTypeTransfer, op, err, "pulling notebook %s", kernel)
	}

	language := firstNonEmpty(pull.Blob.Language, pull.Metadata.Language)
	kernelType := firstNonEmpty(pull.Blob.KernelType, pull.Metadata.KernelType)
	filename := kernel.Slug + kaggle.KernelFileExtension(language, kernelType)

	size, err := store.Save(strings.NewReader(pull.Blob.Source), filename)
	logger.LogTransfer(f.logger, string(KindNotebook), kernel.String(), store.Path(filename), size, err)
	if err != nil {
		return errs.Wrapf(errs.ErrorTypeTransfer, op, err, "writing %s", filename)
	}

	metadata, err := json.MarshalIndent(pull.Metadata, "", "  ")
	if err != nil {
		return errs.Wrapf(errs.ErrorTypeTransfer, op, err, "encoding metadata for %s", kernel)
	}
	if err := store.WriteFile(MetadataFileName, metadata); err != nil {
		return errs.Wrapf(errs.ErrorTypeTransfer, op, err, "writing %s", MetadataFileName)
	}

	f.record(store.Dir(), manifest.Entry{
		Kind:    string(KindNotebook),
		Source:  kernel.String(),
		Archive: filename,
		Size:    size,
		Files:   []string{MetadataFileName, filename},
	})

	f.success("Notebook downloaded successfully to %s", dest)
	f.hint("Notebook data paths usually point at ../input/; change them to %s or %s before running",
		f.config.Output.RawDirectory, f.config.Output.ExternalDirectory)
	return nil
}

// ListCompetitions prints the first listing.competitions_limit competitions.
// Failures are returned as query errors.
func (f *Fetcher) ListCompetitions(ctx context.Context) error {
	const op = "fetch.ListCompetitions"

	competitions, err := f.client.ListCompetitions(ctx, kaggle.CompetitionListOptions{Page: 1})
	if err != nil {
		f.logger.WithError(err).Error("Failed to list competitions")
		return errs.Wrapf(errs.ErrorTypeQuery, op, err, "listing competitions")
	}

	fmt.Fprintf(f.results, "Available competitions:\n")
	for _, c := range first(competitions, f.config.Listing.CompetitionsLimit) {
		fmt.Fprintf(f.results, "- %s: %s\n", c.Ref, c.Title)
	}
	return nil
}

// ListNotebooks prints the first listing.notebooks_limit notebooks of a
// competition. A failed query is reported and logged but not returned, so the
// process still exits successfully.
func (f *Fetcher) ListNotebooks(ctx context.Context, competition string) error {
	const op = "fetch.ListNotebooks"

	competition = kaggle.NormalizeCompetition(competition)
	if competition == "" {
		return errs.New(errs.ErrorTypeConfiguration, op, "competition name is empty")
	}

	limit := f.config.Listing.NotebooksLimit
	kernels, err := f.client.ListKernels(ctx, kaggle.KernelListOptions{
		Competition: competition,
		PageSize:    limit,
	})
	if err != nil {
		qerr := errs.Wrapf(errs.ErrorTypeQuery, op, err, "listing notebooks for %s", competition)
		f.logger.WithError(qerr).WithField("competition", competition).Warn("Notebook listing failed, continuing")
		fmt.Fprintln(f.results, ui.Red(fmt.Sprintf("Error listing notebooks: %v", err)))
		return nil
	}

	fmt.Fprintf(f.results, "Notebooks for competition %s:\n", competition)
	for _, k := range first(kernels, limit) {
		fmt.Fprintf(f.results, "- %s: %s\n", k.Ref, k.Title)
	}
	return nil
}

// materialize extracts every archive the discovery strategy finds in store
func (f *Fetcher) materialize(ctx context.Context, op string, kind Kind, source string, store *storage.Manager, discovery archive.Discovery) error {
	log := f.logger.WithFields(map[string]interface{}{
		"dest":     store.Dir(),
		"strategy": discovery.String(),
	})

	if !f.config.Download.Extract {
		log.Debug("Extraction disabled, keeping archives as downloaded")
		return nil
	}

	archives, err := discovery.Find(store)
	if err != nil {
		return errs.Wrapf(errs.ErrorTypeExtraction, op, err, "cannot list archives in %s", store.Dir())
	}
	if len(archives) == 0 {
		log.Warn("No archive found to extract")
		return nil
	}

	for _, name := range archives {
		path := store.Path(name)
		result, err := archive.Extract(ctx, path, store.Dir())
		if err != nil {
			logger.LogExtraction(f.logger, name, store.Dir(), 0, err)
			return errs.Wrapf(errs.ErrorTypeExtraction, op, err, "extracting %s", name)
		}
		logger.LogExtraction(f.logger, name, store.Dir(), len(result.Files), nil)

		var size int64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
		}
		f.record(store.Dir(), manifest.Entry{
			Kind:    string(kind),
			Source:  source,
			Archive: name,
			Size:    size,
			Files:   result.Files,
		})
	}
	return nil
}

// record adds an entry to the destination manifest. Failures only warn.
func (f *Fetcher) record(dir string, entry manifest.Entry) {
	if !f.config.Output.WriteManifest {
		return
	}
	entry.ExtractedAt = time.Now()
	if err := manifest.NewManager(dir, f.logger).Record(entry); err != nil {
		f.logger.WithError(err).WithField("dir", dir).Warn("Failed to update manifest")
	}
}

// checkCompetitionName rejects names that are not a single path segment. The
// name becomes a directory under competitions_directory in organize mode.
func checkCompetitionName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("competition name is empty")
	case name == "." || strings.ContainsAny(name, `/\`) || strings.Contains(name, ".."):
		return fmt.Errorf("invalid competition name %q: must not contain path separators or \"..\"", name)
	}
	return nil
}

// resolveDest keeps an explicit destination and maps the raw default to fallback
func (f *Fetcher) resolveDest(dest, fallback string) string {
	if dest == "" || filepath.Clean(dest) == filepath.Clean(f.config.Output.RawDirectory) {
		return fallback
	}
	return dest
}

func (f *Fetcher) printf(format string, args ...interface{}) {
	fmt.Fprintf(f.out, format, args...)
}

func (f *Fetcher) success(format string, args ...interface{}) {
	fmt.Fprintln(f.out, ui.Green(fmt.Sprintf(format, args...)))
}

func (f *Fetcher) hint(format string, args ...interface{}) {
	fmt.Fprintln(f.out, ui.Dim("Hint: "+fmt.Sprintf(format, args...)))
}

func first[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
