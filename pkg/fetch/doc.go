// Package fetch materializes Kaggle competitions, datasets and notebooks on
// the local filesystem.
//
// A Fetcher runs exactly one operation per invocation: it creates the
// destination directory, asks the Kaggle client to stream the archive into it,
// then discovers and extracts the archives found there. Extraction of each
// archive is all-or-nothing; a corrupt archive leaves the destination and the
// downloaded file untouched so the data does not have to be fetched again.
//
// Usage:
//
//	f := fetch.New(client, cfg, logger.GetLogger(), os.Stdout)
//	err := f.Competition(ctx, "titanic", "data/raw", false)
//
// Layout:
//
//	data/raw/                   default flat download
//	data/external/              datasets when --output is left at its default
//	data/competitions/<name>/   competitions in organize mode
//	notebooks/reference/        notebooks when --output is left at its default
//
// With output.write_manifest enabled (--manifest), each destination also
// receives a .kagglefetch-manifest.json describing the archives extracted into it.
package fetch
