// Package manifest records what was materialized into a destination directory.
//
// Every successful competition or dataset fetch appends an entry for each
// extracted archive to .kagglefetch-manifest.json inside the destination:
// source reference, archive name, archive size, the extracted entry names and a
// timestamp. Re-fetching the same archive replaces its entry.
//
// The manifest is informational. Nothing reads it to skip work, so deleting it
// is always safe. Files are written atomically (temporary file, fsync, rename).
package manifest
