package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	errs "kagglefetch/pkg/errors"
)

const stagingPattern = ".kagglefetch-extract-*"

// Result describes a completed extraction
type Result struct {
	Archive string
	Dest    string
	Files   []string // slash-separated, sorted
	Bytes   int64
}

// Extract unpacks archivePath into dest. Entries are staged first and checked
// against dest for file/directory conflicts, so a bad archive or a conflicting
// entry leaves dest as it was.
func Extract(ctx context.Context, archivePath, dest string) (*Result, error) {
	const op = "archive.Extract"

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrorTypeExtraction, op, err, "cannot open %s", filepath.Base(archivePath))
	}
	defer reader.Close()

	staging, err := os.MkdirTemp(dest, stagingPattern)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrorTypeExtraction, op, err, "cannot create staging directory in %s", dest)
	}
	defer os.RemoveAll(staging)

	result := &Result{Archive: archivePath, Dest: dest}

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rel, err := entryPath(file.Name)
		if err != nil {
			return nil, errs.Wrapf(errs.ErrorTypeExtraction, op, err, "%s", filepath.Base(archivePath))
		}
		if rel == "" {
			continue
		}

		n, err := extractFile(file, filepath.Join(staging, rel))
		if err != nil {
			return nil, errs.Wrapf(errs.ErrorTypeExtraction, op, err, "%s: entry %s", filepath.Base(archivePath), file.Name)
		}
		if !file.FileInfo().IsDir() {
			result.Files = append(result.Files, filepath.ToSlash(rel))
			result.Bytes += n
		}
	}

	if err := checkConflicts(staging, dest); err != nil {
		return nil, errs.Wrapf(errs.ErrorTypeExtraction, op, err, "%s", filepath.Base(archivePath))
	}
	if err := promote(staging, dest); err != nil {
		return nil, errs.Wrapf(errs.ErrorTypeExtraction, op, err, "%s: cannot move entries into %s", filepath.Base(archivePath), dest)
	}

	sort.Strings(result.Files)
	return result, nil
}

// entryPath validates a zip entry name and returns it as a relative OS path.
// An empty result means the entry is the archive root and can be skipped.
func entryPath(name string) (string, error) {
	slashed := strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", fmt.Errorf("invalid file path detected: %s", name)
	}

	cleaned := filepath.Clean(filepath.FromSlash(slashed))
	if cleaned == "." {
		return "", nil
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid file path detected: %s", name)
	}
	return cleaned, nil
}

func extractFile(file *zip.File, target string) (int64, error) {
	if file.FileInfo().IsDir() {
		return 0, os.MkdirAll(target, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return 0, fmt.Errorf("failed to create parent directories: %w", err)
	}

	rc, err := file.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open entry: %w", err)
	}
	defer rc.Close()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	// zip verifies the CRC32 when the entry reader reaches EOF
	n, err := io.Copy(out, rc)
	closeErr := out.Close()
	if err != nil {
		return n, fmt.Errorf("failed to decompress: %w", err)
	}
	return n, closeErr
}

// checkConflicts fails if a staged directory would land on an existing
// non-directory in dest, or a staged file on an existing directory
func checkConflicts(staging, dest string) error {
	return filepath.WalkDir(staging, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == staging {
			return nil
		}

		rel, err := filepath.Rel(staging, path)
		if err != nil {
			return err
		}
		info, err := os.Stat(filepath.Join(dest, rel))
		if os.IsNotExist(err) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err != nil {
			return err
		}

		switch {
		case d.IsDir() && !info.IsDir():
			return fmt.Errorf("entry %s is a directory but %s exists as a file", filepath.ToSlash(rel), filepath.Join(dest, rel))
		case !d.IsDir() && info.IsDir():
			return fmt.Errorf("entry %s is a file but %s exists as a directory", filepath.ToSlash(rel), filepath.Join(dest, rel))
		}
		return nil
	})
}

// promote moves every staged file to the same relative path under dest,
// replacing existing files and merging directories.
func promote(staging, dest string) error {
	return filepath.WalkDir(staging, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == staging {
			return nil
		}

		rel, err := filepath.Rel(staging, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return os.Rename(path, target)
	})
}
