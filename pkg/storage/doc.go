// Package storage manages destination directories for downloaded material.
//
// A Manager owns one directory. It creates the directory on demand (calling
// NewManager on an existing directory is a no-op), writes files atomically
// through a temporary file and rename so an interrupted download never leaves
// a truncated archive under its final name, and lists archives for discovery.
//
// Usage:
//
//	manager, err := storage.NewManager("data/raw")
//	if err != nil {
//	    return err
//	}
//
//	n, err := manager.Save(body, "titanic.zip")
//	zips, err := manager.Glob("*.zip")
package storage
