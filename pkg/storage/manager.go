package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// tempSuffix marks in-flight writes; such files are ignored by Glob
const tempSuffix = ".tmp"

// Manager handles file storage operations inside a single destination directory
type Manager struct {
	dir   string
	known map[string]int64
	mu    sync.RWMutex
}

// NewManager creates the directory if needed and returns a manager for it
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		return nil, fmt.Errorf("destination directory must not be empty")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	return &Manager{
		dir:   dir,
		known: make(map[string]int64),
	}, nil
}

// Dir returns the destination directory path
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns the absolute-or-relative path of name inside the directory
func (m *Manager) Path(name string) string {
	return filepath.Join(m.dir, name)
}

// Exists reports whether name is present in the directory
func (m *Manager) Exists(name string) bool {
	m.mu.RLock()
	_, ok := m.known[name]
	m.mu.RUnlock()
	if ok {
		return true
	}

	info, err := os.Stat(m.Path(name))
	if err != nil || info.IsDir() {
		return false
	}

	m.mu.Lock()
	m.known[name] = info.Size()
	m.mu.Unlock()
	return true
}

// Save streams r into name, replacing any previous file atomically.
// It returns the number of bytes written.
func (m *Manager) Save(r io.Reader, name string) (int64, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}

	filename := m.Path(name)
	tempFile := filename + tempSuffix

	out, err := os.Create(tempFile)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	written, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to write %s: %w", name, err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.known[name] = written
	m.mu.Unlock()

	return written, nil
}

// WriteFile atomically writes data to name
func (m *Manager) WriteFile(name string, data []byte) error {
	_, err := m.Save(bytes.NewReader(data), name)
	return err
}

// Glob returns the names of regular files matching pattern, sorted by name
func (m *Manager) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(m.dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	names := make([]string, 0, len(matches))
	for _, match := range matches {
		if strings.HasSuffix(match, tempSuffix) {
			continue
		}
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		names = append(names, filepath.Base(match))
	}

	sort.Strings(names)
	return names, nil
}

// SavedCount returns the number of files written or observed through this manager
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.known)
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("invalid file name %q", name)
	}
	return nil
}
