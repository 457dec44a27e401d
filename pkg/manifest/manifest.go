package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"kagglefetch/pkg/logger"
)

// FileName is the manifest file written into each destination directory
const FileName = ".kagglefetch-manifest.json"

const currentVersion = 1

// Entry describes one extracted archive
type Entry struct {
	Kind        string    `json:"kind"`
	Source      string    `json:"source"`
	Archive     string    `json:"archive"`
	Size        int64     `json:"size"`
	Files       []string  `json:"files"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Manifest is the on-disk ledger of a destination directory
type Manifest struct {
	Version   int              `json:"version"`
	Entries   map[string]Entry `json:"entries"` // archive name -> entry
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Has reports whether an archive has been recorded
func (mf *Manifest) Has(archive string) bool {
	_, ok := mf.Entries[archive]
	return ok
}

// Archives returns the recorded archive names in sorted order
func (mf *Manifest) Archives() []string {
	names := make([]string, 0, len(mf.Entries))
	for name := range mf.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Manager reads and writes the manifest of one directory
type Manager struct {
	path   string
	logger logger.Logger
}

// NewManager returns a manager for the manifest inside dir
func NewManager(dir string, log logger.Logger) *Manager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{
		path:   filepath.Join(dir, FileName),
		logger: log,
	}
}

// Path returns the manifest file path
func (m *Manager) Path() string {
	return m.path
}

// Load reads the manifest. It returns nil, nil when none exists yet.
func (m *Manager) Load() (*Manifest, error) {
	file, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var mf Manifest
	if err := json.NewDecoder(file).Decode(&mf); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if mf.Entries == nil {
		mf.Entries = make(map[string]Entry)
	}

	return &mf, nil
}

// LoadOrCreate returns the existing manifest or a fresh, unsaved one.
// A corrupt manifest is replaced rather than failing the fetch.
func (m *Manager) LoadOrCreate() *Manifest {
	mf, err := m.Load()
	if err != nil {
		m.logger.WarnWithFields("Discarding unreadable manifest", map[string]interface{}{
			"path":  m.path,
			"error": err.Error(),
		})
	}
	if mf != nil {
		return mf
	}

	now := time.Now()
	return &Manifest{
		Version:   currentVersion,
		Entries:   make(map[string]Entry),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Save writes the manifest atomically
func (m *Manager) Save(mf *Manifest) error {
	mf.UpdatedAt = time.Now()

	tempPath := m.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(mf); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync manifest file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close manifest file: %w", err)
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace manifest file: %w", err)
	}

	m.logger.DebugWithFields("Manifest saved", map[string]interface{}{
		"path":     m.path,
		"archives": len(mf.Entries),
	})

	return nil
}

// Record adds or replaces the entry for an archive and saves the manifest
func (m *Manager) Record(entry Entry) error {
	mf := m.LoadOrCreate()
	if entry.ExtractedAt.IsZero() {
		entry.ExtractedAt = time.Now()
	}
	mf.Entries[entry.Archive] = entry
	return m.Save(mf)
}

// Delete removes the manifest file
func (m *Manager) Delete() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete manifest: %w", err)
	}
	return nil
}

// Exists checks if a manifest file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}
