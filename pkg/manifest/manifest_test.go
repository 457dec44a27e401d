package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kagglefetch/pkg/logger"
)

func TestManifestManager(t *testing.T) {
	dir := t.TempDir()
	mgr := NewManager(dir, logger.NewNopLogger())

	t.Run("LoadMissing", func(t *testing.T) {
		mf, err := mgr.Load()
		require.NoError(t, err)
		assert.Nil(t, mf)
		assert.False(t, mgr.Exists())
	})

	t.Run("RecordAndLoad", func(t *testing.T) {
		err := mgr.Record(Entry{
			Kind:    "competition",
			Source:  "titanic",
			Archive: "titanic.zip",
			Size:    34877,
			Files:   []string{"gender_submission.csv", "test.csv", "train.csv"},
		})
		require.NoError(t, err)
		assert.True(t, mgr.Exists())
		assert.Equal(t, filepath.Join(dir, FileName), mgr.Path())

		mf, err := mgr.Load()
		require.NoError(t, err)
		require.NotNil(t, mf)
		assert.Equal(t, currentVersion, mf.Version)
		assert.True(t, mf.Has("titanic.zip"))
		assert.False(t, mf.Entries["titanic.zip"].ExtractedAt.IsZero())
		assert.Equal(t, []string{"gender_submission.csv", "test.csv", "train.csv"}, mf.Entries["titanic.zip"].Files)
	})

	t.Run("RecordReplacesEntry", func(t *testing.T) {
		require.NoError(t, mgr.Record(Entry{Kind: "competition", Source: "titanic", Archive: "titanic.zip", Size: 1}))
		require.NoError(t, mgr.Record(Entry{Kind: "dataset", Source: "owner/extra", Archive: "extra.zip", Size: 2}))

		mf, err := mgr.Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"extra.zip", "titanic.zip"}, mf.Archives())
		assert.Equal(t, int64(1), mf.Entries["titanic.zip"].Size)
	})

	t.Run("NoTempFileLeft", func(t *testing.T) {
		_, err := os.Stat(mgr.Path() + ".tmp")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, mgr.Delete())
		assert.False(t, mgr.Exists())
		assert.NoError(t, mgr.Delete())
	})
}

func TestCorruptManifestIsReplaced(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0644))

	log := logger.NewTestLogger()
	mgr := NewManager(dir, log)

	_, err := mgr.Load()
	assert.Error(t, err)

	require.NoError(t, mgr.Record(Entry{Kind: "dataset", Source: "a/b", Archive: "b.zip"}))
	assert.True(t, log.HasMessage("Discarding unreadable manifest"))

	mf, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"b.zip"}, mf.Archives())
}
