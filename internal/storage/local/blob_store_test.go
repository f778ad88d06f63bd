// Package local_test tests the local filesystem blob store.
package local_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/site-scraper/internal/storage/local"
)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		store, err := local.New(local.Config{BaseDir: t.TempDir()})
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("CreatesMissingDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "out")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

		_, err := local.New(local.Config{BaseDir: file})
		assert.Error(t, err)
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestPutObject(t *testing.T) {
	tempDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: tempDir})
	require.NoError(t, err)

	t.Run("ScrapeResult", func(t *testing.T) {
		path := "scrapes/example.com/2024-01-02T03-04-05Z.json"
		data := `{"domain":"example.com","pages":[]}`
		uri, err := store.PutObject(context.Background(), path, "application/json", strings.NewReader(data))
		require.NoError(t, err)

		assert.Equal(t, "file://"+filepath.Join(tempDir, path), uri)

		// #nosec G304 -- test reads from the controlled temp directory.
		readData, err := os.ReadFile(filepath.Join(tempDir, path))
		require.NoError(t, err)
		assert.Equal(t, data, string(readData))
	})

	t.Run("EmptyPath", func(t *testing.T) {
		_, err := store.PutObject(context.Background(), "", "application/json", strings.NewReader("{}"))
		assert.Error(t, err)
	})

	t.Run("PathTraversal", func(t *testing.T) {
		_, err := store.PutObject(context.Background(), "../escape.json", "application/json", strings.NewReader("{}"))
		assert.Error(t, err)
	})

	t.Run("OverwriteReplacesWholeFile", func(t *testing.T) {
		path := "scrapes/example.com/same-second.json"
		_, err := store.PutObject(context.Background(), path, "application/json", strings.NewReader(`{"domain":"example.com","pages":[{"url":"a"}]}`))
		require.NoError(t, err)
		_, err = store.PutObject(context.Background(), path, "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)

		// #nosec G304 -- test reads from the controlled temp directory.
		readData, err := os.ReadFile(filepath.Join(tempDir, path))
		require.NoError(t, err)
		assert.Equal(t, `{}`, string(readData))

		entries, err := os.ReadDir(filepath.Join(tempDir, "scrapes", "example.com"))
		require.NoError(t, err)
		for _, entry := range entries {
			assert.False(t, strings.HasPrefix(entry.Name(), ".upload-"), "temp file left behind: %s", entry.Name())
		}
	})

	t.Run("FailedWriteLeavesNoFile", func(t *testing.T) {
		path := "scrapes/example.com/failed.json"
		_, err := store.PutObject(context.Background(), path, "application/json", failingReader{})
		require.Error(t, err)

		_, statErr := os.Stat(filepath.Join(tempDir, path))
		assert.True(t, os.IsNotExist(statErr))

		entries, err := os.ReadDir(filepath.Join(tempDir, "scrapes", "example.com"))
		require.NoError(t, err)
		for _, entry := range entries {
			assert.False(t, strings.HasPrefix(entry.Name(), ".upload-"), "temp file left behind: %s", entry.Name())
		}
	})
}
