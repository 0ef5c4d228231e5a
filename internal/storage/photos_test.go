package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoStoreSave(t *testing.T) {
	store := NewPhotoStore(t.TempDir(), "http://localhost:8080")

	name, err := store.Save("user-1", strings.NewReader("fake png bytes"), "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"), "expected .png suffix, got %s", name)

	data, err := os.ReadFile(filepath.Join(store.Root(), "user-1", name))
	require.NoError(t, err)
	assert.Equal(t, "fake png bytes", string(data))
}

func TestPhotoStoreSaveGeneratesDistinctNames(t *testing.T) {
	store := NewPhotoStore(t.TempDir(), "http://localhost:8080")

	first, err := store.Save("user-1", strings.NewReader("a"), "image/jpeg")
	require.NoError(t, err)
	second, err := store.Save("user-1", strings.NewReader("b"), "image/jpeg")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPhotoStoreSaveRejectsUnknownType(t *testing.T) {
	store := NewPhotoStore(t.TempDir(), "http://localhost:8080")

	_, err := store.Save("user-1", strings.NewReader("data"), "application/x-nonsense")
	assert.Error(t, err)
}

func TestPhotoStoreDelete(t *testing.T) {
	store := NewPhotoStore(t.TempDir(), "http://localhost:8080")

	name, err := store.Save("user-1", strings.NewReader("bytes"), "image/jpeg")
	require.NoError(t, err)

	require.NoError(t, store.Delete("user-1", name))
	_, err = os.Stat(filepath.Join(store.Root(), "user-1", name))
	assert.True(t, os.IsNotExist(err), "file should be gone")

	// Deleting again is not an error
	assert.NoError(t, store.Delete("user-1", name))
}

func TestPhotoStoreDeleteRejectsPathTraversal(t *testing.T) {
	store := NewPhotoStore(t.TempDir(), "http://localhost:8080")

	assert.Error(t, store.Delete("user-1", "../../etc/passwd"))
}

func TestPhotoStoreURL(t *testing.T) {
	store := NewPhotoStore(t.TempDir(), "http://localhost:8080/")

	url := store.URL("user-1", "photo one.jpg")
	assert.Equal(t, "http://localhost:8080/content/photos/user-1/photo%20one.jpg", url)
}
