package assets

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, s Store, name, body string) {
	t.Helper()
	w, err := s.Create(name)
	require.NoError(t, err)
	_, err = io.WriteString(w, body)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestFSPrepareCreatesBundleAndTextures(t *testing.T) {
	store, err := NewFS(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, Prepare(store, "p1"))
	require.NoError(t, Prepare(store, "p1"), "existing directories are not an error")

	info, err := os.Stat(filepath.Join(store.Root, "p1", TexturesDir))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPrepareNestedBundle(t *testing.T) {
	store, err := NewFS(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, Prepare(store, BundleDir("p1", "bundle")))

	for _, dir := range []string{"p1/bundle", "p1/textures"} {
		info, err := os.Stat(filepath.Join(store.Root, filepath.FromSlash(dir)))
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}
	_, err = os.Stat(filepath.Join(store.Root, "p1", "bundle", TexturesDir))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, Prepare(store, BundleDir("p1", "..")), ErrInvalidName)
	assert.ErrorIs(t, Prepare(store, "../p1"), ErrInvalidName)
}

func TestBundleDir(t *testing.T) {
	assert.Equal(t, "p1", BundleDir("p1", ""))
	assert.Equal(t, "p1/bundle", BundleDir("p1", "bundle"))
	assert.Equal(t, ".", BundleDir("p1", ".."))
}

func TestFSRoundTripAndListing(t *testing.T) {
	store, err := NewFS(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, Prepare(store, "p1"))

	writeFile(t, store, "p1/scene.gltf", `{"asset":{}}`)
	writeFile(t, store, "p1/textures/b.png", "b")
	writeFile(t, store, "p1/textures/a.png", "a")
	writeFile(t, store, "p1/textures/a.png", "a2")

	rc, err := store.Open("p1/textures/a.png")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "a2", string(body), "last write wins")

	names, err := store.ReadDir(TextureDir("p1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, names)
}

func TestFSRemoveAll(t *testing.T) {
	store, err := NewFS(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, Prepare(store, "p1"))
	writeFile(t, store, "p1/textures/a.png", "a")

	require.NoError(t, store.RemoveAll("p1"))
	require.NoError(t, store.RemoveAll("p1"), "missing directory is not an error")

	_, err = store.Open("p1/textures/a.png")
	assert.True(t, errors.Is(err, ErrNotExist))
	_, err = store.ReadDir(TextureDir("p1"))
	assert.True(t, errors.Is(err, ErrNotExist))
}

func TestFSRejectsEscapingNames(t *testing.T) {
	store, err := NewFS(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../x", "/etc/passwd", "p1/../../x", `p1\..\x`, ""} {
		_, err := store.Create(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
		_, err = store.Open(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
	assert.ErrorIs(t, store.RemoveAll(".."), ErrInvalidName)
}

func TestOpenDirectoryIsNotExist(t *testing.T) {
	store, err := NewFS(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, Prepare(store, "p1"))

	_, err = store.Open("p1")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestURLPath(t *testing.T) {
	assert.Equal(t, "/uploads/p1/scene.gltf", URLPath("/uploads", "p1", EntryPoint))
	assert.Equal(t, "/uploads/p1/textures/a.png", URLPath("uploads/", "p1", TexturesDir, "a.png"))
}
