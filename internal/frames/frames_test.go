package frames

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photobooth/internal/logging"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	require.NoError(t, f.Close())
}

func writeManifest(t *testing.T, dir, manifest string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, catalogFile), []byte(manifest), 0o644))
}

func testDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "frame1.png"))
	writePNG(t, filepath.Join(dir, "frame2.png"))
	writeManifest(t, dir, `frames:
  - id: "1"
    name: Classic
    file: frame1.png
  - id: "2"
    name: Party
    file: frame2.png
`)
	return dir
}

func TestLoad(t *testing.T) {
	catalog, err := Load(testDir(t))
	require.NoError(t, err)

	list := catalog.List()
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].ID)
	assert.Equal(t, "Party", list[1].Name)

	f, err := catalog.Get("2")
	require.NoError(t, err)
	overlay, err := f.Overlay()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), overlay.Bounds())

	_, err = catalog.Get("99")
	assert.ErrorIs(t, err, ErrUnknownFrame)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing manifest", func(t *testing.T) {
		_, err := Load(t.TempDir())
		assert.Error(t, err)
	})
	t.Run("missing overlay asset", func(t *testing.T) {
		dir := t.TempDir()
		writeManifest(t, dir, "frames:\n  - id: \"1\"\n    name: Classic\n    file: gone.png\n")
		_, err := Load(dir)
		assert.ErrorContains(t, err, "missing overlay asset")
	})
	t.Run("duplicate id", func(t *testing.T) {
		dir := t.TempDir()
		writePNG(t, filepath.Join(dir, "frame1.png"))
		writeManifest(t, dir, `frames:
  - id: "1"
    name: A
    file: frame1.png
  - id: "1"
    name: B
    file: frame1.png
`)
		_, err := Load(dir)
		assert.ErrorContains(t, err, "listed twice")
	})
}

func TestReload_KeepsOldSetOnError(t *testing.T) {
	dir := testDir(t)
	catalog, err := Load(dir)
	require.NoError(t, err)

	writeManifest(t, dir, "frames: [")
	assert.Error(t, catalog.Reload())
	assert.Len(t, catalog.List(), 2, "broken manifest keeps the previous catalog")
}

func TestWatcher_ReloadsOnManifestChange(t *testing.T) {
	dir := testDir(t)
	catalog, err := Load(dir)
	require.NoError(t, err)

	w, err := NewWatcher(catalog, logging.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	writeManifest(t, dir, "frames:\n  - id: \"1\"\n    name: Classic\n    file: frame1.png\n")
	assert.Eventually(t, func() bool {
		return len(catalog.List()) == 1
	}, 5*time.Second, 20*time.Millisecond, "catalog should shrink after the manifest changes")
}

func TestWatcher_StopWithoutStartReleasesWatcher(t *testing.T) {
	catalog, err := Load(testDir(t))
	require.NoError(t, err)

	w, err := NewWatcher(catalog, logging.Nop())
	require.NoError(t, err)

	w.Stop()
	_, ok := <-w.watcher.Events
	assert.False(t, ok, "underlying fsnotify watcher must be closed")
}

func TestWatcher_StopTwice(t *testing.T) {
	catalog, err := Load(testDir(t))
	require.NoError(t, err)

	w, err := NewWatcher(catalog, logging.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Start())

	w.Stop()
	w.Stop()
}
