package integrations

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupChapterDir(t *testing.T, pages ...string) string {
	t.Helper()
	seriesDir := filepath.Join(t.TempDir(), "Test Series")
	chapterDir := filepath.Join(seriesDir, "01_First")
	require.NoError(t, os.MkdirAll(chapterDir, 0o755))

	png := testPNG(t, 4, 4)
	for _, page := range pages {
		require.NoError(t, os.WriteFile(filepath.Join(chapterDir, page), png, 0o644))
	}
	return chapterDir
}

func TestCBZPackager_Package(t *testing.T) {
	chapterDir := setupChapterDir(t, "002.png", "001.png", "003.png")

	archivePath, err := NewCBZPackager().Package(context.Background(), chapterDir, "Test Series", "01_First", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(chapterDir), "01_First.cbz"), archivePath)

	r, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.File, 3)
	assert.Equal(t, "001.png", r.File[0].Name, "pages archived in sorted order")
	assert.Equal(t, "003.png", r.File[2].Name)

	_, err = os.Stat(chapterDir)
	assert.NoError(t, err, "images kept when deleteImages is false")
}

func TestCBZPackager_DeleteImages(t *testing.T) {
	chapterDir := setupChapterDir(t, "001.png")

	_, err := NewCBZPackager().Package(context.Background(), chapterDir, "S", "01_First", true)
	require.NoError(t, err)

	_, err = os.Stat(chapterDir)
	assert.True(t, os.IsNotExist(err), "images removed after successful archive")
}

func TestCBZPackager_EmptyDir(t *testing.T) {
	chapterDir := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.MkdirAll(chapterDir, 0o755))

	_, err := NewCBZPackager().Package(context.Background(), chapterDir, "S", "C", true)
	require.Error(t, err)

	var pkgErr *PackageError
	assert.ErrorAs(t, err, &pkgErr)

	_, statErr := os.Stat(chapterDir)
	assert.NoError(t, statErr, "images are never deleted on a failed package")
}

func TestCBZPackager_NoTempFileLeftBehind(t *testing.T) {
	chapterDir := setupChapterDir(t, "001.png")
	seriesDir := filepath.Dir(chapterDir)

	_, err := NewCBZPackager().Package(context.Background(), chapterDir, "S", "01_First", false)
	require.NoError(t, err)

	entries, err := os.ReadDir(seriesDir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp")
	}
}

func TestCBZPackager_WithProcessor(t *testing.T) {
	chapterDir := setupChapterDir(t, "001.png", "002.png")

	packager := NewCBZPackager().WithProcessor(NewImageProcessor(DefaultProcessorSettings()))
	archivePath, err := packager.Package(context.Background(), chapterDir, "S", "01_First", false)
	require.NoError(t, err)

	r, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.File, 2)
	assert.Equal(t, "001.jpg", r.File[0].Name, "processed pages are re-encoded as jpeg")
}

func TestCBZPackager_Cancelled(t *testing.T) {
	chapterDir := setupChapterDir(t, "001.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCBZPackager().Package(ctx, chapterDir, "S", "01_First", true)
	require.Error(t, err)

	_, statErr := os.Stat(chapterDir)
	assert.NoError(t, statErr, "cancellation must not delete images")
}
