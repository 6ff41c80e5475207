package integrations

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEPUBPackager_Package(t *testing.T) {
	chapterDir := setupChapterDir(t, "001.png", "002.png")

	archivePath, err := NewEPUBPackager().Package(context.Background(), chapterDir, "Test Series", "01_First", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(chapterDir), "01_First.epub"), archivePath)

	info, err := os.Stat(archivePath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	_, err = os.Stat(chapterDir)
	assert.NoError(t, err, "images kept when deleteImages is false")
}

func TestEPUBPackager_DeleteImages(t *testing.T) {
	chapterDir := setupChapterDir(t, "001.png")

	_, err := NewEPUBPackager().Package(context.Background(), chapterDir, "S", "01_First", true)
	require.NoError(t, err)

	_, err = os.Stat(chapterDir)
	assert.True(t, os.IsNotExist(err))
}

func TestEPUBPackager_EmptyDir(t *testing.T) {
	chapterDir := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.MkdirAll(chapterDir, 0o755))

	_, err := NewEPUBPackager().Package(context.Background(), chapterDir, "S", "C", false)
	var pkgErr *PackageError
	assert.ErrorAs(t, err, &pkgErr)
}
