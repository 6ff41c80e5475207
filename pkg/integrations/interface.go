package integrations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Packager turns a directory of downloaded page images into a single archive
// file. Implementations delete the source images only after the archive has
// been written successfully, and only when deleteImages is set.
type Packager interface {
	Package(ctx context.Context, chapterDir, seriesTitle, chapterTitle string, deleteImages bool) (string, error)
}

// PackageError marks a failed archive attempt. Packaging is best-effort:
// the worker logs these and moves on.
type PackageError struct {
	ChapterDir string
	Err        error
}

func (e *PackageError) Error() string {
	return fmt.Sprintf("package %s: %v", e.ChapterDir, e.Err)
}

func (e *PackageError) Unwrap() error { return e.Err }

// isImageFile checks if a file has an image extension
func isImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".jpg" || ext == ".jpeg" || ext == ".png" || ext == ".gif" || ext == ".webp"
}

// listImageFiles returns the image files in dir sorted by name, which is
// page order given zero-padded page file names.
func listImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && isImageFile(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no images found in %s", dir)
	}

	sort.Strings(files)
	return files, nil
}
