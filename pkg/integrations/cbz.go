package integrations

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CBZPackager archives a chapter directory into a comic book zip next to it.
// An optional ImageProcessor rewrites each page on the way into the archive.
type CBZPackager struct {
	processor *ImageProcessor
}

func NewCBZPackager() *CBZPackager {
	return &CBZPackager{}
}

// WithProcessor enables per-page image optimization before archiving.
func (p *CBZPackager) WithProcessor(processor *ImageProcessor) *CBZPackager {
	p.processor = processor
	return p
}

// Package writes <series dir>/<chapterTitle>.cbz from the images in
// chapterDir. The archive is written to a temp path and renamed so a failed
// run never leaves a half-written .cbz behind. Source images are removed
// only after the rename succeeds.
func (p *CBZPackager) Package(ctx context.Context, chapterDir, seriesTitle, chapterTitle string, deleteImages bool) (string, error) {
	files, err := listImageFiles(chapterDir)
	if err != nil {
		return "", &PackageError{ChapterDir: chapterDir, Err: err}
	}

	archivePath := filepath.Join(filepath.Dir(chapterDir), chapterTitle+".cbz")
	tmpPath := archivePath + ".tmp"

	if err := p.writeArchive(ctx, tmpPath, files); err != nil {
		os.Remove(tmpPath)
		return "", &PackageError{ChapterDir: chapterDir, Err: err}
	}
	if err := os.Rename(tmpPath, archivePath); err != nil {
		os.Remove(tmpPath)
		return "", &PackageError{ChapterDir: chapterDir, Err: err}
	}

	if deleteImages {
		if err := os.RemoveAll(chapterDir); err != nil {
			return archivePath, &PackageError{ChapterDir: chapterDir, Err: fmt.Errorf("remove images: %w", err)}
		}
	}

	return archivePath, nil
}

func (p *CBZPackager) writeArchive(ctx context.Context, path string, files []string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return err
		}
		if err := p.addFile(zw, file); err != nil {
			zw.Close()
			return fmt.Errorf("add %s: %w", filepath.Base(file), err)
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return out.Sync()
}

func (p *CBZPackager) addFile(zw *zip.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	name := filepath.Base(path)

	if p.processor != nil {
		data, outName, err := p.processor.Process(in, name)
		if err == nil {
			w, err := zw.Create(outName)
			if err != nil {
				return err
			}
			_, err = w.Write(data)
			return err
		}
		// fall back to the raw bytes on a processing failure
		if _, err := in.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}

	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
