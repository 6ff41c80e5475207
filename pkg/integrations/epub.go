package integrations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-shiori/go-epub"
)

// EPUBPackager archives a chapter directory into a single-chapter EPUB,
// one page image per section element.
type EPUBPackager struct{}

func NewEPUBPackager() *EPUBPackager {
	return &EPUBPackager{}
}

func (p *EPUBPackager) Package(ctx context.Context, chapterDir, seriesTitle, chapterTitle string, deleteImages bool) (string, error) {
	files, err := listImageFiles(chapterDir)
	if err != nil {
		return "", &PackageError{ChapterDir: chapterDir, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", &PackageError{ChapterDir: chapterDir, Err: err}
	}

	e, err := epub.NewEpub(fmt.Sprintf("%s - %s", seriesTitle, chapterTitle))
	if err != nil {
		return "", &PackageError{ChapterDir: chapterDir, Err: err}
	}
	e.SetAuthor(seriesTitle)
	e.SetLang("en")

	var html strings.Builder
	html.WriteString(fmt.Sprintf("<h1>%s</h1>\n", chapterTitle))
	for i, file := range files {
		internalPath, err := e.AddImage(file, "")
		if err != nil {
			return "", &PackageError{ChapterDir: chapterDir, Err: fmt.Errorf("add image %s: %w", filepath.Base(file), err)}
		}
		html.WriteString(fmt.Sprintf(
			`<div class="page"><img src="%s" alt="Page %d" style="width:100%%;height:auto;"/></div>%s`,
			internalPath, i+1, "\n",
		))
	}

	if _, err := e.AddSection(html.String(), chapterTitle, "", ""); err != nil {
		return "", &PackageError{ChapterDir: chapterDir, Err: err}
	}

	archivePath := filepath.Join(filepath.Dir(chapterDir), chapterTitle+".epub")
	if err := e.Write(archivePath); err != nil {
		return "", &PackageError{ChapterDir: chapterDir, Err: err}
	}

	if deleteImages {
		if err := os.RemoveAll(chapterDir); err != nil {
			return archivePath, &PackageError{ChapterDir: chapterDir, Err: fmt.Errorf("remove images: %w", err)}
		}
	}

	return archivePath, nil
}
