package sources

import (
	"context"
	"fmt"

	"github.com/PratikshaDPai/bato-downloader/pkg/data"
)

// Source resolves remote series metadata and chapter page images. A series
// identifier is an opaque URL or ID understood by the concrete source.
type Source interface {
	// FetchMetadata returns the series title and its chapters in published
	// order, oldest first.
	FetchMetadata(ctx context.Context, seriesURL string) (string, []data.Chapter, error)

	// GetPages returns the image URLs for one chapter, in page order.
	GetPages(ctx context.Context, chapterURL string) ([]string, error)
}

// FetchError marks a series-level metadata failure. Fetch failures skip the
// series for this run; they are never recorded as chapter failures.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch metadata for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
