package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PratikshaDPai/bato-downloader/pkg/sources"
	"github.com/PratikshaDPai/bato-downloader/pkg/utils"
)

// DownloadError marks a single failed chapter download. Chapter failures are
// recorded in the failure ledger and retried at the end of the batch.
type DownloadError struct {
	ChapterURL string
	Err        error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download chapter %s: %v", e.ChapterURL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Downloader fetches a chapter's page images with a bounded worker pool.
// A chapter succeeds or fails as a whole: any page error fails the chapter.
type Downloader struct {
	source      sources.Source
	client      *http.Client
	outputDir   string
	concurrency int
	rateLimiter *time.Ticker
	logger      *slog.Logger
}

// NewDownloader creates a Downloader writing under outputDir with the given
// per-chapter image concurrency.
func NewDownloader(source sources.Source, outputDir string, concurrency int, logger *slog.Logger) *Downloader {
	if concurrency <= 0 {
		concurrency = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		source:      source,
		client:      http.DefaultClient,
		outputDir:   outputDir,
		concurrency: concurrency,
		rateLimiter: time.NewTicker(100 * time.Millisecond),
		logger:      logger,
	}
}

// Close stops the rate limiter ticker.
func (d *Downloader) Close() {
	d.rateLimiter.Stop()
}

// ChapterDir computes the on-disk directory for a chapter. The directory
// tree is partitioned by series and chapter name, so concurrent workers
// never write the same path.
func (d *Downloader) ChapterDir(seriesTitle, chapterTitle string) string {
	return filepath.Join(d.outputDir, utils.Sanitize(seriesTitle), utils.Sanitize(chapterTitle))
}

// DownloadChapter fetches every page image of one chapter into its chapter
// directory and returns that directory. Pages download in parallel, bounded
// by the configured concurrency. An in-flight page request always runs to
// completion; cancellation is only observed between pages.
func (d *Downloader) DownloadChapter(ctx context.Context, chapterURL, seriesTitle, chapterTitle string) (string, error) {
	pages, err := d.source.GetPages(ctx, chapterURL)
	if err != nil {
		return "", &DownloadError{ChapterURL: chapterURL, Err: err}
	}
	if len(pages) == 0 {
		return "", &DownloadError{ChapterURL: chapterURL, Err: fmt.Errorf("no pages found")}
	}

	chapterDir := d.ChapterDir(seriesTitle, chapterTitle)
	if err := os.MkdirAll(chapterDir, 0o755); err != nil {
		return "", &DownloadError{ChapterURL: chapterURL, Err: err}
	}

	width := len(strconv.Itoa(len(pages)))

	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)
	for i, pageURL := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			<-d.rateLimiter.C
			path := filepath.Join(chapterDir, pageFileName(i, width, pageURL))
			if err := d.fetchPage(pageURL, path); err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", &DownloadError{ChapterURL: chapterURL, Err: err}
	}

	d.logger.Debug("chapter downloaded",
		"chapter", chapterTitle, "series", seriesTitle, "pages", len(pages))
	return chapterDir, nil
}

// fetchPage downloads one image to path. The request deliberately carries no
// cancellation: a page in flight runs to completion or natural failure.
func (d *Downloader) fetchPage(pageURL, path string) error {
	resp, err := d.client.Get(pageURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}
	return out.Sync()
}

// pageFileName gives zero-padded file names so lexical order is page order.
func pageFileName(index, width int, pageURL string) string {
	ext := filepath.Ext(pageURL)
	if idx := len(ext); idx > 5 || idx == 0 {
		ext = ".jpg"
	}
	return fmt.Sprintf("%0*d%s", width, index+1, ext)
}
