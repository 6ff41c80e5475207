package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/PratikshaDPai/bato-downloader/pkg/data"
	"github.com/PratikshaDPai/bato-downloader/pkg/ledger"
	"github.com/PratikshaDPai/bato-downloader/pkg/sources"
	"github.com/PratikshaDPai/bato-downloader/pkg/utils"
)

// SeriesOrchestrator drives one series through the pipeline: metadata fetch,
// deterministic chapter numbering, sequential chapter downloads, then
// routing of each outcome to the packaging queue or the failure ledger.
//
// Errors never propagate out: a metadata failure skips the series, a chapter
// failure is converted to a FailureRecord and the next chapter proceeds.
type SeriesOrchestrator struct {
	source     sources.Source
	downloader *Downloader
	queue      *PackagingQueue
	ledger     *ledger.Ledger
	repo       *data.Repository
	outputDir  string
	logger     *slog.Logger
}

func NewSeriesOrchestrator(
	source sources.Source,
	downloader *Downloader,
	queue *PackagingQueue,
	failures *ledger.Ledger,
	outputDir string,
	logger *slog.Logger,
) *SeriesOrchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SeriesOrchestrator{
		source:     source,
		downloader: downloader,
		queue:      queue,
		ledger:     failures,
		outputDir:  outputDir,
		logger:     logger,
	}
}

// WithRepository enables best-effort library bookkeeping in DuckDB.
func (o *SeriesOrchestrator) WithRepository(repo *data.Repository) *SeriesOrchestrator {
	o.repo = repo
	return o
}

// DownloadSeries processes one series identifier and returns the failure
// records for chapters that could not be downloaded this pass.
func (o *SeriesOrchestrator) DownloadSeries(ctx context.Context, seriesURL string) []data.FailureRecord {
	o.logger.Info("fetching series metadata", "series", seriesURL)

	title, chapters, err := o.source.FetchMetadata(ctx, seriesURL)
	if err != nil {
		// Metadata failures skip the series; they are not chapter failures
		// and are never recorded for retry.
		o.logger.Error("series metadata fetch failed", "series", seriesURL, "error", err)
		return nil
	}
	if len(chapters) == 0 {
		o.logger.Info("no chapters found", "series", seriesURL)
		return nil
	}

	seriesDir := filepath.Join(o.outputDir, utils.Sanitize(title))
	if err := os.MkdirAll(seriesDir, 0o755); err != nil {
		o.logger.Error("create series directory failed", "series", title, "error", err)
		return nil
	}

	series := o.registerSeries(title, seriesURL)
	numbered := data.NumberChapters(chapters, utils.Sanitize)

	var failed []data.FailureRecord
	for i, chapter := range numbered {
		o.logger.Info("downloading chapter",
			"series", title, "chapter", chapter.DisplayTitle, "position", i+1, "total", len(numbered))
		o.registerChapter(series, chapter)

		chapterDir, err := o.downloader.DownloadChapter(ctx, chapter.URL, title, chapter.DisplayTitle)
		if err != nil {
			o.logger.Error("chapter download failed",
				"series", title, "chapter", chapter.DisplayTitle, "error", err)

			record := data.FailureRecord{
				SeriesTitle:  title,
				ChapterTitle: chapter.DisplayTitle,
				ChapterURL:   chapter.URL,
			}
			failed = append(failed, record)
			// Checkpoint immediately so a crash mid-batch loses nothing.
			if err := o.ledger.Append(record); err != nil {
				o.logger.Error("ledger checkpoint failed", "error", err)
			}
			continue
		}

		o.markDownloaded(series, chapter)
		o.queue.Enqueue(data.PackagingTask{
			ChapterDir:   chapterDir,
			SeriesTitle:  title,
			ChapterTitle: chapter.DisplayTitle,
		})
	}

	o.finishSeries(series, len(failed))
	return failed
}

func (o *SeriesOrchestrator) registerSeries(title, seriesURL string) *data.Series {
	series := &data.Series{Title: title, SourceURL: seriesURL, Status: "downloading"}
	if o.repo == nil {
		return series
	}
	if err := o.repo.SaveSeries(series); err != nil {
		o.logger.Warn("library save failed", "series", title, "error", err)
	}
	return series
}

func (o *SeriesOrchestrator) registerChapter(series *data.Series, chapter data.NumberedChapter) {
	if o.repo == nil || series.ID == "" {
		return
	}
	err := o.repo.SaveChapter(&data.ChapterStatus{
		SeriesID: series.ID,
		Title:    chapter.DisplayTitle,
		URL:      chapter.URL,
	})
	if err != nil {
		o.logger.Warn("library save failed", "chapter", chapter.DisplayTitle, "error", err)
	}
}

func (o *SeriesOrchestrator) markDownloaded(series *data.Series, chapter data.NumberedChapter) {
	if o.repo == nil || series.ID == "" {
		return
	}
	if err := o.repo.MarkDownloaded(series.ID, chapter.DisplayTitle); err != nil {
		o.logger.Warn("library update failed", "chapter", chapter.DisplayTitle, "error", err)
	}
}

func (o *SeriesOrchestrator) finishSeries(series *data.Series, failedCount int) {
	if o.repo == nil || series.ID == "" {
		return
	}
	if failedCount > 0 {
		series.Status = "partial"
	} else {
		series.Status = "completed"
	}
	if err := o.repo.SaveSeries(series); err != nil {
		o.logger.Warn("library update failed", "series", series.Title, "error", err)
	}
}
