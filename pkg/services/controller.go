package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/PratikshaDPai/bato-downloader/pkg/data"
	"github.com/PratikshaDPai/bato-downloader/pkg/integrations"
	"github.com/PratikshaDPai/bato-downloader/pkg/ledger"
	"github.com/PratikshaDPai/bato-downloader/pkg/sources"
)

// ErrChaptersRemaining reports that chapters are still failed after the
// retry pass. It is the only error condition surfaced as a non-zero exit.
var ErrChaptersRemaining = errors.New("chapters remain failed after retry")

// BackoffPolicy is the cooldown applied to a series slot after that series
// produced failures, to back off a throttling upstream. Exponent 1 is a
// fixed delay.
type BackoffPolicy struct {
	Delay    time.Duration
	Exponent float64
}

// Wait sleeps for the attempt's cooldown or until ctx is cancelled.
func (b BackoffPolicy) Wait(ctx context.Context, attempt int) {
	delay := b.Delay
	for i := 0; i < attempt && b.Exponent > 1; i++ {
		delay = time.Duration(float64(delay) * b.Exponent)
	}
	if delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

// ControllerConfig is the control surface for one batch run.
type ControllerConfig struct {
	OutputDir          string
	SeriesConcurrency  int           // bounded series pool, default 2
	ChapterConcurrency int           // image pool inside each chapter, default 10
	RetryCooldown      time.Duration // slot cooldown after a failing series
	PollInterval       time.Duration // packaging worker idle poll
}

func (c *ControllerConfig) applyDefaults() {
	if c.SeriesConcurrency <= 0 {
		c.SeriesConcurrency = 2
	}
	if c.ChapterConcurrency <= 0 {
		c.ChapterConcurrency = 10
	}
	if c.RetryCooldown <= 0 {
		c.RetryCooldown = 10 * time.Second
	}
}

// RunReport summarizes one batch run.
type RunReport struct {
	RunID       string
	Series      int
	Downloaded  int64
	Packaged    int64
	StillFailed int
	LedgerPath  string
}

// BatchController runs N series concurrently through the orchestrator,
// aggregates failures, runs the retry pass, then drains the packaging queue
// and shuts it down.
//
// All mutable pipeline state (queue, stop signal, ledger handle) is
// constructed per run; nothing lives at package scope.
type BatchController struct {
	source   sources.Source
	packager integrations.Packager
	repo     *data.Repository
	config   ControllerConfig
	backoff  BackoffPolicy
	logger   *slog.Logger
}

func NewBatchController(source sources.Source, packager integrations.Packager, config ControllerConfig, logger *slog.Logger) *BatchController {
	config.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchController{
		source:   source,
		packager: packager,
		config:   config,
		backoff:  BackoffPolicy{Delay: config.RetryCooldown, Exponent: 1},
		logger:   logger,
	}
}

// WithRepository enables best-effort library bookkeeping in DuckDB.
func (c *BatchController) WithRepository(repo *data.Repository) *BatchController {
	c.repo = repo
	return c
}

// Run executes the full batch: download all series, retry recorded
// failures, drain packaging, and report. The returned error is
// ErrChaptersRemaining when the ledger is non-empty at the end.
func (c *BatchController) Run(ctx context.Context, seriesURLs []string) (*RunReport, error) {
	runID := uuid.New().String()
	logger := c.logger.With("run", runID)

	if err := os.MkdirAll(c.config.OutputDir, 0o755); err != nil {
		return nil, err
	}

	failures := ledger.Open(filepath.Join(c.config.OutputDir, ledger.DefaultFileName))
	if n := failures.Len(); n > 0 {
		logger.Info("ledger carries failures from a previous run", "count", n)
	}

	queue := NewPackagingQueue(c.packager, logger)
	if c.config.PollInterval > 0 {
		queue.SetPollInterval(c.config.PollInterval)
	}
	if c.repo != nil {
		queue.OnPackaged(c.recordPackaged(logger))
	}
	// The worker deliberately never observes the batch ctx: an accepted task
	// is always packaged, and shutdown is the drain handshake below.
	queue.Start(context.Background())

	downloader := NewDownloader(c.source, c.config.OutputDir, c.config.ChapterConcurrency, logger)
	defer downloader.Close()

	orchestrator := NewSeriesOrchestrator(c.source, downloader, queue, failures, c.config.OutputDir, logger)
	if c.repo != nil {
		orchestrator.WithRepository(c.repo)
	}

	g := new(errgroup.Group)
	g.SetLimit(c.config.SeriesConcurrency)
	for _, seriesURL := range seriesURLs {
		g.Go(func() error {
			failed := orchestrator.DownloadSeries(ctx, seriesURL)
			if len(failed) > 0 {
				logger.Warn("series finished with failures",
					"series", seriesURL, "failed", len(failed))
				// Cool down this slot only; other series keep going.
				c.backoff.Wait(ctx, 0)
			}
			return nil
		})
	}
	g.Wait()

	c.retryFailed(ctx, downloader, queue, failures, logger)

	logger.Info("waiting for packaging queue to drain", "pending", queue.Pending())
	if err := queue.Shutdown(ctx); err != nil {
		logger.Error("packaging queue shutdown interrupted", "error", err)
	}

	report := &RunReport{
		RunID:       runID,
		Series:      len(seriesURLs),
		Downloaded:  queue.Enqueued(),
		Packaged:    queue.Packaged(),
		StillFailed: failures.Len(),
		LedgerPath:  failures.Path(),
	}
	if report.StillFailed > 0 {
		return report, ErrChaptersRemaining
	}
	return report, nil
}

// retryFailed re-attempts every ledger record directly by chapter URL,
// bypassing metadata fetch, then rebuilds the ledger from what still fails.
func (c *BatchController) retryFailed(ctx context.Context, downloader *Downloader, queue *PackagingQueue, failures *ledger.Ledger, logger *slog.Logger) {
	records := failures.Records()
	if len(records) == 0 {
		logger.Info("no failed chapters to retry")
		return
	}

	logger.Info("retrying failed chapters", "count", len(records))

	var stillFailed []data.FailureRecord
	for _, record := range records {
		chapterDir, err := downloader.DownloadChapter(ctx, record.ChapterURL, record.SeriesTitle, record.ChapterTitle)
		if err != nil {
			logger.Error("retry failed", "chapter", record.ChapterTitle, "error", err)
			stillFailed = append(stillFailed, record)
			continue
		}
		queue.Enqueue(data.PackagingTask{
			ChapterDir:   chapterDir,
			SeriesTitle:  record.SeriesTitle,
			ChapterTitle: record.ChapterTitle,
		})
	}

	if err := failures.Replace(stillFailed); err != nil {
		logger.Error("ledger rebuild failed", "error", err)
	}
	if len(stillFailed) > 0 {
		logger.Warn("chapters still failed after retry", "count", len(stillFailed))
	} else {
		logger.Info("all previously failed chapters recovered")
	}
}

func (c *BatchController) recordPackaged(logger *slog.Logger) func(task data.PackagingTask, archivePath string) {
	return func(task data.PackagingTask, archivePath string) {
		if err := c.repo.MarkPackagedByTitle(task.SeriesTitle, task.ChapterTitle, archivePath); err != nil {
			logger.Warn("library update failed", "chapter", task.ChapterTitle, "error", err)
		}
	}
}
