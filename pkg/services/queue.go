package services

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PratikshaDPai/bato-downloader/pkg/data"
	"github.com/PratikshaDPai/bato-downloader/pkg/integrations"
)

// PackagingQueue decouples "downloaded" from "packaged": series workers
// enqueue completed chapters and a single background worker archives them,
// so a slow packaging step never stalls new downloads.
//
// The queue is FIFO and unbounded. Each task is consumed exactly once. The
// worker keeps running until Shutdown is called AND the queue is observed
// empty; Shutdown must only be called once all producers are done.
type PackagingQueue struct {
	packager     integrations.Packager
	logger       *slog.Logger
	pollInterval time.Duration

	// onPackaged, when set, runs after each successful archive.
	onPackaged func(task data.PackagingTask, archivePath string)

	mu    sync.Mutex
	tasks []data.PackagingTask

	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	enqueued atomic.Int64
	packaged atomic.Int64
}

func NewPackagingQueue(packager integrations.Packager, logger *slog.Logger) *PackagingQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &PackagingQueue{
		packager:     packager,
		logger:       logger,
		pollInterval: 2 * time.Second,
		wake:         make(chan struct{}, 1),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// SetPollInterval adjusts how often the idle worker rechecks the stop
// signal. Only meaningful before Start.
func (q *PackagingQueue) SetPollInterval(d time.Duration) {
	if d > 0 {
		q.pollInterval = d
	}
}

// OnPackaged registers a callback invoked after each successful archive.
// Only meaningful before Start.
func (q *PackagingQueue) OnPackaged(fn func(task data.PackagingTask, archivePath string)) {
	q.onPackaged = fn
}

// Enqueue appends a task. Producer side is append-only; Enqueue never
// blocks.
func (q *PackagingQueue) Enqueue(task data.PackagingTask) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
	q.enqueued.Add(1)

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pending reports how many tasks are waiting.
func (q *PackagingQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Enqueued reports the total number of tasks ever enqueued.
func (q *PackagingQueue) Enqueued() int64 { return q.enqueued.Load() }

// Packaged reports how many chapters have been archived successfully.
func (q *PackagingQueue) Packaged() int64 { return q.packaged.Load() }

// Start launches the background worker.
func (q *PackagingQueue) Start(ctx context.Context) {
	go q.run(ctx)
}

// Shutdown signals the worker to stop once the queue drains, then waits for
// it to exit. The ctx bounds the wait, not in-flight packaging.
func (q *PackagingQueue) Shutdown(ctx context.Context) error {
	q.stopOnce.Do(func() { close(q.stop) })

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *PackagingQueue) run(ctx context.Context) {
	defer close(q.done)

	for {
		if task, ok := q.dequeue(); ok {
			q.process(ctx, task)
			continue
		}

		// Queue observed empty: exit only if the stop signal is set,
		// otherwise wait for new work or the next poll.
		select {
		case <-q.stop:
			return
		case <-q.wake:
		case <-time.After(q.pollInterval):
		}
	}
}

func (q *PackagingQueue) dequeue() (data.PackagingTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return data.PackagingTask{}, false
	}
	task := q.tasks[0]
	q.tasks = q.tasks[1:]
	return task, true
}

func (q *PackagingQueue) process(ctx context.Context, task data.PackagingTask) {
	q.logger.Info("packaging chapter", "chapter", task.ChapterTitle, "series", task.SeriesTitle)

	archivePath, err := q.packager.Package(ctx, task.ChapterDir, task.SeriesTitle, task.ChapterTitle, true)
	if err != nil {
		// Best-effort stage: log and drop, images stay on disk.
		q.logger.Error("packaging failed",
			"chapter", task.ChapterTitle, "series", task.SeriesTitle, "error", err)
		return
	}

	q.packaged.Add(1)
	q.logger.Info("packaged chapter", "chapter", task.ChapterTitle, "archive", archivePath)
	if q.onPackaged != nil {
		q.onPackaged(task, archivePath)
	}
}
