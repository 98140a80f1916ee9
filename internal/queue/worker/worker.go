// Package worker drains the jobs table: it claims runnable jobs, executes
// them and either marks them done or schedules a retry with backoff.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/geocoder89/eventdesk/internal/domain/job"
	"github.com/geocoder89/eventdesk/internal/notifications"
	"github.com/geocoder89/eventdesk/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

// DeliveryLedger records confirmation sends per attendee.
type DeliveryLedger interface {
	TryStart(ctx context.Context, jobID, attendeeID, recipient string) error
	MarkSent(ctx context.Context, attendeeID string) error
	MarkFailed(ctx context.Context, attendeeID, errMsg string) error
}

type Config struct {
	WorkerID     string
	PollInterval time.Duration
	Concurrency  int
	JobTimeout   time.Duration
	LockTTL      time.Duration
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	ledger   DeliveryLedger
	notifier notifications.Notifier
	log      *slog.Logger
	metrics  *observability.JobMetrics
	now      func() time.Time

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repo JobsRepository, ledger DeliveryLedger, notifier notifications.Notifier, log *slog.Logger, metrics *observability.JobMetrics) *Worker {
	if cfg.WorkerID == "" {
		host, _ := os.Hostname()
		cfg.WorkerID = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if metrics == nil {
		metrics = observability.NewJobMetrics(nil)
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		ledger:   ledger,
		notifier: notifier,
		log:      log,
		metrics:  metrics,
		now:      time.Now,
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) Ready() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}

// Run blocks until ctx is cancelled and every in-flight job has finished.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("worker starting", "worker_id", w.cfg.WorkerID, "concurrency", w.cfg.Concurrency)
	w.setReady(true)

	var wg sync.WaitGroup

	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.sweepStale(ctx)
	}()

	<-ctx.Done()
	w.setReady(false)
	w.log.Info("worker received shutdown signal")

	wg.Wait()
	return nil
}

func (w *Worker) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		// in-flight jobs finish on their own context after shutdown starts
		processed, err := w.ProcessOne(context.WithoutCancel(ctx))
		if err != nil {
			w.log.Error("worker.process", "err", err)
		}

		if processed && err == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.cfg.PollInterval):
		}
	}
}

func (w *Worker) sweepStale(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.LockTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.repo.RequeueStaleProcessing(ctx, w.cfg.LockTTL)
			if err != nil {
				w.log.Error("worker.requeue_stale", "err", err)
				continue
			}
			if n > 0 {
				w.log.Warn("worker.requeue_stale", "requeued", n)
			}
		}
	}
}
