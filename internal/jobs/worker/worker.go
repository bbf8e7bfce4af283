package worker

import (
	"context"
	"time"

	"gorm.io/gorm"

	jobrepos "github.com/notedive/notedive-backend/internal/data/repos/jobs"
	"github.com/notedive/notedive-backend/internal/jobs/runtime"
	"github.com/notedive/notedive-backend/internal/pkg/dbctx"
	"github.com/notedive/notedive-backend/internal/pkg/envutil"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
)

// Worker polls job_run for claimable rows and dispatches them to
// registered handlers. Claims use FOR UPDATE SKIP LOCKED, so multiple
// workers can share one table safely.
type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     jobrepos.JobRunRepo
	registry *runtime.Registry

	pollInterval time.Duration
	maxAttempts  int
	retryDelay   time.Duration
	staleRunning time.Duration
	concurrency  int
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo jobrepos.JobRunRepo, registry *runtime.Registry) *Worker {
	return &Worker{
		db:           db,
		log:          baseLog.With("component", "JobWorker"),
		repo:         repo,
		registry:     registry,
		pollInterval: time.Duration(envutil.Int("WORKER_POLL_INTERVAL_MS", 1000)) * time.Millisecond,
		maxAttempts:  envutil.Int("WORKER_MAX_ATTEMPTS", 5),
		retryDelay:   time.Duration(envutil.Int("WORKER_RETRY_DELAY_SECONDS", 30)) * time.Second,
		staleRunning: time.Duration(envutil.Int("WORKER_STALE_RUNNING_SECONDS", 120)) * time.Second,
		concurrency:  envutil.Int("WORKER_CONCURRENCY", 2),
	}
}

func (w *Worker) Start(ctx context.Context) {
	if w.concurrency < 1 {
		w.concurrency = 1
	}
	slots := make(chan struct{}, w.concurrency)
	go func() {
		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.claimAndRun(ctx, slots)
			}
		}
	}()
}

func (w *Worker) claimAndRun(ctx context.Context, slots chan struct{}) {
	select {
	case slots <- struct{}{}:
	default:
		return
	}
	release := func() { <-slots }

	job, err := w.repo.ClaimNextRunnable(dbctx.New(ctx), w.maxAttempts, w.retryDelay, w.staleRunning)
	if err != nil {
		w.log.Warn("ClaimNextRunnable failed", "error", err)
		release()
		return
	}
	if job == nil {
		release()
		return
	}

	jc := runtime.NewContext(ctx, w.db, job, w.repo)
	h, ok := w.registry.Get(job.JobType)
	if !ok {
		w.log.Warn("No handler registered for job_type", "job_type", job.JobType, "job_id", job.ID)
		jc.Fail("dispatch", &missingHandlerError{JobType: job.JobType})
		release()
		return
	}

	go func() {
		defer release()
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("Job handler panic", "job_id", job.ID, "job_type", job.JobType, "panic", r)
				jc.Fail("panic", &panicError{Val: r})
			}
		}()
		if err := h.Run(jc); err != nil {
			w.log.Warn("Job handler failed", "job_id", job.ID, "job_type", job.JobType, "error", err)
		}
	}()
}

type missingHandlerError struct{ JobType string }

func (e *missingHandlerError) Error() string {
	return "no handler registered for job_type=" + e.JobType
}

type panicError struct{ Val any }

func (e *panicError) Error() string { return "panic: unexpected error" }
