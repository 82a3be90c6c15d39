package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/campushub/campusevents/internal/domain/job"
	"github.com/campushub/campusevents/internal/notifications"
	"github.com/campushub/campusevents/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string, now time.Time) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, lastError string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, lastError string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
}

type Config struct {
	PollInterval  time.Duration
	WorkerID      string
	Concurrency   int
	ShutdownGrace time.Duration
	// processing rows older than this are presumed orphaned
	LockTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = 10 * time.Second
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 5 * time.Minute
	}
	return c
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	notifier notifications.Notifier
	log      *slog.Logger
	prom     *observability.Prom

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repo JobsRepository, notifier notifications.Notifier, log *slog.Logger, prom *observability.Prom) *Worker {
	return &Worker{
		cfg:      cfg.withDefaults(),
		repo:     repo,
		notifier: notifier,
		log:      log,
		prom:     prom,
	}
}

// Run polls until ctx is cancelled. Each loop goroutine claims and processes
// one job at a time; a janitor goroutine requeues orphaned processing rows.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	var wg sync.WaitGroup

	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()
			w.loop(ctx, n)
		}(i)
	}

	wg.Add(1)

	go func() {
		defer wg.Done()
		w.janitor(ctx)
	}()

	<-ctx.Done()

	w.log.Info("worker shutting down", "grace", w.cfg.ShutdownGrace)

	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.cfg.ShutdownGrace):
		w.log.Warn("shutdown grace elapsed with jobs still in flight")
	}

	return nil
}

func (w *Worker) loop(ctx context.Context, n int) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// drain: keep claiming until the queue is empty
		for {
			processed, err := w.ProcessOne(ctx)

			if err != nil {
				w.log.Error("process job", "loop", n, "error", err)
				break
			}
			if !processed {
				break
			}
		}
	}
}

func (w *Worker) janitor(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.LockTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, err := w.repo.RequeueStaleProcessing(ctx, w.cfg.LockTTL)

		if err != nil {
			w.log.Error("requeue stale jobs", "error", err)
			continue
		}

		if n > 0 {
			w.log.Warn("requeued stale jobs", "count", n)
		}
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}
