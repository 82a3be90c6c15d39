package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campushub/campusevents/internal/domain/job"
	"github.com/campushub/campusevents/internal/jobs"
	"github.com/campushub/campusevents/internal/notifications"
)

// ProcessOne claims and runs a single job. Returns false when the queue was
// empty. An execution failure is handled (retry or fail) and not returned.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)

	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID, time.Now().UTC())
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	start := time.Now()

	err = w.execute(ctx, j)

	if err != nil {
		w.handleFailure(ctx, j, err, time.Since(start))
		return true, nil
	}

	w.observeJob(j.Type, "done", time.Since(start))

	err = w.repo.MarkDone(ctx, j.ID)

	if err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	w.log.Info("job done", "job_id", j.ID, "type", j.Type, "attempts", j.Attempts)

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	payload, err := jobs.DecodePayload(jobs.JobType(j.Type), j.Payload)

	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case jobs.SendVerificationCodePayload:
		return w.notifier.SendVerificationCode(ctx, notifications.SendVerificationCodeInput{
			Email: p.Email,
			Name:  p.Name,
			Code:  p.Code,
		})

	case jobs.SendWelcomePayload:
		return w.notifier.SendWelcome(ctx, notifications.SendWelcomeInput{
			Email: p.Email,
			Name:  p.Name,
		})

	default:
		return fmt.Errorf("%w: %s", jobs.ErrInvalidJobType, j.Type)
	}
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, execErr error, dur time.Duration) {
	// attempts counts finished tries; this one has not been recorded yet
	attempt := j.Attempts + 1

	// decode failures never succeed on retry
	permanent := errors.Is(execErr, jobs.ErrInvalidJobType) ||
		errors.Is(execErr, jobs.ErrInvalidJobPayload)

	if permanent || attempt >= j.MaxAttempts {
		w.observeJob(j.Type, "failed", dur)
		w.log.Error("job failed permanently",
			"job_id", j.ID, "type", j.Type, "attempt", attempt, "error", execErr)

		if err := w.repo.MarkFailed(ctx, j.ID, execErr.Error()); err != nil {
			w.log.Error("mark failed", "job_id", j.ID, "error", err)
		}
		return
	}

	w.observeJob(j.Type, "retry", dur)

	delay := ExponentialBackoff(j.Attempts)
	runAt := time.Now().UTC().Add(delay)

	w.log.Warn("job retry scheduled",
		"job_id", j.ID, "type", j.Type, "attempt", attempt, "delay", delay, "error", execErr)

	if err := w.repo.Reschedule(ctx, j.ID, runAt, execErr.Error()); err != nil {
		w.log.Error("reschedule", "job_id", j.ID, "error", err)
	}
}

func (w *Worker) observeJob(jobType, result string, dur time.Duration) {
	if w.prom != nil {
		w.prom.ObserveJob(jobType, result, dur)
	}
}
