package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/campushub/campusevents/internal/domain/job"
	"github.com/campushub/campusevents/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const jobColumns = `id, type, payload, status, attempts, max_attempts,
	run_at, locked_at, locked_by, last_error, created_at, updated_at`

type JobsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewJobsRepo(pool *pgxpool.Pool, prom *observability.Prom) *JobsRepo {
	return &JobsRepo{pool: pool, prom: prom}
}

func (r *JobsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *JobsRepo) Create(ctx context.Context, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)
	op := "jobs.create"

	err := r.observe(op, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO jobs (id, type, payload, status, attempts, max_attempts, run_at, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			j.ID, j.Type, j.Payload, j.Status, j.Attempts, j.MaxAttempts, j.RunAt, j.CreatedAt, j.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return job.Job{}, err
	}

	return j, nil
}

// ClaimNext atomically claims the oldest runnable pending job. SKIP LOCKED
// lets concurrent workers claim disjoint rows without blocking each other.
// Returns job.ErrJobNotFound when the queue is empty.
func (r *JobsRepo) ClaimNext(ctx context.Context, workerID string, now time.Time) (job.Job, error) {
	var j job.Job
	op := "jobs.claim_next"

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx,
			`WITH next AS (
			    SELECT id FROM jobs
			    WHERE status = 'pending' AND run_at <= $2
			    ORDER BY run_at ASC, created_at ASC
			    LIMIT 1
			    FOR UPDATE SKIP LOCKED
			 )
			 UPDATE jobs
			 SET status = 'processing',
			     locked_at = $2,
			     locked_by = $1,
			     updated_at = $2
			 FROM next
			 WHERE jobs.id = next.id
			 RETURNING jobs.id, jobs.type, jobs.payload, jobs.status, jobs.attempts, jobs.max_attempts,
			           jobs.run_at, jobs.locked_at, jobs.locked_by, jobs.last_error, jobs.created_at, jobs.updated_at`,
			workerID, now,
		).Scan(jobScanTargets(&j)...)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrJobNotFound
		}
		return job.Job{}, err
	}

	return j, nil
}

func (r *JobsRepo) MarkDone(ctx context.Context, id string) error {
	op := "jobs.mark_done"

	return r.observe(op, func() error {
		_, err := r.pool.Exec(ctx,
			`UPDATE jobs
			 SET status = 'done', locked_at = NULL, locked_by = NULL, updated_at = NOW()
			 WHERE id = $1`,
			id,
		)
		return err
	})
}

func (r *JobsRepo) MarkFailed(ctx context.Context, id, lastError string) error {
	op := "jobs.mark_failed"

	return r.observe(op, func() error {
		_, err := r.pool.Exec(ctx,
			`UPDATE jobs
			 SET status = 'failed', attempts = attempts + 1,
			     locked_at = NULL, locked_by = NULL,
			     last_error = $2, updated_at = NOW()
			 WHERE id = $1`,
			id, lastError,
		)
		return err
	})
}

// Reschedule returns a failed attempt to the pending queue with a new run
// time and records the error.
func (r *JobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, lastError string) error {
	op := "jobs.reschedule"

	return r.observe(op, func() error {
		_, err := r.pool.Exec(ctx,
			`UPDATE jobs
			 SET status = 'pending', attempts = attempts + 1,
			     run_at = $2, locked_at = NULL, locked_by = NULL,
			     last_error = $3, updated_at = NOW()
			 WHERE id = $1`,
			id, runAt, lastError,
		)
		return err
	})
}

// RequeueStaleProcessing recovers jobs whose worker died mid-flight: anything
// still marked processing past the lock TTL goes back to pending.
func (r *JobsRepo) RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error) {
	op := "jobs.requeue_stale"

	var n int64

	err := r.observe(op, func() error {
		ct, err := r.pool.Exec(ctx,
			`UPDATE jobs
			 SET status = 'pending', locked_at = NULL, locked_by = NULL, updated_at = NOW()
			 WHERE status = 'processing' AND locked_at < NOW() - make_interval(secs => $1)`,
			lockTTL.Seconds(),
		)
		n = ct.RowsAffected()
		return err
	})

	return n, err
}

func jobScanTargets(j *job.Job) []any {
	return []any{
		&j.ID, &j.Type, &j.Payload, &j.Status, &j.Attempts, &j.MaxAttempts,
		&j.RunAt, &j.LockedAt, &j.LockedBy, &j.LastError, &j.CreatedAt, &j.UpdatedAt,
	}
}
