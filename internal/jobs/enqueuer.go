package jobs

import (
	"context"

	"github.com/campushub/campusevents/internal/domain/job"
)

type JobCreator interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

// Enqueuer validates and persists email jobs for the worker to pick up.
type Enqueuer struct {
	repo JobCreator
}

func NewEnqueuer(repo JobCreator) *Enqueuer {
	return &Enqueuer{repo: repo}
}

func (e *Enqueuer) Enqueue(ctx context.Context, t JobType, payload any) error {
	if err := ValidatePayload(t, payload); err != nil {
		return err
	}

	raw, err := EncodePayload(t, payload)

	if err != nil {
		return err
	}

	_, err = e.repo.Create(ctx, job.CreateRequest{
		Type:    string(t),
		Payload: raw,
	})

	return err
}
