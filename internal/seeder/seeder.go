package seeder

import (
	"context"
	"fmt"

	"job-tracker/internal/auth"
	"job-tracker/internal/domain/job"
)

// Store is the part of the job repository seeders write through.
type Store interface {
	ListJobs(ctx context.Context, sess auth.Session) ([]job.Application, error)
	CreateJob(ctx context.Context, sess auth.Session, in job.CreateInput) (string, error)
	AddEvent(ctx context.Context, jobID string, in job.EventInput) (string, error)
}

type Seeder interface {
	Name() string
	Run(ctx context.Context, store Store, sess auth.Session) error
}

type Runner struct {
	Seeders []Seeder
}

func (r Runner) Run(ctx context.Context, store Store, sess auth.Session) error {
	if store == nil {
		return fmt.Errorf("nil store")
	}
	if !sess.Valid() {
		return auth.ErrUnauthorized
	}
	for _, s := range r.Seeders {
		if s == nil {
			continue
		}
		if err := s.Run(ctx, store, sess); err != nil {
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
	}
	return nil
}
