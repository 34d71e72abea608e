package seeder

import (
	"context"
	"errors"
	"testing"
	"time"

	"job-tracker/internal/auth"
	"job-tracker/internal/docstore/memory"
	"job-tracker/internal/domain/job"
	"job-tracker/internal/domain/stats"
	"job-tracker/internal/pkg/logger"
	"job-tracker/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *repository.DocstoreJobRepository {
	t.Helper()
	return repository.NewDocstoreJobRepository(memory.New(nil), logger.NewTestLogger(t))
}

func TestDemoJobs_SeedsEmptyAccountOnce(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	alice := auth.Session{UserID: "alice"}
	now := time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)

	r := Runner{Seeders: []Seeder{DemoJobs{Now: now}}}
	require.NoError(t, r.Run(ctx, repo, alice))

	apps, err := repo.ListJobs(ctx, alice)
	require.NoError(t, err)
	require.Len(t, apps, len(demoJobs))
	assert.Equal(t, "Globex", apps[0].CompanyName)
	assert.Equal(t, time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC), apps[0].DateApplied)

	summary := stats.Summarize(apps)
	assert.Equal(t, 4, summary.TotalApplications)
	assert.Equal(t, 3, summary.ActiveApplications)

	require.NoError(t, r.Run(ctx, repo, alice))
	again, err := repo.ListJobs(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, again, len(demoJobs))

	bob, err := repo.ListJobs(ctx, auth.Session{UserID: "bob"})
	require.NoError(t, err)
	assert.Empty(t, bob)
}

func TestDemoJobs_AttachesEvents(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	alice := auth.Session{UserID: "alice"}

	require.NoError(t, DemoJobs{Now: time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)}.Run(ctx, repo, alice))

	apps, err := repo.ListJobs(ctx, alice)
	require.NoError(t, err)
	var initech job.Application
	for _, a := range apps {
		if a.CompanyName == "Initech" {
			initech = a
		}
	}
	require.Len(t, initech.Events, 3)
	assert.Equal(t, "Offer call", initech.Timeline()[0].Notes)
}

type failingStore struct{}

func (failingStore) ListJobs(context.Context, auth.Session) ([]job.Application, error) {
	return nil, nil
}

func (failingStore) CreateJob(context.Context, auth.Session, job.CreateInput) (string, error) {
	return "", job.StoreWriteError("create_job", errors.New("disk full"))
}

func (failingStore) AddEvent(context.Context, string, job.EventInput) (string, error) {
	return "", nil
}

func TestRunner_WrapsSeederErrors(t *testing.T) {
	err := Runner{Seeders: []Seeder{DemoJobs{}}}.Run(context.Background(), failingStore{}, auth.Session{UserID: "alice"})
	require.Error(t, err)
	assert.ErrorIs(t, err, job.ErrStoreWrite)
	assert.Contains(t, err.Error(), "seed demo_jobs")
}

func TestRunner_RequiresSession(t *testing.T) {
	err := Runner{Seeders: []Seeder{DemoJobs{}}}.Run(context.Background(), newRepo(t), auth.Session{})
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}
