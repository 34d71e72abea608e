package repository

import (
	"context"
	"errors"
	"time"

	"job-tracker/internal/auth"
	"job-tracker/internal/docstore"
	"job-tracker/internal/domain/job"
	"job-tracker/internal/metrics"
	"job-tracker/internal/pkg/logger"

	"github.com/google/uuid"
)

const (
	OpCreateJob   = "create_job"
	OpUpdateJob   = "update_job"
	OpDeleteJob   = "delete_job"
	OpAddEvent    = "add_event"
	OpRemoveEvent = "remove_event"
	OpToggleEvent = "toggle_event"
	OpGetJob      = "get_job"
	OpListJobs    = "list_jobs"
	OpSubscribe   = "subscribe_jobs"
)

// JobRepository writes applications and their events to the document store.
// Every call is one independent request; nothing is cached locally.
type JobRepository interface {
	CreateJob(ctx context.Context, sess auth.Session, in job.CreateInput) (string, error)
	UpdateJob(ctx context.Context, id string, p job.Patch) error
	DeleteJob(ctx context.Context, id string) error
	AddEvent(ctx context.Context, jobID string, in job.EventInput) (string, error)
	RemoveEvent(ctx context.Context, jobID, eventID string) error
	ToggleEvent(ctx context.Context, app job.Application, eventID string) (bool, error)
	GetJob(ctx context.Context, id string) (job.Application, error)
	ListJobs(ctx context.Context, sess auth.Session) ([]job.Application, error)
	SubscribeJobs(ctx context.Context, sess auth.Session, onSnapshot docstore.SnapshotFunc, onError func(error)) (func(), error)
}

type DocstoreJobRepository struct {
	jobs docstore.Collection
	log  logger.Logger

	newID func() (uuid.UUID, error)
}

func NewDocstoreJobRepository(store docstore.Store, log logger.Logger) *DocstoreJobRepository {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &DocstoreJobRepository{
		jobs:  store.Collection(job.Collection),
		log:   log,
		newID: uuid.NewV7,
	}
}

func (r *DocstoreJobRepository) CreateJob(ctx context.Context, sess auth.Session, in job.CreateInput) (id string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(OpCreateJob, start, err) }()

	if !sess.Valid() {
		return "", auth.ErrUnauthorized
	}
	id, err = r.jobs.Create(ctx, job.EncodeCreate(sess.UserID, in))
	if err != nil {
		return "", r.writeFailed(OpCreateJob, "", err)
	}
	r.log.Debug("job created", map[string]interface{}{"job_id": id, "user_id": sess.UserID})
	return id, nil
}

// UpdateJob merges the fields p sets and refreshes updatedAt.
func (r *DocstoreJobRepository) UpdateJob(ctx context.Context, id string, p job.Patch) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(OpUpdateJob, start, err) }()

	if err = r.jobs.Update(ctx, id, job.EncodePatch(p)); err != nil {
		return r.writeFailed(OpUpdateJob, id, err)
	}
	return nil
}

func (r *DocstoreJobRepository) DeleteJob(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(OpDeleteJob, start, err) }()

	if err = r.jobs.Delete(ctx, id); err != nil {
		return r.writeFailed(OpDeleteJob, id, err)
	}
	return nil
}

// AddEvent appends a new event with a generated id. The append is a store
// side union, so concurrent appends never drop each other.
func (r *DocstoreJobRepository) AddEvent(ctx context.Context, jobID string, in job.EventInput) (id string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(OpAddEvent, start, err) }()

	u, err := r.newID()
	if err != nil {
		return "", r.writeFailed(OpAddEvent, jobID, err)
	}
	ev := job.Event{ID: u.String(), Type: in.Type, Date: in.Date, Notes: in.Notes, Completed: in.Completed}

	err = r.jobs.Update(ctx, jobID, map[string]any{
		job.FieldEvents:    docstore.ArrayUnion(job.EncodeEvent(ev)),
		job.FieldUpdatedAt: docstore.ServerTimestamp,
	})
	if err != nil {
		return "", r.writeFailed(OpAddEvent, jobID, err)
	}
	return ev.ID, nil
}

// RemoveEvent drops the event with eventID. An unknown event id still
// refreshes updatedAt and succeeds.
func (r *DocstoreJobRepository) RemoveEvent(ctx context.Context, jobID, eventID string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(OpRemoveEvent, start, err) }()

	err = r.jobs.Update(ctx, jobID, map[string]any{
		job.FieldEvents:    docstore.ArrayRemoveWhere(job.EventKeyID, eventID),
		job.FieldUpdatedAt: docstore.ServerTimestamp,
	})
	if err != nil {
		return r.writeFailed(OpRemoveEvent, jobID, err)
	}
	return nil
}

// ToggleEvent flips the completed flag of one event relative to the state in
// app, and returns the new value.
func (r *DocstoreJobRepository) ToggleEvent(ctx context.Context, app job.Application, eventID string) (completed bool, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(OpToggleEvent, start, err) }()

	ev, ok := app.FindEvent(eventID)
	if !ok {
		return false, job.ErrEventNotFound
	}
	completed = !ev.Completed

	err = r.jobs.Update(ctx, app.ID, map[string]any{
		job.FieldEvents:    docstore.ArrayUpdateWhere(job.EventKeyID, eventID, job.CompletedPatch(completed)),
		job.FieldUpdatedAt: docstore.ServerTimestamp,
	})
	if err != nil {
		return false, r.writeFailed(OpToggleEvent, app.ID, err)
	}
	return completed, nil
}

func (r *DocstoreJobRepository) GetJob(ctx context.Context, id string) (app job.Application, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(OpGetJob, start, err) }()

	doc, err := r.jobs.Get(ctx, id)
	if err != nil {
		return job.Application{}, r.readFailed(OpGetJob, id, err)
	}
	app, err = job.Decode(doc)
	if err != nil {
		return job.Application{}, r.readFailed(OpGetJob, id, err)
	}
	return app, nil
}

// ListJobs returns the user's applications newest first. Documents that do
// not decode are logged and skipped.
func (r *DocstoreJobRepository) ListJobs(ctx context.Context, sess auth.Session) (apps []job.Application, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(OpListJobs, start, err) }()

	if !sess.Valid() {
		return nil, auth.ErrUnauthorized
	}
	docs, err := r.jobs.Query(ctx, docstore.Where(job.FieldUserID, sess.UserID))
	if err != nil {
		return nil, r.readFailed(OpListJobs, "", err)
	}
	apps, failed := job.DecodeAll(docs)
	for _, f := range failed {
		r.log.Warn("skipping undecodable job document", map[string]interface{}{
			"op":     OpListJobs,
			"job_id": f.ID,
			"error":  f.Err,
		})
	}
	job.SortByDateApplied(apps)
	return apps, nil
}

// SubscribeJobs opens a live query scoped to the session's user.
func (r *DocstoreJobRepository) SubscribeJobs(ctx context.Context, sess auth.Session, onSnapshot docstore.SnapshotFunc, onError func(error)) (cancel func(), err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(OpSubscribe, start, err) }()

	if !sess.Valid() {
		return nil, auth.ErrUnauthorized
	}
	report := func(err error) {
		r.log.Error("job subscription failed", map[string]interface{}{
			"op":      OpSubscribe,
			"user_id": sess.UserID,
			"error":   err,
		})
		if onError != nil {
			onError(job.StoreReadError(OpSubscribe, err))
		}
	}
	cancel, err = r.jobs.Subscribe(ctx, docstore.Where(job.FieldUserID, sess.UserID), onSnapshot, report)
	if err != nil {
		return nil, r.readFailed(OpSubscribe, "", err)
	}
	return cancel, nil
}

func (r *DocstoreJobRepository) writeFailed(op, id string, err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		r.log.Warn("job not found", map[string]interface{}{"op": op, "job_id": id})
		return job.ErrNotFound
	}
	r.log.Error("store write failed", map[string]interface{}{"op": op, "job_id": id, "error": err})
	return job.StoreWriteError(op, err)
}

func (r *DocstoreJobRepository) readFailed(op, id string, err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return job.ErrNotFound
	}
	r.log.Error("store read failed", map[string]interface{}{"op": op, "job_id": id, "error": err})
	return job.StoreReadError(op, err)
}
