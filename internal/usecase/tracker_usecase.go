package usecase

import (
	"context"
	"sync"

	"job-tracker/internal/auth"
	"job-tracker/internal/domain/job"
	"job-tracker/internal/domain/stats"
	"job-tracker/internal/pkg/logger"
	"job-tracker/internal/repository"
	"job-tracker/internal/usecase/projection"
)

const (
	MessageJobCreated        = "New job application added successfully"
	MessageJobUpdated        = "Job application updated successfully"
	MessageJobDeleted        = "Job application deleted successfully"
	MessageEventAdded        = "Event has been added successfully"
	MessageEventDeleted      = "Event has been deleted successfully"
	MessageEventCompleted    = "Event marked as completed"
	MessageEventIncomplete   = "Event marked as incomplete"
	MessageRequestFailed     = "There was an error processing your request"
	MessageDeleteJobFailed   = "There was an error deleting the job application"
	MessageAddEventFailed    = "Failed to add event"
	MessageDeleteEventFailed = "Failed to delete event"
	MessageUpdateEventFailed = "Failed to update event"
)

type TrackerUsecase interface {
	CreateJob(ctx context.Context, sess auth.Session, in job.CreateInput) (string, error)
	GetJob(ctx context.Context, sess auth.Session, id string) (job.Application, error)
	UpdateJob(ctx context.Context, sess auth.Session, id string, p job.Patch) error
	DeleteJob(ctx context.Context, sess auth.Session, id string) error
	AddEvent(ctx context.Context, sess auth.Session, jobID string, in job.EventInput) (string, error)
	RemoveEvent(ctx context.Context, sess auth.Session, jobID, eventID string) error
	ToggleEvent(ctx context.Context, sess auth.Session, jobID, eventID string) (bool, error)
	Dashboard(ctx context.Context, sess auth.Session, f stats.Filters) (stats.View, error)
	Watch(ctx context.Context, sess auth.Session, fn projection.Listener) (release func(), err error)
}

// Tracker validates input, enforces ownership and shares one live
// projection per user among its watchers.
type Tracker struct {
	jobs repository.JobRepository
	log  logger.Logger

	mu   sync.Mutex
	live map[string]*liveProjection
}

type liveProjection struct {
	proj     *projection.Projection
	watchers int
}

func NewTracker(jobs repository.JobRepository, log logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Tracker{jobs: jobs, log: log, live: map[string]*liveProjection{}}
}

func (t *Tracker) CreateJob(ctx context.Context, sess auth.Session, in job.CreateInput) (string, error) {
	if !sess.Valid() {
		return "", auth.ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return "", err
	}
	return t.jobs.CreateJob(ctx, sess, in)
}

// GetJob returns the application only when sess owns it. Other users' jobs
// look missing.
func (t *Tracker) GetJob(ctx context.Context, sess auth.Session, id string) (job.Application, error) {
	if !sess.Valid() {
		return job.Application{}, auth.ErrUnauthorized
	}
	app, err := t.jobs.GetJob(ctx, id)
	if err != nil {
		return job.Application{}, err
	}
	if app.UserID != sess.UserID {
		return job.Application{}, job.ErrNotFound
	}
	return app, nil
}

func (t *Tracker) UpdateJob(ctx context.Context, sess auth.Session, id string, p job.Patch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := t.GetJob(ctx, sess, id); err != nil {
		return err
	}
	// Nothing to merge; updatedAt stays put.
	if p.IsEmpty() {
		return nil
	}
	return t.jobs.UpdateJob(ctx, id, p)
}

func (t *Tracker) DeleteJob(ctx context.Context, sess auth.Session, id string) error {
	if _, err := t.GetJob(ctx, sess, id); err != nil {
		return err
	}
	return t.jobs.DeleteJob(ctx, id)
}

func (t *Tracker) AddEvent(ctx context.Context, sess auth.Session, jobID string, in job.EventInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	if _, err := t.GetJob(ctx, sess, jobID); err != nil {
		return "", err
	}
	return t.jobs.AddEvent(ctx, jobID, in)
}

func (t *Tracker) RemoveEvent(ctx context.Context, sess auth.Session, jobID, eventID string) error {
	if _, err := t.GetJob(ctx, sess, jobID); err != nil {
		return err
	}
	return t.jobs.RemoveEvent(ctx, jobID, eventID)
}

// ToggleEvent flips one event's completed flag and returns the new value.
func (t *Tracker) ToggleEvent(ctx context.Context, sess auth.Session, jobID, eventID string) (bool, error) {
	app, err := t.GetJob(ctx, sess, jobID)
	if err != nil {
		return false, err
	}
	return t.jobs.ToggleEvent(ctx, app, eventID)
}

// Dashboard reads the user's list once and derives the filtered view.
func (t *Tracker) Dashboard(ctx context.Context, sess auth.Session, f stats.Filters) (stats.View, error) {
	apps, err := t.jobs.ListJobs(ctx, sess)
	if err != nil {
		return stats.View{}, err
	}
	return stats.BuildView(apps, f), nil
}

// Watch registers fn on the user's live projection, opening it for the
// first watcher. release closes it after the last one leaves.
func (t *Tracker) Watch(ctx context.Context, sess auth.Session, fn projection.Listener) (func(), error) {
	if !sess.Valid() {
		return nil, auth.ErrUnauthorized
	}

	t.mu.Lock()
	lp, ok := t.live[sess.UserID]
	if !ok {
		p := projection.New(t.jobs, t.log)
		if err := p.Start(ctx, sess); err != nil {
			t.mu.Unlock()
			return nil, err
		}
		lp = &liveProjection{proj: p}
		t.live[sess.UserID] = lp
	}
	lp.watchers++
	t.mu.Unlock()

	unsub := lp.proj.OnChange(fn)

	var once sync.Once
	return func() {
		once.Do(func() {
			unsub()
			t.mu.Lock()
			defer t.mu.Unlock()
			lp.watchers--
			if lp.watchers == 0 {
				delete(t.live, sess.UserID)
				lp.proj.Close()
			}
		})
	}, nil
}

// LiveUsers reports how many users have an open projection.
func (t *Tracker) LiveUsers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// Close tears down every live projection.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, lp := range t.live {
		lp.proj.Close()
		delete(t.live, id)
	}
}
