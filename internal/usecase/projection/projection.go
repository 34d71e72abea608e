// Package projection keeps a live, sorted in-memory copy of one user's job
// applications. The list is replaced wholesale from every store snapshot and
// is never edited locally.
package projection

import (
	"context"
	"slices"
	"sync"

	"job-tracker/internal/auth"
	"job-tracker/internal/docstore"
	"job-tracker/internal/domain/job"
	"job-tracker/internal/metrics"
	"job-tracker/internal/pkg/logger"
)

// Source opens user-scoped live queries.
type Source interface {
	SubscribeJobs(ctx context.Context, sess auth.Session, onSnapshot docstore.SnapshotFunc, onError func(error)) (func(), error)
}

// Listener receives the full list after every change. It must not block or
// call Start, Stop or OnChange.
type Listener func(apps []job.Application)

type Projection struct {
	src Source
	log logger.Logger

	// deliverMu orders listener calls across subscription switches.
	deliverMu sync.Mutex

	mu        sync.Mutex
	sess      auth.Session
	active    bool
	gen       uint64
	cancel    func()
	jobs      []job.Application
	loaded    bool
	nextID    int
	listeners map[int]Listener
	unbind    func()
}

func New(src Source, log logger.Logger) *Projection {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Projection{src: src, log: log, listeners: map[int]Listener{}}
}

// Start subscribes to sess's applications, replacing any subscription for
// another user. Starting the active user again is a no-op.
func (p *Projection) Start(ctx context.Context, sess auth.Session) error {
	if !sess.Valid() {
		return auth.ErrUnauthorized
	}

	p.mu.Lock()
	if p.active && p.sess == sess {
		p.mu.Unlock()
		return nil
	}
	p.stopLocked()
	p.gen++
	gen := p.gen
	p.sess, p.active = sess, true
	p.mu.Unlock()
	p.publish(gen, nil, false)

	log := p.log.With(map[string]interface{}{"user_id": sess.UserID})
	cancel, err := p.src.SubscribeJobs(ctx, sess,
		func(docs []docstore.Document) { p.onSnapshot(gen, log, docs) },
		func(err error) {
			log.Warn("projection kept last snapshot after read failure", map[string]interface{}{"error": err})
		},
	)
	if err != nil {
		p.mu.Lock()
		if p.gen == gen {
			p.active = false
			p.sess = auth.Session{}
		}
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		cancel()
		return nil
	}
	p.cancel = cancel
	p.mu.Unlock()

	metrics.ProjectionsActive.Inc()
	log.Debug("projection started", nil)
	return nil
}

// Stop tears the subscription down and clears the list.
func (p *Projection) Stop() {
	p.mu.Lock()
	wasActive := p.active
	p.stopLocked()
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	if wasActive {
		p.publish(gen, nil, false)
	}
}

func (p *Projection) stopLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
		metrics.ProjectionsActive.Dec()
	}
	p.active = false
	p.sess = auth.Session{}
}

// Bind follows provider: sign-in starts the projection for that user,
// sign-out and user switches tear the old subscription down.
func (p *Projection) Bind(ctx context.Context, provider auth.Provider) {
	unsub := provider.OnAuthStateChanged(func(s auth.Session, ok bool) {
		if !ok {
			p.Stop()
			return
		}
		if err := p.Start(ctx, s); err != nil {
			p.log.Error("projection start failed", map[string]interface{}{"user_id": s.UserID, "error": err})
		}
	})

	p.mu.Lock()
	prev := p.unbind
	p.unbind = unsub
	p.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// Close unbinds from any provider and stops.
func (p *Projection) Close() {
	p.mu.Lock()
	unbind := p.unbind
	p.unbind = nil
	p.mu.Unlock()
	if unbind != nil {
		unbind()
	}
	p.Stop()
}

func (p *Projection) onSnapshot(gen uint64, log logger.Logger, docs []docstore.Document) {
	apps, failed := job.DecodeAll(docs)
	for _, f := range failed {
		log.Warn("skipping undecodable job document", map[string]interface{}{"job_id": f.ID, "error": f.Err})
	}
	job.SortByDateApplied(apps)
	p.publish(gen, apps, true)
}

func (p *Projection) publish(gen uint64, apps []job.Application, loaded bool) {
	if apps == nil {
		apps = []job.Application{}
	}

	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.jobs, p.loaded = apps, loaded
	fns := make([]Listener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	if loaded {
		metrics.ProjectionSnapshots.Inc()
	}
	for _, fn := range fns {
		fn(slices.Clone(apps))
	}
}

// Jobs returns the latest list, newest first.
func (p *Projection) Jobs() []job.Application {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.jobs)
}

// Loaded reports whether a snapshot has arrived for the current user.
func (p *Projection) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loaded
}

func (p *Projection) Session() (auth.Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sess, p.active
}

// OnChange registers fn for future changes. If a snapshot is already loaded
// fn is called with it first.
func (p *Projection) OnChange(fn Listener) (unsubscribe func()) {
	p.deliverMu.Lock()
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	current, loaded := slices.Clone(p.jobs), p.loaded
	p.mu.Unlock()
	if loaded {
		fn(current)
	}
	p.deliverMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}
