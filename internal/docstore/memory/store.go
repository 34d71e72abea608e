// Package memory is an in-process docstore backend. It is used by the
// development server and by tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"job-tracker/internal/docstore"
	"job-tracker/internal/docstore/notify"

	"github.com/google/uuid"
)

type Store struct {
	broker notify.Broker
	now    func() time.Time
	newID  func() string

	mu          sync.Mutex
	collections map[string]*collection
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New returns an empty store. A nil broker gets an in-process one.
func New(broker notify.Broker, opts ...Option) *Store {
	if broker == nil {
		broker = notify.NewLocal()
	}
	s := &Store{
		broker:      broker,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
		collections: map[string]*collection{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Collection(name string) docstore.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		c = &collection{store: s, name: name, docs: map[string]*record{}}
		s.collections[name] = c
	}
	return c
}

func (s *Store) Close() error {
	return s.broker.Close()
}

type record struct {
	seq  uint64
	data map[string]any
}

type collection struct {
	store *Store
	name  string

	mu   sync.RWMutex
	seq  uint64
	docs map[string]*record
}

func (c *collection) publish(ctx context.Context) {
	_ = c.store.broker.Publish(ctx, notify.Channel(c.name))
}

func (c *collection) Create(ctx context.Context, data map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc := map[string]any{}
	docstore.ApplyFields(doc, data, c.store.now())

	c.mu.Lock()
	id := c.store.newID()
	for _, taken := c.docs[id]; taken; _, taken = c.docs[id] {
		id = c.store.newID()
	}
	c.seq++
	c.docs[id] = &record{seq: c.seq, data: doc}
	c.mu.Unlock()

	c.publish(ctx)
	return id, nil
}

func (c *collection) Get(ctx context.Context, id string) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.docs[id]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docstore.Document{ID: id, Data: docstore.CloneData(r.data)}, nil
}

// Update applies data under the collection lock, which makes every
// transform atomic with respect to other writers.
func (c *collection) Update(ctx context.Context, id string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	r, ok := c.docs[id]
	if !ok {
		c.mu.Unlock()
		return docstore.ErrNotFound
	}
	docstore.ApplyFields(r.data, data, c.store.now())
	c.mu.Unlock()

	c.publish(ctx)
	return nil
}

func (c *collection) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	_, ok := c.docs[id]
	delete(c.docs, id)
	c.mu.Unlock()

	if ok {
		c.publish(ctx)
	}
	return nil
}

func (c *collection) Query(ctx context.Context, f docstore.Filter) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	type hit struct {
		seq uint64
		doc docstore.Document
	}
	hits := make([]hit, 0, len(c.docs))
	for id, r := range c.docs {
		if f.Matches(r.data) {
			hits = append(hits, hit{seq: r.seq, doc: docstore.Document{ID: id, Data: docstore.CloneData(r.data)}})
		}
	}
	c.mu.RUnlock()

	slices.SortFunc(hits, func(a, b hit) int { return cmp.Compare(a.seq, b.seq) })
	out := make([]docstore.Document, len(hits))
	for i, h := range hits {
		out[i] = h.doc
	}
	return out, nil
}

func (c *collection) Subscribe(ctx context.Context, f docstore.Filter, onSnapshot docstore.SnapshotFunc, onError func(error)) (func(), error) {
	return docstore.Watch(ctx, c.store.broker, notify.Channel(c.name), c.Query, f, onSnapshot, onError)
}
