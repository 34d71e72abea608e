// Package notify carries "collection changed" signals from writers to live
// subscriptions. Signals have no payload; subscribers re-read the store.
package notify

import (
	"context"
	"sync"
)

type Broker interface {
	Publish(ctx context.Context, channel string) error
	Subscribe(ctx context.Context, channel string) (Subscription, error)
	Close() error
}

// Subscription buffers at most one pending signal, so bursts of writes
// coalesce into a single wake-up. C is closed once the subscription ends.
type Subscription interface {
	C() <-chan struct{}
	Close() error
}

func Channel(collection string) string {
	return "docstore:" + collection
}

// Local is an in-process Broker.
type Local struct {
	mu     sync.Mutex
	subs   map[string]map[*localSub]struct{}
	closed bool
}

func NewLocal() *Local {
	return &Local{subs: map[string]map[*localSub]struct{}{}}
}

func (l *Local) Publish(_ context.Context, channel string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for s := range l.subs[channel] {
		signal(s.ch)
	}
	return nil
}

func (l *Local) Subscribe(_ context.Context, channel string) (Subscription, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := &localSub{owner: l, channel: channel, ch: make(chan struct{}, 1)}
	if l.closed {
		close(s.ch)
		s.done = true
		return s, nil
	}
	set, ok := l.subs[channel]
	if !ok {
		set = map[*localSub]struct{}{}
		l.subs[channel] = set
	}
	set[s] = struct{}{}
	return s, nil
}

// Subscribers returns the number of open subscriptions on channel.
func (l *Local) Subscribers(channel string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs[channel])
}

func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	for _, set := range l.subs {
		for s := range set {
			s.done = true
			close(s.ch)
		}
	}
	l.subs = map[string]map[*localSub]struct{}{}
	return nil
}

type localSub struct {
	owner   *Local
	channel string
	ch      chan struct{}
	done    bool
}

func (s *localSub) C() <-chan struct{} {
	return s.ch
}

func (s *localSub) Close() error {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	if s.done {
		return nil
	}
	s.done = true
	delete(s.owner.subs[s.channel], s)
	if len(s.owner.subs[s.channel]) == 0 {
		delete(s.owner.subs, s.channel)
	}
	close(s.ch)
	return nil
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
