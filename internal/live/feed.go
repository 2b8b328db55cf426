// Package live fans full snapshots out to subscribers keyed by a book or a
// user. A change to a key triggers one reload from the store; every
// subscriber of that key then receives the new snapshot.
package live

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
)

// Loader reads the current state of key from the store.
type Loader[R any] func(ctx context.Context, key string) (R, error)

// ErrClosed is returned by Subscribe once the feed has been closed.
var ErrClosed = apperrors.Transient(errors.New("live feed closed"))

// DefaultReloadTimeout bounds a reload triggered by Notify.
const DefaultReloadTimeout = 5 * time.Second

// Feed loads raw state of type R per key and hands each subscriber its own
// projection T of that state.
type Feed[R, T any] struct {
	name    string
	load    Loader[R]
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.Mutex
	topics map[string]*topic[R, T]
	nextID uint64
	closed bool
}

type topic[R, T any] struct {
	members   map[uint64]member[R, T]
	issued    uint64
	delivered uint64
}

type member[R, T any] struct {
	sub     *Subscription[T]
	project func(R) T
}

// NewFeed creates a feed. name labels its metrics and logs.
func NewFeed[R, T any](name string, load Loader[R], logger *slog.Logger) *Feed[R, T] {
	return &Feed[R, T]{
		name:    name,
		load:    load,
		logger:  logger.With(slog.String("feed", name)),
		timeout: DefaultReloadTimeout,
		topics:  make(map[string]*topic[R, T]),
	}
}

// Subscribe registers a subscriber of key and delivers the current snapshot
// before returning. The subscription ends when Close is called or ctx is
// cancelled, whichever happens first. A closed feed returns ErrClosed.
func (f *Feed[R, T]) Subscribe(ctx context.Context, key string, project func(R) T) (*Subscription[T], error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrClosed
	}
	f.nextID++
	id := f.nextID
	t, ok := f.topics[key]
	if !ok {
		t = &topic[R, T]{members: make(map[uint64]member[R, T])}
		f.topics[key] = t
	}
	sub := newSubscription[T](func() { f.unsubscribe(key, id) })
	t.members[id] = member[R, T]{sub: sub, project: project}
	t.issued++
	seq := t.issued
	f.mu.Unlock()

	subscribersGauge.WithLabelValues(f.name).Inc()

	raw, err := f.load(ctx, key)
	if err != nil {
		sub.Close()
		return nil, err
	}
	f.deliver(key, seq, raw)

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.Done():
		}
	}()

	return sub, nil
}

// Notify reloads key and pushes the result to its subscribers. Keys nobody
// watches are not reloaded. A failed reload is logged and the subscribers
// keep their last snapshot.
func (f *Feed[R, T]) Notify(ctx context.Context, key string) {
	f.mu.Lock()
	t, ok := f.topics[key]
	if !ok {
		f.mu.Unlock()
		return
	}
	t.issued++
	seq := t.issued
	f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	raw, err := f.load(ctx, key)
	if err != nil {
		reloadErrors.WithLabelValues(f.name).Inc()
		f.logger.WarnContext(ctx, "feed reload failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}
	f.deliver(key, seq, raw)
}

// Subscribers returns the number of open subscriptions on key.
func (f *Feed[R, T]) Subscribers(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.topics[key]; ok {
		return len(t.members)
	}
	return 0
}

// Close ends every open subscription and rejects new ones.
func (f *Feed[R, T]) Close() {
	f.mu.Lock()
	f.closed = true
	var subs []*Subscription[T]
	for _, t := range f.topics {
		for _, m := range t.members {
			subs = append(subs, m.sub)
		}
	}
	f.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}

// deliver pushes raw to the subscribers of key unless a newer load has
// already been delivered.
func (f *Feed[R, T]) deliver(key string, seq uint64, raw R) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.topics[key]
	if !ok || seq <= t.delivered {
		return
	}
	t.delivered = seq

	for _, m := range t.members {
		if m.sub.offer(m.project(raw)) {
			snapshotsDelivered.WithLabelValues(f.name).Inc()
		}
	}
}

func (f *Feed[R, T]) unsubscribe(key string, id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.topics[key]
	if !ok {
		return
	}
	if _, ok := t.members[id]; !ok {
		return
	}
	delete(t.members, id)
	subscribersGauge.WithLabelValues(f.name).Dec()
	if len(t.members) == 0 {
		delete(f.topics, key)
	}
}
