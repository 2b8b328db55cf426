package live

import "sync"

// Subscription delivers full snapshots of one key until it is closed. The
// channel holds at most one pending snapshot: when the consumer falls behind
// the pending one is replaced, so a reader never sees an older snapshot after
// a newer one.
type Subscription[T any] struct {
	ch      chan T
	done    chan struct{}
	mu      sync.Mutex
	closed  bool
	release func()
}

func newSubscription[T any](release func()) *Subscription[T] {
	return &Subscription[T]{
		ch:      make(chan T, 1),
		done:    make(chan struct{}),
		release: release,
	}
}

// C returns the snapshot channel. It is closed when the subscription ends.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Done is closed when the subscription ends.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Close releases the subscription. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	close(s.ch)
	s.mu.Unlock()

	if s.release != nil {
		s.release()
	}
}

// offer replaces any pending snapshot with v. It reports false once the
// subscription is closed.
func (s *Subscription[T]) offer(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- v:
		return true
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- v
	return true
}
