package auth

import "sync"

// subscriber delivers notifications to one callback on its own goroutine,
// in order. If the callback falls behind only the latest value is kept.
type subscriber struct {
	fn func(*Identity)

	mu         sync.Mutex
	pending    *Identity
	hasPending bool

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

func newSubscriber(fn func(*Identity)) *subscriber {
	return &subscriber{
		fn:   fn,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (s *subscriber) push(ident *Identity) {
	s.mu.Lock()
	s.pending = ident
	s.hasPending = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		ident, ok := s.pending, s.hasPending
		s.pending, s.hasPending = nil, false
		s.mu.Unlock()

		if !ok {
			continue
		}
		select {
		case <-s.done:
			return
		default:
		}
		s.fn(ident)
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}
