package observerloop

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Session is the setup side of a run: it owns the arena, registers the
// subscribers with the publisher, runs the loop with the matching budget and
// tears everything down afterwards.
type Session struct {
	log   *zap.Logger
	arena *Arena
	pub   *Publisher
	loop  *Loop

	mu       sync.Mutex
	produced int
	consumed int
	started  bool
	closed   bool

	// running is held for the duration of Run so Close can wait for both
	// goroutines before touching the registry.
	running   sync.WaitGroup
	closeOnce sync.Once
}

// NewSession creates a session with an empty publisher.
func NewSession(opts ...Option) *Session {
	s := newSettings(opts)
	pub := NewPublisher(s.log, s.metrics)
	return &Session{
		log:   s.log,
		arena: NewArena(s.log),
		pub:   pub,
		loop:  newLoop(pub, s),
	}
}

// Populate creates produced produced-interest subscribers followed by
// consumed consumed-interest subscribers and subscribes each of them.
func (s *Session) Populate(produced, consumed int) error {
	if produced < 0 || consumed < 0 {
		return fmt.Errorf("%w: produced=%d consumed=%d", ErrInvalidCount, produced, consumed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.started {
		return ErrSessionRunning
	}

	for i := 0; i < produced; i++ {
		if err := s.pub.Subscribe(s.arena.NewProducedListener()); err != nil {
			return fmt.Errorf("subscribe produced listener: %w", err)
		}
	}
	for i := 0; i < consumed; i++ {
		if err := s.pub.Subscribe(s.arena.NewConsumedListener()); err != nil {
			return fmt.Errorf("subscribe consumed listener: %w", err)
		}
	}
	s.produced += produced
	s.consumed += consumed
	return nil
}

// Budget returns the cycle budget derived from the populated counts.
func (s *Session) Budget() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Budget(s.produced, s.consumed)
}

// Run runs the loop once. The registry is frozen from here on.
func (s *Session) Run() (Stats, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Stats{}, ErrSessionClosed
	}
	if s.started {
		s.mu.Unlock()
		return Stats{}, ErrSessionRunning
	}
	s.started = true
	s.running.Add(1)
	budget := Budget(s.produced, s.consumed)
	s.mu.Unlock()

	defer s.running.Done()
	return s.loop.Run(budget)
}

// Close waits for a Run in progress to finish, tears the publisher down,
// unsubscribing every member, then releases the arena. Only the first call
// has an effect.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.running.Wait()
		s.pub.Close()
		s.arena.Release()
	})
}

// Publisher returns the session's publisher.
func (s *Session) Publisher() *Publisher { return s.pub }

// Arena returns the arena owning the session's subscribers.
func (s *Session) Arena() *Arena { return s.arena }

// Run is a one-shot helper: it populates a session, runs it and closes it.
func Run(produced, consumed int, opts ...Option) (Stats, error) {
	s := NewSession(opts...)
	defer s.Close()

	if err := s.Populate(produced, consumed); err != nil {
		return Stats{}, err
	}
	return s.Run()
}
