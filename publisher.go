package observerloop

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Publisher is a registry of borrowed subscribers with synchronous,
// kind-filtered fan-out.
type Publisher struct {
	mu      sync.RWMutex
	members map[*Subscriber]struct{}
	order   []*Subscriber // ascending id
	closed  bool
	log     *zap.Logger
	metrics *Metrics
}

// NewPublisher creates an empty publisher. log and metrics may be nil.
func NewPublisher(log *zap.Logger, metrics *Metrics) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Publisher{
		members: make(map[*Subscriber]struct{}),
		log:     log,
		metrics: metrics,
	}
	p.log.Debug("publisher created")
	return p
}

// Subscribe registers s and logs "<identity> subscribed". Registering the
// same subscriber twice returns ErrDuplicateSubscriber and logs nothing.
func (p *Publisher) Subscribe(s *Subscriber) error {
	if s == nil {
		return ErrNilSubscriber
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}
	if _, exists := p.members[s]; exists {
		p.log.Debug("duplicate subscription rejected", zap.Stringer("subscriber", s))
		return ErrDuplicateSubscriber
	}

	p.members[s] = struct{}{}
	i := sort.Search(len(p.order), func(i int) bool { return p.order[i].id > s.id })
	p.order = append(p.order, nil)
	copy(p.order[i+1:], p.order[i:])
	p.order[i] = s

	p.log.Info(s.String() + " subscribed")
	return nil
}

// Unsubscribe removes s and logs "<identity> unsubscribed". It does nothing
// if s is not registered.
func (p *Publisher) Unsubscribe(s *Subscriber) {
	if s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(s)
}

func (p *Publisher) removeLocked(s *Subscriber) {
	if _, exists := p.members[s]; !exists {
		return
	}
	delete(p.members, s)
	for i, m := range p.order {
		if m == s {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	p.log.Info(s.String() + " unsubscribed")
}

// NotifyAll calls Notify(payload) on every subscriber interested in kind, in
// ascending id order, and returns how many were notified. All calls complete
// before it returns.
func (p *Publisher) NotifyAll(kind EventKind, payload string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := 0
	for _, s := range p.order {
		if s.interest != kind {
			continue
		}
		s.Notify(payload)
		n++
	}
	p.metrics.notified(kind, n)
	return n
}

// Len returns the number of registered subscribers.
func (p *Publisher) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}

// Subscribers returns the registered subscribers in ascending id order.
func (p *Publisher) Subscribers() []*Subscriber {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Subscriber, len(p.order))
	copy(out, p.order)
	return out
}

// Close unsubscribes every remaining subscriber, lowest id first, and
// rejects later subscriptions. Calling Close again does nothing.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	removed := 0
	for len(p.order) > 0 {
		p.removeLocked(p.order[0])
		removed++
	}
	p.log.Debug("publisher closed", zap.Int("removed", removed))
}
