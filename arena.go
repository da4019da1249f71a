package observerloop

import (
	"sync"

	"go.uber.org/zap"
)

// Arena owns every subscriber created for a run. The publisher only borrows
// them; Release drops the arena's references once the publisher has been
// torn down and the producer has stopped.
type Arena struct {
	mu       sync.Mutex
	ids      IDAllocator
	log      *zap.Logger
	subs     []*Subscriber
	released bool
}

// NewArena creates an empty arena whose subscribers log to log.
func NewArena(log *zap.Logger) *Arena {
	if log == nil {
		log = zap.NewNop()
	}
	return &Arena{log: log}
}

// NewProducedListener creates and retains a produced-interest subscriber.
func (a *Arena) NewProducedListener() *Subscriber {
	return a.add(NewProducedListener(&a.ids, a.log))
}

// NewConsumedListener creates and retains a consumed-interest subscriber.
func (a *Arena) NewConsumedListener() *Subscriber {
	return a.add(NewConsumedListener(&a.ids, a.log))
}

func (a *Arena) add(s *Subscriber) *Subscriber {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subs = append(a.subs, s)
	return s
}

// Subscribers returns the owned subscribers in creation order.
func (a *Arena) Subscribers() []*Subscriber {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Subscriber, len(a.subs))
	copy(out, a.subs)
	return out
}

// Len returns how many subscribers the arena currently owns.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.subs)
}

// Release drops every owned subscriber. It is safe to call more than once.
func (a *Arena) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return
	}
	a.log.Debug("arena released", zap.Int("subscribers", len(a.subs)))
	a.subs = nil
	a.released = true
}
