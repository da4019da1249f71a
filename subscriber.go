package observerloop

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// IDAllocator hands out subscriber ids. Ids start at 0 and are never reused
// by the same allocator. The zero value is ready to use and safe for
// concurrent use.
type IDAllocator struct {
	next atomic.Uint64
}

// Next returns a fresh id.
func (a *IDAllocator) Next() uint64 {
	return a.next.Add(1) - 1
}

// Subscriber is a passive listener interested in exactly one EventKind.
// The two variants (produced listener, consumed listener) differ only in
// their interest; Notify picks the label from it.
type Subscriber struct {
	id       uint64
	interest EventKind
	log      *zap.Logger
}

// NewProducedListener creates a subscriber interested in EventProduced.
func NewProducedListener(ids *IDAllocator, log *zap.Logger) *Subscriber {
	return newSubscriber(ids, EventProduced, log)
}

// NewConsumedListener creates a subscriber interested in EventConsumed.
func NewConsumedListener(ids *IDAllocator, log *zap.Logger) *Subscriber {
	return newSubscriber(ids, EventConsumed, log)
}

func newSubscriber(ids *IDAllocator, interest EventKind, log *zap.Logger) *Subscriber {
	if log == nil {
		log = zap.NewNop()
	}
	return &Subscriber{
		id:       ids.Next(),
		interest: interest,
		log:      log,
	}
}

// ID returns the unique id assigned at construction.
func (s *Subscriber) ID() uint64 { return s.id }

// Interest returns the event kind this subscriber listens to.
func (s *Subscriber) Interest() EventKind { return s.interest }

// String returns the identity used in every log line, e.g. "subscriber[3]".
func (s *Subscriber) String() string {
	return fmt.Sprintf("subscriber[%d]", s.id)
}

// Notify logs one notification line for payload.
func (s *Subscriber) Notify(payload string) {
	var label string
	switch s.interest {
	case EventProduced:
		label = "data produced"
	case EventConsumed:
		label = "data consumed"
	default:
		label = "data " + s.interest.String()
	}
	s.log.Info(s.String() + " " + label + ": " + payload)
}
