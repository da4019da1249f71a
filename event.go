package observerloop

import "strconv"

// EventKind classifies which subscriber group reacts to an event.
type EventKind int

const (
	// EventProduced is announced by the producer for every value it queues.
	EventProduced EventKind = iota
	// EventConsumed is announced by the consumer for every value it drains.
	EventConsumed
)

// String returns the lower-case name of the kind.
func (k EventKind) String() string {
	switch k {
	case EventProduced:
		return "produced"
	case EventConsumed:
		return "consumed"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Event is a transient message handed to NotifyAll. It is never stored.
type Event struct {
	Kind    EventKind
	Payload int
}

// Text renders the payload the way subscribers receive it.
func (e Event) Text() string {
	return strconv.Itoa(e.Payload)
}
