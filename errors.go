package observerloop

import "errors"

var (
	// ErrNilSubscriber is returned when a nil subscriber is passed to Subscribe.
	ErrNilSubscriber = errors.New("observerloop: nil subscriber")
	// ErrDuplicateSubscriber is returned when a subscriber is already registered.
	ErrDuplicateSubscriber = errors.New("observerloop: subscriber already registered")
	// ErrPublisherClosed is returned by Subscribe after Close.
	ErrPublisherClosed = errors.New("observerloop: publisher closed")
	// ErrInvalidBudget is returned by Run for a negative cycle budget.
	ErrInvalidBudget = errors.New("observerloop: cycle budget must not be negative")
	// ErrInvalidCount is returned for a negative subscriber count.
	ErrInvalidCount = errors.New("observerloop: subscriber count must not be negative")
	// ErrLoopRunning is returned when Run is called on a loop that is already running.
	ErrLoopRunning = errors.New("observerloop: loop already running")
	// ErrSessionRunning is returned when a session is modified after Run started.
	ErrSessionRunning = errors.New("observerloop: session already started")
	// ErrSessionClosed is returned when a session is used after Close.
	ErrSessionClosed = errors.New("observerloop: session closed")
)
