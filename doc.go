/*
Package observerloop implements a bounded single-producer / single-consumer
event loop whose values are fanned out to type-filtered subscribers.

One goroutine produces timed integer values; the goroutine calling Run drains
them under a mutex and condition variable. A Publisher notifies subscribers
from both sides without ever handing them the producer's queue.

# Key Features

  - Typed Interest: Each Subscriber listens to exactly one EventKind
    (EventProduced or EventConsumed) and is never notified for the other.

  - Synchronous Fan-out: NotifyAll calls every interested subscriber, in
    ascending id order, on the calling goroutine before it returns.

  - Announce Before Visible: The producer appends and announces a value in
    the same critical section, so the consumer can never drain a value whose
    "produced" notification has not completed.

  - Batch Draining: The consumer takes the whole queue per wake-up, announces
    each value in FIFO order under the lock, and writes the batch to the
    output sink after releasing it.

  - Bounded Run: Producer and consumer each count down their own copy of the
    cycle budget, 2 x (produced + consumed subscribers).

  - Owned Teardown: Subscribers live in an Arena. Publisher.Close unsubscribes
    every member exactly once, lowest id first, and the arena is released
    afterwards.

# Usage Examples

# Running a Session

A Session wires the arena, the publisher and the loop together.

	log, _ := zap.NewDevelopment()

	s := observerloop.NewSession(
		observerloop.WithLogger(log),
		observerloop.WithInterval(time.Second),
	)
	defer s.Close() // Logs "subscriber[n] unsubscribed" for everyone.

	// One produced listener, one consumed listener: budget 4.
	if err := s.Populate(1, 1); err != nil {
		// Handle error
	}

	stats, err := s.Run()
	if err != nil {
		// Handle error
	}
	fmt.Println(stats.Produced, stats.Consumed)

The one-shot helper does the same:

	stats, err := observerloop.Run(1, 1, observerloop.WithLogger(log))

# Using the Publisher Directly

	var ids observerloop.IDAllocator
	pub := observerloop.NewPublisher(log, nil)
	defer pub.Close()

	a := observerloop.NewProducedListener(&ids, log)
	b := observerloop.NewConsumedListener(&ids, log)
	pub.Subscribe(a) // "subscriber[0] subscribed"
	pub.Subscribe(b) // "subscriber[1] subscribed"

	// Only b hears this: "subscriber[1] data consumed: 42"
	pub.NotifyAll(observerloop.EventConsumed, "42")

	// Registering a subscriber twice is rejected.
	if err := pub.Subscribe(a); errors.Is(err, observerloop.ErrDuplicateSubscriber) {
		// Already registered
	}

# Testing with a Mock Clock

The producer's pause goes through a Clock, so tests can drive it with
github.com/benbjohnson/clock:

	mock := clock.NewMock()
	l := observerloop.NewLoop(pub, observerloop.WithClock(mock))
	go func() {
		for {
			mock.Add(time.Second)
		}
	}()
	stats, _ := l.Run(4)

# Concurrency

The registry may only change before Run and after it returns; Session
enforces this. NotifyAll takes the registry's read lock, so the producer and
consumer may notify concurrently.
*/
package observerloop
