package observerloop

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier fans an event out to the subscribers interested in kind and
// reports how many were reached. *Publisher implements it.
type Notifier interface {
	NotifyAll(kind EventKind, payload string) int
}

// Budget returns the cycle budget for the given subscriber counts.
func Budget(produced, consumed int) int {
	return 2 * (produced + consumed)
}

// Stats summarizes one Run.
type Stats struct {
	RunID       uuid.UUID
	Cycles      int
	Produced    int
	Consumed    int
	DrainCycles int
	Started     time.Time
	Finished    time.Time
}

// Loop is a single-producer, single-consumer queue. The producer runs on its
// own goroutine; the consumer runs on the goroutine that calls Run.
type Loop struct {
	notifier Notifier
	clock    Clock
	interval time.Duration
	source   func() int
	out      io.Writer
	log      *zap.Logger
	metrics  *Metrics

	running atomic.Bool

	// mu guards pending and producerDone.
	mu           sync.Mutex
	ready        *sync.Cond
	pending      []int
	producerDone bool
}

// NewLoop creates a loop announcing its events through n.
func NewLoop(n Notifier, opts ...Option) *Loop {
	return newLoop(n, newSettings(opts))
}

func newLoop(n Notifier, s *settings) *Loop {
	l := &Loop{
		notifier: n,
		clock:    s.clock,
		interval: s.interval,
		source:   s.source,
		out:      s.out,
		log:      s.log,
		metrics:  s.metrics,
	}
	l.ready = sync.NewCond(&l.mu)
	return l
}

// Run produces and consumes cycles values and returns once both sides are
// done. Producer and consumer each count down their own copy of cycles.
func (l *Loop) Run(cycles int) (Stats, error) {
	if cycles < 0 {
		return Stats{}, fmt.Errorf("%w: %d", ErrInvalidBudget, cycles)
	}
	if !l.running.CompareAndSwap(false, true) {
		return Stats{}, ErrLoopRunning
	}
	defer l.running.Store(false)

	l.mu.Lock()
	l.pending = nil
	l.producerDone = false
	l.mu.Unlock()

	stats := Stats{
		RunID:   uuid.New(),
		Cycles:  cycles,
		Started: l.clock.Now(),
	}
	log := l.log.With(zap.Stringer("run", stats.RunID))
	log.Debug("loop started", zap.Int("cycles", cycles), zap.Duration("interval", l.interval))

	var produced int
	done := make(chan struct{})
	go func() {
		defer close(done)
		produced = l.produce(cycles)
	}()

	stats.Consumed, stats.DrainCycles = l.consume(cycles, log)
	<-done

	stats.Produced = produced
	stats.Finished = l.clock.Now()
	log.Debug("loop finished",
		zap.Int("produced", stats.Produced),
		zap.Int("consumed", stats.Consumed),
		zap.Int("drainCycles", stats.DrainCycles))
	return stats, nil
}

func (l *Loop) produce(cycles int) int {
	n := 0
	for remaining := cycles; remaining > 0; remaining-- {
		l.clock.Sleep(l.interval)
		l.push(l.source())
		n++
	}

	l.mu.Lock()
	l.producerDone = true
	l.ready.Signal()
	l.mu.Unlock()
	return n
}

// push queues v and announces it before the consumer can see it.
func (l *Loop) push(v int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pending = append(l.pending, v)
	l.announce(Event{Kind: EventProduced, Payload: v})
	l.metrics.produced()
	l.ready.Signal()
}

// announce must be called with mu held.
func (l *Loop) announce(e Event) {
	l.notifier.NotifyAll(e.Kind, e.Text())
}

func (l *Loop) consume(cycles int, log *zap.Logger) (consumed, drains int) {
	for remaining := cycles; remaining > 0; remaining-- {
		batch := l.drain()
		if batch == nil {
			log.Debug("producer finished before consumer budget", zap.Int("remaining", remaining))
			break
		}
		for _, v := range batch {
			fmt.Fprintf(l.out, "Value from queue - %d\n", v)
		}
		consumed += len(batch)
		drains++
	}
	return consumed, drains
}

// drain waits until a value is queued or the producer has finished, then
// takes the whole queue, announcing each value in order. It returns nil only
// when the producer finished and the queue is empty.
func (l *Loop) drain() []int {
	l.mu.Lock()
	defer l.mu.Unlock()

	for len(l.pending) == 0 && !l.producerDone {
		l.ready.Wait()
	}
	if len(l.pending) == 0 {
		return nil
	}

	batch := l.pending
	l.pending = nil
	for _, v := range batch {
		l.announce(Event{Kind: EventConsumed, Payload: v})
	}
	l.metrics.drained(len(batch))
	return batch
}
