package observerloop

import (
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// DefaultInterval is the pause the producer takes before each value.
const DefaultInterval = time.Second

// Clock is the time source of the loop. clock.Clock from
// github.com/benbjohnson/clock satisfies it, including its mock.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// Option configures a Loop or Session.
type Option func(*settings)

type settings struct {
	clock    Clock
	interval time.Duration
	source   func() int
	out      io.Writer
	log      *zap.Logger
	metrics  *Metrics
}

func newSettings(opts []Option) *settings {
	s := &settings{
		clock:    clock.New(),
		interval: DefaultInterval,
		source:   func() int { return rand.IntN(100) },
		out:      os.Stdout,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithClock replaces the wall clock, typically with clock.NewMock().
func WithClock(c Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithInterval sets the producer's pause between values. Negative values
// are treated as zero.
func WithInterval(d time.Duration) Option {
	return func(s *settings) {
		if d < 0 {
			d = 0
		}
		s.interval = d
	}
}

// WithSource sets the payload generator. It is only ever called from the
// producer goroutine.
func WithSource(next func() int) Option {
	return func(s *settings) {
		if next != nil {
			s.source = next
		}
	}
}

// WithOutput sets the sink that receives one "Value from queue - <n>" line
// per drained value.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.out = w
		}
	}
}

// WithLogger sets the logger used for subscriber, publisher and loop lines.
func WithLogger(log *zap.Logger) Option {
	return func(s *settings) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics records pipeline activity in m.
func WithMetrics(m *Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}
