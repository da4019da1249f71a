package observerloop

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// timeline records notifications and sink lines in the order they happen.
type timeline struct {
	mu      sync.Mutex
	entries []string
}

func (tl *timeline) NotifyAll(kind EventKind, payload string) int {
	tl.add(kind.String() + " " + payload)
	return 1
}

func (tl *timeline) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimSpace(string(p)), "\n") {
		tl.add("sink " + strings.TrimPrefix(line, "Value from queue - "))
	}
	return len(p), nil
}

func (tl *timeline) add(e string) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.entries = append(tl.entries, e)
}

func (tl *timeline) snapshot() []string {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return append([]string(nil), tl.entries...)
}

func (tl *timeline) count(prefix string) int {
	n := 0
	for _, e := range tl.snapshot() {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

func indexOf(entries []string, e string) int {
	for i, x := range entries {
		if x == e {
			return i
		}
	}
	return -1
}

// gateClock lets one producer iteration through per token.
type gateClock struct {
	gate chan struct{}
}

func newGateClock() gateClock { return gateClock{gate: make(chan struct{})} }

func (g gateClock) Now() time.Time { return time.Time{} }
func (g gateClock) Sleep(time.Duration) { <-g.gate }

func counterSource() func() int {
	n := 0
	return func() int {
		n++
		return n
	}
}

func newTestLoop(tl *timeline, opts ...Option) *Loop {
	base := []Option{WithOutput(tl), WithSource(counterSource()), WithInterval(0)}
	return NewLoop(tl, append(base, opts...)...)
}

func Test_BudgetDoublesSubscriberCount(t *testing.T) {
	tests := []struct {
		produced, consumed, want int
	}{
		{0, 0, 0},
		{1, 1, 4},
		{0, 2, 4},
		{3, 2, 10},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%d", tt.produced, tt.consumed), func(t *testing.T) {
			assert.Equal(t, tt.want, Budget(tt.produced, tt.consumed))
		})
	}
}

func Test_RunRejectsNegativeBudget(t *testing.T) {
	l := newTestLoop(&timeline{})
	_, err := l.Run(-1)
	assert.ErrorIs(t, err, ErrInvalidBudget)
}

func Test_RunZeroBudget(t *testing.T) {
	tl := &timeline{}
	l := newTestLoop(tl)

	stats, err := l.Run(0)
	require.NoError(t, err)
	assert.Zero(t, stats.Produced)
	assert.Zero(t, stats.Consumed)
	assert.Zero(t, stats.DrainCycles)
	assert.Empty(t, tl.snapshot())
}

func Test_RunAnnouncesBeforeConsuming(t *testing.T) {
	tl := &timeline{}
	l := newTestLoop(tl)

	const cycles = 8
	stats, err := l.Run(cycles)
	require.NoError(t, err)

	assert.Equal(t, cycles, stats.Produced)
	assert.Equal(t, cycles, stats.Consumed)
	assert.GreaterOrEqual(t, stats.DrainCycles, 1)
	assert.LessOrEqual(t, stats.DrainCycles, cycles)

	entries := tl.snapshot()
	lastConsumed := -1
	for v := 1; v <= cycles; v++ {
		p := indexOf(entries, "produced "+strconv.Itoa(v))
		c := indexOf(entries, "consumed "+strconv.Itoa(v))
		s := indexOf(entries, "sink "+strconv.Itoa(v))
		require.True(t, p >= 0 && c >= 0 && s >= 0, "value %d missing from %v", v, entries)
		assert.Less(t, p, c, "value %d consumed before it was announced", v)
		assert.Less(t, c, s, "value %d reached the sink before its consumed notification", v)
		assert.Greater(t, c, lastConsumed, "value %d consumed out of order", v)
		lastConsumed = c
	}
}

func Test_RunGatedSingleValueDrains(t *testing.T) {
	tl := &timeline{}
	gc := newGateClock()
	l := newTestLoop(tl, WithClock(gc))

	const cycles = 6
	type result struct {
		stats Stats
		err   error
	}
	done := make(chan result, 1)
	go func() {
		stats, err := l.Run(cycles)
		done <- result{stats, err}
	}()

	for i := 1; i <= cycles; i++ {
		gc.gate <- struct{}{} // producer is parked in Sleep
		want := i
		require.Eventually(t, func() bool { return tl.count("sink ") == want },
			time.Second, time.Millisecond)
	}

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, cycles, r.stats.Produced)
		assert.Equal(t, cycles, r.stats.Consumed)
		assert.Equal(t, cycles, r.stats.DrainCycles)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the last value was consumed.")
	}
}

func Test_RunRejectsConcurrentRun(t *testing.T) {
	gc := newGateClock()
	l := newTestLoop(&timeline{}, WithClock(gc))

	done := make(chan error, 1)
	go func() {
		_, err := l.Run(1)
		done <- err
	}()
	require.Eventually(t, l.running.Load, time.Second, time.Millisecond)

	_, err := l.Run(1)
	assert.ErrorIs(t, err, ErrLoopRunning)

	gc.gate <- struct{}{}
	require.NoError(t, <-done)
}

func Test_RunWithMockClock(t *testing.T) {
	mock := clock.NewMock()
	tl := &timeline{}
	l := newTestLoop(tl, WithClock(mock), WithInterval(time.Second))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				mock.Add(time.Second)
			}
		}
	}()

	stats, err := l.Run(4)
	close(stop)
	wg.Wait()

	require.NoError(t, err)
	assert.Equal(t, 4, stats.Produced)
	assert.Equal(t, 4, stats.Consumed)
	assert.False(t, stats.Finished.Before(stats.Started))
	assert.NotEqual(t, stats.RunID.String(), "00000000-0000-0000-0000-000000000000")
}

func Test_RunRecordsMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	gc := newGateClock()
	tl := &timeline{}
	l := newTestLoop(tl, WithClock(gc), WithMetrics(m))

	done := make(chan error, 1)
	go func() {
		_, err := l.Run(3)
		done <- err
	}()
	for i := 1; i <= 3; i++ {
		gc.gate <- struct{}{}
		want := i
		require.Eventually(t, func() bool { return tl.count("sink ") == want },
			time.Second, time.Millisecond)
	}
	require.NoError(t, <-done)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Produced))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Consumed))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DrainCycles))
}

func Test_DrainTakesWholeQueueInOrder(t *testing.T) {
	tl := &timeline{}
	l := newTestLoop(tl)

	l.push(4)
	l.push(5)
	l.push(6)
	batch := l.drain()

	assert.Equal(t, []int{4, 5, 6}, batch)
	assert.Equal(t, []string{
		"produced 4", "produced 5", "produced 6",
		"consumed 4", "consumed 5", "consumed 6",
	}, tl.snapshot())
	assert.Empty(t, l.pending)
}

func Test_DrainIgnoresSpuriousWakeups(t *testing.T) {
	l := newTestLoop(&timeline{})

	got := make(chan []int, 1)
	go func() { got <- l.drain() }()

	require.Never(t, func() bool {
		l.mu.Lock()
		l.ready.Broadcast()
		l.mu.Unlock()
		return len(got) > 0
	}, 50*time.Millisecond, 5*time.Millisecond)

	l.push(9)
	select {
	case batch := <-got:
		assert.Equal(t, []int{9}, batch)
	case <-time.After(time.Second):
		t.Fatal("drain did not wake up after push.")
	}
}

func Test_DrainReturnsNilOnceProducerFinished(t *testing.T) {
	l := newTestLoop(&timeline{})

	got := make(chan []int, 1)
	go func() { got <- l.drain() }()

	l.mu.Lock()
	l.producerDone = true
	l.ready.Signal()
	l.mu.Unlock()

	select {
	case batch := <-got:
		assert.Nil(t, batch)
	case <-time.After(time.Second):
		t.Fatal("drain kept waiting after the producer finished.")
	}
}

func Test_AnnouncedPayloadUsesEventText(t *testing.T) {
	tl := &timeline{}
	l := newTestLoop(tl)

	l.push(-7)
	l.push(0)
	require.Equal(t, []int{-7, 0}, l.drain())

	want := []string{
		"produced " + Event{Kind: EventProduced, Payload: -7}.Text(),
		"produced " + Event{Kind: EventProduced, Payload: 0}.Text(),
		"consumed " + Event{Kind: EventConsumed, Payload: -7}.Text(),
		"consumed " + Event{Kind: EventConsumed, Payload: 0}.Text(),
	}
	assert.Equal(t, want, tl.snapshot())
	assert.Equal(t, "produced -7", want[0])
}
