package debounce_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notehub/pkg/debounce"
)

// fakeClock срабатывает таймеры синхронно внутри Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) debounce.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) emit(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

const window = 300 * time.Millisecond

func newDebouncer(clock *fakeClock, rec *recorder) *debounce.Debouncer[string] {
	return debounce.New(window, rec.emit, debounce.WithAfterFunc(clock.AfterFunc))
}

func TestDebouncerCoalescesBurst(t *testing.T) {
	clock := &fakeClock{}
	rec := &recorder{}
	d := newDebouncer(clock, rec)

	for _, v := range []string{"m", "me", "meeting", "meeting notes"} {
		d.Push(v)
		clock.Advance(100 * time.Millisecond)
	}
	assert.Empty(t, rec.got(), "nothing is emitted inside the window")
	assert.True(t, d.Pending())

	clock.Advance(window)
	assert.Equal(t, []string{"meeting notes"}, rec.got())
	assert.False(t, d.Pending())

	clock.Advance(10 * window)
	assert.Equal(t, []string{"meeting notes"}, rec.got(), "value is emitted exactly once")
}

func TestDebouncerEmitsEachSettledValue(t *testing.T) {
	clock := &fakeClock{}
	rec := &recorder{}
	d := newDebouncer(clock, rec)

	d.Push("first")
	clock.Advance(window)
	d.Push("second")
	clock.Advance(window)

	assert.Equal(t, []string{"first", "second"}, rec.got())
}

func TestDebouncerWaitsFullWindow(t *testing.T) {
	clock := &fakeClock{}
	rec := &recorder{}
	d := newDebouncer(clock, rec)

	d.Push("x")
	clock.Advance(window - time.Millisecond)
	assert.Empty(t, rec.got())

	clock.Advance(time.Millisecond)
	assert.Equal(t, []string{"x"}, rec.got())
}

func TestDebouncerDisposeDiscardsPending(t *testing.T) {
	clock := &fakeClock{}
	rec := &recorder{}
	d := newDebouncer(clock, rec)

	d.Push("meeting")
	clock.Advance(100 * time.Millisecond)
	d.Dispose()
	assert.False(t, d.Pending())

	clock.Advance(10 * window)
	assert.Empty(t, rec.got())

	d.Push("after dispose")
	clock.Advance(10 * window)
	assert.Empty(t, rec.got(), "Push after Dispose is ignored")
}

func TestDebouncerStaleTimerIsIgnored(t *testing.T) {
	clock := &fakeClock{}
	rec := &recorder{}

	var captured []func()
	// Таймеры, которые невозможно остановить: эмулируют гонку Stop с уже запущенным колбэком.
	unstoppable := func(_ time.Duration, f func()) debounce.Timer {
		captured = append(captured, f)
		return clock.AfterFunc(time.Hour, func() {})
	}
	d := debounce.New(window, rec.emit, debounce.WithAfterFunc(unstoppable))

	d.Push("old")
	d.Push("new")
	require.Len(t, captured, 2)

	captured[0]()
	assert.Empty(t, rec.got(), "callback of a superseded timer must not emit")

	captured[1]()
	assert.Equal(t, []string{"new"}, rec.got())
}

func TestDebouncerRealTimer(t *testing.T) {
	rec := &recorder{}
	d := debounce.New(20*time.Millisecond, rec.emit)
	defer d.Dispose()

	d.Push("a")
	d.Push("ab")

	require.Eventually(t, func() bool { return len(rec.got()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"ab"}, rec.got())
}
