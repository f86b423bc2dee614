// Package interval implements the monotonic tick source shared by the
// collection engine and the target poller.
package interval

import (
	"sync"
	"sync/atomic"
	"time"
)

// Timer emits one value on C per elapsed period, with no catch-up: if the
// consumer is slow to drain a tick, the next tick still waits a full period
// after the slow tick was taken off the channel. Stop is safe to call from
// any goroutine, any number of times.
type Timer struct {
	C    <-chan time.Time
	done chan struct{}
	once sync.Once

	stopped atomic.Bool
	period  time.Duration
}

// New starts a Timer ticking at period and returns it alongside a
// StopHandle that can cancel it from any goroutine. Dropping all references
// to the returned Timer without calling Stop leaks its goroutine; callers
// must always eventually Stop it.
func New(period time.Duration) (*Timer, *StopHandle) {
	c := make(chan time.Time)
	t := &Timer{
		C:      c,
		done:   make(chan struct{}),
		period: period,
	}
	go t.run(c)
	return t, &StopHandle{t: t}
}

func (t *Timer) run(c chan<- time.Time) {
	defer close(c)
	for {
		timer := time.NewTimer(t.period)
		select {
		case <-t.done:
			timer.Stop()
			return
		case now := <-timer.C:
			select {
			case c <- now:
			case <-t.done:
				return
			}
		}
	}
}

// Stop cancels the timer and closes C, waking any blocked receive on C.
// Idempotent.
func (t *Timer) Stop() {
	t.once.Do(func() {
		t.stopped.Store(true)
		close(t.done)
	})
}

// Stopped reports whether Stop has been called.
func (t *Timer) Stopped() bool { return t.stopped.Load() }

// StopHandle is a clonable capability to stop a Timer. Multiple handles may
// exist for one Timer (e.g. held by the shutdown listener and by the owning
// worker); all refer to the same underlying Timer.
type StopHandle struct {
	t *Timer
}

// Stop cancels the underlying Timer. Idempotent and safe for concurrent use.
func (h *StopHandle) Stop() { h.t.Stop() }

// Clone returns an independent StopHandle for the same Timer.
func (h *StopHandle) Clone() *StopHandle { return &StopHandle{t: h.t} }
