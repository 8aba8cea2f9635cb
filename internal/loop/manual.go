package loop

import (
	"sort"
	"time"
)

// Manual is a deterministic Runner for tests and one-shot commands. Post and Go run
// inline; timers only fire when the caller says so.
type Manual struct {
	timers []*ManualTimer
	seq    int
}

// NewManual creates an empty manual runner.
func NewManual() *Manual {
	return &Manual{}
}

// ManualTimer is a timer scheduled on a Manual runner.
type ManualTimer struct {
	Delay   time.Duration
	fn      func()
	seq     int
	stopped bool
	fired   bool
}

func (t *ManualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Active reports whether the timer is still waiting to fire.
func (t *ManualTimer) Active() bool {
	return !t.stopped && !t.fired
}

// Fire runs the timer's callback if it is still active.
func (t *ManualTimer) Fire() {
	if !t.Active() {
		return
	}
	t.fired = true
	t.fn()
}

func (m *Manual) Post(fn func()) { fn() }

func (m *Manual) Go(fn func()) { fn() }

func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.seq++
	t := &ManualTimer{Delay: d, fn: fn, seq: m.seq}
	m.timers = append(m.timers, t)
	return t
}

// Pending returns the active timers, shortest delay first, then in scheduling order.
func (m *Manual) Pending() []*ManualTimer {
	var out []*ManualTimer
	for _, t := range m.timers {
		if t.Active() {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Delay != out[j].Delay {
			return out[i].Delay < out[j].Delay
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// FireNext fires the first pending timer. It reports false when nothing is pending.
func (m *Manual) FireNext() bool {
	pending := m.Pending()
	if len(pending) == 0 {
		return false
	}
	pending[0].Fire()
	return true
}
