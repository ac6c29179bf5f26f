package mines

import "time"

// Timer is the round stopwatch. The engine never ticks it; the round
// controller starts it on the first reveal and stops it when the round ends.
type Timer struct {
	now     func() time.Time
	started time.Time
	elapsed time.Duration
	running bool
}

func NewTimer(now func() time.Time) *Timer {
	if now == nil {
		now = time.Now
	}
	return &Timer{now: now}
}

func (t *Timer) Start() {
	if t.running {
		return
	}
	t.started = t.now()
	t.running = true
}

func (t *Timer) Stop() {
	if !t.running {
		return
	}
	t.elapsed += t.now().Sub(t.started)
	t.running = false
}

func (t *Timer) Reset() {
	t.elapsed = 0
	t.running = false
}

func (t *Timer) Running() bool {
	return t.running
}

func (t *Timer) Elapsed() time.Duration {
	if t.running {
		return t.elapsed + t.now().Sub(t.started)
	}
	return t.elapsed
}
