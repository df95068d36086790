package bus

import "time"

// SystemTimer implements the timer half of [Transport] with the wall clock.
// Hardware transports embed it.
type SystemTimer struct {
	deadline time.Time
	running  bool

	// Now overrides time.Now when set.
	Now func() time.Time
}

func (t *SystemTimer) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// StartTimer arms the timer for ms milliseconds from now.
func (t *SystemTimer) StartTimer(ms uint32) {
	t.deadline = t.now().Add(time.Duration(ms) * time.Millisecond)
	t.running = true
}

// TimerPending reports whether the deadline is armed and still in the future.
func (t *SystemTimer) TimerPending() bool {
	return t.running && t.now().Before(t.deadline)
}

// StopTimer disarms the timer.
func (t *SystemTimer) StopTimer() {
	t.running = false
}

// TimerRunning reports whether StartTimer was called without a matching StopTimer.
func (t *SystemTimer) TimerRunning() bool {
	return t.running
}
