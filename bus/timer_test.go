package bus

import (
	"testing"
	"time"
)

func TestSystemTimer(t *testing.T) {
	now := time.Unix(0, 0)
	timer := &SystemTimer{Now: func() time.Time { return now }}

	if timer.TimerPending() {
		t.Fatal("TimerPending() = true before StartTimer")
	}

	timer.StartTimer(5)
	if !timer.TimerRunning() {
		t.Fatal("TimerRunning() = false after StartTimer")
	}

	tests := []struct {
		advance time.Duration
		pending bool
	}{
		{0, true},
		{4 * time.Millisecond, true},
		{999 * time.Microsecond, true},
		{time.Microsecond, false},
		{time.Second, false},
	}
	for _, tt := range tests {
		now = now.Add(tt.advance)
		if got := timer.TimerPending(); got != tt.pending {
			t.Errorf("after +%v TimerPending() = %v, want %v", tt.advance, got, tt.pending)
		}
	}

	timer.StopTimer()
	if timer.TimerRunning() {
		t.Error("TimerRunning() = true after StopTimer")
	}
}

func TestSystemTimer_StopDisarms(t *testing.T) {
	timer := &SystemTimer{}
	timer.StartTimer(1000)
	timer.StopTimer()
	if timer.TimerPending() {
		t.Error("TimerPending() = true after StopTimer")
	}
}

func TestSpeed_String(t *testing.T) {
	tests := []struct {
		speed Speed
		want  string
	}{
		{SpeedLow, "low"},
		{SpeedHigh, "high"},
		{Speed(7), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.speed.String(); got != tt.want {
			t.Errorf("Speed.String() = %v, want %v", got, tt.want)
		}
	}
}
