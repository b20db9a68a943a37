package noise

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func alwaysArmed(threshold float64) *Monitor {
	return New(Config{ThresholdDB: threshold, NightStart: 22, NightEnd: 7, AlwaysArmed: true}, zerolog.Nop())
}

func TestSingleEventPerRisingEdge(t *testing.T) {
	m := alwaysArmed(90)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.Local)

	levels := []float64{40, 40, 95, 95, 40}
	count := 0
	for i, db := range levels {
		if _, ok := m.Evaluate(db, now.Add(time.Duration(i)*time.Second)); ok {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly 1 event, got %d", count)
	}

	// A second crossing after the reset produces a second event.
	if _, ok := m.Evaluate(96, now.Add(time.Minute)); !ok {
		t.Error("expected event on second rising edge")
	}
	if got := len(m.Events()); got != 2 {
		t.Errorf("event log: got %d entries, want 2", got)
	}
}

func TestDisarmedEmitsNothing(t *testing.T) {
	m := New(Config{ThresholdDB: 65, NightStart: 22, NightEnd: 7}, zerolog.Nop())
	noon := time.Date(2026, 6, 1, 12, 0, 0, 0, time.Local)

	for i := 0; i < 10; i++ {
		if _, ok := m.Evaluate(120, noon.Add(time.Duration(i)*time.Second)); ok {
			t.Fatal("disarmed monitor emitted an event")
		}
	}
}

func TestNightWatchArming(t *testing.T) {
	m := New(Config{ThresholdDB: 65, NightStart: 22, NightEnd: 7, NightReduction: 10}, zerolog.Nop())

	night := time.Date(2026, 6, 1, 23, 30, 0, 0, time.Local)
	if !m.Armed(night) {
		t.Fatal("expected armed at 23:30")
	}
	ev, ok := m.Evaluate(58, night)
	if !ok {
		t.Fatal("expected event: night reduction lowers threshold to 55")
	}
	if ev.Kind != "night_watch" {
		t.Errorf("kind: got %q, want night_watch", ev.Kind)
	}
	if ev.Threshold != 55 {
		t.Errorf("threshold: got %v, want 55", ev.Threshold)
	}

	morning := time.Date(2026, 6, 1, 6, 59, 0, 0, time.Local)
	if !m.Armed(morning) {
		t.Error("expected armed at 06:59")
	}
	day := time.Date(2026, 6, 1, 7, 0, 0, 0, time.Local)
	if m.Armed(day) {
		t.Error("expected disarmed at 07:00")
	}
}

func TestThresholdClamp(t *testing.T) {
	low := New(Config{ThresholdDB: 5, AlwaysArmed: true}, zerolog.Nop())
	if low.cfg.ThresholdDB != 30 {
		t.Errorf("low clamp: got %v, want 30", low.cfg.ThresholdDB)
	}
	high := New(Config{ThresholdDB: 500, AlwaysArmed: true}, zerolog.Nop())
	if high.cfg.ThresholdDB != 130 {
		t.Errorf("high clamp: got %v, want 130", high.cfg.ThresholdDB)
	}
}

func TestEventLogCap(t *testing.T) {
	m := alwaysArmed(50)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.Local)
	for i := 0; i < 150; i++ {
		m.Evaluate(80, now) // rising
		m.Evaluate(20, now) // reset
	}
	if got := len(m.Events()); got != 100 {
		t.Errorf("event log cap: got %d, want 100", got)
	}
}
