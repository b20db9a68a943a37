// Package noise detects noise events from the dB SPL channel with a
// configurable night watch arming window.
package noise

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	minThresholdDB = 30
	maxThresholdDB = 130
	maxEvents      = 100
)

// Config controls event detection.
type Config struct {
	ThresholdDB    float64 // trigger level, clamped to [30,130]
	NightStart     int     // hour the night watch window opens (local time)
	NightEnd       int     // hour the night watch window closes
	NightReduction float64 // dB subtracted from the threshold at night
	AlwaysArmed    bool    // detect around the clock, not only at night
}

// DefaultConfig mirrors the deployed device settings: 65 dB threshold,
// night watch 22:00-07:00 with a 10 dB reduction.
func DefaultConfig() Config {
	return Config{
		ThresholdDB:    65,
		NightStart:     22,
		NightEnd:       7,
		NightReduction: 10,
	}
}

// Event is one threshold crossing.
type Event struct {
	Time      time.Time `json:"timestamp"`
	DB        float64   `json:"db"`
	Threshold float64   `json:"threshold"`
	Kind      string    `json:"type"` // "night_watch" or "daytime"
}

// Monitor emits at most one Event per rising edge above the threshold
// while armed. It does not re-emit while the level stays high; the edge
// state resets once the level falls back below the threshold.
type Monitor struct {
	cfg    Config
	above  bool
	events []Event
	log    zerolog.Logger
}

// New builds a monitor, clamping the threshold into its valid range.
func New(cfg Config, log zerolog.Logger) *Monitor {
	if cfg.ThresholdDB < minThresholdDB {
		cfg.ThresholdDB = minThresholdDB
	}
	if cfg.ThresholdDB > maxThresholdDB {
		cfg.ThresholdDB = maxThresholdDB
	}
	return &Monitor{cfg: cfg, log: log}
}

// Night reports whether now falls inside the night watch window.
func (m *Monitor) Night(now time.Time) bool {
	h := now.Hour()
	if m.cfg.NightStart <= m.cfg.NightEnd {
		return h >= m.cfg.NightStart && h < m.cfg.NightEnd
	}
	return h >= m.cfg.NightStart || h < m.cfg.NightEnd
}

// Armed reports whether events may be emitted at the given time.
func (m *Monitor) Armed(now time.Time) bool {
	return m.cfg.AlwaysArmed || m.Night(now)
}

func (m *Monitor) threshold(now time.Time) float64 {
	t := m.cfg.ThresholdDB
	if m.Night(now) {
		t -= m.cfg.NightReduction
	}
	return t
}

// Evaluate feeds one dB reading into the detector. It returns the emitted
// event, if any.
func (m *Monitor) Evaluate(db float64, now time.Time) (Event, bool) {
	thr := m.threshold(now)
	rising := db >= thr && !m.above
	m.above = db >= thr

	if !rising || !m.Armed(now) {
		return Event{}, false
	}

	kind := "daytime"
	if m.Night(now) {
		kind = "night_watch"
	}
	ev := Event{Time: now, DB: db, Threshold: thr, Kind: kind}

	m.events = append(m.events, ev)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}

	m.log.Info().
		Float64("db", db).
		Float64("threshold", thr).
		Str("type", kind).
		Msg("noise event")
	return ev, true
}

// Events returns a copy of the retained event log, newest last.
func (m *Monitor) Events() []Event {
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
