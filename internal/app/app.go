// Package app runs the station's main loop: collect, record, display,
// publish and persist, all from a single goroutine on per-cadence
// timers.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/farcomiot/enviropi/internal/channel"
	"github.com/farcomiot/enviropi/internal/display"
	"github.com/farcomiot/enviropi/internal/history"
	"github.com/farcomiot/enviropi/internal/noise"
	"github.com/farcomiot/enviropi/internal/sensor"
	"github.com/farcomiot/enviropi/internal/store"
)

const (
	// LoopInterval is the poll tick. Short enough that the proximity
	// sensor catches a hand wave.
	LoopInterval = 150 * time.Millisecond
	// HistoryInterval is the retained summary cadence.
	HistoryInterval = 15 * time.Minute
	// DefaultPublishInterval spaces the MQTT payloads.
	DefaultPublishInterval = 2 * time.Second

	statusInterval = time.Minute
	maxEvents      = 100
)

// Broker is the publishing surface the loop needs.
type Broker interface {
	PublishSnapshot(snap sensor.Snapshot, uptimeStart int64) error
	PublishHistory(summary map[channel.Channel]store.Stats, rows int, windowStart, now time.Time) error
	Connected() bool
}

// Config wires the loop's collaborators.
type Config struct {
	Aggregator      *sensor.Aggregator
	Proximity       sensor.ProximitySource
	Renderer        *display.Renderer
	History         *history.Store
	Noise           *noise.Monitor
	Store           *store.Store
	Broker          Broker
	PublishInterval time.Duration
	Start           time.Time
}

// App owns the main loop state. Only Run touches the collaborators; the
// snapshot and event accessors are safe from other goroutines and back
// the HTTP API.
type App struct {
	agg      *sensor.Aggregator
	prox     sensor.ProximitySource
	ctrl     *display.Controller
	renderer *display.Renderer
	hist     *history.Store
	noise    *noise.Monitor
	db       *store.Store
	broker   Broker
	log      zerolog.Logger

	publishDue cadence
	historyDue cadence
	statusDue  cadence

	start time.Time

	mu       sync.RWMutex
	lastSnap sensor.Snapshot
	hasSnap  bool
	events   []noise.Event
}

// New builds the loop. The history cadence is seeded with the start time
// so the first retained summary covers a full window.
func New(cfg Config, log zerolog.Logger) *App {
	if cfg.PublishInterval <= 0 {
		cfg.PublishInterval = DefaultPublishInterval
	}
	if cfg.Proximity == nil {
		cfg.Proximity = sensor.NoProximity
	}
	return &App{
		agg:        cfg.Aggregator,
		prox:       cfg.Proximity,
		ctrl:       display.NewController(cfg.Start, log),
		renderer:   cfg.Renderer,
		hist:       cfg.History,
		noise:      cfg.Noise,
		db:         cfg.Store,
		broker:     cfg.Broker,
		log:        log,
		publishDue: cadence{every: cfg.PublishInterval},
		historyDue: cadence{every: HistoryInterval, last: cfg.Start},
		statusDue:  cadence{every: statusInterval, last: cfg.Start},
		start:      cfg.Start,
	}
}

// Run drives the loop until the context is cancelled, then flushes the
// store and draws the farewell frame.
func (a *App) Run(ctx context.Context) error {
	a.log.Info().
		Dur("publish_interval", a.publishDue.every).
		Msg("main loop started")

	ticker := time.NewTicker(LoopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return a.shutdown()
		case now := <-ticker.C:
			a.step(now)
		}
	}
}

func (a *App) step(now time.Time) {
	if raw, err := a.prox.Proximity(); err == nil {
		a.ctrl.HandleProximity(raw, now)
	} else {
		a.log.Debug().Err(err).Msg("proximity read failed")
	}

	snap := a.agg.Collect(now)

	a.mu.Lock()
	a.lastSnap = snap
	a.hasSnap = true
	a.mu.Unlock()

	for _, c := range channel.All() {
		a.hist.Record(c, snap.Value(c), now)
	}

	if ev, fired := a.noise.Evaluate(snap.Value(channel.Noise), now); fired {
		a.mu.Lock()
		a.events = append(a.events, ev)
		if len(a.events) > maxEvents {
			a.events = a.events[len(a.events)-maxEvents:]
		}
		a.mu.Unlock()
	}

	a.db.Append(snap, now)

	if a.publishDue.due(now) {
		if err := a.broker.PublishSnapshot(snap, a.start.Unix()); err != nil {
			a.log.Warn().Err(err).Msg("publish failed")
		}
		if err := a.db.InsertRaw(snap, now); err != nil {
			a.log.Warn().Err(err).Msg("raw insert failed")
		}

		windowStart := a.historyDue.last
		if a.historyDue.due(now) {
			a.publishHistory(windowStart, now)
		}
	}

	if a.ctrl.InSplash(now) {
		a.renderer.Splash(now)
	} else {
		a.renderer.Render(a.ctrl.Current(now), snap, now)
	}

	if a.statusDue.due(now) {
		a.log.Info().
			Str("screen", a.ctrl.Current(now).String()).
			Bool("mqtt", a.broker.Connected()).
			Float64("temperature", snap.Value(channel.Temperature)).
			Float64("noise", snap.Value(channel.Noise)).
			Msg("status")
	}
}

func (a *App) publishHistory(windowStart, now time.Time) {
	summary, err := a.db.Summary(windowStart, now)
	if err != nil {
		a.log.Warn().Err(err).Msg("history summary failed")
		return
	}
	rows, err := a.db.RowCount()
	if err != nil {
		a.log.Warn().Err(err).Msg("row count failed")
		return
	}
	if err := a.broker.PublishHistory(summary, rows, windowStart, now); err != nil {
		a.log.Warn().Err(err).Msg("history publish failed")
	}
}

func (a *App) shutdown() error {
	if err := a.db.Flush(time.Now()); err != nil {
		a.log.Warn().Err(err).Msg("final flush failed")
	}
	a.renderer.Farewell()
	a.log.Info().Msg("main loop stopped")
	return nil
}

// LatestSnapshot returns the most recent snapshot, if any tick has run.
func (a *App) LatestSnapshot() (sensor.Snapshot, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastSnap, a.hasSnap
}

// NoiseEvents returns the emitted noise events, oldest first.
func (a *App) NoiseEvents() []noise.Event {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]noise.Event, len(a.events))
	copy(out, a.events)
	return out
}

// History returns the retained one-minute buckets for a channel.
func (a *App) History(c channel.Channel, from, to time.Time) ([]store.Bucket, error) {
	return a.db.Query(c, from, to)
}
