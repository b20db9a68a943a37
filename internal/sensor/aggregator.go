package sensor

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/farcomiot/enviropi/internal/channel"
)

// PMReadInterval is the minimum spacing between PMS5003 UART reads.
// Between reads the Aggregator serves the cached fractions so the display
// refresh loop never stalls on the serial line.
const PMReadInterval = 2 * time.Second

// Aggregator polls every channel source and assembles immutable
// snapshots. A failed read keeps the channel's previous value and marks
// it stale; a single channel fault never fails the whole snapshot.
type Aggregator struct {
	sources map[channel.Channel]Source
	pm      ParticulateSource

	pmInterval time.Duration
	pmLast     time.Time
	pmCached   [3]float64
	pmStale    bool
	pmUpdated  time.Time

	prev [channel.Count]Reading
	log  zerolog.Logger
}

// NewAggregator builds an aggregator over per-channel sources and one
// particulate source. Channels without a source stay stale at zero.
func NewAggregator(sources map[channel.Channel]Source, pm ParticulateSource, log zerolog.Logger) *Aggregator {
	a := &Aggregator{
		sources:    sources,
		pm:         pm,
		pmInterval: PMReadInterval,
		log:        log,
	}
	for _, c := range channel.All() {
		a.prev[c] = Reading{Unit: c.Unit(), Stale: true}
	}
	return a
}

// Collect polls all sources and returns the snapshot for this tick.
func (a *Aggregator) Collect(now time.Time) Snapshot {
	snap := Snapshot{Taken: now}

	for _, c := range channel.All() {
		if c.Integer() {
			continue // PM channels filled below
		}
		snap.readings[c] = a.readAnalog(c, now)
	}

	a.readParticulates(now)
	pmStamp := a.pmUpdated
	if pmStamp.IsZero() {
		pmStamp = now
	}
	for i, c := range []channel.Channel{channel.PM1, channel.PM25, channel.PM10} {
		snap.readings[c] = Reading{
			Value:     a.pmCached[i],
			Unit:      c.Unit(),
			Stale:     a.pmStale,
			UpdatedAt: pmStamp,
		}
	}

	a.prev = snap.readings
	return snap
}

func (a *Aggregator) readAnalog(c channel.Channel, now time.Time) Reading {
	src, ok := a.sources[c]
	if !ok {
		r := a.prev[c]
		r.Stale = true
		if r.UpdatedAt.IsZero() {
			r.Unit = c.Unit()
		}
		return r
	}

	v, err := src.Read()
	if err != nil {
		a.log.Warn().Err(err).Str("channel", c.String()).Msg("sensor read failed")
		r := a.prev[c]
		r.Stale = true
		return r
	}

	return Reading{Value: v, Unit: c.Unit(), UpdatedAt: now}
}

func (a *Aggregator) readParticulates(now time.Time) {
	if a.pm == nil {
		a.pmStale = true
		return
	}
	if !a.pmLast.IsZero() && now.Sub(a.pmLast) < a.pmInterval {
		return // serve cache inside the throttle window
	}
	a.pmLast = now

	pm1, pm25, pm10, err := a.pm.Read()
	if err != nil {
		a.log.Warn().Err(err).Msg("pms5003 read failed")
		a.pmStale = true
		if rerr := a.pm.Reset(); rerr != nil {
			a.log.Debug().Err(rerr).Msg("pms5003 reset failed")
		}
		return
	}

	a.pmCached = [3]float64{pm1, pm25, pm10}
	a.pmStale = false
	a.pmUpdated = now
}
