// Package sensor abstracts the Enviro+ sensors behind capability
// interfaces and aggregates them into per-tick snapshots.
package sensor

import (
	"time"

	"github.com/farcomiot/enviropi/internal/channel"
)

// Reading is the latest value of a single channel.
type Reading struct {
	Value     float64
	Unit      string
	Stale     bool      // last read attempt failed; Value is the previous one
	UpdatedAt time.Time // time of the last successful read
}

// Snapshot is one immutable set of all channel readings taken at a single
// instant. It is created by the Aggregator and read-only afterwards.
type Snapshot struct {
	Taken    time.Time
	readings [channel.Count]Reading
}

// Reading returns the reading for a channel.
func (s Snapshot) Reading(c channel.Channel) Reading {
	return s.readings[c]
}

// Value returns the value for a channel.
func (s Snapshot) Value(c channel.Channel) float64 {
	return s.readings[c].Value
}
