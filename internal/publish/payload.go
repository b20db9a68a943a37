// Package publish builds the wire payloads and delivers them to the MQTT
// broker at QoS 1.
package publish

import (
	"strconv"
	"time"

	"github.com/farcomiot/enviropi/internal/channel"
	"github.com/farcomiot/enviropi/internal/sensor"
	"github.com/farcomiot/enviropi/internal/store"
)

// Fixed1 marshals with exactly one decimal place.
type Fixed1 float64

// MarshalJSON implements json.Marshaler.
func (f Fixed1) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(f), 'f', 1, 64), nil
}

// Fixed0 marshals as a whole number. Particulate counts are integer
// micrograms on the wire.
type Fixed0 float64

// MarshalJSON implements json.Marshaler.
func (f Fixed0) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(f), 'f', 0, 64), nil
}

// Payload is the JSON object published on every publish cadence.
type Payload struct {
	Temperature Fixed1 `json:"temperature"`
	Humidity    Fixed1 `json:"humidity"`
	Pressure    Fixed1 `json:"pressure"`
	Light       Fixed1 `json:"light"`
	Oxidised    Fixed1 `json:"oxidised"`
	Reduced     Fixed1 `json:"reduced"`
	NH3         Fixed1 `json:"nh3"`
	PM1         Fixed0 `json:"pm1"`
	PM25        Fixed0 `json:"pm25"`
	PM10        Fixed0 `json:"pm10"`
	Noise       Fixed1 `json:"noise"`

	Connected   bool  `json:"mqtt_connected"`
	UptimeStart int64 `json:"uptime_start"`
}

// NewPayload builds a Payload from one snapshot. uptimeStart is the
// process start time as epoch seconds.
func NewPayload(snap sensor.Snapshot, connected bool, uptimeStart int64) Payload {
	return Payload{
		Temperature: Fixed1(snap.Value(channel.Temperature)),
		Humidity:    Fixed1(snap.Value(channel.Humidity)),
		Pressure:    Fixed1(snap.Value(channel.Pressure)),
		Light:       Fixed1(snap.Value(channel.Light)),
		Oxidised:    Fixed1(snap.Value(channel.Oxidised)),
		Reduced:     Fixed1(snap.Value(channel.Reduced)),
		NH3:         Fixed1(snap.Value(channel.NH3)),
		PM1:         Fixed0(snap.Value(channel.PM1)),
		PM25:        Fixed0(snap.Value(channel.PM25)),
		PM10:        Fixed0(snap.Value(channel.PM10)),
		Noise:       Fixed1(snap.Value(channel.Noise)),
		Connected:   connected,
		UptimeStart: uptimeStart,
	}
}

// HistoryPayload is the retained summary published every 15 minutes.
type HistoryPayload struct {
	Timestamp   string                 `json:"timestamp"`
	WindowStart string                 `json:"window_start"`
	Channels    map[string]store.Stats `json:"channels"`
	Rows        int                    `json:"rows"`
}

// NewHistoryPayload builds the retained summary from the per-channel
// bucket aggregates and the current raw row count.
func NewHistoryPayload(summary map[channel.Channel]store.Stats, rows int, windowStart, now time.Time) HistoryPayload {
	chans := make(map[string]store.Stats, len(summary))
	for c, st := range summary {
		chans[c.String()] = st
	}
	return HistoryPayload{
		Timestamp:   now.UTC().Format(time.RFC3339),
		WindowStart: windowStart.UTC().Format(time.RFC3339),
		Channels:    chans,
		Rows:        rows,
	}
}
