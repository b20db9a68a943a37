// Package httpapi exposes the monitor's current state over a small REST
// surface for the dashboard.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog"

	"github.com/farcomiot/enviropi/internal/channel"
	"github.com/farcomiot/enviropi/internal/noise"
	"github.com/farcomiot/enviropi/internal/sensor"
	"github.com/farcomiot/enviropi/internal/store"
)

// Source provides the live state served by the API.
type Source interface {
	// LatestSnapshot returns the most recent snapshot; ok is false before
	// the first collection tick.
	LatestSnapshot() (sensor.Snapshot, bool)
	// NoiseEvents returns the logged noise events, oldest first.
	NoiseEvents() []noise.Event
	// History returns the retained one-minute buckets for a channel.
	History(c channel.Channel, from, to time.Time) ([]store.Bucket, error)
}

type routerStruct struct {
	router chi.Router
	source Source
	log    zerolog.Logger
}

// SetupRouter mounts the API routes on the given chi router.
func SetupRouter(chiRouter chi.Router, source Source, log zerolog.Logger) *routerStruct {
	r := &routerStruct{
		router: chiRouter,
		source: source,
		log:    log,
	}

	chiRouter.Use(middleware.Recoverer)
	chiRouter.Get("/health", r.health)
	chiRouter.Get("/snapshot", r.snapshot)
	chiRouter.Get("/events", r.events)
	chiRouter.Get("/history/{channel}", r.history)

	return r
}

// Start listens for connections on the given port. Blocks.
func (r *routerStruct) Start(port string) error {
	r.log.Info().Str("port", port).Msg("starting to listen for connections")
	return http.ListenAndServe(fmt.Sprintf(":%s", port), r.router)
}

func (router *routerStruct) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

type channelReading struct {
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Stale     bool      `json:"stale,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type snapshotResponse struct {
	Taken    time.Time                 `json:"taken"`
	Channels map[string]channelReading `json:"channels"`
}

func (router *routerStruct) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := router.source.LatestSnapshot()
	if !ok {
		http.Error(w, "no snapshot collected yet", http.StatusServiceUnavailable)
		return
	}

	resp := snapshotResponse{
		Taken:    snap.Taken,
		Channels: make(map[string]channelReading, channel.Count),
	}
	for _, c := range channel.All() {
		rd := snap.Reading(c)
		resp.Channels[c.String()] = channelReading{
			Value:     rd.Value,
			Unit:      rd.Unit,
			Stale:     rd.Stale,
			UpdatedAt: rd.UpdatedAt,
		}
	}
	router.writeJSON(w, resp)
}

func (router *routerStruct) events(w http.ResponseWriter, r *http.Request) {
	events := router.source.NoiseEvents()
	if events == nil {
		events = []noise.Event{}
	}
	router.writeJSON(w, events)
}

func (router *routerStruct) history(w http.ResponseWriter, r *http.Request) {
	c, ok := channel.Parse(chi.URLParam(r, "channel"))
	if !ok {
		http.Error(w, "unknown channel", http.StatusNotFound)
		return
	}

	hours := 24
	if q := r.URL.Query().Get("hours"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > 24 {
			http.Error(w, "hours must be 1..24", http.StatusBadRequest)
			return
		}
		hours = n
	}

	now := time.Now()
	buckets, err := router.source.History(c, now.Add(-time.Duration(hours)*time.Hour), now)
	if err != nil {
		router.log.Error().Err(err).Msg("history query failed")
		http.Error(w, "history query failed", http.StatusInternalServerError)
		return
	}
	if buckets == nil {
		buckets = []store.Bucket{}
	}
	router.writeJSON(w, buckets)
}

func (router *routerStruct) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		router.log.Error().Err(err).Msg("failed to write response")
	}
}
