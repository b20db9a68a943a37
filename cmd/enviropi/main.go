// Command enviropi runs the Enviro+ environmental station: it polls the
// sensors, rotates the LCD screens, publishes over MQTT and keeps a 24
// hour rolling history in SQLite. With -tui the LCD is rendered in the
// terminal instead, backed by simulated sensors on non-Pi hosts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/rs/zerolog"

	"github.com/farcomiot/enviropi/internal/app"
	"github.com/farcomiot/enviropi/internal/display"
	"github.com/farcomiot/enviropi/internal/history"
	"github.com/farcomiot/enviropi/internal/httpapi"
	"github.com/farcomiot/enviropi/internal/monitor"
	"github.com/farcomiot/enviropi/internal/noise"
	"github.com/farcomiot/enviropi/internal/publish"
	"github.com/farcomiot/enviropi/internal/sensor"
	"github.com/farcomiot/enviropi/internal/store"
	"github.com/farcomiot/enviropi/internal/sysinfo"
)

const (
	version      = "4+LCD v8"
	dashboardURL = "https://farcomindustrial.com/enviropi"
)

func main() {
	var (
		broker       = flag.String("broker", envOr("ENVIRO_BROKER", publish.DefaultBroker), "MQTT broker URL")
		topic        = flag.String("topic", envOr("ENVIRO_TOPIC", publish.DefaultTopic), "MQTT topic for sensor payloads")
		historyTopic = flag.String("history-topic", envOr("ENVIRO_HISTORY_TOPIC", publish.DefaultHistoryTopic), "MQTT topic for retained summaries")
		interval     = flag.Duration("interval", app.DefaultPublishInterval, "publish interval")
		dbPath       = flag.String("db", envOr("ENVIRO_DB", "enviro.db"), "SQLite database path")
		httpPort     = flag.String("http", envOr("ENVIRO_HTTP_PORT", "8080"), "REST API port, empty to disable")
		tui          = flag.Bool("tui", false, "render the LCD in the terminal")
		noiseThresh  = flag.Float64("noise-threshold", 65, "noise event threshold in dB")
		nightStart   = flag.Int("night-start", 22, "hour the night watch opens")
		nightEnd     = flag.Int("night-end", 7, "hour the night watch closes")
		armed        = flag.Bool("armed", false, "detect noise events around the clock, not only at night")
		debug        = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	log, logClose, err := setupLogger(*tui, *debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logClose()

	log.Info().Str("version", version).Msg("enviropi starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()

	sys := sysinfo.New(log)
	sys.Start(ctx)

	sources, pm, closeSensors := sensor.Detect(start.UnixNano(), sys.CPUTemp, log)
	defer func() {
		if err := closeSensors(); err != nil {
			log.Warn().Err(err).Msg("sensor close failed")
		}
	}()

	db, err := store.Open(*dbPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open store")
	}
	defer db.Close()

	pub := publish.Connect(publish.Config{
		Broker:       *broker,
		ClientID:     sys.DeviceID(),
		Topic:        *topic,
		HistoryTopic: *historyTopic,
	}, log)
	defer pub.Close()

	var (
		dev  display.Device = display.Discard{}
		prox sensor.ProximitySource
		mon  *monitor.Monitor
	)
	if *tui {
		mon = monitor.New(stop)
		dev = mon
		prox = mon
	}

	hist := history.NewStore(display.NumBars)
	renderer := display.NewRenderer(display.RendererConfig{
		Device:       dev,
		History:      hist,
		Sys:          sys,
		Connected:    pub.Connected,
		DashboardURL: dashboardURL,
		Version:      version,
		BootAt:       start,
	}, log)

	a := app.New(app.Config{
		Aggregator: sensor.NewAggregator(sources, pm, log),
		Proximity:  prox,
		Renderer:   renderer,
		History:    hist,
		Noise: noise.New(noise.Config{
			ThresholdDB:    *noiseThresh,
			NightStart:     *nightStart,
			NightEnd:       *nightEnd,
			NightReduction: 10,
			AlwaysArmed:    *armed,
		}, log),
		Store:           db,
		Broker:          pub,
		PublishInterval: *interval,
		Start:           start,
	}, log)

	if *httpPort != "" {
		router := httpapi.SetupRouter(chi.NewRouter(), a, log)
		go func() {
			if err := router.Start(*httpPort); err != nil {
				log.Error().Err(err).Msg("http api stopped")
			}
		}()
	}

	if mon != nil {
		// The TUI owns the terminal; the loop runs beside it and tears
		// it down when the context is cancelled.
		go func() {
			if err := a.Run(ctx); err != nil {
				log.Error().Err(err).Msg("main loop failed")
			}
			mon.Close()
		}()
		if err := mon.Run(); err != nil {
			log.Error().Err(err).Msg("tui failed")
		}
		stop()
		return
	}

	if err := a.Run(ctx); err != nil {
		log.Error().Err(err).Msg("main loop failed")
	}
}

// setupLogger writes human-readable logs to stderr, or to a file when
// the TUI has the terminal.
func setupLogger(tui, debug bool) (zerolog.Logger, func(), error) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	if tui {
		f, err := os.OpenFile("enviropi.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		log := zerolog.New(f).Level(level).With().Timestamp().Logger()
		return log, func() { f.Close() }, nil
	}

	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return log, func() {}, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
