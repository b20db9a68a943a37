// Package store persists readings to SQLite: raw rows on the publish
// cadence and one-minute avg/min/max buckets, both with 24 hour rolling
// retention.
package store

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/farcomiot/enviropi/internal/channel"
	"github.com/farcomiot/enviropi/internal/sensor"
)

const (
	// Retention is the rolling window; anything older is pruned on flush.
	Retention = 24 * time.Hour
	// FlushInterval is the bucket aggregation window.
	FlushInterval = time.Minute

	timeLayout = time.RFC3339
)

// Bucket is a one-minute aggregate for a single channel.
type Bucket struct {
	WindowStart time.Time
	Avg         float64
	Min         float64
	Max         float64
	Samples     int
}

// Stats summarizes a channel over a query window.
type Stats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Store is the SQLite-backed history store. All writers run on the main
// loop; Query and RowCount are read-only.
type Store struct {
	db  *sql.DB
	log zerolog.Logger

	windowStart time.Time
	sums        [channel.Count]float64
	mins        [channel.Count]float64
	maxs        [channel.Count]float64
	samples     int
}

const schema = `
CREATE TABLE IF NOT EXISTS sensor_data (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp   TEXT NOT NULL,
	noise       REAL,
	temperature REAL,
	pressure    REAL,
	humidity    REAL,
	light       REAL,
	oxidised    REAL,
	reduced     REAL,
	nh3         REAL,
	pm1         REAL,
	pm25        REAL,
	pm10        REAL
);
CREATE TABLE IF NOT EXISTS history_buckets (
	window_start TEXT NOT NULL,
	channel      TEXT NOT NULL,
	avg          REAL NOT NULL,
	min          REAL NOT NULL,
	max          REAL NOT NULL,
	samples      INTEGER NOT NULL,
	PRIMARY KEY (window_start, channel)
);
CREATE INDEX IF NOT EXISTS idx_sensor_data_ts ON sensor_data (timestamp);
`

// Open opens (creating if needed) the SQLite database at path.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	log.Info().Str("path", path).Msg("sqlite store ready")
	return &Store{db: db, log: log}, nil
}

func (s *Store) resetWindow(now time.Time) {
	s.windowStart = now
	s.samples = 0
	for i := range s.sums {
		s.sums[i] = 0
		s.mins[i] = math.MaxFloat64
		s.maxs[i] = -math.MaxFloat64
	}
}

// Append buffers one snapshot and flushes a bucket per channel once the
// aggregation window elapses. Persistence errors are logged and the
// buffered window dropped; the loop is never failed.
func (s *Store) Append(snap sensor.Snapshot, now time.Time) {
	if s.samples == 0 {
		s.resetWindow(now)
	}

	for _, c := range channel.All() {
		v := snap.Value(c)
		s.sums[c] += v
		if v < s.mins[c] {
			s.mins[c] = v
		}
		if v > s.maxs[c] {
			s.maxs[c] = v
		}
	}
	s.samples++

	if now.Sub(s.windowStart) >= FlushInterval {
		if err := s.Flush(now); err != nil {
			s.log.Warn().Err(err).Msg("history flush failed, window dropped")
			s.samples = 0
		}
	}
}

// Flush writes the buffered window as one bucket per channel and prunes
// entries older than the retention horizon. Safe to call with an empty
// buffer (shutdown path).
func (s *Store) Flush(now time.Time) error {
	if s.samples > 0 {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		start := s.windowStart.UTC().Format(timeLayout)
		for _, c := range channel.All() {
			_, err = tx.Exec(
				`INSERT OR REPLACE INTO history_buckets (window_start, channel, avg, min, max, samples)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				start, c.String(), s.sums[c]/float64(s.samples), s.mins[c], s.maxs[c], s.samples,
			)
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("insert bucket %s: %w", c, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		s.samples = 0
	}

	return s.prune(now)
}

func (s *Store) prune(now time.Time) error {
	horizon := now.Add(-Retention).UTC().Format(timeLayout)
	if _, err := s.db.Exec(`DELETE FROM history_buckets WHERE window_start < ?`, horizon); err != nil {
		return fmt.Errorf("prune buckets: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM sensor_data WHERE timestamp < ?`, horizon); err != nil {
		return fmt.Errorf("prune raw rows: %w", err)
	}
	return nil
}

// InsertRaw stores one raw row, matching the wire payload values. Called
// on the publish cadence.
func (s *Store) InsertRaw(snap sensor.Snapshot, now time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO sensor_data
		 (timestamp, noise, temperature, pressure, humidity, light, oxidised, reduced, nh3, pm1, pm25, pm10)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		now.UTC().Format(timeLayout),
		snap.Value(channel.Noise), snap.Value(channel.Temperature),
		snap.Value(channel.Pressure), snap.Value(channel.Humidity),
		snap.Value(channel.Light), snap.Value(channel.Oxidised),
		snap.Value(channel.Reduced), snap.Value(channel.NH3),
		snap.Value(channel.PM1), snap.Value(channel.PM25), snap.Value(channel.PM10),
	)
	if err != nil {
		return fmt.Errorf("insert raw row: %w", err)
	}
	return nil
}

// Query returns the buckets for one channel inside [from, to), oldest
// first. Only buckets actually retained are returned; gaps are not
// synthesized.
func (s *Store) Query(c channel.Channel, from, to time.Time) ([]Bucket, error) {
	rows, err := s.db.Query(
		`SELECT window_start, avg, min, max, samples FROM history_buckets
		 WHERE channel = ? AND window_start >= ? AND window_start < ?
		 ORDER BY window_start`,
		c.String(), from.UTC().Format(timeLayout), to.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query buckets: %w", err)
	}
	defer rows.Close()

	var out []Bucket
	for rows.Next() {
		var b Bucket
		var ts string
		if err := rows.Scan(&ts, &b.Avg, &b.Min, &b.Max, &b.Samples); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		t, err := time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse window start: %w", err)
		}
		b.WindowStart = t
		out = append(out, b)
	}
	return out, rows.Err()
}

// Summary aggregates the retained buckets per channel over [from, to),
// feeding the retained history payload.
func (s *Store) Summary(from, to time.Time) (map[channel.Channel]Stats, error) {
	rows, err := s.db.Query(
		`SELECT channel, AVG(avg), MIN(min), MAX(max) FROM history_buckets
		 WHERE window_start >= ? AND window_start < ?
		 GROUP BY channel`,
		from.UTC().Format(timeLayout), to.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("summarize buckets: %w", err)
	}
	defer rows.Close()

	out := make(map[channel.Channel]Stats)
	for rows.Next() {
		var name string
		var st Stats
		if err := rows.Scan(&name, &st.Avg, &st.Min, &st.Max); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if c, ok := channel.Parse(name); ok {
			out[c] = st
		}
	}
	return out, rows.Err()
}

// RowCount returns the number of raw rows currently retained.
func (s *Store) RowCount() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sensor_data`).Scan(&n)
	return n, err
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
