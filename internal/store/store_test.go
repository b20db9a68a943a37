package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/farcomiot/enviropi/internal/channel"
	"github.com/farcomiot/enviropi/internal/sensor"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "enviro_data.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func snapshotAt(t *testing.T, now time.Time, noiseDB float64) sensor.Snapshot {
	t.Helper()
	sources := make(map[channel.Channel]sensor.Source)
	for _, c := range channel.All() {
		if c.Integer() {
			continue
		}
		v := float64(c) + 1
		if c == channel.Noise {
			v = noiseDB
		}
		sources[c] = sensor.SourceFunc(func() (float64, error) { return v, nil })
	}
	agg := sensor.NewAggregator(sources, fixedPM{}, zerolog.Nop())
	return agg.Collect(now)
}

type fixedPM struct{}

func (fixedPM) Read() (float64, float64, float64, error) { return 3, 9, 15, nil }
func (fixedPM) Reset() error { return nil }

func TestBucketFlushAndQuery(t *testing.T) {
	is := is.New(t)
	s := openTestStore(t)

	start := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 31; i++ {
		s.Append(snapshotAt(t, start, float64(40+i)), start.Add(time.Duration(i)*2*time.Second))
	}

	buckets, err := s.Query(channel.Noise, start, start.Add(time.Hour))
	is.NoErr(err)
	is.Equal(len(buckets), 1) // one aggregation window elapsed

	b := buckets[0]
	is.Equal(b.Min, 40.0)
	is.Equal(b.Max, 70.0)
	is.Equal(b.Avg, 55.0)
	is.Equal(b.Samples, 31)
	is.Equal(b.WindowStart, start)
}

func TestRetentionPrune(t *testing.T) {
	is := is.New(t)
	s := openTestStore(t)

	old := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s.Append(snapshotAt(t, old, 50), old)
	is.NoErr(s.Flush(old))

	// Two days later the old bucket must be gone after any flush.
	now := old.Add(48 * time.Hour)
	s.Append(snapshotAt(t, now, 60), now)
	is.NoErr(s.Flush(now))

	buckets, err := s.Query(channel.Noise, old.Add(-time.Hour), now.Add(time.Hour))
	is.NoErr(err)
	is.Equal(len(buckets), 1)
	is.Equal(buckets[0].WindowStart, now)
}

func TestQueryLargerThanRetained(t *testing.T) {
	is := is.New(t)
	s := openTestStore(t)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s.Append(snapshotAt(t, now, 50), now)
	is.NoErr(s.Flush(now))

	// A week-long window returns only what exists, no synthesized gaps.
	buckets, err := s.Query(channel.Noise, now.Add(-7*24*time.Hour), now.Add(time.Hour))
	is.NoErr(err)
	is.Equal(len(buckets), 1)
}

func TestRawRowsAndCount(t *testing.T) {
	is := is.New(t)
	s := openTestStore(t)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		is.NoErr(s.InsertRaw(snapshotAt(t, now, 50), now.Add(time.Duration(i)*2*time.Second)))
	}

	n, err := s.RowCount()
	is.NoErr(err)
	is.Equal(n, 5)
}

func TestSummary(t *testing.T) {
	is := is.New(t)
	s := openTestStore(t)

	start := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s.Append(snapshotAt(t, start, 40), start)
	is.NoErr(s.Flush(start.Add(time.Minute)))
	s.Append(snapshotAt(t, start, 60), start.Add(time.Minute))
	is.NoErr(s.Flush(start.Add(2 * time.Minute)))

	stats, err := s.Summary(start, start.Add(15*time.Minute))
	is.NoErr(err)
	is.Equal(len(stats), channel.Count)

	n := stats[channel.Noise]
	is.Equal(n.Avg, 50.0)
	is.Equal(n.Min, 40.0)
	is.Equal(n.Max, 60.0)
}
