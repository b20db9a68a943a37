// Package history provides ring-buffer based rolling sample buffers with
// per-channel min/peak/avg statistics, sized for the LCD bar graphs.
package history

import (
	"math"
	"time"

	"github.com/farcomiot/enviropi/internal/channel"
)

// Point is a single sample in a channel's history.
type Point struct {
	Value float64
	Time  time.Time
}

// Buffer stores a ring buffer of samples for one channel.
type Buffer struct {
	Points []Point
	Max    int // capacity
	Min    float64
	Peak   float64
}

// NewBuffer creates a history ring buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		Points: make([]Point, 0, capacity),
		Max:    capacity,
		Min:    math.MaxFloat64,
		Peak:   -math.MaxFloat64,
	}
}

// Push adds a new sample.
func (b *Buffer) Push(v float64, t time.Time) {
	p := Point{Value: v, Time: t}
	if len(b.Points) >= b.Max {
		copy(b.Points, b.Points[1:])
		b.Points[len(b.Points)-1] = p
	} else {
		b.Points = append(b.Points, p)
	}

	if v < b.Min {
		b.Min = v
	}
	if v > b.Peak {
		b.Peak = v
	}
}

// Last returns the most recent value, or 0 if empty.
func (b *Buffer) Last() float64 {
	if len(b.Points) == 0 {
		return 0
	}
	return b.Points[len(b.Points)-1].Value
}

// Avg returns the average across all stored points.
func (b *Buffer) Avg() float64 {
	if len(b.Points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range b.Points {
		sum += p.Value
	}
	return sum / float64(len(b.Points))
}

// LastN returns the last n values (for bar graph rendering).
func (b *Buffer) LastN(n int) []float64 {
	if n <= 0 || len(b.Points) == 0 {
		return nil
	}
	start := len(b.Points) - n
	if start < 0 {
		start = 0
	}
	vals := make([]float64, 0, n)
	for _, p := range b.Points[start:] {
		vals = append(vals, p.Value)
	}
	return vals
}

// Store manages the rolling buffers for all channels.
type Store struct {
	buffers  [channel.Count]*Buffer
	Capacity int
}

// NewStore creates a store with the given per-channel capacity.
func NewStore(capacity int) *Store {
	s := &Store{Capacity: capacity}
	for i := range s.buffers {
		s.buffers[i] = NewBuffer(capacity)
	}
	return s
}

// Record adds a sample for the given channel.
func (s *Store) Record(c channel.Channel, v float64, t time.Time) {
	s.buffers[c].Push(v, t)
}

// Get returns the buffer for a channel.
func (s *Store) Get(c channel.Channel) *Buffer {
	return s.buffers[c]
}
