package sensor

import (
	"math/rand"

	"github.com/farcomiot/enviropi/internal/channel"
)

// simChannel generates a bounded random walk around a baseline, which is
// enough to exercise the display and the publisher on a machine without
// the Enviro+ HAT attached.
type simChannel struct {
	value    float64
	min, max float64
	step     float64
	rng      *rand.Rand
}

func (s *simChannel) Read() (float64, error) {
	s.value += (s.rng.Float64()*2 - 1) * s.step
	if s.value < s.min {
		s.value = s.min
	}
	if s.value > s.max {
		s.value = s.max
	}
	return s.value, nil
}

type simParticulates struct {
	pm [3]*simChannel
}

func (s *simParticulates) Read() (pm1, pm25, pm10 float64, err error) {
	pm1, _ = s.pm[0].Read()
	pm25, _ = s.pm[1].Read()
	pm10, _ = s.pm[2].Read()
	return pm1, pm25, pm10, nil
}

func (s *simParticulates) Reset() error { return nil }

// Simulated returns a full set of synthetic channel sources plus a
// synthetic particulate source.
func Simulated(seed int64) (map[channel.Channel]Source, ParticulateSource) {
	rng := rand.New(rand.NewSource(seed))

	sim := func(start, min, max, step float64) *simChannel {
		return &simChannel{value: start, min: min, max: max, step: step, rng: rng}
	}

	sources := map[channel.Channel]Source{
		channel.Noise:       sim(45, 30, 110, 4),
		channel.Temperature: sim(22, 10, 35, 0.2),
		channel.Pressure:    sim(1013, 980, 1040, 0.3),
		channel.Humidity:    sim(48, 20, 90, 0.5),
		channel.Light:       sim(400, 0, 60000, 40),
		channel.Oxidised:    sim(18, 1, 60, 0.4),
		channel.Reduced:     sim(320, 50, 600, 3),
		channel.NH3:         sim(150, 20, 350, 2),
	}

	pm := &simParticulates{pm: [3]*simChannel{
		sim(4, 0, 120, 1),
		sim(9, 0, 120, 1.5),
		sim(14, 0, 160, 2),
	}}

	return sources, pm
}
