//go:build linux && (arm || arm64)

package sensor

import (
	"github.com/rs/zerolog"

	"github.com/farcomiot/enviropi/internal/channel"
)

// Detect wires up channel sources for the current platform. On the Pi the
// BME280 channels come from the I2C bus; channels whose drivers live
// outside this module (gas, noise, light, PM) fall back to simulation
// unless an external capability replaces them.
func Detect(seed int64, cpuTemp func() float64, log zerolog.Logger) (map[channel.Channel]Source, ParticulateSource, func() error) {
	sources, pm := Simulated(seed)

	bme, err := NewBME280()
	if err != nil {
		log.Warn().Err(err).Msg("bme280 unavailable, simulating temperature/pressure/humidity")
		return sources, pm, func() error { return nil }
	}

	sources[channel.Temperature] = NewTempCompensator(SourceFunc(bme.Temperature), cpuTemp)
	sources[channel.Pressure] = SourceFunc(bme.Pressure)
	sources[channel.Humidity] = SourceFunc(bme.Humidity)
	log.Info().Msg("bme280 online")

	return sources, pm, bme.Close
}
