//go:build !(linux && (arm || arm64))

package sensor

import (
	"github.com/rs/zerolog"

	"github.com/farcomiot/enviropi/internal/channel"
)

// Detect wires up channel sources for the current platform. Off the Pi
// everything is simulated.
func Detect(seed int64, cpuTemp func() float64, log zerolog.Logger) (map[channel.Channel]Source, ParticulateSource, func() error) {
	log.Info().Msg("no enviro+ hardware on this platform, using simulated sources")
	sources, pm := Simulated(seed)
	return sources, pm, func() error { return nil }
}
