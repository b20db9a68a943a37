// Package display owns the 14-screen LCD rotation state machine and
// renders each screen into a 160x80 framebuffer pushed to a Device.
package display

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/farcomiot/enviropi/internal/channel"
)

// Screen identifies one LCD screen. The first eleven mirror the channel
// order; info, logo and health follow.
type Screen int

const (
	ScreenNoise Screen = iota
	ScreenTemperature
	ScreenPressure
	ScreenHumidity
	ScreenLight
	ScreenOxidised
	ScreenReduced
	ScreenNH3
	ScreenPM1
	ScreenPM25
	ScreenPM10
	ScreenInfo
	ScreenLogo
	ScreenHealth
	numScreens
)

// NumScreens is the rotation length.
const NumScreens = int(numScreens)

func (s Screen) String() string {
	if s >= 0 && int(s) < channel.Count {
		return channel.Channel(s).String()
	}
	switch s {
	case ScreenInfo:
		return "info"
	case ScreenLogo:
		return "logo"
	case ScreenHealth:
		return "health"
	}
	return "unknown"
}

// Channel returns the sensor channel a screen graphs, if it has one.
func (s Screen) Channel() (channel.Channel, bool) {
	if s >= 0 && int(s) < channel.Count {
		return channel.Channel(s), true
	}
	return 0, false
}

const (
	// ProxThreshold is the raw LTR559 value that counts as a hand wave.
	ProxThreshold = 800
	// ProxDebounce is the minimum spacing between accepted waves, so one
	// wave advances exactly one screen.
	ProxDebounce = 200 * time.Millisecond
	// SplashDuration is how long the boot splash holds before input is
	// honored.
	SplashDuration = 4 * time.Second
)

// Controller is the screen rotation state machine. It boots on the logo
// splash, ignores proximity for SplashDuration, then advances one screen
// per accepted wave, wrapping modulo NumScreens.
type Controller struct {
	screen      Screen
	splashUntil time.Time
	splashDone  bool
	lastSwitch  time.Time
	log         zerolog.Logger
}

// NewController starts the rotation on the boot splash.
func NewController(now time.Time, log zerolog.Logger) *Controller {
	return &Controller{
		screen:      ScreenLogo,
		splashUntil: now.Add(SplashDuration),
		log:         log,
	}
}

// HandleProximity feeds one proximity reading into the state machine and
// reports whether the screen advanced.
func (c *Controller) HandleProximity(raw float64, now time.Time) bool {
	if raw <= ProxThreshold {
		return false
	}
	if !c.splashDone && now.Before(c.splashUntil) {
		return false
	}
	if !c.lastSwitch.IsZero() && now.Sub(c.lastSwitch) <= ProxDebounce {
		return false
	}

	c.finishSplash()
	c.screen = Screen((int(c.screen) + 1) % NumScreens)
	c.lastSwitch = now
	c.log.Info().Str("screen", c.screen.String()).Msg("screen advanced")
	return true
}

// Current returns the active screen, completing the splash-to-noise
// transition once the hold expires.
func (c *Controller) Current(now time.Time) Screen {
	if !c.splashDone && !now.Before(c.splashUntil) {
		c.finishSplash()
	}
	return c.screen
}

// InSplash reports whether the boot splash is still being held.
func (c *Controller) InSplash(now time.Time) bool {
	return !c.splashDone && now.Before(c.splashUntil)
}

func (c *Controller) finishSplash() {
	if c.splashDone {
		return
	}
	c.splashDone = true
	c.screen = ScreenNoise
}
