package display

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestBootSplashHold(t *testing.T) {
	boot := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewController(boot, zerolog.Nop())

	if got := c.Current(boot); got != ScreenLogo {
		t.Fatalf("boot screen: got %s, want logo", got)
	}

	// Waves during the 4s hold are ignored.
	for i := 0; i < 10; i++ {
		at := boot.Add(time.Duration(i) * 300 * time.Millisecond)
		if at.Sub(boot) >= SplashDuration {
			break
		}
		if c.HandleProximity(1000, at) {
			t.Fatalf("wave accepted %v after boot", at.Sub(boot))
		}
	}
	if got := c.Current(boot.Add(3 * time.Second)); got != ScreenLogo {
		t.Errorf("during splash: got %s, want logo", got)
	}

	// After the hold the rotation lands on noise.
	if got := c.Current(boot.Add(SplashDuration)); got != ScreenNoise {
		t.Errorf("after splash: got %s, want noise", got)
	}
}

func TestProximityAdvanceWraps(t *testing.T) {
	boot := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewController(boot, zerolog.Nop())
	now := boot.Add(SplashDuration)
	c.Current(now)

	want := []Screen{
		ScreenTemperature, ScreenPressure, ScreenHumidity, ScreenLight,
		ScreenOxidised, ScreenReduced, ScreenNH3, ScreenPM1, ScreenPM25,
		ScreenPM10, ScreenInfo, ScreenLogo, ScreenHealth, ScreenNoise,
	}
	for i, w := range want {
		now = now.Add(time.Second)
		if !c.HandleProximity(1000, now) {
			t.Fatalf("wave %d not accepted", i)
		}
		if got := c.Current(now); got != w {
			t.Fatalf("wave %d: got %s, want %s", i, got, w)
		}
	}
}

func TestProximityDebounce(t *testing.T) {
	boot := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewController(boot, zerolog.Nop())
	now := boot.Add(SplashDuration + time.Second)
	c.Current(now)

	if !c.HandleProximity(1000, now) {
		t.Fatal("first wave not accepted")
	}
	// Repeated triggers inside the debounce window are ignored.
	if c.HandleProximity(1000, now.Add(100*time.Millisecond)) {
		t.Error("wave accepted inside debounce window")
	}
	if c.HandleProximity(1000, now.Add(ProxDebounce)) {
		t.Error("wave accepted exactly at debounce boundary")
	}
	if !c.HandleProximity(1000, now.Add(ProxDebounce+50*time.Millisecond)) {
		t.Error("wave rejected after debounce window")
	}
	if got := c.Current(now.Add(time.Second)); got != ScreenPressure {
		t.Errorf("after two accepted waves: got %s, want pressure", got)
	}
}

func TestBelowThresholdIgnored(t *testing.T) {
	boot := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewController(boot, zerolog.Nop())
	now := boot.Add(SplashDuration + time.Second)
	c.Current(now)

	if c.HandleProximity(800, now) {
		t.Error("reading at threshold should not trigger")
	}
	if c.HandleProximity(0, now) {
		t.Error("zero reading should not trigger")
	}
	if got := c.Current(now); got != ScreenNoise {
		t.Errorf("screen moved without trigger: got %s", got)
	}
}

func TestScreenNames(t *testing.T) {
	if got := ScreenNoise.String(); got != "noise" {
		t.Errorf("noise screen name: got %q", got)
	}
	if got := ScreenHealth.String(); got != "health" {
		t.Errorf("health screen name: got %q", got)
	}
	if NumScreens != 14 {
		t.Errorf("NumScreens: got %d, want 14", NumScreens)
	}
	if _, ok := ScreenInfo.Channel(); ok {
		t.Error("info screen should not map to a channel")
	}
}
