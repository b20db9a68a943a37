package display

import (
	"image"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/farcomiot/enviropi/internal/channel"
	"github.com/farcomiot/enviropi/internal/history"
	"github.com/farcomiot/enviropi/internal/sensor"
)

type captureDevice struct {
	frames int
	last   *image.RGBA
}

func (d *captureDevice) Push(frame *image.RGBA) error {
	d.frames++
	copied := image.NewRGBA(frame.Rect)
	copy(copied.Pix, frame.Pix)
	d.last = copied
	return nil
}

func (d *captureDevice) Close() error { return nil }

type fakeSys struct{}

func (fakeSys) CPUTemp() float64 { return 48.2 }
func (fakeSys) RAMInfo() (int, int) { return 1022, 3793 }
func (fakeSys) DiskPercent() int { return 37 }
func (fakeSys) LocalIP() string { return "192.168.1.40" }
func (fakeSys) ExternalIP() string { return "82.10.20.30" }
func (fakeSys) SSID(time.Time) string { return "FarcomLab" }
func (fakeSys) SSHListening() bool { return true }

func testRenderer(t *testing.T) (*Renderer, *captureDevice, *history.Store) {
	t.Helper()
	dev := &captureDevice{}
	hist := history.NewStore(NumBars)
	r := NewRenderer(RendererConfig{
		Device:       dev,
		History:      hist,
		Sys:          fakeSys{},
		Connected:    func() bool { return true },
		DashboardURL: "https://example.com/enviropi",
		Version:      "v4",
		BootAt:       time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}, zerolog.Nop())
	return r, dev, hist
}

func snapshotWithNoise(t *testing.T, db float64, now time.Time) sensor.Snapshot {
	t.Helper()
	sources := make(map[channel.Channel]sensor.Source)
	for _, c := range channel.All() {
		if !c.Integer() {
			v := db
			sources[c] = sensor.SourceFunc(func() (float64, error) { return v, nil })
		}
	}
	agg := sensor.NewAggregator(sources, staticPM{}, zerolog.Nop())
	return agg.Collect(now)
}

type staticPM struct{}

func (staticPM) Read() (float64, float64, float64, error) { return 1, 2, 3, nil }
func (staticPM) Reset() error { return nil }

func TestSensorScreenDrawsBars(t *testing.T) {
	r, dev, hist := testRenderer(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < NumBars; i++ {
		hist.Record(channel.Noise, float64(40+i%20), now.Add(time.Duration(i)*time.Second))
	}
	snap := snapshotWithNoise(t, 55, now)

	r.Render(ScreenNoise, snap, now)
	if dev.frames != 1 {
		t.Fatalf("frames pushed: got %d, want 1", dev.frames)
	}

	// Background above the bars is white, bar area below TopPos is not.
	if got := dev.last.RGBAAt(150, 10); got != white {
		t.Errorf("header background: got %v, want white", got)
	}
	colored := false
	for x := 0; x < Width && !colored; x++ {
		px := dev.last.RGBAAt(x, Height-3)
		if px != white && px != black {
			colored = true
		}
	}
	if !colored {
		t.Error("expected HSV colored bars near the bottom of the frame")
	}
}

func TestSensorScreenPlaceholderWhenNeverRead(t *testing.T) {
	r, dev, _ := testRenderer(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	// No sources at all: every reading is stale with a zero UpdatedAt.
	agg := sensor.NewAggregator(map[channel.Channel]sensor.Source{}, nil, zerolog.Nop())
	snap := agg.Collect(now)

	r.Render(ScreenTemperature, snap, now)

	// Placeholder renders on black, not the white graph background.
	if got := dev.last.RGBAAt(150, 40); got != black {
		t.Errorf("placeholder background: got %v, want black", got)
	}
}

func TestQRGeneratedOnce(t *testing.T) {
	r, _, _ := testRenderer(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	snap := snapshotWithNoise(t, 50, now)

	r.Render(ScreenInfo, snap, now)
	first := r.qr
	if first == nil {
		t.Fatal("qr not generated on first info render")
	}
	r.Render(ScreenInfo, snap, now.Add(time.Second))
	if r.qr != first {
		t.Error("qr regenerated on second render")
	}
}

func TestHSVMapping(t *testing.T) {
	if got := hsvToRGB(0, 1, 1); got.R != 255 || got.G != 0 || got.B != 0 {
		t.Errorf("hue 0: got %v, want red", got)
	}
	if got := hsvToRGB(1.0/3.0, 1, 1); got.G != 255 || got.R != 0 {
		t.Errorf("hue 1/3: got %v, want green", got)
	}
	if got := hsvToRGB(2.0/3.0, 1, 1); got.B != 255 || got.G != 0 {
		t.Errorf("hue 2/3: got %v, want blue", got)
	}
}
