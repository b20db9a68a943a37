package display

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/rs/zerolog"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/farcomiot/enviropi/internal/channel"
	"github.com/farcomiot/enviropi/internal/history"
	"github.com/farcomiot/enviropi/internal/sensor"
	"github.com/farcomiot/enviropi/internal/sysinfo"
)

const (
	// TopPos is where the bars start; the label text sits above.
	TopPos = 25
	// NumBars is the bar graph sample count: 2px-wide bars filling the
	// display width.
	NumBars = Width / 2
)

var (
	black  = color.RGBA{0, 0, 0, 255}
	white  = color.RGBA{255, 255, 255, 255}
	red    = color.RGBA{255, 0, 0, 255}
	green  = color.RGBA{0, 255, 0, 255}
	orange = color.RGBA{255, 165, 0, 255}
	cyan   = color.RGBA{0, 200, 255, 255}
	navy   = color.RGBA{10, 10, 20, 255}
	yellow = color.RGBA{255, 255, 0, 255}
	gray   = color.RGBA{150, 150, 150, 255}
	dimGry = color.RGBA{100, 100, 100, 255}
)

// SystemMetrics is the system-metrics capability consumed by the info
// and health screens.
type SystemMetrics interface {
	CPUTemp() float64
	RAMInfo() (used, total int)
	DiskPercent() int
	LocalIP() string
	ExternalIP() string
	SSID(now time.Time) string
	SSHListening() bool
}

// RendererConfig wires the renderer's collaborators.
type RendererConfig struct {
	Device       Device
	History      *history.Store
	Sys          SystemMetrics
	Connected    func() bool // broker connectivity, shown on the info screen
	DashboardURL string
	Version      string
	BootAt       time.Time
}

// Renderer draws every screen into one persistent framebuffer. The QR
// code is generated once and reused every frame.
type Renderer struct {
	cfg   RendererConfig
	img   *image.RGBA
	qr    image.Image
	table [NumScreens]func(sensor.Snapshot, time.Time)
	log   zerolog.Logger
}

// NewRenderer builds the renderer and its screen dispatch table.
func NewRenderer(cfg RendererConfig, log zerolog.Logger) *Renderer {
	r := &Renderer{
		cfg: cfg,
		img: image.NewRGBA(image.Rect(0, 0, Width, Height)),
		log: log,
	}
	for i := 0; i < channel.Count; i++ {
		scr := Screen(i)
		r.table[i] = func(snap sensor.Snapshot, now time.Time) {
			c, _ := scr.Channel()
			r.renderSensor(c, snap)
		}
	}
	r.table[ScreenInfo] = r.renderInfo
	r.table[ScreenLogo] = r.renderLogo
	r.table[ScreenHealth] = r.renderHealth
	return r
}

// Render draws the given screen and pushes the frame. Device write
// failures are logged and skipped; the loop continues.
func (r *Renderer) Render(scr Screen, snap sensor.Snapshot, now time.Time) {
	r.table[scr](snap, now)
	r.push()
}

// Splash draws the boot splash frame.
func (r *Renderer) Splash(now time.Time) {
	fillRect(r.img, 0, 0, Width, Height, navy)
	r.pasteQR()

	x := 84
	drawText(r.img, x, 2, "FARCOM", cyan)
	drawText(r.img, x, 15, "Industrial", white)
	drawText(r.img, x, 30, "Enviro+", gray)
	drawText(r.img, x, 43, "Monitor", gray)
	drawText(r.img, x, 60, "Starting...", color.RGBA{100, 200, 100, 255})
	r.push()
}

// Farewell draws the shutdown frame.
func (r *Renderer) Farewell() {
	fillRect(r.img, 0, 0, Width, Height, black)
	drawText(r.img, 4, 30, "Stopped", red)
	r.push()
}

func (r *Renderer) push() {
	if err := r.cfg.Device.Push(r.img); err != nil {
		r.log.Warn().Err(err).Msg("display write failed, frame skipped")
	}
}

// renderSensor draws the rolling bar graph for one channel: 2px HSV
// colored bars, a black cursor line at the value position and the label
// text on top.
func (r *Renderer) renderSensor(c channel.Channel, snap sensor.Snapshot) {
	reading := snap.Reading(c)
	buf := r.cfg.History.Get(c).LastN(NumBars)

	if reading.UpdatedAt.IsZero() || len(buf) == 0 {
		// Never read successfully: placeholder instead of a graph.
		fillRect(r.img, 0, 0, Width, Height, black)
		drawText(r.img, 0, 0, fmt.Sprintf("%.4s: n/a %s", c.String(), c.Unit()), gray)
		return
	}

	vmin, vmax := buf[0], buf[0]
	for _, v := range buf {
		if v < vmin {
			vmin = v
		}
		if v > vmax {
			vmax = v
		}
	}
	spread := vmax - vmin + 1

	fillRect(r.img, 0, 0, Width, Height, white)

	barHeight := Height - TopPos
	offset := NumBars - len(buf)
	for i, v := range buf {
		frac := (v - vmin + 1) / spread
		hue := (1.0 - frac) * 0.6
		x0 := (offset + i) * 2
		x1 := x0 + 2
		fillRect(r.img, x0, TopPos, x1, Height, hsvToRGB(hue, 1.0, 1.0))

		lineY := Height - int(frac*float64(barHeight))
		fillRect(r.img, x0, lineY, x1, lineY+2, black)
	}

	label := fmt.Sprintf("%.4s: %s %s", c.String(), c.Format(reading.Value), c.Unit())
	if reading.Stale {
		label += " !"
	}
	drawText(r.img, 0, 2, label, black)
}

// renderInfo draws the QR code, date/time and WiFi/MQTT/SSH status dots.
func (r *Renderer) renderInfo(_ sensor.Snapshot, now time.Time) {
	fillRect(r.img, 0, 0, Width, Height, black)
	r.pasteQR()

	x := 84
	drawText(r.img, x, 0, now.Format("02/01/06"), yellow)
	drawText(r.img, x, 12, now.Format("15:04:05"), white)

	statuses := []struct {
		label string
		ok    bool
	}{
		{"WiFi", r.cfg.Sys.LocalIP() != "?.?.?.?"},
		{"MQTT", r.cfg.Connected()},
		{"SSH", r.cfg.Sys.SSHListening()},
	}
	y := 26
	for _, st := range statuses {
		col := red
		if st.ok {
			col = green
		}
		fillRect(r.img, x, y+2, x+6, y+8, col)
		drawText(r.img, x+9, y, st.label, color.RGBA{200, 200, 200, 255})
		y += 13
	}

	drawText(r.img, x, 67, sysinfo.FormatUptime(r.cfg.BootAt, now), gray)
}

// renderLogo draws the brand mark: gear icon and company text.
func (r *Renderer) renderLogo(_ sensor.Snapshot, _ time.Time) {
	fillRect(r.img, 0, 0, Width, Height, navy)

	// Gear: eight spokes around a hub, top-right corner.
	cx, cy := 140, 22
	for deg := 0; deg < 360; deg += 45 {
		x1, y1 := polar(cx, cy, 8, deg)
		x2, y2 := polar(cx, cy, 16, deg)
		drawLine(r.img, x1, y1, x2, y2, cyan)
	}
	fillCircle(r.img, cx, cy, 6, cyan)

	drawText(r.img, 4, 2, "FARCOM", cyan)
	drawText(r.img, 4, 24, "Industrial", white)
	drawText(r.img, 4, 48, "Enviro+ Monitor", gray)
	drawText(r.img, 4, 64, r.cfg.Version, dimGry)
}

// renderHealth draws system stats: IPs, SSID, CPU temp with severity
// colors, a RAM usage bar, disk and uptime.
func (r *Renderer) renderHealth(_ sensor.Snapshot, now time.Time) {
	fillRect(r.img, 0, 0, Width, Height, black)

	cpu := r.cfg.Sys.CPUTemp()
	cpuCol := green
	switch {
	case cpu >= 75:
		cpuCol = red
	case cpu >= 60:
		cpuCol = orange
	}

	ramUsed, ramTotal := r.cfg.Sys.RAMInfo()
	if ramTotal < 1 {
		ramTotal = 1
	}

	drawText(r.img, 0, 0, "LAN: "+r.cfg.Sys.LocalIP(), cyan)
	drawText(r.img, 0, 11, "WAN: "+r.cfg.Sys.ExternalIP(), color.RGBA{150, 150, 255, 255})
	drawText(r.img, 0, 22, fmt.Sprintf("WiFi: %.14s", r.cfg.Sys.SSID(now)), color.RGBA{100, 200, 100, 255})
	drawText(r.img, 0, 33, fmt.Sprintf("CPU: %.1fC", cpu), cpuCol)

	drawText(r.img, 0, 44, fmt.Sprintf("RAM %d/%dMB", ramUsed, ramTotal), color.RGBA{200, 200, 200, 255})
	barW := ramUsed * 100 / ramTotal
	if barW < 1 {
		barW = 1
	}
	fillRect(r.img, 0, 58, barW, 62, color.RGBA{0, 200, 0, 255})
	fillRect(r.img, barW, 58, 100, 62, color.RGBA{60, 60, 60, 255})

	line := fmt.Sprintf("Dsk %d%%  Up %s", r.cfg.Sys.DiskPercent(), sysinfo.FormatUptime(r.cfg.BootAt, now))
	drawText(r.img, 0, 65, line, gray)
}

// pasteQR draws the cached dashboard QR code on the left edge,
// generating it on first use only.
func (r *Renderer) pasteQR() {
	if r.qr == nil {
		q, err := qrcode.New(r.cfg.DashboardURL, qrcode.Low)
		if err != nil {
			r.log.Warn().Err(err).Msg("qr generation failed")
			return
		}
		r.qr = q.Image(Height)
	}
	b := r.qr.Bounds()
	for y := 0; y < Height && y < b.Dy(); y++ {
		for x := 0; x < Height && x < b.Dx(); x++ {
			r.img.Set(x, y, r.qr.At(b.Min.X+x, b.Min.Y+y))
		}
	}
}

func polar(cx, cy, radius, deg int) (int, int) {
	rad := float64(deg) * math.Pi / 180
	return cx + int(float64(radius)*math.Cos(rad)), cy + int(float64(radius)*math.Sin(rad))
}
