// Package monitor renders the 160x80 LCD framebuffer into the terminal
// with BubbleTea, for running the station off-device. The space key
// stands in for a hand wave over the proximity sensor.
package monitor

import (
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/farcomiot/enviropi/internal/display"
)

// waveHold keeps the simulated proximity raised long enough for the
// 150 ms poll loop to observe it.
const waveHold = 400 * time.Millisecond

type frameMsg struct{ img *image.RGBA }

// Monitor is a terminal stand-in for the LCD and proximity sensor. It
// implements display.Device and sensor.ProximitySource.
type Monitor struct {
	prog *tea.Program

	mu        sync.Mutex
	waveUntil time.Time
}

// New builds the monitor. onQuit is invoked once when the user quits the
// TUI, before the program exits.
func New(onQuit func()) *Monitor {
	m := &Monitor{}
	m.prog = tea.NewProgram(model{mon: m, onQuit: onQuit, start: time.Now()})
	return m
}

// Run starts the TUI and blocks until it exits.
func (m *Monitor) Run() error {
	_, err := m.prog.Run()
	return err
}

// Push sends one rendered frame to the TUI. The image is copied; the
// renderer reuses its buffer across frames.
func (m *Monitor) Push(img *image.RGBA) error {
	cp := image.NewRGBA(img.Rect)
	copy(cp.Pix, img.Pix)
	m.prog.Send(frameMsg{img: cp})
	return nil
}

// Close shuts the TUI down.
func (m *Monitor) Close() error {
	m.prog.Quit()
	return nil
}

// Proximity reports a raw count above the wave threshold for a short
// hold after the space key was pressed, zero otherwise.
func (m *Monitor) Proximity() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if time.Now().Before(m.waveUntil) {
		return 1000, nil
	}
	return 0, nil
}

func (m *Monitor) wave() {
	m.mu.Lock()
	m.waveUntil = time.Now().Add(waveHold)
	m.mu.Unlock()
}

// ── Model ────────────────────────────────────────────────────────────

type model struct {
	mon    *Monitor
	onQuit func()
	start  time.Time

	frame  *image.RGBA
	frames int
	width  int
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		case " ", "w":
			m.mon.wave()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case frameMsg:
		m.frame = msg.img
		m.frames++
	}

	return m, nil
}

// ── Colors ───────────────────────────────────────────────────────────

var (
	colorTitleBg = lipgloss.Color("17")
	colorTitleFg = lipgloss.Color("51")
	colorDim     = lipgloss.Color("240")
	colorLabel   = lipgloss.Color("252")
	colorFooter  = lipgloss.Color("235")
)

// ── View ─────────────────────────────────────────────────────────────

func (m model) View() string {
	var sections []string

	sections = append(sections, m.renderTitleBar())

	if m.frame == nil {
		waiting := lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(1, 2).
			Render("Waiting for first frame...")
		sections = append(sections, waiting)
	} else {
		sections = append(sections, renderFrame(m.frame))
	}

	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m model) renderTitleBar() string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("ENVIRO+ LCD")

	up := lipgloss.NewStyle().
		Foreground(colorDim).
		Render(fmt.Sprintf("up %s  %d frames", fmtDuration(time.Since(m.start)), m.frames))

	gap := display.Width - lipgloss.Width(logo) - lipgloss.Width(up) - 2
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Padding(0, 1).
		Render(logo + strings.Repeat(" ", gap) + up)
}

// renderFrame maps two framebuffer rows onto one terminal row using the
// upper half block, foreground for the top pixel and background for the
// bottom one.
func renderFrame(img *image.RGBA) string {
	b := img.Bounds()
	var sb strings.Builder

	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			top := img.RGBAAt(x, y)
			bot := img.RGBAAt(x, y+1)
			st := lipgloss.NewStyle().
				Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", top.R, top.G, top.B))).
				Background(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", bot.R, bot.G, bot.B)))
			sb.WriteString(st.Render("▀"))
		}
		sb.WriteByte('\n')
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (m model) renderFooter() string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	labelS := lipgloss.NewStyle().Foreground(colorLabel)

	keys := dimS.Render("space") + labelS.Render(":wave") +
		dimS.Render("  q") + labelS.Render(":quit")

	return lipgloss.NewStyle().
		Background(colorFooter).
		Padding(0, 1).
		Render(keys)
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	min := d / time.Minute
	d -= min * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, min, s)
	}
	return fmt.Sprintf("%dm%02ds", min, s)
}
