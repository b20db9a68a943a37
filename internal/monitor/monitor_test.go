package monitor

import (
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/farcomiot/enviropi/internal/display"
)

func TestWaveRaisesProximity(t *testing.T) {
	m := &Monitor{}

	v, err := m.Proximity()
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Errorf("idle proximity = %v, want 0", v)
	}

	m.wave()
	v, _ = m.Proximity()
	if v <= 800 {
		t.Errorf("proximity after wave = %v, want > 800", v)
	}
}

func TestWaveExpires(t *testing.T) {
	m := &Monitor{}
	m.mu.Lock()
	m.waveUntil = time.Now().Add(-time.Millisecond)
	m.mu.Unlock()

	if v, _ := m.Proximity(); v != 0 {
		t.Errorf("expired wave proximity = %v, want 0", v)
	}
}

func TestRenderFrameHalvesRows(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, display.Width, display.Height))
	out := renderFrame(img)

	lines := strings.Split(out, "\n")
	if len(lines) != display.Height/2 {
		t.Errorf("rendered %d rows, want %d", len(lines), display.Height/2)
	}
}

func TestRenderFrameCarriesPixelColor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})

	out := renderFrame(img)
	if !strings.Contains(out, "▀") {
		t.Fatal("expected half block cells in output")
	}
}

func TestUpdateStoresFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, display.Width, display.Height))
	m := model{mon: &Monitor{}}

	next, _ := m.Update(frameMsg{img: img})
	got := next.(model)
	if got.frame == nil {
		t.Fatal("frame not stored")
	}
	if got.frames != 1 {
		t.Errorf("frames = %d, want 1", got.frames)
	}
}

func TestQuitKeyInvokesCallback(t *testing.T) {
	called := false
	m := model{mon: &Monitor{}, onQuit: func() { called = true }}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !called {
		t.Error("quit callback not invoked")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestSpaceKeyTriggersWave(t *testing.T) {
	mon := &Monitor{}
	m := model{mon: mon}

	m.Update(tea.KeyMsg{Type: tea.KeySpace})

	if v, _ := mon.Proximity(); v <= 800 {
		t.Errorf("proximity after space = %v, want > 800", v)
	}
}
