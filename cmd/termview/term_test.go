package main

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	mandel "github.com/marben/mandel_explorer"
	"github.com/marben/mandel_explorer/render"
)

func newSimView(t *testing.T, cols, rows int) (tcell.SimulationScreen, *termView) {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(s.Fini)
	s.SetSize(cols, rows)

	cfg := mandel.DefaultConfig()
	cfg.MaxIterations = 32
	return s, newTermView(s, mandel.NewViewState(cfg), render.New(render.WithWorkers(2)))
}

func runLoop(t *testing.T, tv *termView) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- tv.loop() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("loop: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestTermView_KeysDriveView(t *testing.T) {
	s, tv := newSimView(t, 20, 11)

	s.InjectKey(tcell.KeyRune, 'r', tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'r', tcell.ModNone)
	s.InjectKey(tcell.KeyRight, 0, tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	runLoop(t, tv)

	if got := tv.view.Zoom(); got != 0.75 {
		t.Errorf("Zoom() = %v, want 0.75", got)
	}
	if real(tv.view.Offset()) <= -0.5 {
		t.Errorf("Offset() = %v, want panned right", tv.view.Offset())
	}
	if w, h := tv.view.Size(); w != 20 || h != 20 {
		t.Errorf("Size() = %dx%d, want 20x20 (10 pixel rows + status)", w, h)
	}
}

func TestTermView_DrawsHalfBlocksAndStatus(t *testing.T) {
	s, tv := newSimView(t, 16, 9)

	s.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	runLoop(t, tv)

	cells, w, h := s.GetContents()
	if w != 16 || h != 9 {
		t.Fatalf("contents %dx%d, want 16x9", w, h)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < w; x++ {
			c := cells[x+y*w]
			if len(c.Runes) == 0 || c.Runes[0] != upperHalf {
				t.Fatalf("cell (%d,%d) = %q, want half block", x, y, c.Runes)
			}
		}
	}
	status := cells[8*w+1]
	if len(status.Runes) == 0 || status.Runes[0] != 'z' {
		t.Errorf("status line starts with %q, want zoom readout", status.Runes)
	}
}

func TestKeyCommand(t *testing.T) {
	tests := []struct {
		key  tcell.Key
		r    rune
		want mandel.Command
		ok   bool
	}{
		{tcell.KeyUp, 0, mandel.PanUp, true},
		{tcell.KeyRune, 'a', mandel.PanLeft, true},
		{tcell.KeyRune, 'F', mandel.ZoomOut, true},
		{tcell.KeyRune, '+', mandel.ZoomIn, true},
		{tcell.KeyRune, 'z', mandel.Reset, true},
		{tcell.KeyRune, '1', mandel.GotoCommand(0), true},
		{tcell.KeyRune, '6', mandel.GotoCommand(5), true},
		{tcell.KeyRune, '7', "", false},
		{tcell.KeyTab, 0, "", false},
	}

	for _, tt := range tests {
		got, ok := keyCommand(tcell.NewEventKey(tt.key, tt.r, tcell.ModNone))
		if got != tt.want || ok != tt.ok {
			t.Errorf("keyCommand(%v, %q) = %q, %v; want %q, %v", tt.key, tt.r, got, ok, tt.want, tt.ok)
		}
	}
}
