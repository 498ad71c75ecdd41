package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	mandel "github.com/marben/mandel_explorer"
)

// upperHalf shows the upper pixel in the foreground colour and the lower
// pixel in the background colour, giving two square-ish pixels per cell.
const upperHalf = '▀'

// termView renders the view into a tcell screen. All state is owned by the
// goroutine running loop.
type termView struct {
	screen   tcell.Screen
	view     *mandel.ViewState
	renderer mandel.Renderer

	pix        []byte
	w, h       int
	statusLine bool
}

func newTermView(screen tcell.Screen, view *mandel.ViewState, r mandel.Renderer) *termView {
	return &termView{screen: screen, view: view, renderer: r}
}

// loop handles events until a quit key is pressed or the screen is finalized.
func (t *termView) loop() error {
	t.layout()
	t.draw()

	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			t.screen.Sync()
			t.layout()
		case *tcell.EventKey:
			cmd, ok := keyCommand(ev)
			if !ok {
				continue
			}
			if cmd == mandel.Quit {
				return nil
			}
			if !t.view.Apply(cmd) {
				continue
			}
		default:
			continue
		}
		t.draw()
	}
}

// layout maps the terminal grid to a pixel viewport: one column per pixel,
// two pixels per row, last row reserved for status.
func (t *termView) layout() {
	cols, rows := t.screen.Size()
	t.statusLine = rows > 1
	if t.statusLine {
		rows--
	}
	w, h := cols, 2*rows
	if w <= 0 || h <= 0 || (w == t.w && h == t.h) {
		return
	}
	t.w, t.h = w, h
	t.pix = make([]byte, 4*w*h)
	t.view.Resize(w, h)
	mandel.Logger().Info("resized", "width", w, "height", h)
}

func (t *termView) draw() {
	if t.pix == nil {
		return
	}
	t.renderer.Draw(t.view, t.pix)

	for y := 0; y < t.h/2; y++ {
		for x := 0; x < t.w; x++ {
			top := t.pix[4*(x+2*y*t.w)]
			bottom := t.pix[4*(x+(2*y+1)*t.w)]
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top), int32(top), int32(top))).
				Background(tcell.NewRGBColor(int32(bottom), int32(bottom), int32(bottom)))
			t.screen.SetContent(x, y, upperHalf, nil, style)
		}
	}

	if t.statusLine {
		t.drawStatus(t.h / 2)
	}
	t.screen.Show()
}

func (t *termView) drawStatus(row int) {
	s := t.view.Snapshot()
	line := fmt.Sprintf(" zoom %.3g  centre %.8f%+.8fi  %dx%d  wasd/rf/z/1-6/q",
		s.Zoom, real(s.Offset), imag(s.Offset), s.Width, s.Height)
	style := tcell.StyleDefault.Reverse(true)
	x := 0
	for _, r := range line {
		if x >= t.w {
			break
		}
		t.screen.SetContent(x, row, r, nil, style)
		x++
	}
	for ; x < t.w; x++ {
		t.screen.SetContent(x, row, ' ', nil, style)
	}
}

// keyCommand translates a key event into a view command.
func keyCommand(ev *tcell.EventKey) (mandel.Command, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return mandel.PanUp, true
	case tcell.KeyDown:
		return mandel.PanDown, true
	case tcell.KeyLeft:
		return mandel.PanLeft, true
	case tcell.KeyRight:
		return mandel.PanRight, true
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return mandel.Quit, true
	case tcell.KeyRune:
	default:
		return "", false
	}

	switch r := ev.Rune(); r {
	case 'w', 'W':
		return mandel.PanUp, true
	case 's', 'S':
		return mandel.PanDown, true
	case 'a', 'A':
		return mandel.PanLeft, true
	case 'd', 'D':
		return mandel.PanRight, true
	case 'r', 'R', '+', '=':
		return mandel.ZoomIn, true
	case 'f', 'F', '-':
		return mandel.ZoomOut, true
	case 'z', 'Z':
		return mandel.Reset, true
	case 'q', 'Q':
		return mandel.Quit, true
	default:
		if i := int(r - '1'); i >= 0 && i < len(mandel.Landmarks) {
			return mandel.GotoCommand(i), true
		}
	}
	return "", false
}
