package main

import (
	"fmt"
	"image"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	mandel "github.com/marben/mandel_explorer"
	"github.com/marben/mandel_explorer/render"
)

// explorer implements ebiten.Game. Ebiten calls Layout, Update and Draw from
// one goroutine, so the view and the engine are only touched there.
type explorer struct {
	view       *mandel.ViewState
	renderer   mandel.Renderer
	screenshot string

	// pix is the RGBA8 buffer handed to the renderer, 4*w*h bytes.
	pix   []byte
	frame *ebiten.Image
	w, h  int

	// outsideW, outsideH is the window size reported by the last Layout.
	outsideW, outsideH int

	redraw  bool
	showHUD bool
}

func newExplorer(cfg mandel.Config, r mandel.Renderer, screenshot string) *explorer {
	return &explorer{
		view:       mandel.NewViewState(cfg),
		renderer:   r,
		screenshot: screenshot,
		outsideW:   cfg.Width,
		outsideH:   cfg.Height,
		showHUD:    true,
	}
}

func (g *explorer) Update() error {
	for _, cmd := range pressedCommands() {
		if cmd == mandel.Quit {
			return ebiten.Termination
		}
		if g.view.Apply(cmd) {
			g.redraw = true
		}
	}

	if g.frame == nil || g.outsideW != g.w || g.outsideH != g.h {
		g.resize(g.outsideW, g.outsideH)
	}

	// frame keeps the last rasterized pixels, so a clean view is presented
	// from it without drawing again.
	if g.redraw {
		g.renderer.Draw(g.view, g.pix)
		g.frame.WritePixels(g.pix)
		g.redraw = false
	}

	if justPressed(keyScreenshot) {
		if err := g.saveScreenshot(); err != nil {
			mandel.Logger().Warn("screenshot failed", "err", err)
		} else {
			mandel.Logger().Info("screenshot saved", "file", g.screenshot)
		}
	}
	if justPressed(keyHUD) {
		g.showHUD = !g.showHUD
	}
	return nil
}

// resize reallocates the pixel buffer before telling the view, so the next
// render always gets a buffer of the new size.
func (g *explorer) resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	g.w, g.h = w, h
	g.pix = make([]byte, 4*w*h)
	if g.frame != nil {
		g.frame.Deallocate()
	}
	g.frame = ebiten.NewImage(w, h)
	g.view.Resize(w, h)
	g.redraw = true
	mandel.Logger().Info("resized", "width", w, "height", h)
}

func (g *explorer) Draw(screen *ebiten.Image) {
	if g.frame == nil {
		return
	}
	screen.DrawImage(g.frame, nil)
	if g.showHUD {
		s := g.view.Snapshot()
		ebitenutil.DebugPrint(screen, fmt.Sprintf(
			"zoom %.3g  centre %.10f%+.10fi\niter %d  %dx%d  fps %.0f",
			s.Zoom, real(s.Offset), imag(s.Offset), s.MaxIterations, s.Width, s.Height, ebiten.ActualFPS(),
		))
	}
}

func (g *explorer) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.outsideW, g.outsideH = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

func (g *explorer) saveScreenshot() error {
	img := &image.RGBA{
		Pix:    append([]byte(nil), g.pix...),
		Stride: 4 * g.w,
		Rect:   image.Rect(0, 0, g.w, g.h),
	}
	f, err := os.Create(g.screenshot)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := render.EncodePNG(f, img); err != nil {
		return err
	}
	return f.Close()
}
