package main

import (
	"bytes"
	"fmt"
	"image"
	"sync"
	"time"

	mandel "github.com/marben/mandel_explorer"
	"github.com/marben/mandel_explorer/render"
)

// maxViewport bounds client requested sizes; one recompute of the shared view
// blocks every viewer.
const maxViewport = 4096

// status is the JSON text message sent ahead of every PNG frame.
type status struct {
	Zoom        float64 `json:"zoom"`
	Re          float64 `json:"re"`
	Im          float64 `json:"im"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	MaxIter     uint32  `json:"max_iterations"`
	RecomputeMS float64 `json:"recompute_ms"`
	Viewers     int     `json:"viewers"`
	Error       string  `json:"error,omitempty"`
}

// frame is one encoded image together with the view it shows.
type frame struct {
	status status
	png    []byte
}

// session is the one exploration shared by every connected viewer. The mutex
// covers the whole apply, recompute and encode cycle, so the view never
// changes under a running recompute.
type session struct {
	mu      sync.Mutex
	view    *mandel.ViewState
	engine  *render.Engine
	img     *image.RGBA
	last    frame
	viewers map[*viewer]struct{}
}

func newSession(cfg mandel.Config, engine *render.Engine) *session {
	return &session{
		view:    mandel.NewViewState(cfg),
		engine:  engine,
		viewers: make(map[*viewer]struct{}),
	}
}

var _ mandel.ImgProvider = (*session)(nil)

// GetImage implements mandel.ImgProvider with a copy of the current frame.
// It is served to irpc clients.
func (s *session) GetImage() (image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.renderLocked(); err != nil {
		return image.RGBA{}, err
	}
	img := *s.img
	img.Pix = bytes.Clone(s.img.Pix)
	return img, nil
}

// current returns the latest frame, rendering it first if the view is dirty.
func (s *session) current() (frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.renderLocked(); err != nil {
		return frame{}, err
	}
	return s.last, nil
}

// apply runs cmd against the shared view and, if it changed anything, sends
// the new frame to every viewer.
func (s *session) apply(cmd mandel.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.view.Apply(cmd) {
		return fmt.Errorf("%w: %q", mandel.ErrUnknownCommand, cmd)
	}
	return s.publishLocked()
}

// resize changes the shared viewport. The backing image is reallocated
// before the view learns the new size.
func (s *session) resize(w, h int) error {
	if w <= 0 || h <= 0 || w > maxViewport || h > maxViewport {
		return fmt.Errorf("%w: %dx%d (max %d)", mandel.ErrInvalidSize, w, h, maxViewport)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.img = image.NewRGBA(image.Rect(0, 0, w, h))
	s.view.Resize(w, h)
	return s.publishLocked()
}

func (s *session) publishLocked() error {
	if err := s.renderLocked(); err != nil {
		return err
	}
	for v := range s.viewers {
		v.send(s.last)
	}
	return nil
}

// renderLocked redraws and re-encodes when the view is dirty or nothing has
// been encoded yet. Clean views reuse the last encoded frame.
func (s *session) renderLocked() error {
	d := s.view.Dirty()
	if !d.Changed && s.last.png != nil {
		s.last.status.Viewers = len(s.viewers)
		return nil
	}

	w, h := s.view.Size()
	if s.img == nil || s.img.Rect.Dx() != w || s.img.Rect.Dy() != h {
		s.img = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	start := time.Now()
	s.engine.Draw(s.view, s.img.Pix)
	elapsed := time.Since(start)

	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, s.img); err != nil {
		return err
	}

	snap := s.view.Snapshot()
	s.last = frame{
		status: status{
			Zoom:        snap.Zoom,
			Re:          real(snap.Offset),
			Im:          imag(snap.Offset),
			Width:       snap.Width,
			Height:      snap.Height,
			MaxIter:     snap.MaxIterations,
			RecomputeMS: float64(elapsed.Microseconds()) / 1000,
			Viewers:     len(s.viewers),
		},
		png: buf.Bytes(),
	}
	return nil
}

func (s *session) join(v *viewer) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewers[v] = struct{}{}
	return len(s.viewers)
}

func (s *session) leave(v *viewer) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.viewers, v)
	return len(s.viewers)
}
