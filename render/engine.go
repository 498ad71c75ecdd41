// Package render turns a mandel.ViewState into pixels. It keeps a cache of
// escape-time ratios that is recomputed in parallel only when the view is
// dirty, and rasterizes that cache into the caller's buffer on every draw.
package render

import (
	"image"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	mandel "github.com/marben/mandel_explorer"
)

const defaultTileSize = 64

// Engine owns the escape-time cache for one view.
//
// Engine is not safe for concurrent use. Draw blocks until a pending
// recompute has finished on all workers.
type Engine struct {
	workers      int
	tileW, tileH int

	// cache holds width*height ratios, index = x + y*width.
	cache         []float64
	width, height int
	tiles         []image.Rectangle

	recomputes uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets how many tiles are computed concurrently.
// Zero or negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithTileSize sets the tile dimensions the viewport is split into.
// Non-positive values keep the 64x64 default.
func WithTileSize(w, h int) Option {
	return func(e *Engine) {
		if w > 0 && h > 0 {
			e.tileW, e.tileH = w, h
		}
	}
}

// New creates an engine with an empty cache. The first Draw of a fresh
// ViewState allocates and fills it.
func New(opts ...Option) *Engine {
	e := &Engine{tileW: defaultTileSize, tileH: defaultTileSize}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e
}

var _ mandel.Renderer = (*Engine)(nil)

// Draw brings the cache up to date with view and writes it to screen as
// RGBA8 greyscale. The cache is recomputed only when the view reports a
// change; rasterization happens on every call.
//
// screen should be 4*width*height bytes. A shorter buffer receives as many
// whole pixels as fit and a longer one keeps its tail untouched.
func (e *Engine) Draw(view mandel.Syncer, screen []byte) {
	snap, dirty := view.Sync()
	if snap.Width != e.width || snap.Height != e.height {
		dirty.Changed, dirty.Resized = true, true
	}
	if dirty.Changed {
		e.update(snap, dirty.Resized)
	}
	e.rasterize(screen)
}

func (e *Engine) update(s mandel.Snapshot, resized bool) {
	if resized {
		// Old contents are meaningless for the new geometry.
		e.cache = make([]float64, s.Pixels())
		e.width, e.height = s.Width, s.Height
		e.tiles = splitRect(image.Rect(0, 0, s.Width, s.Height), e.tileW, e.tileH)
		mandel.Logger().Info("render cache reallocated", "width", s.Width, "height", s.Height, "tiles", len(e.tiles))
	}

	start := time.Now()
	e.recompute(s)
	e.recomputes++

	mandel.Logger().Debug("recomputed",
		"elapsed", time.Since(start),
		"tiles", len(e.tiles),
		"workers", e.workers,
		"zoom", s.Zoom,
		"re", real(s.Offset),
		"im", imag(s.Offset),
	)
}

// recompute fills every tile on the worker pool and returns once all of them
// are done.
func (e *Engine) recompute(s mandel.Snapshot) {
	var g errgroup.Group
	g.SetLimit(e.workers)
	for _, tile := range e.tiles {
		g.Go(func() error {
			fillTile(e.cache, s, tile)
			return nil
		})
	}
	// fillTile cannot fail; Wait is only the join.
	_ = g.Wait()
}

func (e *Engine) rasterize(screen []byte) {
	n := min(len(screen)/4, len(e.cache))
	for i, r := range e.cache[:n] {
		c := Grey(r)
		p := screen[i*4 : i*4+4 : i*4+4]
		p[0] = c.R
		p[1] = c.G
		p[2] = c.B
		p[3] = c.A
	}
}

// Values exposes the cache. Callers must not modify it and must not keep it
// across a Draw that resizes.
func (e *Engine) Values() []float64 {
	return e.cache
}

// Size returns the geometry of the cache.
func (e *Engine) Size() (int, int) {
	return e.width, e.height
}

// Recomputes returns how many full recomputes Draw has performed.
func (e *Engine) Recomputes() uint64 {
	return e.recomputes
}

// Workers returns the parallelism used for recomputes.
func (e *Engine) Workers() int {
	return e.workers
}
