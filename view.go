package mandel

// panStep is the fraction of the current zoom moved by a single pan, so the
// apparent pan speed stays constant across zoom levels.
const panStep = 0.05

// Direction of a pan command.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unknown"
}

// Snapshot is an immutable copy of everything that affects the rendered image.
type Snapshot struct {
	MaxIterations uint32
	Zoom          float64
	Offset        complex128
	Width, Height int
}

// Aspect returns width / height of the viewport.
func (s Snapshot) Aspect() float64 {
	return float64(s.Width) / float64(s.Height)
}

// Pixels returns the number of pixels in the viewport.
func (s Snapshot) Pixels() int {
	return s.Width * s.Height
}

// PointAt maps the pixel (x, y) to its point in the fractal plane. The view is
// centred on Offset, spans Zoom vertically and Aspect()*Zoom horizontally.
func (s Snapshot) PointAt(x, y int) complex128 {
	re := (float64(x)/float64(s.Width)-0.5)*s.Aspect()*s.Zoom + real(s.Offset)
	im := (float64(y)/float64(s.Height)-0.5)*s.Zoom + imag(s.Offset)
	return complex(re, im)
}

// Dirty reports what changed since the cache was last recomputed.
// Resized implies Changed.
type Dirty struct {
	Changed bool
	Resized bool
}

// ViewState is the mutable view: zoom, centre, viewport size and the dirty
// flags that tell the render engine whether its cache is stale.
//
// A ViewState is owned by a single control loop and is not safe for
// concurrent use; callers sharing one across goroutines must serialize every
// mutation together with the render that follows it.
type ViewState struct {
	cfg Config

	maxIterations uint32
	zoom          float64
	offset        complex128
	width, height int

	changed bool
	resized bool
}

// NewViewState creates a view from cfg. Both dirty flags start set so the
// first draw allocates and fills the cache.
//
// cfg is expected to pass Validate. A zero MaxIterations is raised to 1 so
// escape ratios stay within [0, 1].
func NewViewState(cfg Config) *ViewState {
	cfg.MaxIterations = max(cfg.MaxIterations, 1)
	return &ViewState{
		cfg:           cfg,
		maxIterations: cfg.MaxIterations,
		zoom:          cfg.Zoom,
		offset:        cfg.Offset,
		width:         cfg.Width,
		height:        cfg.Height,
		changed:       true,
		resized:       true,
	}
}

func (v *ViewState) MaxIterations() uint32 { return v.maxIterations }
func (v *ViewState) Zoom() float64         { return v.zoom }
func (v *ViewState) Offset() complex128    { return v.offset }
func (v *ViewState) Size() (int, int)      { return v.width, v.height }

// Pan moves the centre by one step of 0.05*zoom.
func (v *ViewState) Pan(dir Direction) {
	step := panStep * v.zoom
	switch dir {
	case Up:
		v.offset -= complex(0, step)
	case Down:
		v.offset += complex(0, step)
	case Left:
		v.offset -= complex(step, 0)
	case Right:
		v.offset += complex(step, 0)
	default:
		return
	}
	v.changed = true
}

// ZoomIn halves the visible span.
func (v *ViewState) ZoomIn() {
	v.zoom /= 2.0
	v.changed = true
}

// ZoomOut doubles the visible span.
func (v *ViewState) ZoomOut() {
	v.zoom *= 2.0
	v.changed = true
}

// Resize sets the viewport size. Non-positive sizes are ignored; the caller
// is expected to have resized its output buffer already.
func (v *ViewState) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	v.width, v.height = width, height
	v.changed = true
	v.resized = true
}

// Reset restores the zoom and centre the view was created with.
func (v *ViewState) Reset() {
	v.zoom = v.cfg.Zoom
	v.offset = v.cfg.Offset
	v.changed = true
}

// Frame centres the view on r and zooms so that all of r is visible.
func (v *ViewState) Frame(r Region) {
	z := r.FitZoom(float64(v.width) / float64(v.height))
	if z <= 0 {
		return
	}
	v.offset = r.Center()
	v.zoom = z
	v.changed = true
}

// Apply performs cmd and reports whether it was a view command. Quit and
// unknown commands return false and leave the view untouched.
func (v *ViewState) Apply(cmd Command) bool {
	switch cmd {
	case PanUp:
		v.Pan(Up)
	case PanDown:
		v.Pan(Down)
	case PanLeft:
		v.Pan(Left)
	case PanRight:
		v.Pan(Right)
	case ZoomIn:
		v.ZoomIn()
	case ZoomOut:
		v.ZoomOut()
	case Reset:
		v.Reset()
	default:
		i, ok := cmd.landmark()
		if !ok {
			return false
		}
		v.Frame(Landmarks[i].Region)
	}
	return true
}

// Snapshot returns the current render parameters without touching the flags.
func (v *ViewState) Snapshot() Snapshot {
	return Snapshot{
		MaxIterations: v.maxIterations,
		Zoom:          v.zoom,
		Offset:        v.offset,
		Width:         v.width,
		Height:        v.height,
	}
}

// Dirty returns the pending flags without clearing them.
func (v *ViewState) Dirty() Dirty {
	return Dirty{Changed: v.changed, Resized: v.resized}
}

// Sync returns the current snapshot together with the pending flags and
// clears them. The render engine is the only caller: it is the single writer
// of cache staleness, and it always finishes the recompute Sync asked for.
func (v *ViewState) Sync() (Snapshot, Dirty) {
	d := v.Dirty()
	v.changed = false
	v.resized = false
	return v.Snapshot(), d
}
