package mandel

// Renderer fills a caller-owned RGBA8 buffer of 4*width*height bytes with the
// current view. It is called once per presented frame.
type Renderer interface {
	Draw(view Syncer, screen []byte)
}

// Syncer is the side of ViewState a Renderer consumes.
type Syncer interface {
	Sync() (Snapshot, Dirty)
}

var _ Syncer = (*ViewState)(nil)
