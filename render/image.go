package render

import (
	"fmt"
	"image"
	"image/png"
	"io"

	mandel "github.com/marben/mandel_explorer"
)

// Image draws view into a freshly allocated image of the view's size.
func (e *Engine) Image(view *mandel.ViewState) *image.RGBA {
	w, h := view.Size()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	e.Draw(view, img.Pix)
	return img
}

// frameEncoder trades size for latency; frames are re-encoded after every
// view change.
var frameEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := frameEncoder.Encode(w, img); err != nil {
		return fmt.Errorf("png encode: %w", err)
	}
	return nil
}
