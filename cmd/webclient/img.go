//go:build js && wasm

package main

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"syscall/js"
	"time"
)

// displayFrame decodes a PNG frame and puts it on the canvas, resizing the
// canvas if the frame size changed.
func displayFrame(data []byte) error {
	start := time.Now()

	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("png.Decode: %w", err)
	}
	img, ok := src.(*image.RGBA)
	if !ok {
		img = image.NewRGBA(src.Bounds())
		draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)
	}

	canvas := js.Global().Get("document").Call("getElementById", "myCanvas")
	width := img.Rect.Dx()
	height := img.Rect.Dy()
	if canvas.Get("width").Int() != width || canvas.Get("height").Int() != height {
		canvas.Set("width", width)
		canvas.Set("height", height)
	}
	ctx := canvas.Call("getContext", "2d")

	// Copy the Go byte slice into a JS Uint8ClampedArray backing the ImageData.
	jsData := js.Global().Get("Uint8ClampedArray").New(len(img.Pix))
	js.CopyBytesToJS(jsData, img.Pix)

	imageData := js.Global().Get("ImageData").New(jsData, width, height)
	ctx.Call("putImageData", imageData, 0, 0)

	debugf("frame %dx%d drawn in %s", width, height, time.Since(start))
	return nil
}

// viewportSize is the browser window size, used as the requested viewport.
func viewportSize() (int, int) {
	w := js.Global().Get("window")
	return w.Get("innerWidth").Int(), w.Get("innerHeight").Int()
}
