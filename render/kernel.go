package render

import (
	"image"
	"image/color"
	"math"
	"math/cmplx"

	mandel "github.com/marben/mandel_explorer"
)

// Escape iterates z = z*z + c from z = 0 while fewer than maxIterations
// iterations ran and |z| < 2, and returns the fraction of the budget used.
// 1.0 means the orbit never escaped; 1/maxIterations means |z| reached 2
// after the first step. maxIterations must be positive.
func Escape(c complex128, maxIterations uint32) float64 {
	var z complex128
	var i uint32
	for i < maxIterations && cmplx.Abs(z) < 2 {
		z = z*z + c
		i++
	}
	return float64(i) / float64(maxIterations)
}

// Grey maps an escape-time ratio to an opaque grey; brighter means the orbit
// survived longer.
func Grey(r float64) color.RGBA {
	v := uint8(math.Round(r * 255))
	return color.RGBA{R: v, G: v, B: v, A: 255}
}

// fillTile computes every pixel of tile into the row-major cache. Tiles never
// overlap, so concurrent calls write disjoint slots.
func fillTile(cache []float64, s mandel.Snapshot, tile image.Rectangle) {
	for y := tile.Min.Y; y < tile.Max.Y; y++ {
		row := cache[y*s.Width : (y+1)*s.Width]
		for x := tile.Min.X; x < tile.Max.X; x++ {
			row[x] = Escape(s.PointAt(x, y), s.MaxIterations)
		}
	}
}
