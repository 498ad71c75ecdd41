package mandel

import (
	"image"
)

//go:generate go run github.com/marben/irpc/cmd/irpc@v0.0.0-20260109104542-2d3fde99869b

// ImgProvider hands out a fully rendered frame of the current view.
type ImgProvider interface {
	GetImage() (image.RGBA, error)
}
