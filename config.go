package mandel

import (
	"flag"
	"fmt"
	"math"
	"strconv"
)

// Config fixes the view parameters at construction. There is no dynamic
// reconfiguration; a new ViewState is needed to change MaxIterations.
type Config struct {
	MaxIterations uint32
	Zoom          float64
	Offset        complex128
	Width, Height int
}

// DefaultConfig shows the whole set in an 800x800 viewport.
func DefaultConfig() Config {
	return Config{
		MaxIterations: 200,
		Zoom:          3.0,
		Offset:        complex(-0.5, 0),
		Width:         800,
		Height:        800,
	}
}

// Validate checks the invariants ViewState relies on.
func (c Config) Validate() error {
	if c.MaxIterations == 0 {
		return ErrInvalidIterations
	}
	if !(c.Zoom > 0) || math.IsInf(c.Zoom, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidZoom, c.Zoom)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, c.Width, c.Height)
	}
	return nil
}

// RegisterFlags binds c's fields to fs. Values already in c are the defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.Func("iter", fmt.Sprintf("maximum escape-time iterations (default %d)", c.MaxIterations), func(s string) error {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return err
		}
		c.MaxIterations = uint32(n)
		return nil
	})
	fs.Float64Var(&c.Zoom, "zoom", c.Zoom, "initial zoom, the visible height in the fractal plane")
	fs.Func("re", fmt.Sprintf("real part of the initial centre (default %g)", real(c.Offset)), func(s string) error {
		re, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		c.Offset = complex(re, imag(c.Offset))
		return nil
	})
	fs.Func("im", fmt.Sprintf("imaginary part of the initial centre (default %g)", imag(c.Offset)), func(s string) error {
		im, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		c.Offset = complex(real(c.Offset), im)
		return nil
	})
	fs.IntVar(&c.Width, "width", c.Width, "viewport width in pixels")
	fs.IntVar(&c.Height, "height", c.Height, "viewport height in pixels")
}
