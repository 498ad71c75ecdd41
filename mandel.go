// Package mandel holds the view model of the Mandelbrot explorer: the
// ViewState mutated by input commands, its immutable Snapshot consumed by the
// render engine, and the configuration and landmarks shared by all frontends.
package mandel

import "strings"

// Region within the Mandelbrot set
type Region struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// Center returns the midpoint of r in the fractal plane.
func (r Region) Center() complex128 {
	return complex((r.Xmin+r.Xmax)/2, (r.Ymin+r.Ymax)/2)
}

// FitZoom returns the smallest zoom that shows all of r on a viewport with
// the given aspect ratio (width / height).
func (r Region) FitZoom(aspect float64) float64 {
	dx := r.Xmax - r.Xmin
	dy := r.Ymax - r.Ymin
	if aspect > 0 && dx/aspect > dy {
		return dx / aspect
	}
	return dy
}

// Classic regions / landmarks in the Mandelbrot set
var (
	// Seahorse Valley – dense filaments and repeating “seahorse” curls
	SeahorseValley = Region{Xmin: -0.8, Xmax: -0.7, Ymin: 0.05, Ymax: 0.15}

	// Elephant Valley – large bulb with trunk-like tendrils
	ElephantValley = Region{Xmin: -1.85, Xmax: -1.75, Ymin: -0.10, Ymax: -0.02}

	// Spiral Minibrot – small Mandelbrot copy with tight spiral arms
	SpiralMinibrot = Region{Xmin: -0.7435, Xmax: -0.7420, Ymin: 0.1310, Ymax: 0.1325}

	// Triple Spiral – threefold symmetric spiral structure
	TripleSpiral = Region{Xmin: -0.7480, Xmax: -0.7450, Ymin: 0.0950, Ymax: 0.0980}

	// Valley of the Dragon – deep, highly detailed spiral filaments
	ValleyOfTheDragon = Region{Xmin: -0.7400, Xmax: -0.7350, Ymin: 0.1800, Ymax: 0.1850}

	// Minibrot in a Mini-Spiral – self-similar Mandelbrot copy inside a spiral arm
	MinibrotInMiniSpiral = Region{Xmin: -1.7390, Xmax: -1.7375, Ymin: -0.0235, Ymax: -0.0220}
)

// Landmark is a named Region that frontends can jump to.
type Landmark struct {
	Name   string
	Region Region
}

// Landmarks lists the jump targets in keyboard order (keys 1..6).
var Landmarks = []Landmark{
	{"seahorse", SeahorseValley},
	{"elephant", ElephantValley},
	{"spiral", SpiralMinibrot},
	{"triple", TripleSpiral},
	{"dragon", ValleyOfTheDragon},
	{"minibrot", MinibrotInMiniSpiral},
}

// RegionByName looks a landmark up by its case-insensitive name.
func RegionByName(name string) (Region, bool) {
	for _, l := range Landmarks {
		if strings.EqualFold(l.Name, name) {
			return l.Region, true
		}
	}
	return Region{}, false
}
