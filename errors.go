package mandel

import "errors"

var (
	ErrInvalidSize       = errors.New("mandel: viewport size must be positive")
	ErrInvalidZoom       = errors.New("mandel: zoom must be positive and finite")
	ErrInvalidIterations = errors.New("mandel: max iterations must be positive")
	ErrUnknownCommand    = errors.New("mandel: unknown command")
)
