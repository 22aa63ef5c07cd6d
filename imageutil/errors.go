package imageutil

import "errors"

var (
	// ErrInvalidInput reports an image that is missing, cannot be decoded
	// or has zero width or height.
	ErrInvalidInput = errors.New("invalid input image")

	// ErrInvalidParameter reports a non-positive clip limit or a tile grid
	// dimension below one.
	ErrInvalidParameter = errors.New("invalid parameter")
)
