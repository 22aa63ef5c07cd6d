// Package imgenhance improves the local contrast of color images with
// CLAHE (contrast-limited adaptive histogram equalization) applied to the
// lightness channel only, so hue and saturation are left alone.
//
//	enhancer := imgenhance.NewEnhancer(imgenhance.WithClipLimit(2.0))
//	out, err := enhancer.EnhanceContrast(img)
package imgenhance

import (
	"fmt"
	"image"

	"github.com/wbrown/imgenhance/imageutil"
)

const (
	// DefaultClipLimit bounds how far a histogram bin may rise above the
	// average bin height before it is clipped.
	DefaultClipLimit = 2.0
)

var (
	// DefaultTileGrid is the default number of tile columns and rows.
	DefaultTileGrid = image.Point{X: 8, Y: 8}

	// ErrInvalidInput reports a missing, undecodable or empty image.
	ErrInvalidInput = imageutil.ErrInvalidInput

	// ErrInvalidParameter reports a non-positive clip limit or a tile
	// grid dimension below one.
	ErrInvalidParameter = imageutil.ErrInvalidParameter
)

// Enhancer holds CLAHE parameters. An Enhancer has no mutable state and
// may be shared between goroutines.
type Enhancer struct {
	// ClipLimit is relative to the average bin height of a tile's
	// histogram. +Inf disables clipping.
	ClipLimit float64

	// TileGrid is the number of tile columns (X) and rows (Y).
	TileGrid image.Point

	// Workers bounds the goroutines used per call; <= 0 means GOMAXPROCS.
	Workers int
}

// EnhancerOption is a functional option for configuring an Enhancer.
type EnhancerOption func(*Enhancer)

// NewEnhancer creates a new Enhancer with the given options.
// Default values: ClipLimit=2.0, TileGrid=8x8, Workers=GOMAXPROCS.
func NewEnhancer(opts ...EnhancerOption) *Enhancer {
	e := &Enhancer{
		ClipLimit: DefaultClipLimit,
		TileGrid:  DefaultTileGrid,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// WithClipLimit sets the histogram clip limit.
func WithClipLimit(limit float64) EnhancerOption {
	return func(e *Enhancer) {
		e.ClipLimit = limit
	}
}

// WithTileGrid sets the number of tile columns and rows.
func WithTileGrid(columns, rows int) EnhancerOption {
	return func(e *Enhancer) {
		e.TileGrid = image.Point{X: columns, Y: rows}
	}
}

// WithWorkers bounds the number of goroutines used per call.
func WithWorkers(n int) EnhancerOption {
	return func(e *Enhancer) {
		e.Workers = n
	}
}

// Validate reports whether the parameters are usable.
func (e *Enhancer) Validate() error {
	return imageutil.ValidateCLAHEParams(e.ClipLimit, e.TileGrid)
}

func (e *Enhancer) clahe() (*imageutil.CLAHE, error) {
	c, err := imageutil.NewCLAHE(e.ClipLimit, e.TileGrid)
	if err != nil {
		return nil, err
	}
	return c.WithWorkers(e.Workers), nil
}

// EnhanceContrast converts img to Lab, equalizes the lightness plane with
// CLAHE and converts back. The result has the dimensions of img, with
// the origin at (0,0) and every pixel opaque. img is not modified.
//
// Parameters are checked before the image, so a bad parameter is always
// reported as ErrInvalidParameter.
func (e *Enhancer) EnhanceContrast(img image.Image) (*imageutil.RGBAImage, error) {
	c, err := e.clahe()
	if err != nil {
		return nil, err
	}
	if err := checkImage(img); err != nil {
		return nil, err
	}

	lab := imageutil.ToLab(imageutil.RGBAImageFromImage(img))
	return imageutil.LabToRGBA(enhanceLightness(c, lab)), nil
}

// enhanceLightness replaces the lightness plane of lab with its equalized
// version. The A and B planes are passed through as is.
func enhanceLightness(c *imageutil.CLAHE, lab *imageutil.LabImage) *imageutil.LabImage {
	return lab.WithLightness(c.Apply(lab.L))
}

// EnhanceLab equalizes the lightness plane of lab and returns a new
// LabImage. The A and B planes of the result are copies of the input
// planes, bit for bit.
func (e *Enhancer) EnhanceLab(lab *imageutil.LabImage) (*imageutil.LabImage, error) {
	c, err := e.clahe()
	if err != nil {
		return nil, err
	}
	if !lab.Consistent() {
		return nil, fmt.Errorf("%w: Lab planes missing or differ in size", ErrInvalidInput)
	}
	if lab.L.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has zero width or height", ErrInvalidInput)
	}

	return &imageutil.LabImage{
		L: c.Apply(lab.L),
		A: lab.A.Clone(),
		B: lab.B.Clone(),
	}, nil
}

// EnhanceGray applies CLAHE directly to a single plane.
func (e *Enhancer) EnhanceGray(gray *imageutil.GrayImage) (*imageutil.GrayImage, error) {
	c, err := e.clahe()
	if err != nil {
		return nil, err
	}
	if gray == nil || gray.Gray == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidInput)
	}
	if gray.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has zero width or height", ErrInvalidInput)
	}
	return c.Apply(gray), nil
}

// EnhanceContrast is a one-shot form of Enhancer.EnhanceContrast.
// tileGrid.X is the number of tile columns and tileGrid.Y the number of
// tile rows; 2.0 and 8x8 are typical.
func EnhanceContrast(img image.Image, clipLimit float64, tileGrid image.Point) (*imageutil.RGBAImage, error) {
	e := &Enhancer{ClipLimit: clipLimit, TileGrid: tileGrid}
	return e.EnhanceContrast(img)
}

func checkImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidInput)
	}
	if img.Bounds().Empty() {
		return fmt.Errorf("%w: image has zero width or height", ErrInvalidInput)
	}
	return nil
}
