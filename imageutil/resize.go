package imageutil

import (
	"fmt"

	"golang.org/x/image/draw"
)

// Interpolation selects the kernel used when an image is scaled.
type Interpolation int

const (
	// InterpolationArea uses Catmull-Rom. Closest to OpenCV's INTER_AREA
	// for downscaling.
	InterpolationArea Interpolation = iota

	// InterpolationLinear uses bilinear interpolation.
	InterpolationLinear

	// InterpolationNearest uses nearest-neighbor sampling.
	InterpolationNearest
)

func (interp Interpolation) scaler() draw.Scaler {
	switch interp {
	case InterpolationLinear:
		return draw.BiLinear
	case InterpolationNearest:
		return draw.NearestNeighbor
	default:
		return draw.CatmullRom
	}
}

// ParseInterpolation maps "area", "linear" or "nearest" to an
// Interpolation.
func ParseInterpolation(name string) (Interpolation, error) {
	switch name {
	case "area", "catmullrom", "":
		return InterpolationArea, nil
	case "linear", "bilinear":
		return InterpolationLinear, nil
	case "nearest":
		return InterpolationNearest, nil
	}
	return 0, fmt.Errorf("%w: unknown interpolation %q", ErrInvalidParameter, name)
}

// Resize scales img to width x height.
func Resize(img *RGBAImage, width, height int, interp Interpolation) *RGBAImage {
	dst := NewRGBAImage(width, height)
	interp.scaler().Scale(dst.RGBA, dst.Bounds(), img.RGBA, img.Bounds(), draw.Src, nil)
	return dst
}

// FitWithin scales img down so neither side exceeds maxSide, keeping the
// aspect ratio. Images that already fit, and maxSide <= 0, return img
// unchanged. Each side of the result is at least one pixel.
func FitWithin(img *RGBAImage, maxSide int, interp Interpolation) *RGBAImage {
	w, h := img.Width(), img.Height()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}
	var nw, nh int
	if w >= h {
		nw = maxSide
		nh = max(1, int(float64(h)*float64(maxSide)/float64(w)+0.5))
	} else {
		nh = maxSide
		nw = max(1, int(float64(w)*float64(maxSide)/float64(h)+0.5))
	}
	return Resize(img, nw, nh, interp)
}
