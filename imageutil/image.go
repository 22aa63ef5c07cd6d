// Package imageutil provides pure Go image primitives for contrast
// enhancement: 8-bit image wrappers, CIE Lab conversion, CLAHE on a
// single plane and image I/O. It replaces the gocv (OpenCV) calls
// cvtColor, split/merge and createCLAHE.
package imageutil

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// RGB represents a color in the RGB color space with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

// ToColor converts RGB to color.RGBA for use with standard library.
func (rgb RGB) ToColor() color.RGBA {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
}

// RGBAImage wraps image.RGBA with convenience methods for pixel access.
type RGBAImage struct {
	*image.RGBA
}

// NewRGBAImage creates a new RGBAImage with the specified dimensions.
func NewRGBAImage(width, height int) *RGBAImage {
	return &RGBAImage{
		RGBA: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// RGBAImageFromImage converts any image.Image to an RGBAImage anchored at
// the origin. Transparent pixels are composited over black.
func RGBAImageFromImage(img image.Image) *RGBAImage {
	bounds := img.Bounds()
	rgba := NewRGBAImage(bounds.Dx(), bounds.Dy())
	draw.Draw(rgba.RGBA, rgba.Bounds(), image.Black, image.Point{}, draw.Src)
	draw.Draw(rgba.RGBA, rgba.Bounds(), img, bounds.Min, draw.Over)
	return rgba
}

// Width returns the image width.
func (img *RGBAImage) Width() int {
	return img.Bounds().Dx()
}

// Height returns the image height.
func (img *RGBAImage) Height() int {
	return img.Bounds().Dy()
}

// GetRGB returns the RGB value at (x, y).
func (img *RGBAImage) GetRGB(x, y int) RGB {
	c := img.RGBAAt(x, y)
	return RGB{R: c.R, G: c.G, B: c.B}
}

// SetRGB sets the RGB value at (x, y).
func (img *RGBAImage) SetRGB(x, y int, c RGB) {
	img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
}

// Clone creates a deep copy of the image, anchored at the origin.
func (img *RGBAImage) Clone() *RGBAImage {
	w, h := img.Width(), img.Height()
	clone := NewRGBAImage(w, h)
	b := img.Bounds()
	for y := 0; y < h; y++ {
		src := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(clone.Pix[y*clone.Stride:y*clone.Stride+w*4], img.Pix[src:src+w*4])
	}
	return clone
}

// GrayImage wraps image.Gray for single-channel planes.
type GrayImage struct {
	*image.Gray
}

// NewGrayImage creates a new GrayImage with the specified dimensions.
func NewGrayImage(width, height int) *GrayImage {
	return &GrayImage{
		Gray: image.NewGray(image.Rect(0, 0, width, height)),
	}
}

// GrayImageFromImage converts any image.Image to GrayImage.
func GrayImageFromImage(img image.Image) *GrayImage {
	bounds := img.Bounds()
	gray := NewGrayImage(bounds.Dx(), bounds.Dy())
	draw.Draw(gray.Gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}

// Width returns the image width.
func (img *GrayImage) Width() int {
	return img.Bounds().Dx()
}

// Height returns the image height.
func (img *GrayImage) Height() int {
	return img.Bounds().Dy()
}

// GetGray returns the grayscale value at (x, y).
func (img *GrayImage) GetGray(x, y int) uint8 {
	return img.GrayAt(x, y).Y
}

// SetGrayValue sets the grayscale value at (x, y).
func (img *GrayImage) SetGrayValue(x, y int, v uint8) {
	img.Gray.SetGray(x, y, color.Gray{Y: v})
}

// Clone creates a deep copy of the image, anchored at the origin.
func (img *GrayImage) Clone() *GrayImage {
	w, h := img.Width(), img.Height()
	clone := NewGrayImage(w, h)
	b := img.Bounds()
	for y := 0; y < h; y++ {
		src := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(clone.Pix[y*clone.Stride:y*clone.Stride+w], img.Pix[src:src+w])
	}
	return clone
}

// LabImage holds an image in 8-bit CIE L*a*b* as three separate planes,
// encoded the way OpenCV's COLOR_BGR2Lab does for 8-bit input:
//
//	L = L* * 255/100
//	A = a* + 128
//	B = b* + 128
//
// All three planes always have the same dimensions.
type LabImage struct {
	L, A, B *GrayImage
}

// NewLabImage creates a zeroed LabImage with the specified dimensions.
func NewLabImage(width, height int) *LabImage {
	return &LabImage{
		L: NewGrayImage(width, height),
		A: NewGrayImage(width, height),
		B: NewGrayImage(width, height),
	}
}

// Width returns the image width.
func (lab *LabImage) Width() int {
	return lab.L.Width()
}

// Height returns the image height.
func (lab *LabImage) Height() int {
	return lab.L.Height()
}

// Clone creates a deep copy of all three planes.
func (lab *LabImage) Clone() *LabImage {
	return &LabImage{
		L: lab.L.Clone(),
		A: lab.A.Clone(),
		B: lab.B.Clone(),
	}
}

// WithLightness returns a LabImage that uses l as its lightness plane and
// shares the A and B planes of lab.
func (lab *LabImage) WithLightness(l *GrayImage) *LabImage {
	return &LabImage{L: l, A: lab.A, B: lab.B}
}

// Consistent reports whether all three planes are present and equally
// sized.
func (lab *LabImage) Consistent() bool {
	if lab == nil || lab.L == nil || lab.A == nil || lab.B == nil ||
		lab.L.Gray == nil || lab.A.Gray == nil || lab.B.Gray == nil {
		return false
	}
	b := lab.L.Bounds().Size()
	return lab.A.Bounds().Size() == b && lab.B.Bounds().Size() == b
}
