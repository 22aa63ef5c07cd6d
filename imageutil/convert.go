package imageutil

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Scale factors between go-colorful's Lab ranges (L in [0,1], a and b
// roughly in [-1,1]) and the 8-bit OpenCV encoding.
const (
	labLScale  = 255.0
	labABScale = 100.0
	labABShift = 128.0
)

// RGBToLab8 converts an sRGB color to 8-bit Lab under the D65 white point.
func RGBToLab8(c RGB) (l, a, b uint8) {
	col := colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
	lf, af, bf := col.Lab()
	return clampUint8(lf * labLScale),
		clampUint8(af*labABScale + labABShift),
		clampUint8(bf*labABScale + labABShift)
}

// Lab8ToRGB converts an 8-bit Lab triple back to sRGB. Colors outside the
// sRGB gamut are clamped per channel.
func Lab8ToRGB(l, a, b uint8) RGB {
	col := colorful.Lab(
		float64(l)/labLScale,
		(float64(a)-labABShift)/labABScale,
		(float64(b)-labABShift)/labABScale,
	).Clamped()
	r, g, bl := col.RGB255()
	return RGB{R: r, G: g, B: bl}
}

// ToLab converts an RGBA image to an 8-bit LabImage. Alpha is ignored.
// This matches OpenCV's COLOR_RGB2Lab for 8-bit images up to rounding.
func ToLab(img *RGBAImage) *LabImage {
	width, height := img.Width(), img.Height()
	lab := NewLabImage(width, height)

	// Runs of identical pixels are common; reuse the previous result.
	var prev RGB
	var pl, pa, pb uint8
	havePrev := false

	b := img.Bounds()
	for y := 0; y < height; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		src := img.Pix[off : off+width*4]
		row := y * lab.L.Stride
		for x := 0; x < width; x++ {
			c := RGB{R: src[x*4], G: src[x*4+1], B: src[x*4+2]}
			if !havePrev || c != prev {
				pl, pa, pb = RGBToLab8(c)
				prev, havePrev = c, true
			}
			lab.L.Pix[row+x] = pl
			lab.A.Pix[row+x] = pa
			lab.B.Pix[row+x] = pb
		}
	}

	return lab
}

// LabToRGBA converts an 8-bit LabImage back to an opaque RGBA image.
func LabToRGBA(lab *LabImage) *RGBAImage {
	width, height := lab.Width(), lab.Height()
	rgba := NewRGBAImage(width, height)

	var pl, pa, pb uint8
	var prev RGB
	havePrev := false

	lb, ab, bb := lab.L.Bounds().Min, lab.A.Bounds().Min, lab.B.Bounds().Min
	for y := 0; y < height; y++ {
		lRow := lab.L.PixOffset(lb.X, lb.Y+y)
		aRow := lab.A.PixOffset(ab.X, ab.Y+y)
		bRow := lab.B.PixOffset(bb.X, bb.Y+y)
		dst := rgba.Pix[y*rgba.Stride : y*rgba.Stride+width*4]
		for x := 0; x < width; x++ {
			l, a, b := lab.L.Pix[lRow+x], lab.A.Pix[aRow+x], lab.B.Pix[bRow+x]
			if !havePrev || l != pl || a != pa || b != pb {
				prev = Lab8ToRGB(l, a, b)
				pl, pa, pb, havePrev = l, a, b, true
			}
			dst[x*4] = prev.R
			dst[x*4+1] = prev.G
			dst[x*4+2] = prev.B
			dst[x*4+3] = 255
		}
	}

	return rgba
}

// clampUint8 clamps a float64 to [0, 255] and converts to uint8.
func clampUint8(v float64) uint8 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Round(v))
}
