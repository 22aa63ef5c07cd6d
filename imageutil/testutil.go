package imageutil

import (
	"math"
)

// CreateGradientImage creates a horizontal gray gradient test image.
func CreateGradientImage(width, height int) *RGBAImage {
	img := NewRGBAImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(255 * x / max(width-1, 1))
			img.SetRGB(x, y, RGB{R: v, G: v, B: v})
		}
	}
	return img
}

// CreateGrayGradient creates a horizontal gradient plane.
func CreateGrayGradient(width, height int) *GrayImage {
	img := NewGrayImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGrayValue(x, y, uint8(255*x/max(width-1, 1)))
		}
	}
	return img
}

// CreateSolidImage creates a solid color image.
func CreateSolidImage(width, height int, c RGB) *RGBAImage {
	img := NewRGBAImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGB(x, y, c)
		}
	}
	return img
}

// CreateSplitImage creates an image whose left half is left and whose
// right half is right.
func CreateSplitImage(width, height int, left, right RGB) *RGBAImage {
	img := NewRGBAImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.SetRGB(x, y, left)
			} else {
				img.SetRGB(x, y, right)
			}
		}
	}
	return img
}

// CreateSplitGray creates a plane whose left half is left and whose right
// half is right.
func CreateSplitGray(width, height int, left, right uint8) *GrayImage {
	img := NewGrayImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.SetGrayValue(x, y, left)
			} else {
				img.SetGrayValue(x, y, right)
			}
		}
	}
	return img
}

// CreateColorBarsImage creates a color bars test pattern.
func CreateColorBarsImage(width, height int) *RGBAImage {
	img := NewRGBAImage(width, height)
	colors := []RGB{
		{255, 255, 255}, // White
		{255, 255, 0},   // Yellow
		{0, 255, 255},   // Cyan
		{0, 255, 0},     // Green
		{255, 0, 255},   // Magenta
		{255, 0, 0},     // Red
		{0, 0, 255},     // Blue
		{0, 0, 0},       // Black
	}

	barWidth := max(width/len(colors), 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			colorIdx := x / barWidth
			if colorIdx >= len(colors) {
				colorIdx = len(colors) - 1
			}
			img.SetRGB(x, y, colors[colorIdx])
		}
	}
	return img
}

// CreateNoiseImage creates a deterministic low-contrast color image:
// smooth shading plus pseudo-random noise, kept within the middle of the
// intensity range so equalization has something to stretch.
func CreateNoiseImage(width, height int, seed uint32) *RGBAImage {
	img := NewRGBAImage(width, height)
	state := seed | 1
	next := func() int {
		// xorshift32
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		return int(state % 24)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			base := 90 + 60*x/max(width, 1) + 20*y/max(height, 1)
			img.SetRGB(x, y, RGB{
				R: uint8(base + next()),
				G: uint8(base - 10 + next()),
				B: uint8(base - 30 + next()),
			})
		}
	}
	return img
}

// CalculateMSE calculates the Mean Squared Error between two RGBA images.
func CalculateMSE(img1, img2 *RGBAImage) float64 {
	if img1.Width() != img2.Width() || img1.Height() != img2.Height() {
		return math.MaxFloat64
	}

	width, height := img1.Width(), img1.Height()
	var sumSq float64
	count := float64(width * height * 3) // 3 channels

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c1 := img1.RGBAAt(x, y)
			c2 := img2.RGBAAt(x, y)
			dr := float64(c1.R) - float64(c2.R)
			dg := float64(c1.G) - float64(c2.G)
			db := float64(c1.B) - float64(c2.B)
			sumSq += dr*dr + dg*dg + db*db
		}
	}

	return sumSq / count
}

// CalculateMSEGray calculates the Mean Squared Error between two grayscale images.
func CalculateMSEGray(img1, img2 *GrayImage) float64 {
	if img1.Width() != img2.Width() || img1.Height() != img2.Height() {
		return math.MaxFloat64
	}

	width, height := img1.Width(), img1.Height()
	var sumSq float64
	count := float64(width * height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			d := float64(img1.GetGray(x, y)) - float64(img2.GetGray(x, y))
			sumSq += d * d
		}
	}

	return sumSq / count
}

// CalculateMaxDiff calculates the maximum channel difference between two images.
func CalculateMaxDiff(img1, img2 *RGBAImage) int {
	if img1.Width() != img2.Width() || img1.Height() != img2.Height() {
		return 256
	}

	width, height := img1.Width(), img1.Height()
	maxDiff := 0

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c1 := img1.RGBAAt(x, y)
			c2 := img2.RGBAAt(x, y)
			maxDiff = max(maxDiff,
				abs(int(c1.R)-int(c2.R)),
				abs(int(c1.G)-int(c2.G)),
				abs(int(c1.B)-int(c2.B)))
		}
	}

	return maxDiff
}

// CalculateMaxDiffGray calculates the maximum pixel difference between two planes.
func CalculateMaxDiffGray(img1, img2 *GrayImage) int {
	if img1.Width() != img2.Width() || img1.Height() != img2.Height() {
		return 256
	}

	maxDiff := 0
	for y := 0; y < img1.Height(); y++ {
		for x := 0; x < img1.Width(); x++ {
			maxDiff = max(maxDiff, abs(int(img1.GetGray(x, y))-int(img2.GetGray(x, y))))
		}
	}
	return maxDiff
}

// StdDevGray returns the standard deviation of the pixel values of a plane.
func StdDevGray(img *GrayImage) float64 {
	n := float64(img.Width() * img.Height())
	if n == 0 {
		return 0
	}
	var sum, sumSq float64
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			v := float64(img.GetGray(x, y))
			sum += v
			sumSq += v * v
		}
	}
	mean := sum / n
	return math.Sqrt(math.Max(sumSq/n-mean*mean, 0))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
