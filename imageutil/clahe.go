package imageutil

import (
	"fmt"
	"image"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// histBins is the number of intensity levels in an 8-bit plane.
const histBins = 256

// bandRows is the number of output rows one interpolation task handles.
const bandRows = 32

// CLAHE performs contrast-limited adaptive histogram equalization on a
// single 8-bit plane. It is the pure Go counterpart of gocv.CLAHE.
//
// The plane is split into a grid of tiles. Each tile gets a remapping
// table built from its clipped histogram, and every pixel is remapped by
// bilinear interpolation between the tables of the four nearest tile
// centers.
//
// A CLAHE value is immutable and safe for concurrent use.
type CLAHE struct {
	clipLimit float64
	tileGrid  image.Point
	workers   int
}

// ValidateCLAHEParams checks a clip limit and tile grid. The clip limit
// must be positive (+Inf disables clipping) and both grid dimensions must
// be at least one.
func ValidateCLAHEParams(clipLimit float64, tileGrid image.Point) error {
	if math.IsNaN(clipLimit) || clipLimit <= 0 {
		return fmt.Errorf("%w: clip limit must be positive, got %v",
			ErrInvalidParameter, clipLimit)
	}
	if tileGrid.X < 1 || tileGrid.Y < 1 {
		return fmt.Errorf("%w: tile grid must be at least 1x1, got %dx%d",
			ErrInvalidParameter, tileGrid.X, tileGrid.Y)
	}
	return nil
}

// NewCLAHE returns a CLAHE with the given clip limit and tile grid, where
// tileGrid.X is the number of tile columns and tileGrid.Y the number of
// tile rows. The OpenCV defaults are a clip limit of 40 and an 8x8 grid;
// 2.0 is the usual choice for photographs.
func NewCLAHE(clipLimit float64, tileGrid image.Point) (*CLAHE, error) {
	if err := ValidateCLAHEParams(clipLimit, tileGrid); err != nil {
		return nil, err
	}
	return &CLAHE{
		clipLimit: clipLimit,
		tileGrid:  tileGrid,
		workers:   runtime.GOMAXPROCS(0),
	}, nil
}

// WithWorkers returns a copy of c that uses at most n goroutines. Values
// of n below one select GOMAXPROCS. The result does not depend on n.
func (c *CLAHE) WithWorkers(n int) *CLAHE {
	clone := *c
	if n < 1 {
		n = runtime.GOMAXPROCS(0)
	}
	clone.workers = n
	return &clone
}

// ClipLimit returns the configured clip limit.
func (c *CLAHE) ClipLimit() float64 {
	return c.clipLimit
}

// TileGrid returns the configured tile grid as (columns, rows).
func (c *CLAHE) TileGrid() image.Point {
	return c.tileGrid
}

// Apply equalizes src and returns a new plane of the same size. src is
// not modified. A grid dimension larger than the plane is reduced so
// that every tile holds at least one pixel.
func (c *CLAHE) Apply(src *GrayImage) *GrayImage {
	width, height := src.Width(), src.Height()
	dst := NewGrayImage(width, height)
	if width == 0 || height == 0 {
		return dst
	}

	gx := min(c.tileGrid.X, width)
	gy := min(c.tileGrid.Y, height)
	xs := tileSpans(width, gx)
	ys := tileSpans(height, gy)

	luts := make([][histBins]uint8, gx*gy)
	err := forEach(c.workers, gx*gy, func(i int) error {
		luts[i] = c.tileLUT(src, xs[i%gx], ys[i/gx])
		return nil
	})
	if err != nil {
		panic(err)
	}

	xw := axisWeights(xs, width)
	yw := axisWeights(ys, height)
	bounds := src.Bounds()

	bands := (height + bandRows - 1) / bandRows
	err = forEach(c.workers, bands, func(band int) error {
		y0 := band * bandRows
		for y := y0; y < min(y0+bandRows, height); y++ {
			wy := yw[y]
			top := luts[wy.i0*gx : (wy.i0+1)*gx]
			bot := luts[wy.i1*gx : (wy.i1+1)*gx]
			srcRow := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			dstRow := y * dst.Stride
			for x := 0; x < width; x++ {
				v := src.Pix[srcRow+x]
				wx := xw[x]
				t := lerp(float64(top[wx.i0][v]), float64(top[wx.i1][v]), wx.w)
				b := lerp(float64(bot[wx.i0][v]), float64(bot[wx.i1][v]), wx.w)
				dst.Pix[dstRow+x] = clampUint8(lerp(t, b, wy.w))
			}
		}
		return nil
	})
	if err != nil {
		panic(err)
	}

	return dst
}

// forEach calls fn(i) for every i in [0, n) on at most workers goroutines
// and returns the first error.
func forEach(workers, n int, fn func(i int) error) error {
	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return fn(i)
		})
	}
	return g.Wait()
}

// tileLUT builds the remapping table for one tile. Bins above the clip
// limit are cut and the excess is spread evenly over all bins, so the
// histogram total is preserved. The table maps each level to the middle
// of its cumulative mass, which makes a flat histogram the identity.
func (c *CLAHE) tileLUT(src *GrayImage, xs, ys span) [histBins]uint8 {
	var hist [histBins]float64
	bounds := src.Bounds()
	for y := ys.start; y < ys.end; y++ {
		row := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		for _, v := range src.Pix[row+xs.start : row+xs.end] {
			hist[v]++
		}
	}

	n := float64(xs.len() * ys.len())
	clipHistogram(&hist, c.clipLimit*n/histBins)

	var lut [histBins]uint8
	scale := histBins / n
	cdf := 0.0
	for v := range hist {
		lut[v] = clampUint8((cdf+hist[v]/2)*scale - 0.5)
		cdf += hist[v]
	}
	return lut
}

// clipHistogram caps every bin at limit and redistributes the removed
// counts uniformly across all bins.
func clipHistogram(hist *[histBins]float64, limit float64) {
	if math.IsInf(limit, 1) {
		return
	}
	excess := 0.0
	for v, count := range hist {
		if count > limit {
			excess += count - limit
			hist[v] = limit
		}
	}
	if excess == 0 {
		return
	}
	share := excess / histBins
	for v := range hist {
		hist[v] += share
	}
}

// span is a half-open range [start, end) of pixel indices along one axis.
type span struct {
	start, end int
}

func (s span) len() int {
	return s.end - s.start
}

func (s span) center() float64 {
	return float64(s.start+s.end) / 2
}

// tileSpans splits length pixels into n tiles. Tiles have equal size
// except the first and last, which absorb the remainder between them.
func tileSpans(length, n int) []span {
	base, rem := length/n, length%n
	sizes := make([]int, n)
	for i := range sizes {
		sizes[i] = base
	}
	sizes[0] += rem / 2
	sizes[n-1] += rem - rem/2

	spans := make([]span, n)
	start := 0
	for i, size := range sizes {
		spans[i] = span{start: start, end: start + size}
		start += size
	}
	return spans
}

// axisWeight selects the two tiles a pixel interpolates between along one
// axis and the weight of the second one.
type axisWeight struct {
	i0, i1 int
	w      float64
}

// axisWeights precomputes interpolation weights for every pixel along an
// axis. Pixels before the first tile center or after the last one use
// that tile alone.
func axisWeights(spans []span, length int) []axisWeight {
	weights := make([]axisWeight, length)
	last := len(spans) - 1
	i := 0
	for p := 0; p < length; p++ {
		pos := float64(p) + 0.5
		switch {
		case pos <= spans[0].center():
			weights[p] = axisWeight{i0: 0, i1: 0}
		case pos >= spans[last].center():
			weights[p] = axisWeight{i0: last, i1: last}
		default:
			for spans[i+1].center() <= pos {
				i++
			}
			c0, c1 := spans[i].center(), spans[i+1].center()
			weights[p] = axisWeight{i0: i, i1: i + 1, w: (pos - c0) / (c1 - c0)}
		}
	}
	return weights
}

func lerp(a, b, w float64) float64 {
	return a + (b-a)*w
}
