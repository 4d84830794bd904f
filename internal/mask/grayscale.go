package mask

import "github.com/jodrm/stampwise/internal/raster"

// Grayscale is a W×H single-channel image, luma-converted from a raster.
type Grayscale struct {
	Pix    []byte
	Width  int
	Height int
}

// Luma converts a PageRaster to grayscale using the ITU-R BT.601 luma
// weights, the same coefficients the teacher's RLE/PNG compositing code
// uses for its own luminance blend (299/587/114 per mille).
func Luma(r *raster.PageRaster) *Grayscale {
	g := &Grayscale{Pix: make([]byte, r.Width*r.Height), Width: r.Width, Height: r.Height}
	for i := 0; i < r.Width*r.Height; i++ {
		rr, gg, bb := r.Pix[i*3], r.Pix[i*3+1], r.Pix[i*3+2]
		lum := (299*uint32(rr) + 587*uint32(gg) + 114*uint32(bb)) / 1000
		g.Pix[i] = byte(lum)
	}
	return g
}

func (g *Grayscale) At(x, y int) byte {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return 255 // treat out-of-bounds as background (white)
	}
	return g.Pix[y*g.Width+x]
}

// Threshold binarizes g: pixels strictly darker than thresh become
// forbidden (1) in the returned mask ("darker pixels are ink-candidates").
func (g *Grayscale) Threshold(thresh byte) *Mask {
	m := New(g.Width, g.Height)
	for i, v := range g.Pix {
		if v < thresh {
			m.Bits[i] = 1
		}
	}
	return m
}

// Laplacian computes the absolute discrete Laplacian |∇²G| using the
// standard 4-neighbor stencil (-4 center, +1 each of up/down/left/right).
// Border pixels use replicated edges.
func (g *Grayscale) Laplacian() []int32 {
	w, h := g.Width, g.Height
	out := make([]int32, w*h)
	at := func(x, y int) int32 {
		if x < 0 {
			x = 0
		}
		if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		}
		if y >= h {
			y = h - 1
		}
		return int32(g.Pix[y*w+x])
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			lap := at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1) - 4*at(x, y)
			if lap < 0 {
				lap = -lap
			}
			out[y*w+x] = lap
		}
	}
	return out
}

// VarianceInRect returns the intensity variance of g within the given
// rectangle, clipped to bounds. Used by QR-candidate scoring (VAR_QR).
func (g *Grayscale) VarianceInRect(x0, y0, x1, y1 int) float64 {
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > g.Width {
		x1 = g.Width
	}
	if y1 > g.Height {
		y1 = g.Height
	}
	if x1 <= x0 || y1 <= y0 {
		return 0
	}
	var sum, sumSq float64
	n := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			v := float64(g.Pix[y*g.Width+x])
			sum += v
			sumSq += v * v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}
