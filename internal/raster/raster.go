// Package raster defines the PageRaster type the locator core consumes.
//
// A PageRaster is produced by an external rasterizer (see internal/rasterize)
// and is immutable once built: the mask builder and locator never mutate it.
package raster

import (
	"fmt"
	"image"
)

// ReferenceDPI is the DPI all pixel-valued constants in the core are tuned
// against. Running at a different working DPI scales those constants
// linearly by WorkingDPI/ReferenceDPI.
const ReferenceDPI = 200

// PageRaster is an immutable W×H grid of RGB pixels at a known DPI.
// Origin is top-left, matching raster/image conventions.
type PageRaster struct {
	Pix    []byte // packed RGB, row-major, 3 bytes/pixel, no padding
	Width  int
	Height int
	DPI    int
}

// New builds a PageRaster from packed 8-bit RGB pixel data. It does not
// copy pix; callers must not mutate it afterwards.
func New(pix []byte, width, height, dpi int) (*PageRaster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: invalid dimensions %dx%d: %w", width, height, ErrInvalidRaster)
	}
	if dpi <= 0 {
		return nil, fmt.Errorf("raster: invalid dpi %d: %w", dpi, ErrInvalidRaster)
	}
	if len(pix) != width*height*3 {
		return nil, fmt.Errorf("raster: pixel buffer length %d does not match %dx%d RGB: %w", len(pix), width, height, ErrInvalidRaster)
	}
	return &PageRaster{Pix: pix, Width: width, Height: height, DPI: dpi}, nil
}

// FromImage converts a standard library image.Image to a PageRaster at the
// given DPI, stripping alpha (the locator only reasons about RGB content).
func FromImage(img image.Image, dpi int) (*PageRaster, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("raster: invalid image bounds %v: %w", b, ErrInvalidRaster)
	}
	pix := make([]byte, w*h*3)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			pix[i] = byte(r >> 8)
			pix[i+1] = byte(g >> 8)
			pix[i+2] = byte(bl >> 8)
			i += 3
		}
	}
	return New(pix, w, h, dpi)
}

// At returns the RGB triple at (x, y). Callers must ensure the coordinate
// is in bounds; this is a hot path used by mask construction.
func (r *PageRaster) At(x, y int) (uint8, uint8, uint8) {
	off := (y*r.Width + x) * 3
	return r.Pix[off], r.Pix[off+1], r.Pix[off+2]
}

// Scale returns the multiplier that converts a constant tuned at
// ReferenceDPI to this raster's working DPI.
func (r *PageRaster) Scale() float64 {
	return float64(r.DPI) / float64(ReferenceDPI)
}

// ScaleFor converts a constant tuned at ReferenceDPI to workingDPI.
func ScaleFor(workingDPI int) float64 {
	return float64(workingDPI) / float64(ReferenceDPI)
}
