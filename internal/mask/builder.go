package mask

import (
	"fmt"

	"github.com/jodrm/stampwise/internal/raster"
)

// Reference-DPI constants from spec.md §4.1. The two intensity thresholds
// are used as-is at every DPI; minImageArea is an area, so it is scaled by
// the square of the working-DPI ratio before use.
const (
	threshText   = 200  // B = G < threshText
	threshLapl   = 30   // L = |∇²G| > threshLapl
	minImageArea = 5000 // discard Laplacian components smaller than this
)

// Kernel is a width×height structuring element size in pixels at
// reference DPI; Scaled applies the DPI ratio and rounds to >=1.
type Kernel struct{ W, H int }

func (k Kernel) Scaled(factor float64) Kernel {
	return Kernel{W: scaleDim(k.W, factor), H: scaleDim(k.H, factor)}
}

func scaleDim(v int, factor float64) int {
	s := int(float64(v)*factor + 0.5)
	if s < 1 {
		s = 1
	}
	return s
}

// Masks holds the three per-page forbidden-region masks plus their union,
// matching the data model of spec.md §3.
type Masks struct {
	Text  *Mask
	Image *Mask
	QR    *Mask
	Union *Mask
}

// Builder constructs Masks from a PageRaster, per spec.md §4.1. It has no
// mutable state of its own: all inputs are derived fresh from the raster
// passed to Build, keeping the core deterministic and side-effect-free.
type Builder struct {
	// ExtraTextBoxes, when non-nil, is unioned into the text mask before
	// dilation. This is the seam spec.md §9 describes for an optional
	// OCR collaborator: bounding boxes the shell discovered out of band.
	ExtraTextBoxes []Rect
}

// textHorizontalClose, textVerticalClose, textDetailClose, textHalo, and
// the image/qr dilation kernels below are the reference-DPI kernel sizes
// from spec.md §4.1's table.
var (
	textHorizontalClose = Kernel{W: 50, H: 3}
	textVerticalClose   = Kernel{W: 3, H: 30}
	textDetailClose     = Kernel{W: 10, H: 10}
	textHalo            = Kernel{W: 50, H: 30}

	imageDilate = Kernel{W: 60, H: 60}
	qrDilate    = Kernel{W: 80, H: 80}

	ruleHorizontalOpen = Kernel{W: 100, H: 1}
	ruleVerticalOpen   = Kernel{W: 1, H: 100}
)

// Build produces the three forbidden-region masks for r. If r is smaller
// than twice the largest kernel in either axis, it falls back to marking
// the entire page forbidden (spec.md §4.1 failure contract), forcing the
// locator into degraded mode rather than returning an error: a too-small
// raster is not itself an InvalidRaster.
func (b *Builder) Build(r *raster.PageRaster) (*Masks, error) {
	if r == nil || r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("mask: nil or empty raster: %w", raster.ErrInvalidRaster)
	}

	factor := r.Scale()
	maxKernel := maxOf(textHorizontalClose.W, textVerticalClose.H, textHalo.W, textHalo.H,
		imageDilate.W, imageDilate.H, qrDilate.W, qrDilate.H, ruleHorizontalOpen.W, ruleVerticalOpen.H)
	maxKernel = scaleDim(maxKernel, factor)

	if r.Width < 2*maxKernel || r.Height < 2*maxKernel {
		full := Full(r.Width, r.Height)
		return &Masks{Text: full, Image: full, QR: full, Union: full}, nil
	}

	gray := Luma(r)
	text := b.buildTextMask(gray, factor)
	preDilationB := gray.Threshold(threshText)
	image := b.buildImageMask(gray, preDilationB, factor)
	qr := b.buildQRMask(preDilationB, gray, factor)

	union := Union(text, image, qr)
	return &Masks{Text: text, Image: image, QR: qr, Union: union}, nil
}

func (b *Builder) buildTextMask(gray *Grayscale, factor float64) *Mask {
	binarized := gray.Threshold(threshText)

	hClose := textHorizontalClose.Scaled(factor)
	horizontal := Close(binarized, hClose.W, hClose.H)

	vClose := textVerticalClose.Scaled(factor)
	vertical := Close(binarized, vClose.W, vClose.H)

	dClose := textDetailClose.Scaled(factor)
	detail := Close(binarized, dClose.W, dClose.H)

	merged := Union(horizontal, vertical, detail)

	if len(b.ExtraTextBoxes) > 0 {
		extra := FillBoxes(toComponents(b.ExtraTextBoxes), gray.Width, gray.Height)
		merged = Union(merged, extra)
	}

	halo := textHalo.Scaled(factor)
	return Dilate(merged, halo.W, halo.H)
}

func (b *Builder) buildImageMask(gray *Grayscale, binarized *Mask, factor float64) *Mask {
	lap := gray.Laplacian()
	thresh := int32(threshLapl)
	highVariation := New(gray.Width, gray.Height)
	for i, v := range lap {
		if v > thresh {
			highVariation.Bits[i] = 1
		}
	}

	minArea := scaleDim(minImageArea, factor*factor)
	comps := ConnectedComponents(highVariation)
	comps = FilterByArea(comps, minArea)
	components := FillBoxes(comps, gray.Width, gray.Height)

	hOpen := ruleHorizontalOpen.Scaled(factor)
	rulesH := Open(binarized, hOpen.W, hOpen.H)
	vOpen := ruleVerticalOpen.Scaled(factor)
	rulesV := Open(binarized, vOpen.W, vOpen.H)

	merged := Union(components, rulesH, rulesV)

	dilate := imageDilate.Scaled(factor)
	return Dilate(merged, dilate.W, dilate.H)
}

func (b *Builder) buildQRMask(binarized *Mask, gray *Grayscale, factor float64) *Mask {
	candidates := QRCandidates(binarized, gray)
	canvas := FillBoxes(toComponents(candidates), gray.Width, gray.Height)

	dilate := qrDilate.Scaled(factor)
	return Dilate(canvas, dilate.W, dilate.H)
}

func toComponents(rects []Rect) []Component {
	comps := make([]Component, len(rects))
	for i, r := range rects {
		comps[i] = Component{Bounds: r, Area: r.Area()}
	}
	return comps
}

func maxOf(vs ...int) int {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
