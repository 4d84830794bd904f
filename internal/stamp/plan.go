// Package stamp implements the output boundary of the locator: turning a
// Placement into a StampPlan, and compositing a stamp image plus caption
// onto the output PDF at that plan's coordinates.
package stamp

import "github.com/jodrm/stampwise/internal/locate"

// Plan is the StampPlan output boundary type of spec §3: raster pixel
// units at the locator's working DPI. Translating to PDF user-space is
// the Compositor's job, not the locator's.
type Plan struct {
	PageNumber int
	X, Y       int
	Size       int
}

// FromPlacement builds a Plan for a single page from the locator's result.
func FromPlacement(pageNumber int, p locate.Placement) Plan {
	return Plan{
		PageNumber: pageNumber,
		X:          p.X,
		Y:          p.Y,
		Size:       p.Size,
	}
}

// PDFRect converts the plan's raster-space square into a PDF user-space
// rectangle (72 points/inch), flipping the Y axis: raster origin is
// top-left, PDF origin is bottom-left.
func (p Plan) PDFRect(dpi int, pageHeightPt float64) (x0, y0, x1, y1 float64) {
	scale := 72.0 / float64(dpi)
	x0 = float64(p.X) * scale
	x1 = float64(p.X+p.Size) * scale
	y1 = pageHeightPt - float64(p.Y)*scale
	y0 = pageHeightPt - float64(p.Y+p.Size)*scale
	return
}
