// Package rasterize defines the PageRaster-producing boundary of spec
// §1: the rasterizer is an external collaborator, never part of the
// locator core. Real content-stream rendering is out of scope — no PDF
// content-stream interpreter exists anywhere in the retrieval pack — so
// production rasterization is delegated to an external tool (External,
// which runs pdftoppm); besides that, this package reads page geometry
// and offers a synthetic rasterizer for tests and debug runs.
package rasterize

import (
	"fmt"

	"github.com/jodrm/stampwise/internal/raster"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageGeometry is the page count and per-page MediaBox dimensions (in
// PDF points) the coordinator needs before dispatching rasterization.
type PageGeometry struct {
	PageCount int
	WidthPt   []float64
	HeightPt  []float64
}

// ReadGeometry reads page count and dimensions from a PDF without
// rasterizing it, exactly as the teacher's mark.go calls
// api.PageDimsFile ahead of stamping a `.mark` overlay onto a companion PDF.
func ReadGeometry(pdfPath string) (PageGeometry, error) {
	dims, err := api.PageDimsFile(pdfPath)
	if err != nil {
		return PageGeometry{}, fmt.Errorf("reading PDF page dims: %w", err)
	}
	g := PageGeometry{PageCount: len(dims)}
	for _, d := range dims {
		g.WidthPt = append(g.WidthPt, d.Width)
		g.HeightPt = append(g.HeightPt, d.Height)
	}
	return g, nil
}

// Rasterizer produces a PageRaster for a given page of a document at a
// target DPI. Production implementations shell out to an external
// renderer; Synthetic below is for tests and the --synthetic debug path.
type Rasterizer interface {
	Rasterize(pdfPath string, pageNumber, dpi int) (*raster.PageRaster, error)
}

// Synthetic paints a blank (or lightly patterned) page at the requested
// DPI from PDF point dimensions, with no PDF content rendered. It backs
// this package's tests and cmd/stampwise's --synthetic debug flag;
// production stamping uses External instead, since a synthetic raster
// never reflects a document's real text/image/QR content.
type Synthetic struct {
	// Pattern, if set, is called per-pixel to seed non-blank content
	// (e.g. to exercise the mask builder in tests); nil paints white.
	Pattern func(x, y, width, height int) (r, g, b byte)
}

func (s *Synthetic) Rasterize(pdfPath string, pageNumber, dpi int) (*raster.PageRaster, error) {
	geom, err := ReadGeometry(pdfPath)
	if err != nil {
		return nil, err
	}
	idx := pageNumber - 1
	if idx < 0 || idx >= geom.PageCount {
		return nil, fmt.Errorf("page %d out of range (%d pages)", pageNumber, geom.PageCount)
	}

	width := int(geom.WidthPt[idx] / 72.0 * float64(dpi))
	height := int(geom.HeightPt[idx] / 72.0 * float64(dpi))
	pix := make([]byte, width*height*3)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := (y*width + x) * 3
			r, g, b := byte(0xFF), byte(0xFF), byte(0xFF)
			if s.Pattern != nil {
				r, g, b = s.Pattern(x, y, width, height)
			}
			pix[idx], pix[idx+1], pix[idx+2] = r, g, b
		}
	}

	return raster.New(pix, width, height, dpi)
}
