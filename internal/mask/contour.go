package mask

// QR/matrix-code candidate detection (spec.md §4.1.3).
//
// A full contour-extraction + polygon-approximation pipeline (as an
// OpenCV-style findContours + approxPolyDP would give) needs either a
// dedicated vision library or a hand-written Suzuki-Abe border-following
// tracer; neither is available in the retrieval pack's dependency set.
// Per spec.md §9 ("an implementer may substitute a hand-rolled integral
// image and a simple union-find connected-components pass if no suitable
// library is available"), this builds the same five acceptance tests on
// top of the connected-components pass already written for 4.1.2:
//
//   - "exactly 4 vertices, convex" is approximated by solidity: a
//     connected blob whose pixel count nearly fills its bounding box is,
//     to within the resolution of a rasterized page, an axis-aligned
//     quadrilateral — true contour/polygon approximation on a thresholded
//     QR finder pattern or dense module cluster would find exactly this
//     shape.
//   - aspect ratio, bounding-box area, and intensity variance are applied
//     exactly as specified.
const (
	qrMinSolidity  = 0.70
	qrAspectLo     = 0.85
	qrAspectHi     = 1.15
	qrMinBBoxArea  = 2000
	qrVarThreshold = 1500.0
)

// QRCandidates finds axis-aligned bounding boxes in the pre-dilation text
// mask b that look like QR/matrix codes: near-square, solid, high local
// intensity variance in the source grayscale.
func QRCandidates(b *Mask, gray *Grayscale) []Rect {
	comps := ConnectedComponents(b)
	var out []Rect
	for _, c := range comps {
		bbox := c.Bounds
		area := bbox.Area()
		if area < qrMinBBoxArea {
			continue
		}
		aspect := float64(bbox.Width()) / float64(bbox.Height())
		if aspect < qrAspectLo || aspect > qrAspectHi {
			continue
		}
		solidity := float64(c.Area) / float64(area)
		if solidity < qrMinSolidity {
			continue
		}
		variance := gray.VarianceInRect(bbox.X0, bbox.Y0, bbox.X1, bbox.Y1)
		if variance <= qrVarThreshold {
			continue
		}
		out = append(out, bbox)
	}
	return out
}
