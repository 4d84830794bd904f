package locate

import (
	"fmt"

	"github.com/jodrm/stampwise/internal/mask"
	"github.com/jodrm/stampwise/internal/raster"
)

// LocateStamp implements spec.md §6's locate_stamp operation: it builds
// the three forbidden-region masks (spec.md §4.1) and then searches them
// for a placement (spec.md §4.2). It is pure and stateless per call: no
// shared mutable state, no I/O beyond the optional debug sink, no
// suspension. All concurrency across pages lives in the caller.
func LocateStamp(r *raster.PageRaster, opts Options) (Placement, error) {
	if r == nil || r.Width <= 0 || r.Height <= 0 {
		return Placement{}, &LocatorError{Err: fmt.Errorf("%w", ErrInvalidRaster)}
	}

	o := opts.WithDefaults()
	if o.WorkingDPI != r.DPI {
		// The caller is expected to rasterize at the DPI it intends to
		// run the locator at; if it didn't, trust the raster's own DPI
		// for scaling so constants stay geometrically correct.
		o.WorkingDPI = r.DPI
	}

	builder := &mask.Builder{ExtraTextBoxes: o.ExtraTextBoxes}
	masks, err := builder.Build(r)
	if err != nil {
		return Placement{}, &LocatorError{Err: err}
	}

	placement, err := search(r.Width, r.Height, masks, o)
	if err != nil {
		return Placement{}, err
	}

	if o.DebugSink != nil {
		o.DebugSink(buildDebugEvent(r, masks, placement))
	}

	return placement, nil
}

func buildDebugEvent(r *raster.PageRaster, masks *mask.Masks, p Placement) DebugEvent {
	total := float64(r.Width * r.Height)
	return DebugEvent{
		Width:        r.Width,
		Height:       r.Height,
		Masks:        masks,
		Placement:    p,
		TextOverlap:  float64(masks.Text.Count()) / total,
		ImageOverlap: float64(masks.Image.Count()) / total,
		QROverlap:    float64(masks.QR.Count()) / total,
	}
}

// search implements spec.md §4.2.2–4.2.3 over the precomputed union mask.
func search(width, height int, masks *mask.Masks, o Options) (Placement, error) {
	integral := mask.BuildIntegral(masks.Union)
	factor := o.scale()
	margin := scaleDim(o.Margin, factor)

	sizes := scaledSizes(o.SizeSequence, factor)

	var anySize bool
	var best *Placement

	for _, size := range sizes {
		if size+2*margin > width || size+2*margin > height {
			continue // this size cannot fit the margin constraints at all
		}
		anySize = true

		cand := bestForSize(integral, width, height, size, margin, o.PreferCorners, o.AcceptableOverlap)
		cand.Quality = Quality{
			Size:    cand.Size,
			Tier:    tierFor(cand.OverlapFraction, o.AcceptableOverlap, o.FallbackOverlap),
			Overlap: cand.OverlapFraction,
		}

		if best == nil || cand.Quality.Better(best.Quality) {
			best = &cand
		}
		if cand.Quality.Tier == TierAccept {
			return cand, nil
		}
	}

	if !anySize {
		return Placement{}, &LocatorError{Err: ErrPageTooSmall}
	}

	return *best, nil
}

func tierFor(overlap, acceptable, fallback float64) Tier {
	switch {
	case overlap <= acceptable:
		return TierAccept
	case overlap <= fallback:
		return TierFallback
	default:
		return TierDegraded
	}
}

func scaledSizes(seq []int, factor float64) []int {
	out := make([]int, len(seq))
	for i, s := range seq {
		out[i] = scaleDim(s, factor)
	}
	return out
}

func scaleDim(v int, factor float64) int {
	s := int(float64(v)*factor + 0.5)
	if s < 1 {
		s = 1
	}
	return s
}

// bestForSize finds the lowest-overlap position for a square of side
// size within the margin-constrained search space, preferring corners
// when requested and returning immediately on the first corner whose
// overlap is acceptable (spec.md §4.2.3). The strided scan itself does
// not stop early: it returns the lowest-overlap position it finds.
func bestForSize(integral *mask.IntegralMask, width, height, size, margin int, preferCorners bool, acceptable float64) Placement {
	xMax := width - size - margin
	yMax := height - size - margin
	xMin, yMin := margin, margin

	if xMax < xMin || yMax < yMin {
		// Cannot happen: callers only invoke this once size+2*margin
		// fits both axes. Guard anyway rather than scanning garbage.
		return Placement{X: xMin, Y: yMin, Size: size, OverlapFraction: 1}
	}

	overlapAt := func(x, y int) float64 {
		count := integral.RectCount(x, y, size, size)
		return float64(count) / float64(size*size)
	}

	if preferCorners {
		corners := [][2]int{
			{xMax, yMin}, // top-right
			{xMin, yMin}, // top-left
			{xMax, yMax}, // bottom-right
			{xMin, yMax}, // bottom-left
		}
		bestCorner := Placement{OverlapFraction: 2} // worse than any real overlap
		for _, c := range corners {
			ov := overlapAt(c[0], c[1])
			if ov <= acceptable {
				return Placement{X: c[0], Y: c[1], Size: size, OverlapFraction: ov}
			}
			if ov < bestCorner.OverlapFraction {
				bestCorner = Placement{X: c[0], Y: c[1], Size: size, OverlapFraction: ov}
			}
		}
		// No corner accepted outright; fall back to a full scan, but
		// still prefer a corner on a near-tie (within 1%), matching the
		// §4.2.3 corner-preference bias rather than an arbitrary pick
		// among equally-good positions.
		scanned := stridedScan(integral, xMin, yMin, xMax, yMax, size, overlapAt)
		if bestCorner.OverlapFraction <= scanned.OverlapFraction+0.01 {
			return bestCorner
		}
		return scanned
	}

	return stridedScan(integral, xMin, yMin, xMax, yMax, size, overlapAt)
}

// stridedScan performs the coarse-then-refine search of spec.md §4.2.2:
// a strided pass over the valid region, then a step-1 refinement within
// ±step of the best strided candidate.
func stridedScan(integral *mask.IntegralMask, xMin, yMin, xMax, yMax, size int, overlapAt func(x, y int) float64) Placement {
	step := size / 16
	if step < 8 {
		step = 8
	}

	best := Placement{X: xMin, Y: yMin, Size: size, OverlapFraction: overlapAt(xMin, yMin)}
	for y := yMin; y <= yMax; y += step {
		for x := xMin; x <= xMax; x += step {
			ov := overlapAt(x, y)
			if ov < best.OverlapFraction {
				best = Placement{X: x, Y: y, Size: size, OverlapFraction: ov}
			}
		}
	}

	refineXMin, refineXMax := clampInt(best.X-step, xMin, xMax), clampInt(best.X+step, xMin, xMax)
	refineYMin, refineYMax := clampInt(best.Y-step, yMin, yMax), clampInt(best.Y+step, yMin, yMax)
	for y := refineYMin; y <= refineYMax; y++ {
		for x := refineXMin; x <= refineXMax; x++ {
			ov := overlapAt(x, y)
			if ov < best.OverlapFraction {
				best = Placement{X: x, Y: y, Size: size, OverlapFraction: ov}
			}
		}
	}

	return best
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
