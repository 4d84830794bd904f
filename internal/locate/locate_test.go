package locate

import (
	"testing"

	"github.com/jodrm/stampwise/internal/mask"
	"github.com/jodrm/stampwise/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullExceptBand returns a Union mask that is forbidden everywhere except
// a full-width clear horizontal band [bandY0, bandY1), used to pin down
// exact per-size overlap numbers (spec.md §8 scenarios 2 and 6) without
// going through the mask builder's own text/image/QR dilation passes,
// which would each grow the same bars independently and make the exact
// overlap arithmetic unverifiable by hand.
func fullExceptBand(width, height, bandY0, bandY1 int) *mask.Masks {
	m := mask.Full(width, height)
	for y := bandY0; y < bandY1; y++ {
		for x := 0; x < width; x++ {
			m.Bits[y*width+x] = 0
		}
	}
	return &mask.Masks{Union: m}
}

func blank(t *testing.T, w, h, dpi int) *raster.PageRaster {
	t.Helper()
	pix := make([]byte, w*h*3)
	for i := range pix {
		pix[i] = 0xFF
	}
	r, err := raster.New(pix, w, h, dpi)
	require.NoError(t, err)
	return r
}

func paintBlack(r *raster.PageRaster, x0, y0, x1, y1 int) {
	for y := y0; y < y1 && y < r.Height; y++ {
		for x := x0; x < x1 && x < r.Width; x++ {
			idx := (y*r.Width + x) * 3
			r.Pix[idx], r.Pix[idx+1], r.Pix[idx+2] = 0, 0, 0
		}
	}
}

// Scenario 1: blank A4 @ 300 DPI, working_dpi=300.
func TestScenarioBlankA4Page(t *testing.T) {
	r := blank(t, 2480, 3508, 300)
	p, err := LocateStamp(r, Options{WorkingDPI: 300})
	require.NoError(t, err)

	assert.Equal(t, 450, p.Size)
	assert.Equal(t, 1970, p.X)
	assert.Equal(t, 60, p.Y)
	assert.Equal(t, 0.0, p.OverlapFraction)
	assert.Equal(t, TierAccept, p.Quality.Tier)
}

// Scenario 5: page smaller than 90 + 2*40 -> PageTooSmall.
func TestScenarioPageTooSmall(t *testing.T) {
	r := blank(t, 150, 150, 200)
	_, err := LocateStamp(r, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPageTooSmall)
}

// Scenario: page entirely covered by text -> degraded, overlap 1.0, never raises.
func TestScenarioFullyForbiddenPageDegrades(t *testing.T) {
	r := blank(t, 600, 600, 200)
	paintBlack(r, 0, 0, 600, 600)

	p, err := LocateStamp(r, Options{})
	require.NoError(t, err)
	assert.Equal(t, TierDegraded, p.Quality.Tier)
	assert.InDelta(t, 1.0, p.OverlapFraction, 1e-9)
}

// Scenario 4: a two-column body leaving a blank gutter at top.
func TestScenarioBlankTopGutter(t *testing.T) {
	r := blank(t, 1600, 2000, 200)
	// Two text columns starting at y=500, leaving the top ~500px clear.
	paintBlack(r, 100, 500, 700, 1900)
	paintBlack(r, 900, 500, 1500, 1900)

	p, err := LocateStamp(r, Options{})
	require.NoError(t, err)
	assert.Equal(t, 300, p.Size)
	assert.LessOrEqual(t, p.OverlapFraction, 0.02)
	assert.Less(t, p.Y, 500)
}

// Scenario 2 (DPI-300 sub-case): a page covered in text except a 150px
// clear band at working_dpi=300 (factor 1.5), narrower than the scaled
// size above it (165 = 110*1.5) but wide enough for size 135 (90*1.5) to
// clear fully. Expect size=135 with overlap_fraction=0.
func TestScenarioTextCoveredPageAt300DPIPicksSmallestSize(t *testing.T) {
	width, height := 2000, 2000
	masks := fullExceptBand(width, height, 900, 1050) // 150px clear band

	p, err := search(width, height, masks, Options{WorkingDPI: 300}.WithDefaults())
	require.NoError(t, err)

	assert.Equal(t, 135, p.Size)
	assert.InDelta(t, 0.0, p.OverlapFraction, 1e-9)
	assert.Equal(t, TierAccept, p.Quality.Tier)
}

// Scenario 3: a single QR-sized forbidden block centered on a large page
// at working_dpi=200. Even with generous builder dilation the block stays
// far from every corner, so expect size=300 in a corner with overlap well
// under the 0.02 bound the scenario names.
func TestScenarioQRCenteredPage(t *testing.T) {
	r := blank(t, 2600, 2600, 200)
	paintBlack(r, 1100, 1100, 1500, 1500) // 400x400, centered

	p, err := LocateStamp(r, Options{})
	require.NoError(t, err)

	assert.Equal(t, 300, p.Size)
	assert.LessOrEqual(t, p.OverlapFraction, 0.02)
	assert.Equal(t, TierAccept, p.Quality.Tier)
	assert.Equal(t, 2600-300-DefaultMargin, p.X)
	assert.Equal(t, DefaultMargin, p.Y)
}

// Scenario 6: no size clears the 0.10 fallback bound except a 90px region
// with overlap ~0.08. A full-width clear band only 83px tall forces every
// size to straddle its edges; size=90's shortfall (90-83=7 rows over a
// 90-wide window) works out to the scenario's named ~0.08, while every
// larger size's shortfall blows past 0.10.
func TestScenarioFallbackSize90(t *testing.T) {
	width, height := 2000, 2000
	masks := fullExceptBand(width, height, 960, 1043) // 83px clear band

	p, err := search(width, height, masks, Options{}.WithDefaults())
	require.NoError(t, err)

	assert.Equal(t, 90, p.Size)
	assert.Equal(t, TierFallback, p.Quality.Tier)
	assert.InDelta(t, 0.0778, p.OverlapFraction, 0.02)
}

// Exercises the degraded-tier branch of Quality.Better directly: a small
// island of clear space too small for any size to land inside cleanly, so
// every size ends up degraded (>0.10 overlap), but a larger square dilutes
// the same fixed-size clear island more than a smaller one does — overlap
// strictly increases with size. The buggy pre-fix Better (largest-size-
// wins regardless of tier) would have returned size=300 here; the fix
// must return the minimum-overlap candidate, size=90, instead.
func TestDegradedTierPrefersMinimumOverlapOverLargestSize(t *testing.T) {
	width, height := 2000, 2000
	hole := 60
	hx, hy := (width-hole)/2, (height-hole)/2

	m := mask.Full(width, height)
	for y := hy; y < hy+hole; y++ {
		for x := hx; x < hx+hole; x++ {
			m.Bits[y*width+x] = 0
		}
	}

	p, err := search(width, height, &mask.Masks{Union: m}, Options{}.WithDefaults())
	require.NoError(t, err)

	assert.Equal(t, TierDegraded, p.Quality.Tier)
	assert.Equal(t, 90, p.Size)
	assert.InDelta(t, 1-float64(hole*hole)/float64(90*90), p.OverlapFraction, 0.02)
}

func TestLocateStampRejectsInvalidRaster(t *testing.T) {
	_, err := LocateStamp(nil, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRaster)
}

func TestLocateStampIsDeterministic(t *testing.T) {
	r := blank(t, 1000, 1200, 200)
	paintBlack(r, 200, 200, 900, 260)

	p1, err := LocateStamp(r, Options{})
	require.NoError(t, err)
	p2, err := LocateStamp(r, Options{})
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
}

func TestLocateStampSatisfiesBoundsInvariant(t *testing.T) {
	r := blank(t, 900, 700, 200)
	paintBlack(r, 50, 50, 850, 100)

	p, err := LocateStamp(r, Options{})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, p.X, 0)
	assert.GreaterOrEqual(t, p.Y, 0)
	assert.LessOrEqual(t, p.X+p.Size, r.Width)
	assert.LessOrEqual(t, p.Y+p.Size, r.Height)
	assert.GreaterOrEqual(t, p.Size, SizeMin)
	assert.LessOrEqual(t, p.Size, SizeMax)
}

func TestMonotoneMaskGrowthNeverDecreasesOverlapForFixedSize(t *testing.T) {
	small := blank(t, 800, 800, 200)
	paintBlack(small, 300, 300, 500, 340)

	large := blank(t, 800, 800, 200)
	paintBlack(large, 300, 300, 500, 340)
	paintBlack(large, 100, 100, 700, 700) // strictly more forbidden pixels

	opts := Options{SizeSequence: []int{200}}
	pSmall, err := LocateStamp(small, opts)
	require.NoError(t, err)
	pLarge, err := LocateStamp(large, opts)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, pLarge.OverlapFraction, pSmall.OverlapFraction)
}
