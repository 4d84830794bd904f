package mask

import (
	"testing"

	"github.com/jodrm/stampwise/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blankRaster(t *testing.T, w, h, dpi int) *raster.PageRaster {
	t.Helper()
	pix := make([]byte, w*h*3)
	for i := range pix {
		pix[i] = 0xFF
	}
	r, err := raster.New(pix, w, h, dpi)
	require.NoError(t, err)
	return r
}

func TestBuilderBlankPageHasNoForbiddenPixels(t *testing.T) {
	r := blankRaster(t, 400, 400, 200)
	b := &Builder{}
	masks, err := b.Build(r)
	require.NoError(t, err)
	assert.Equal(t, 0, masks.Union.Count())
}

func TestBuilderTooSmallPageFallsBackToFullyForbidden(t *testing.T) {
	r := blankRaster(t, 50, 50, 200)
	b := &Builder{}
	masks, err := b.Build(r)
	require.NoError(t, err)
	assert.Equal(t, r.Width*r.Height, masks.Union.Count())
}

func TestBuilderIsDeterministic(t *testing.T) {
	r := blankRaster(t, 300, 300, 200)
	for y := 100; y < 140; y++ {
		for x := 100; x < 260; x++ {
			idx := (y*r.Width + x) * 3
			r.Pix[idx], r.Pix[idx+1], r.Pix[idx+2] = 0, 0, 0
		}
	}

	b := &Builder{}
	m1, err := b.Build(r)
	require.NoError(t, err)
	m2, err := b.Build(r)
	require.NoError(t, err)

	assert.Equal(t, m1.Union.Bits, m2.Union.Bits)
}

func TestBuilderMasksShareRasterDimensions(t *testing.T) {
	r := blankRaster(t, 500, 350, 200)
	b := &Builder{}
	masks, err := b.Build(r)
	require.NoError(t, err)

	assert.True(t, SameShape(masks.Text, masks.Image))
	assert.True(t, SameShape(masks.Image, masks.QR))
	assert.Equal(t, r.Width, masks.Union.Width)
	assert.Equal(t, r.Height, masks.Union.Height)
}

func TestQRCandidateDetectedAsSquareHighVarianceBlob(t *testing.T) {
	r := blankRaster(t, 400, 400, 200)
	// Paint an 80x80 "QR-like" block alternating between two dark tones
	// (0 and 180), both below threshText: the binarized mask is solid
	// (high solidity) while the underlying grayscale still has high
	// local variance, matching a real QR module pattern more closely
	// than a black/white checkerboard would (which threshold-binarizes
	// to scattered, disconnected single pixels).
	for y := 150; y < 230; y++ {
		for x := 150; x < 230; x++ {
			idx := (y*r.Width + x) * 3
			var v byte = 180
			if (x+y)%2 == 0 {
				v = 0
			}
			r.Pix[idx], r.Pix[idx+1], r.Pix[idx+2] = v, v, v
		}
	}

	gray := Luma(r)
	b := gray.Threshold(threshText)
	candidates := QRCandidates(b, gray)
	require.NotEmpty(t, candidates)
}
