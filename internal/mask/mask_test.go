package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegralMaskTotalMatchesCount(t *testing.T) {
	m := New(37, 23)
	for _, p := range [][2]int{{0, 0}, {36, 22}, {10, 10}, {5, 20}} {
		m.Set(p[0], p[1])
	}
	integral := BuildIntegral(m)
	assert.Equal(t, m.Count(), integral.RectCount(0, 0, m.Width, m.Height))
}

func TestIntegralMaskRectCountMatchesNaive(t *testing.T) {
	m := New(20, 15)
	for y := 0; y < 15; y++ {
		for x := 0; x < 20; x++ {
			if (x*7+y*3)%5 == 0 {
				m.Set(x, y)
			}
		}
	}
	integral := BuildIntegral(m)

	naive := func(x0, y0, w, h int) int {
		n := 0
		for y := y0; y < y0+h && y < m.Height; y++ {
			for x := x0; x < x0+w && x < m.Width; x++ {
				if x < 0 || y < 0 {
					continue
				}
				if m.At(x, y) {
					n++
				}
			}
		}
		return n
	}

	cases := [][4]int{{0, 0, 5, 5}, {3, 2, 10, 8}, {0, 0, 20, 15}, {12, 9, 8, 6}}
	for _, c := range cases {
		require.Equal(t, naive(c[0], c[1], c[2], c[3]), integral.RectCount(c[0], c[1], c[2], c[3]))
	}
}

func TestDilateGrowsForbiddenRegion(t *testing.T) {
	m := New(20, 20)
	m.Set(10, 10)
	dilated := Dilate(m, 5, 5)
	assert.True(t, dilated.Count() > m.Count())
	assert.True(t, dilated.At(8, 10))
	assert.True(t, dilated.At(12, 10))
}

func TestCloseMergesNearbyGlyphs(t *testing.T) {
	m := New(30, 10)
	m.Set(5, 5)
	m.Set(15, 5)
	closed := Close(m, 20, 3)
	assert.True(t, closed.At(10, 5), "closing with a wide kernel should bridge the gap between the two points")
}

func TestOpenRemovesIsolatedSpeck(t *testing.T) {
	m := New(30, 30)
	m.Set(15, 15) // single-pixel speck
	opened := Open(m, 5, 5)
	assert.Equal(t, 0, opened.Count(), "a lone pixel should not survive erosion by a 5x5 kernel")
}

func TestConnectedComponentsSeparatesBlobs(t *testing.T) {
	m := New(20, 20)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			m.Set(x, y)
		}
	}
	for y := 15; y < 18; y++ {
		for x := 15; x < 18; x++ {
			m.Set(x, y)
		}
	}
	comps := ConnectedComponents(m)
	require.Len(t, comps, 2)
	for _, c := range comps {
		assert.Equal(t, 9, c.Area)
	}
}

func TestUnionIsSupersetOfEachInput(t *testing.T) {
	a := New(10, 10)
	a.Set(1, 1)
	b := New(10, 10)
	b.Set(8, 8)
	u := Union(a, b)
	assert.True(t, u.At(1, 1))
	assert.True(t, u.At(8, 8))
	assert.Equal(t, 2, u.Count())
}
