package mask

// Connected-component labeling over a binary mask, iterative 4-connected
// flood fill with an explicit stack (avoids recursion blowing the stack
// on large forbidden blobs). The shape of this pass — a visited grid plus
// an explicit point stack growing/shrinking a bounding box — follows the
// flood-fill region finder used for digit-region isolation in the OCR
// module examined from the retrieval pack (connected-component region
// proposal ahead of per-region filtering is the same problem there as
// here: isolate blobs, then keep only the ones that pass a size/shape
// test).

// Component is one labeled connected blob of forbidden pixels.
type Component struct {
	Bounds Rect
	Area   int
}

// Rect is an axis-aligned pixel rectangle, half-open on the high end.
type Rect struct {
	X0, Y0, X1, Y1 int
}

func (r Rect) Width() int  { return r.X1 - r.X0 }
func (r Rect) Height() int { return r.Y1 - r.Y0 }
func (r Rect) Area() int   { return r.Width() * r.Height() }

// ConnectedComponents labels 4-connected forbidden regions of m and
// returns one Component per blob, in no particular order.
func ConnectedComponents(m *Mask) []Component {
	w, h := m.Width, m.Height
	visited := make([]bool, w*h)
	var comps []Component

	type point struct{ x, y int }
	stack := make([]point, 0, 256)

	for sy := 0; sy < h; sy++ {
		for sx := 0; sx < w; sx++ {
			idx := sy*w + sx
			if visited[idx] || m.Bits[idx] == 0 {
				continue
			}

			minX, minY, maxX, maxY := sx, sy, sx, sy
			area := 0
			stack = append(stack[:0], point{sx, sy})
			visited[idx] = true

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				area++

				if p.x < minX {
					minX = p.x
				}
				if p.x > maxX {
					maxX = p.x
				}
				if p.y < minY {
					minY = p.y
				}
				if p.y > maxY {
					maxY = p.y
				}

				neighbors := [4]point{{p.x + 1, p.y}, {p.x - 1, p.y}, {p.x, p.y + 1}, {p.x, p.y - 1}}
				for _, n := range neighbors {
					if n.x < 0 || n.x >= w || n.y < 0 || n.y >= h {
						continue
					}
					nIdx := n.y*w + n.x
					if visited[nIdx] || m.Bits[nIdx] == 0 {
						continue
					}
					visited[nIdx] = true
					stack = append(stack, n)
				}
			}

			comps = append(comps, Component{
				Bounds: Rect{X0: minX, Y0: minY, X1: maxX + 1, Y1: maxY + 1},
				Area:   area,
			})
		}
	}
	return comps
}

// FilterByArea keeps only components with Area >= minArea.
func FilterByArea(comps []Component, minArea int) []Component {
	out := comps[:0]
	for _, c := range comps {
		if c.Area >= minArea {
			out = append(out, c)
		}
	}
	return out
}

// FillBoxes marks every pixel in each component's bounding box forbidden on a
// fresh mask of the given dimensions.
func FillBoxes(comps []Component, width, height int) *Mask {
	m := New(width, height)
	for _, c := range comps {
		for y := c.Bounds.Y0; y < c.Bounds.Y1; y++ {
			for x := c.Bounds.X0; x < c.Bounds.X1; x++ {
				m.Set(x, y)
			}
		}
	}
	return m
}
