package mask

// Morphological operations on binary masks, hand-rolled rather than
// pulled from an imaging library: spec.md §9 explicitly sanctions this
// substitution ("a hand-rolled integral image and a simple union-find
// connected-components pass if no suitable library is available"), and
// none of the retrieval pack's dependencies exposes rectangular-kernel
// morphology directly (golang.org/x/image covers resampling and font
// rendering, not structuring-element morphology).
//
// Dilation/erosion use separable row/column passes so a w×h kernel costs
// O(W·H) instead of O(W·H·w·h): a 1-D sliding-window max (dilate) or min
// (erode) along each axis in turn, which is the standard trick for box-
// shaped structuring elements.

// Dilate grows forbidden regions by a kw×kh rectangular kernel centered on
// each pixel (kw and kh are the kernel's total width and height, not radii).
func Dilate(m *Mask, kw, kh int) *Mask {
	return boxMorph(m, kw, kh, true)
}

// Erode shrinks forbidden regions by a w×h rectangular kernel.
func Erode(m *Mask, kw, kh int) *Mask {
	return boxMorph(m, kw, kh, false)
}

// Open is erosion followed by dilation: removes small forbidden specks
// without changing the size of larger regions.
func Open(m *Mask, kw, kh int) *Mask {
	return Dilate(Erode(m, kw, kh), kw, kh)
}

// Close is dilation followed by erosion: fills small gaps in forbidden
// regions (used to merge glyphs into word/line blobs).
func Close(m *Mask, kw, kh int) *Mask {
	return Erode(Dilate(m, kw, kh), kw, kh)
}

// boxMorph applies a separable box max/min filter of the given kernel
// size. dilate=true grows (OR/max over the window); dilate=false shrinks
// (AND/min over the window).
func boxMorph(m *Mask, kw, kh int, dilate bool) *Mask {
	if kw < 1 {
		kw = 1
	}
	if kh < 1 {
		kh = 1
	}
	tmp := boxMorph1D(m.Bits, m.Width, m.Height, kw, true, dilate)
	out := boxMorph1D(tmp, m.Width, m.Height, kh, false, dilate)
	return &Mask{Bits: out, Width: m.Width, Height: m.Height}
}

// boxMorph1D runs a 1-D sliding-window max/min of width k along rows
// (horizontal=true) or columns (horizontal=false), using a monotonic
// deque so the whole pass is O(n) regardless of k.
func boxMorph1D(bits []byte, w, h, k int, horizontal, dilate bool) []byte {
	out := make([]byte, len(bits))
	left := k / 2
	right := k - left - 1

	lineLen := w
	if !horizontal {
		lineLen = h
	}
	numLines := h
	if !horizontal {
		numLines = w
	}

	get := func(line, i int) byte {
		if horizontal {
			return bits[line*w+i]
		}
		return bits[i*w+line]
	}
	set := func(line, i int, v byte) {
		if horizontal {
			out[line*w+i] = v
		} else {
			out[i*w+line] = v
		}
	}

	deque := make([]int, 0, lineLen)
	for line := 0; line < numLines; line++ {
		deque = deque[:0]
		for i := 0; i < lineLen+right; i++ {
			if i < lineLen {
				v := get(line, i)
				for len(deque) > 0 {
					lastIdx := deque[len(deque)-1]
					lastV := get(line, lastIdx)
					if (dilate && lastV <= v) || (!dilate && lastV >= v) {
						deque = deque[:len(deque)-1]
					} else {
						break
					}
				}
				deque = append(deque, i)
			}
			outIdx := i - right
			if outIdx < 0 || outIdx >= lineLen {
				continue
			}
			for len(deque) > 0 && deque[0] < outIdx-left {
				deque = deque[1:]
			}
			if len(deque) > 0 {
				set(line, outIdx, get(line, deque[0]))
			}
		}
	}
	return out
}
