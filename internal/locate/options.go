package locate

import (
	"github.com/jodrm/stampwise/internal/mask"
	"github.com/jodrm/stampwise/internal/raster"
)

// DefaultSizeSequence is S from spec.md §4.2.1, reference-DPI pixels,
// descending: a larger stamp is always preferred over a smaller one.
var DefaultSizeSequence = []int{300, 260, 220, 180, 140, 110, 90}

const (
	SizeMin = 90
	SizeMax = 300

	DefaultMargin            = 40
	DefaultAcceptableOverlap = 0.02
	DefaultFallbackOverlap   = 0.10
)

// Options enumerates the only fields spec.md §6 recognizes. Fields at
// their zero value take the documented default.
type Options struct {
	WorkingDPI        int     // default raster.ReferenceDPI
	SizeSequence      []int   // default DefaultSizeSequence, must be descending
	AcceptableOverlap float64 // default DefaultAcceptableOverlap
	FallbackOverlap   float64 // default DefaultFallbackOverlap
	Margin            int     // default DefaultMargin, reference-DPI pixels
	PreferCorners     bool    // default true; see WithDefaults

	// preferCornersSet distinguishes an explicit `false` from the zero
	// value so WithDefaults can apply "default true" correctly.
	preferCornersSet bool
	preferCornersVal bool

	// DebugSink, if non-nil, receives one DebugEvent per Locate call.
	DebugSink func(DebugEvent)

	// ExtraTextBoxes is the optional OCR seam described in spec.md §9:
	// bounding boxes discovered out of band (e.g. by a Latin-script OCR
	// pass the shell ran) that are unioned into text_mask before the
	// halo dilation. Not one of the seven table fields in spec.md §6,
	// but the design notes explicitly describe it as reachable only
	// "via the public LocatorOptions" — so it lives here rather than as
	// a separate, harder-to-discover parameter.
	ExtraTextBoxes []mask.Rect
}

// SetPreferCorners sets PreferCorners explicitly, including to false,
// distinguishing it from an unset Options literal (whose zero value for
// a bool would otherwise be indistinguishable from "explicitly off").
func (o *Options) SetPreferCorners(v bool) {
	o.preferCornersSet = true
	o.preferCornersVal = v
	o.PreferCorners = v
}

// WithDefaults returns a copy of o with every unset field filled in.
func (o Options) WithDefaults() Options {
	out := o
	if out.WorkingDPI == 0 {
		out.WorkingDPI = raster.ReferenceDPI
	}
	if len(out.SizeSequence) == 0 {
		out.SizeSequence = DefaultSizeSequence
	}
	if out.AcceptableOverlap == 0 {
		out.AcceptableOverlap = DefaultAcceptableOverlap
	}
	if out.FallbackOverlap == 0 {
		out.FallbackOverlap = DefaultFallbackOverlap
	}
	if out.Margin == 0 {
		out.Margin = DefaultMargin
	}
	if !out.preferCornersSet {
		out.PreferCorners = true
	}
	return out
}

// scale converts a reference-DPI pixel constant to this option set's
// working DPI.
func (o Options) scale() float64 {
	return float64(o.WorkingDPI) / float64(raster.ReferenceDPI)
}
