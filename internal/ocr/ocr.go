// Package ocr defines the optional text-box detection seam of spec §9.
// No recognition engine ships here — same as the teacher, which ships no
// OCR at all. This mirrors the gated, independently-optional shape of
// the OCR module found elsewhere in the retrieval pack (built only under
// a dedicated build tag there): a narrow interface the shell may wire a
// real detector into, with the core locator never depending on it.
package ocr

import (
	"context"

	"github.com/jodrm/stampwise/internal/mask"
)

// TextBoxDetector finds additional text-bearing rectangles in a page
// image that the mask builder's own heuristics might miss (small type,
// unusual fonts, rotated text). Rectangles it returns are unioned into
// text_mask via Options.ExtraTextBoxes before the locator runs.
type TextBoxDetector interface {
	Detect(ctx context.Context, rgb []byte, width, height int) ([]mask.Rect, error)
}

// NoOpDetector satisfies TextBoxDetector without detecting anything; it
// is the default when no engine is configured.
type NoOpDetector struct{}

func (NoOpDetector) Detect(context.Context, []byte, int, int) ([]mask.Rect, error) {
	return nil, nil
}
