package stamp

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Caption describes the numbered label composited underneath the stamp
// image, per spec §4.3: "Pièce n° {prefix}-{document_index + page_index}".
type Caption struct {
	Prefix        string
	DocumentIndex int
	PageIndex     int
}

func (c Caption) String() string {
	return fmt.Sprintf("Pièce n° %s-%d", c.Prefix, c.DocumentIndex+c.PageIndex)
}

// Compositor is the external collaborator of spec §4.3: it owns font,
// color, and caption format — the locator enforces none of it.
type Compositor interface {
	// Composite scales stampSrc to plan.Size x plan.Size, renders the
	// caption beneath it, and stamps the result onto pdfPath at the page
	// identified by plan.PageNumber, at the raster coordinates of plan
	// translated to PDF user-space at dpi.
	Composite(pdfPath string, plan Plan, dpi int, stampSrc image.Image, caption Caption) error
}

// PDFCompositor is the concrete Compositor used by the CLI shell. It
// resizes the stamp with github.com/disintegration/imaging, draws the
// caption with the golang.org/x/image/font stack (already pulled in
// transitively by pdfcpu's own font handling), and places the composed
// PNG onto the target page with pdfcpu's image-watermark API.
type PDFCompositor struct {
	Font     font.Face
	TextSize float64 // caption font size in px; Composite does not read it (the caption band is the fixed captionBandPx)

	// WorkDir holds intermediate PNGs; if empty, os.MkdirTemp("", ...) is used per call.
	WorkDir string
}

const captionBandPx = 28 // extra vertical space below the stamp reserved for the caption line

// Composite implements Compositor.
func (c *PDFCompositor) Composite(pdfPath string, plan Plan, dpi int, stampSrc image.Image, caption Caption) error {
	resized := imaging.Resize(stampSrc, plan.Size, plan.Size, imaging.Lanczos)

	canvas := image.NewRGBA(image.Rect(0, 0, plan.Size, plan.Size+captionBandPx))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, 0, plan.Size, plan.Size), resized, image.Point{}, draw.Over)

	if c.Font != nil {
		text := caption.String()
		width := font.MeasureString(c.Font, text).Ceil()
		x := (plan.Size - width) / 2
		if x < 0 {
			x = 0
		}
		d := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(color.Black),
			Face: c.Font,
			Dot: fixed.Point26_6{
				X: fixed.I(x),
				Y: fixed.I(plan.Size + captionBandPx - 6),
			},
		}
		d.DrawString(text)
	}

	workDir := c.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", "stampwise-composite-*")
		if err != nil {
			return fmt.Errorf("creating composite work dir: %w", err)
		}
		defer os.RemoveAll(dir)
		workDir = dir
	}

	pngPath := filepath.Join(workDir, fmt.Sprintf("stamp_p%d.png", plan.PageNumber))
	f, err := os.Create(pngPath)
	if err != nil {
		return fmt.Errorf("creating stamp PNG: %w", err)
	}
	if err := png.Encode(f, canvas); err != nil {
		f.Close()
		return fmt.Errorf("encoding stamp PNG: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	dims, err := api.PageDimsFile(pdfPath)
	if err != nil {
		return fmt.Errorf("reading PDF page dims: %w", err)
	}
	pageIdx := plan.PageNumber - 1
	if pageIdx < 0 || pageIdx >= len(dims) {
		pageIdx = 0
	}
	pageHeightPt := dims[pageIdx].Height

	x0, y0, _, _ := plan.PDFRect(dpi, pageHeightPt)

	// pdfcpu positions image watermarks by an anchor plus an offset from
	// it; "bl" (bottom-left) plus the raster-to-PDF converted offset lands
	// the stamp exactly where the locator placed it, at native scale.
	wmDesc := fmt.Sprintf("pos:bl, offset:%.2f %.2f, scale:1 abs, rotation:0", x0, y0)
	pageSelector := []string{strconv.Itoa(plan.PageNumber)}

	if err := api.AddImageWatermarksFile(pdfPath, "", pageSelector, true, pngPath, wmDesc, nil); err != nil {
		return fmt.Errorf("stamping page %d: %w", plan.PageNumber, err)
	}
	return nil
}

// LoadFont loads a TTF/OTF/TTC font file for caption rendering, mirroring
// the Watermarck example's one-time font load at a fixed size/DPI.
func LoadFont(path string, sizePx, dpi float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading font file: %w", err)
	}
	collection, err := opentype.ParseCollection(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	f, err := collection.Font(0)
	if err != nil {
		return nil, fmt.Errorf("selecting font: %w", err)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{Size: sizePx, DPI: dpi})
}
