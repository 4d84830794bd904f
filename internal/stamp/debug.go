package stamp

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"strconv"

	"github.com/dennwc/gotrace"
	"github.com/jodrm/stampwise/internal/locate"
	"github.com/jodrm/stampwise/internal/mask"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// overlay colors per spec §6's debug_sink contract: red=text, blue=image,
// magenta=qr, green=chosen placement (whatever its tier).
var (
	colorText  = color.RGBA{R: 220, G: 40, B: 40, A: 255}
	colorImage = color.RGBA{R: 40, G: 70, B: 220, A: 255}
	colorQR    = color.RGBA{R: 200, G: 40, B: 200, A: 255}
	colorPlace = color.RGBA{R: 30, G: 180, B: 60, A: 255}
)

// RenderDebugPNG paints the three forbidden masks and the chosen
// placement onto a single raster-sized PNG for quick visual inspection.
func RenderDebugPNG(ev locate.DebugEvent, outPath string) error {
	img := image.NewRGBA(image.Rect(0, 0, ev.Width, ev.Height))
	for y := 0; y < ev.Height; y++ {
		for x := 0; x < ev.Width; x++ {
			c := color.RGBA{R: 255, G: 255, B: 255, A: 255}
			switch {
			case ev.Masks.QR.At(x, y):
				c = colorQR
			case ev.Masks.Image.At(x, y):
				c = colorImage
			case ev.Masks.Text.At(x, y):
				c = colorText
			}
			img.SetRGBA(x, y, c)
		}
	}

	p := ev.Placement
	drawRect(img, p.X, p.Y, p.Size, p.Size, colorPlace)

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating debug PNG: %w", err)
	}
	defer f.Close()
	return png.Encode(f, img)
}

func drawRect(img *image.RGBA, x, y, w, h int, c color.RGBA) {
	for i := 0; i < w; i++ {
		img.SetRGBA(x+i, y, c)
		img.SetRGBA(x+i, y+h-1, c)
	}
	for j := 0; j < h; j++ {
		img.SetRGBA(x, y+j, c)
		img.SetRGBA(x+w-1, y+j, c)
	}
}

// maskObject pairs a traced mask's outlines with the fill color used for
// its vector overlay page.
type maskObject struct {
	paths []gotrace.Path
	r, g, b byte
}

// traceMask traces a binary Mask's forbidden region into vector outlines,
// a direct adaptation of the teacher's traceAndOverlayMask: there the
// bitmap came from a pen/marker layer, here it comes from a content mask.
func traceMask(m *mask.Mask) ([]gotrace.Path, error) {
	gray := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			v := byte(0xFF)
			if m.At(x, y) {
				v = 0x00
			}
			gray.SetGray(x, y, color.Gray{Y: v})
		}
	}
	bm := gotrace.NewBitmapFromImage(gray, func(x, y int, cl color.Color) bool {
		v, _, _, _ := cl.RGBA()
		return v < 0x8000
	})
	params := gotrace.Defaults
	params.TurdSize = 2
	return gotrace.Trace(bm, &params)
}

// RenderDebugVectorPDF traces the three masks and writes a single-page
// vector-overlay PDF, then stamps it onto outputPath at pageNumber via
// pdfcpu, reusing the raw PDF object-writing approach of the teacher's
// buildVectorPageChunk/writeOnePageVectorPDF.
func RenderDebugVectorPDF(ev locate.DebugEvent, outputPath string, pageNumber int, tmpVectorPath string, pageWidthPt, pageHeightPt float64) error {
	var objects []maskObject
	for _, spec := range []struct {
		m          *mask.Mask
		r, g, b byte
	}{
		{ev.Masks.Text, colorText.R, colorText.G, colorText.B},
		{ev.Masks.Image, colorImage.R, colorImage.G, colorImage.B},
		{ev.Masks.QR, colorQR.R, colorQR.G, colorQR.B},
	} {
		paths, err := traceMask(spec.m)
		if err != nil {
			return fmt.Errorf("tracing mask: %w", err)
		}
		if len(paths) == 0 {
			continue
		}
		objects = append(objects, maskObject{paths: paths, r: spec.r, g: spec.g, b: spec.b})
	}

	chunk, _ := buildVectorPageChunk(objects, ev.Width, ev.Height, pageWidthPt, pageHeightPt, 3)
	if err := writeOnePageVectorPDF(tmpVectorPath, chunk, pageWidthPt, pageHeightPt); err != nil {
		return fmt.Errorf("writing debug vector overlay: %w", err)
	}

	pageSelector := []string{strconv.Itoa(pageNumber)}
	if err := api.AddPDFWatermarksFile(outputPath, "", pageSelector, true, tmpVectorPath, "pos:c, scale:1 rel, rotation:0", nil); err != nil {
		return fmt.Errorf("stamping debug vector overlay: %w", err)
	}
	return nil
}

// ---- raw PDF object writing, adapted from the teacher's vector.go ----

type pdfObject struct {
	id   int
	data []byte
}

type vectorPageChunk struct {
	objects []pdfObject
}

func appendFloat4(buf []byte, f float64) []byte {
	rounded := math.Round(f*10000) / 10000
	return strconv.AppendFloat(buf, rounded, 'f', 4, 64)
}

func buildVectorPageChunk(objs []maskObject, width, height int, pageWidthPt, pageHeightPt float64, objStart int) (vectorPageChunk, int) {
	content := make([]byte, 0, 8*1024)
	sx := pageWidthPt / float64(width)
	sy := pageHeightPt / float64(height)

	for _, o := range objs {
		if len(o.paths) == 0 {
			continue
		}
		content = append(content, "q\n"...)
		content = appendFloat4(content, float64(o.r)/255.0)
		content = append(content, ' ')
		content = appendFloat4(content, float64(o.g)/255.0)
		content = append(content, ' ')
		content = appendFloat4(content, float64(o.b)/255.0)
		content = append(content, " rg\n"...)
		for _, p := range o.paths {
			content = appendPDFSubpathTree(content, p, sx, sy, pageHeightPt)
		}
		content = append(content, "f*\nQ\n"...)
	}

	pageObjID := objStart
	contentsObjID := objStart + 1

	pageObj := fmt.Sprintf(
		"%d 0 obj\n<< /Type /Page\n   /Parent 2 0 R\n   /MediaBox [0 0 %.2f %.2f]\n   /Contents %d 0 R\n   /Resources << >>\n>>\nendobj\n",
		pageObjID, pageWidthPt, pageHeightPt, contentsObjID,
	)
	contentsObj := fmt.Sprintf(
		"%d 0 obj\n<< /Length %d >>\nstream\n%sendstream\nendobj\n",
		contentsObjID, len(content), content,
	)

	return vectorPageChunk{objects: []pdfObject{
		{id: pageObjID, data: []byte(pageObj)},
		{id: contentsObjID, data: []byte(contentsObj)},
	}}, 2
}

func appendPDFSubpath(buf []byte, p gotrace.Path, sx, sy, pageHeightPt float64) []byte {
	c := p.Curve
	if len(c) == 0 {
		return buf
	}

	last := c[len(c)-1]
	buf = appendFloat4(buf, last.Pnt[2].X*sx)
	buf = append(buf, ' ')
	buf = appendFloat4(buf, pageHeightPt-last.Pnt[2].Y*sy)
	buf = append(buf, " m\n"...)

	for _, seg := range c {
		switch seg.Type {
		case gotrace.TypeBezier:
			buf = appendFloat4(buf, seg.Pnt[0].X*sx)
			buf = append(buf, ' ')
			buf = appendFloat4(buf, pageHeightPt-seg.Pnt[0].Y*sy)
			buf = append(buf, ' ')
			buf = appendFloat4(buf, seg.Pnt[1].X*sx)
			buf = append(buf, ' ')
			buf = appendFloat4(buf, pageHeightPt-seg.Pnt[1].Y*sy)
			buf = append(buf, ' ')
			buf = appendFloat4(buf, seg.Pnt[2].X*sx)
			buf = append(buf, ' ')
			buf = appendFloat4(buf, pageHeightPt-seg.Pnt[2].Y*sy)
			buf = append(buf, " c\n"...)
		case gotrace.TypeCorner:
			buf = appendFloat4(buf, seg.Pnt[1].X*sx)
			buf = append(buf, ' ')
			buf = appendFloat4(buf, pageHeightPt-seg.Pnt[1].Y*sy)
			buf = append(buf, " l\n"...)
			buf = appendFloat4(buf, seg.Pnt[2].X*sx)
			buf = append(buf, ' ')
			buf = appendFloat4(buf, pageHeightPt-seg.Pnt[2].Y*sy)
			buf = append(buf, " l\n"...)
		}
	}

	buf = append(buf, "h\n"...)
	return buf
}

func appendPDFSubpathTree(buf []byte, p gotrace.Path, sx, sy, pageHeightPt float64) []byte {
	buf = appendPDFSubpath(buf, p, sx, sy, pageHeightPt)
	for _, child := range p.Childs {
		buf = appendPDFSubpathTree(buf, child, sx, sy, pageHeightPt)
	}
	return buf
}

type pdfWriter struct {
	w      *bufio.Writer
	offset uint64
}

func (pw *pdfWriter) write(data []byte) {
	pw.w.Write(data)
	pw.offset += uint64(len(data))
}

func (pw *pdfWriter) writeStr(s string) {
	pw.w.WriteString(s)
	pw.offset += uint64(len(s))
}

func (pw *pdfWriter) writeHeader() {
	pw.write([]byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n"))
}

func (pw *pdfWriter) writeXrefTrailer(xrefOffsets []uint64, totalObjects int) {
	xrefStart := pw.offset
	pw.writeStr("xref\n")
	pw.writeStr(fmt.Sprintf("0 %d\n", totalObjects+1))
	pw.writeStr("0000000000 65535 f \n")
	for _, off := range xrefOffsets {
		fmt.Fprintf(pw.w, "%010d 00000 n \n", off)
		pw.offset += 20
	}
	pw.writeStr("trailer\n")
	pw.writeStr(fmt.Sprintf("<< /Size %d /Root 1 0 R >>\n", totalObjects+1))
	pw.writeStr("startxref\n")
	pw.writeStr(fmt.Sprintf("%d\n", xrefStart))
	pw.writeStr("%%EOF\n")
}

// writeOnePageVectorPDF writes a single-page vector PDF used as the
// stampable debug overlay, adapted from the teacher's function of the
// same name and purpose.
func writeOnePageVectorPDF(outPath string, chunk vectorPageChunk, pageWidthPt, pageHeightPt float64) error {
	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer outFile.Close()

	pageObjID := 3
	totalObjects := 2 + len(chunk.objects)
	xrefOffsets := make([]uint64, totalObjects)

	pw := &pdfWriter{w: bufio.NewWriter(outFile)}
	pw.writeHeader()

	xrefOffsets[0] = pw.offset
	pw.write([]byte("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n"))

	xrefOffsets[1] = pw.offset
	pw.writeStr(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [ %d 0 R ] /Count 1 >>\nendobj\n", pageObjID))

	for _, obj := range chunk.objects {
		xrefOffsets[obj.id-1] = pw.offset
		pw.write(obj.data)
	}

	pw.writeXrefTrailer(xrefOffsets, totalObjects)
	return pw.w.Flush()
}
