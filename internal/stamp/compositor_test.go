package stamp

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeMinimalPDF hand-builds a tiny one-page PDF with a correct xref
// table, the same technique internal/rasterize's tests use — there is no
// sample-PDF fixture anywhere in the retrieval pack.
func writeMinimalPDF(t *testing.T, path string, widthPt, heightPt float64) {
	t.Helper()

	var buf bytes.Buffer
	offsets := make([]int, 5)

	buf.WriteString("%PDF-1.4\n")

	offsets[1] = buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = buf.Len()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = buf.Len()
	fmt.Fprintf(&buf, "3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << >> /Contents 4 0 R >>\nendobj\n", widthPt, heightPt)

	offsets[4] = buf.Len()
	buf.WriteString("4 0 obj\n<< /Length 0 >>\nstream\n\nendstream\nendobj\n")

	xrefStart := buf.Len()
	buf.WriteString("xref\n0 5\n")
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 4; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	buf.WriteString("trailer\n<< /Size 5 /Root 1 0 R >>\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF", xrefStart)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestPDFCompositorCompositeStampsWithoutError(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "doc.pdf")
	writeMinimalPDF(t, pdfPath, 612, 792)

	stampImg := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			stampImg.Set(x, y, color.RGBA{R: 10, G: 200, B: 10, A: 255})
		}
	}

	c := &PDFCompositor{WorkDir: dir}
	plan := Plan{PageNumber: 1, X: 50, Y: 50, Size: 100}
	caption := Caption{Prefix: "A", DocumentIndex: 0, PageIndex: 0}

	err := c.Composite(pdfPath, plan, 200, stampImg, caption)
	require.NoError(t, err)

	info, err := os.Stat(pdfPath)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}
