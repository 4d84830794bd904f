package rasterize

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/jodrm/stampwise/internal/raster"
)

// External rasterizes a page by shelling out to poppler's pdftoppm, the
// external renderer spec.md §1 assumes the shell delegates to (no PDF
// content-stream interpreter exists anywhere in the retrieval pack). The
// invocation shape — resolve the tool on PATH, run it against a temp
// directory, read its output back, wrap failures with its combined
// output — is grounded on the latex package's lualatex invocation
// (exec.CommandContext, os.MkdirTemp, CombinedOutput) and the rmconvert
// OCR module's configurable-tool-path-with-default pattern (tessPath).
type External struct {
	// ToolPath is the pdftoppm binary to run; defaults to "pdftoppm" on PATH.
	ToolPath string
}

func (e *External) Rasterize(pdfPath string, pageNumber, dpi int) (*raster.PageRaster, error) {
	tool := e.ToolPath
	if tool == "" {
		tool = "pdftoppm"
	}
	if _, err := exec.LookPath(tool); err != nil {
		return nil, fmt.Errorf("rasterize: %s not found on PATH: %w", tool, err)
	}

	tmpDir, err := os.MkdirTemp("", "stampwise-rasterize-*")
	if err != nil {
		return nil, fmt.Errorf("rasterize: creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outBase := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(context.Background(), tool,
		"-png",
		"-r", strconv.Itoa(dpi),
		"-f", strconv.Itoa(pageNumber),
		"-l", strconv.Itoa(pageNumber),
		"-singlefile",
		pdfPath,
		outBase,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("rasterize: %s failed for page %d: %w\n%s", tool, pageNumber, err, output)
	}

	f, err := os.Open(outBase + ".png")
	if err != nil {
		return nil, fmt.Errorf("rasterize: reading rendered page %d: %w", pageNumber, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("rasterize: decoding rendered page %d: %w", pageNumber, err)
	}

	return raster.FromImage(img, dpi)
}
