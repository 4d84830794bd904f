package raster

import "errors"

// ErrInvalidRaster is the sentinel for a malformed raster: zero/negative
// dimensions, a non-RGB pixel buffer, or a mismatched stride. Callers
// should check with errors.Is.
var ErrInvalidRaster = errors.New("raster: invalid raster")
