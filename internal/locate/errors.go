// Package locate implements the Whitespace Locator (spec.md §4.2): the
// pure, stateless-per-page search for where to place a stamp.
package locate

import (
	"errors"
	"fmt"

	"github.com/jodrm/stampwise/internal/raster"
)

// Taxonomy from spec.md §7. Degraded is not a Go error: it travels back
// on the Placement itself (Placement.Quality.Tier == TierDegraded) and
// is logged by the caller, never returned as an error value.

// ErrInvalidRaster mirrors raster.ErrInvalidRaster; locate re-exports it
// so callers can errors.Is against this package without importing raster.
var ErrInvalidRaster = raster.ErrInvalidRaster

// ErrPageTooSmall is returned when no candidate size in the size
// sequence fits within the margin constraints for the raster.
var ErrPageTooSmall = errors.New("locate: page too small for any candidate size")

// LocatorError wraps one of the sentinels above. The coordinator (not
// this package) attaches page numbers when it propagates a failure,
// since locate_stamp itself operates on a single raster with no notion
// of its page index.
type LocatorError struct {
	Err error
}

func (e *LocatorError) Error() string {
	return fmt.Sprintf("locate: %v", e.Err)
}

func (e *LocatorError) Unwrap() error { return e.Err }
