// Package logging sets up the shell's structured logger. Only the shell
// layer (cmd, coordinator, watch) logs; the core locator and mask
// packages stay pure per spec §5 and never import this package.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger writing to stdout with RFC3339 timestamps,
// the same setup the Watermarck example uses for its service logger.
func New(component string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(os.Stdout).With().Timestamp().Str("component", component).Logger()
}
