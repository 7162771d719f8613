package shutdown

import "github.com/decred/slog"

var log = slog.Disabled

// UseLogger sets the package-wide logger used by shutdown operations.
func UseLogger(logger slog.Logger) {
	log = logger
}
