package watchtower

import "github.com/decred/slog"

var log = slog.Disabled

// UseLogger sets the package-wide logger used by watchtower operations.
func UseLogger(logger slog.Logger) {
	log = logger
}
