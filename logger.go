package phiview

import (
	"log/slog"

	intlogging "github.com/cbegin/phiview-go/internal/logging"
)

// SetLogger routes library logs to l. Passing nil silences them again.
func SetLogger(l *slog.Logger) {
	intlogging.Set(l)
}
