package timeline

import (
	"errors"
	"log/slog"
)

var (
	// ErrOrphanClip reports a clip whose TrackID does not resolve to a track
	// visual. Only reported under OrphanReport.
	ErrOrphanClip = errors.New("timeline: clip references missing track")

	// ErrDuplicateID reports an added entity whose id already has a visual.
	ErrDuplicateID = errors.New("timeline: duplicate entity id")

	// ErrDestroyed is returned by operations on a destroyed component.
	ErrDestroyed = errors.New("timeline: use after destroy")

	// ErrRecoveryFailed wraps the error of a failed recovery pass.
	ErrRecoveryFailed = errors.New("timeline: recovery render failed")
)

// ErrorReporter receives errors that are handled internally rather than
// returned to the caller.
type ErrorReporter interface {
	Report(err error, attrs ...any)
}

// ErrorReporterFunc adapts a function to ErrorReporter.
type ErrorReporterFunc func(err error, attrs ...any)

// Report calls f(err, attrs...).
func (f ErrorReporterFunc) Report(err error, attrs ...any) {
	f(err, attrs...)
}

// logReporter reports errors to a structured logger at Error level.
type logReporter struct {
	logger *slog.Logger
}

// NewLogReporter returns an ErrorReporter that logs through logger.
func NewLogReporter(logger *slog.Logger) ErrorReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &logReporter{logger: logger}
}

func (r *logReporter) Report(err error, attrs ...any) {
	r.logger.Error(err.Error(), attrs...)
}
