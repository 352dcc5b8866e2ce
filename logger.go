package strata

import (
	"log/slog"
	"sync/atomic"
)

var (
	silent = slog.New(slog.DiscardHandler)
	logger atomic.Pointer[slog.Logger]
)

func init() {
	logger.Store(silent)
}

// SetLogger routes strata's diagnostics to l. Records are emitted at
// debug level for atlas reallocation and per-session draw stats, and at
// warn level when a textured batch is skipped because its texture was
// disposed. A nil l silences strata again, which is also the default.
//
//	strata.SetLogger(slog.New(slog.NewTextHandler(os.Stderr,
//		&slog.HandlerOptions{Level: slog.LevelDebug})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	logger.Store(l)
}

// Logger returns the logger strata currently writes to.
func Logger() *slog.Logger {
	return logger.Load()
}
