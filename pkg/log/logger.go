// Package log provides structured logging for minilearn training runs.
//
// It wraps zerolog behind a small package-level API so estimators and the
// training loop can emit structured events (epoch progress, validation
// scores, early-stopping decisions) without each package configuring its
// own logger. Warnings raised through pkg/errors are routed here and show
// up as structured warn-level events.
package log

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/minilearn-ml/minilearn/pkg/errors"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

func init() {
	// Route pkg/errors warnings into the structured logger.
	errors.SetZerologWarnFunc(func(warning error) {
		l := Logger()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			l.Warn().Object("warning", obj).Msg(warning.Error())
			return
		}
		l.Warn().Err(warning).Msg("warning")
	})
}

// Logger returns the current package logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLogger replaces the package logger. Useful for tests and for
// applications that already configure zerolog themselves.
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// SetOutput redirects log output, keeping the current level.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = logger.Output(w)
}

// SetLevel sets the minimum level from a string: "debug", "info",
// "warn", "error", or "disabled".
func SetLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return errors.NewValidationError("log_level", "must be one of debug, info, warn, error, disabled", level)
	}
	mu.Lock()
	defer mu.Unlock()
	logger = logger.Level(lvl)
	return nil
}

// WithComponent returns a logger tagged with the given component name,
// e.g. "optimize" or "linear_model".
func WithComponent(component string) zerolog.Logger {
	return Logger().With().Str(ComponentKey, component).Logger()
}
