package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger constructs the process logger. Development gets a console writer
// and debug level; everything else gets JSON at info. level overrides either.
func NewLogger(appEnv, level string) (zerolog.Logger, error) {
	return newLogger(os.Stdout, appEnv, level)
}

func newLogger(out io.Writer, appEnv, level string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if appEnv == "development" {
		lvl = zerolog.DebugLevel
	}
	if raw := strings.TrimSpace(level); raw != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(raw))
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("invalid LOG_LEVEL value %q: %w", raw, err)
		}
		lvl = parsed
	}

	if appEnv == "development" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return logger, nil
}

// SetGlobal routes package-level zerolog calls through logger.
func SetGlobal(logger zerolog.Logger) {
	log.Logger = logger
	zerolog.SetGlobalLevel(logger.GetLevel())
}
