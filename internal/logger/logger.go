package logger

import (
	"os"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// New builds the process logger. The level comes from LOG_LEVEL so that
// config loading itself is logged at the right verbosity.
func New() zerolog.Logger {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return SetLevel(level)
}

func SetLevel(level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Caller().
		Logger()

	logger = logger.Level(level)

	return logger
}

var Module = fx.Provide(New)
