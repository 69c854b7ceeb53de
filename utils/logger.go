package utils

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	logger     = zerolog.New(os.Stderr).With().Timestamp().Logger()
	loggerOnce sync.Once
)

// InitLogger sets the process logger level. Unknown levels fall back to info.
func InitLogger(level string) {
	loggerOnce.Do(func() {
		parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
		if err != nil || parsed == zerolog.NoLevel {
			parsed = zerolog.InfoLevel
		}
		logger = logger.Level(parsed)
	})
}

// Logger returns the process logger.
func Logger() zerolog.Logger {
	return logger
}
