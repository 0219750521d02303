package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// InitLog returns a stderr logger writing at the given level; unknown levels fall back to info.
func InitLog(level string) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	Logger := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
	return &Logger
}
