package lgr

import (
	"io"
	"log/slog"
	"os"

	"github.com/mdobak/go-xerrors"
	"github.com/natefinch/lumberjack"
)

// Logger is the shared process logger.
var Logger *slog.Logger

func init() {
	Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// UseRotatingFile switches the logger to JSON output mirrored into a
// size-capped, rotating log file.
func UseRotatingFile(path string) {
	sink := io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     7, // days
		Compress:   true,
	})
	Logger = slog.New(slog.NewJSONHandler(sink, nil))
}

// Err attaches an error with a captured stack trace.
func Err(err error) slog.Attr {
	return slog.Any("error", xerrors.New(err))
}
