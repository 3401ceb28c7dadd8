package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/rileyhilliard/livecharts/internal/errors"
	"github.com/rileyhilliard/livecharts/internal/logger"
)

// openLog returns the logger for a command. With no log file, commands that
// own the terminal log nothing and the others log to stderr.
func openLog(path string, level slog.Level, ownsTerminal bool) (logger.Logger, io.Closer, error) {
	if path == "" {
		if ownsTerminal {
			return logger.Noop(), io.NopCloser(nil), nil
		}
		return logger.NewEnvLogger("[livecharts]"), io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't open log file: "+path,
			"Check the directory exists and is writable, or unset log.file")
	}
	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
	return logger.NewSlogLogger(slog.New(handler)), f, nil
}
