package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/LavaJover/shvark-payment-gateway/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup builds the process logger from LogConfig and installs it as slog's default.
func Setup(cfg config.LogConfig) *slog.Logger {
	var out io.Writer = os.Stdout
	switch strings.ToLower(cfg.LogOutput) {
	case "", "stdout":
	case "stderr":
		out = os.Stderr
	default:
		out = &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogDir, cfg.LogOutput),
			MaxSize:    50,
			MaxBackups: 10,
			Compress:   true,
		}
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)}
	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
