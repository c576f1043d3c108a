package cmd

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

var logger *slog.Logger

func initLogging() {
	logger = newLogger(os.Stderr, viper.GetBool("verbose"), viper.GetString("log_format"))
	slog.SetDefault(logger)
}

func newLogger(w io.Writer, verbose bool, format string) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
