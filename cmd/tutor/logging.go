package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/log"
)

func setupLogging(w io.Writer, level, format string) *slog.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	opts := log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "tutor",
	}
	if format == "json" {
		opts.Formatter = log.JSONFormatter
	}
	logger := slog.New(log.NewWithOptions(w, opts))
	slog.SetDefault(logger)
	return logger
}
