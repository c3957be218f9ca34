package main

import (
	"log/slog"
	"os"

	"github.com/fizzball/controller/internal/logging"
)

func setupLogger(format, level string) *slog.Logger {
	l := logging.New(format, logging.LevelFromString(level), os.Stderr).With("app", "fizzball-controller")
	logging.Set(l)
	return l
}
