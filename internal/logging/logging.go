// Package logging configures the process-wide logger.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"capdeck/config"
)

// Setup builds the logger for the configuration. Output goes to a
// rotating file so the TUI keeps the terminal to itself; without a file
// the logger is silent.
func Setup(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level := logrus.InfoLevel
	if cfg.Debug {
		level = logrus.DebugLevel
	}
	if cfg.LogLevel != "" {
		if parsed, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
			level = parsed
		}
	}
	log.SetLevel(level)

	if cfg.LogFile == "" {
		log.SetOutput(io.Discard)
		return log
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	})
	return log
}
