// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects level, format and destination of log output.
type Options struct {
	// Level is a logrus level name; Debug overrides it
	Level string
	Debug bool

	// Format is "text" (default) or "json"
	Format string

	// File, when set, receives logs through a rotating writer instead of stderr
	File string

	// Quiet limits stderr output to errors while a progress display is
	// drawing there. It has no effect with Debug or File.
	Quiet bool
}

// Setup applies opts to the standard logrus logger and returns a closer
// for the log file, if one was opened.
func Setup(opts Options) io.Closer {
	return Configure(logrus.StandardLogger(), opts)
}

// Configure applies opts to logger.
func Configure(logger *logrus.Logger, opts Options) io.Closer {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
		if opts.Level != "" {
			logger.Warnf("Invalid log level '%s', using 'info' instead. Error: %v", opts.Level, err)
		}
	}
	if opts.Debug {
		level = logrus.DebugLevel
	} else if opts.Quiet && opts.File == "" && level > logrus.ErrorLevel {
		level = logrus.ErrorLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if opts.File == "" {
		logger.SetOutput(os.Stderr)
		return nopCloser{}
	}

	rotating := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		LocalTime:  true,
	}
	logger.SetOutput(rotating)
	return rotating
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Component returns a logger tagged with the component name.
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
