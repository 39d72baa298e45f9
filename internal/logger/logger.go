// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package logger configures the process-wide structured logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Setup directs the default logger to stderr and to a new log file
// in dir named after the current time. Every record carries a run_id.
// It returns the path of the log file and a function closing it.
func Setup(level, format, dir string) (string, func() error, error) {
	if err := os.MkdirAll(dir, 0775); err != nil {
		return "", nil, err
	}
	fp := filepath.Join(dir, fmt.Sprintf("build_%s.log", time.Now().Format("2006_01_02_15-04-05")))
	f, err := os.OpenFile(fp, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0664)
	if err != nil {
		return "", nil, err
	}
	slog.SetDefault(New(io.MultiWriter(os.Stderr, f), level, format).With("run_id", uuid.NewString()))
	return fp, f.Close, nil
}

// New returns a logger writing to w.
func New(w io.Writer, level, format string) *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// WithComponent returns the default logger tagged with a component name.
func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
