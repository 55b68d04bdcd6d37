package main

import (
	"fmt"
	"log/slog"
	"os"
)

// slogLogger adapts slog to the auth.Logger printf style interface
type slogLogger struct {
	l *slog.Logger
}

func newSlogLogger(debug bool) *slogLogger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return &slogLogger{l: slog.New(handler).With("component", "auth")}
}

func (s *slogLogger) Debug(format string, args ...any) {
	s.l.Debug(fmt.Sprintf(format, args...))
}

func (s *slogLogger) Info(format string, args ...any) {
	s.l.Info(fmt.Sprintf(format, args...))
}

func (s *slogLogger) Warn(format string, args ...any) {
	s.l.Warn(fmt.Sprintf(format, args...))
}

func (s *slogLogger) Error(format string, args ...any) {
	s.l.Error(fmt.Sprintf(format, args...))
}
