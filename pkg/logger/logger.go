// Package logger предоставляет единый интерфейс логирования для всех слоёв приложения.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Logger абстрагирует конкретную реализацию логирования от вызывающего кода.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(err error, format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger строит Logger на базе стандартного log/slog с JSON-выводом в stdout.
func NewSlogLogger() Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})

	return &slogLogger{l: slog.New(h)}
}

func (s *slogLogger) Infof(format string, args ...interface{}) {
	s.l.Log(context.Background(), slog.LevelInfo, sprintf(format, args...))
}

func (s *slogLogger) Warnf(format string, args ...interface{}) {
	s.l.Log(context.Background(), slog.LevelWarn, sprintf(format, args...))
}

func (s *slogLogger) Errorf(err error, format string, args ...interface{}) {
	msg := sprintf(format, args...)
	if err != nil {
		s.l.Log(context.Background(), slog.LevelError, msg, slog.String("error", err.Error()))
		return
	}
	s.l.Log(context.Background(), slog.LevelError, msg)
}

func (s *slogLogger) Debugf(format string, args ...interface{}) {
	s.l.Log(context.Background(), slog.LevelDebug, sprintf(format, args...))
}

func sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
