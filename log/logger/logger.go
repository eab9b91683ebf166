package logger

import (
	"context"
	"io"
	"log/slog"
)

// Logger 日志接口，参数为 slog 风格的键值对
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)

	With(args ...any) Logger
	WithGroup(name string) Logger
}

// NewNop 丢弃所有输出的日志器，用于测试
func NewNop() Logger {
	return &SLog{slogger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
