// Package observability provides background-operation logging, domain metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger is used by code paths that run outside an HTTP request
// (publishers, reconcile jobs, CLI commands).
var Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func withFields(attrs []any, fields map[string]any) []any {
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

// LogAsyncOperationStart logs the start of a background operation.
func LogAsyncOperationStart(ctx context.Context, operation string, fields map[string]any) {
	attrs := []any{slog.String("operation", operation), slog.String("type", "async_start")}
	Logger.InfoContext(ctx, "async operation started", withFields(attrs, fields)...)
}

// LogAsyncOperationEnd logs the completion of a background operation.
func LogAsyncOperationEnd(ctx context.Context, operation string, fields map[string]any) {
	attrs := []any{slog.String("operation", operation), slog.String("type", "async_end")}
	Logger.InfoContext(ctx, "async operation completed", withFields(attrs, fields)...)
}

// LogAsyncOperationError logs a failed background operation.
func LogAsyncOperationError(ctx context.Context, operation string, err error, fields map[string]any) {
	attrs := []any{
		slog.String("operation", operation),
		slog.String("type", "async_error"),
		slog.String("error", err.Error()),
	}
	Logger.ErrorContext(ctx, "async operation failed", withFields(attrs, fields)...)
}
