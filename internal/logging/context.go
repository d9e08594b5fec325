package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type repositoryCtxKey struct{}
type documentCtxKey struct{}
type loggerCtxKey struct{}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 4)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	if repo := RepositoryFromContext(ctx); repo != "" {
		fields = append(fields, zap.String("repository", repo))
	}
	if doc := DocumentFromContext(ctx); doc != "" {
		fields = append(fields, zap.String("document", doc))
	}

	return fields
}

// WithRepository adds the owner/name of the repository under check to ctx.
func WithRepository(ctx context.Context, fullName string) context.Context {
	return context.WithValue(ctx, repositoryCtxKey{}, fullName)
}

// RepositoryFromContext returns the repository set by WithRepository.
func RepositoryFromContext(ctx context.Context) string {
	s, _ := ctx.Value(repositoryCtxKey{}).(string)
	return s
}

// WithDocument adds the path of the workflow document being processed to ctx.
func WithDocument(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, documentCtxKey{}, path)
}

// DocumentFromContext returns the document path set by WithDocument.
func DocumentFromContext(ctx context.Context) string {
	s, _ := ctx.Value(documentCtxKey{}).(string)
	return s
}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if none is stored.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
