package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRequestID is the standardized structured logging key for HTTP request identifiers.
	FieldRequestID = "request_id"
	// FieldFeatureID is the standardized structured logging key for feature identifiers.
	FieldFeatureID = "feature_id"
	// FieldProject is the standardized structured logging key for the project name.
	FieldProject = "project"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	featureIDKey
)

// WithRequestID stores an HTTP request identifier in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts a request identifier previously stored with WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

// WithFeatureID stores a feature identifier in the context.
func WithFeatureID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, featureIDKey, id)
}

// FeatureIDFromContext extracts a feature identifier previously stored with WithFeatureID.
func FeatureIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(featureIDKey).(int64)
	return id, ok
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, id))
	}
	if id, ok := FeatureIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldFeatureID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
