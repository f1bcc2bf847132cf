package services

import "context"

// contextKey scopes job metadata carried through the pipeline so that
// logging.WithContext can attach it to every record.
type contextKey int

const (
	jobIDKey contextKey = iota
	stageKey
	fileKey
	requestIDKey
)

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func valueFrom(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

// WithJobID annotates ctx with the job identifier.
func WithJobID(ctx context.Context, id string) context.Context { return withValue(ctx, jobIDKey, id) }

// JobIDFromContext returns the job identifier, if any.
func JobIDFromContext(ctx context.Context) (string, bool) { return valueFrom(ctx, jobIDKey) }

// WithStage annotates ctx with the pipeline stage, such as "transcribe".
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

// StageFromContext returns the pipeline stage, if any.
func StageFromContext(ctx context.Context) (string, bool) { return valueFrom(ctx, stageKey) }

// WithFile annotates ctx with the recording path.
func WithFile(ctx context.Context, path string) context.Context { return withValue(ctx, fileKey, path) }

// FileFromContext returns the recording path, if any.
func FileFromContext(ctx context.Context) (string, bool) { return valueFrom(ctx, fileKey) }

// WithRequestID annotates ctx with the webhook request correlation id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the correlation id, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) { return valueFrom(ctx, requestIDKey) }
