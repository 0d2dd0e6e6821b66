package common

import "context"

type (
	requestIDKey struct{}
	filenameKey  struct{}
)

// WithRequestID tags ctx with the id of the request or batch being served.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithFilename tags ctx with the document currently being processed.
func WithFilename(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, filenameKey{}, name)
}

func FilenameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(filenameKey{}).(string)
	return name
}
