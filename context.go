package passportr

import "context"

type surfaceContextKey struct{}

// WithSurface labels ctx with the consumer surface (a screen, an HTTP route,
// a CLI command) that triggered an operation. The label only appears in logs
// and audit events.
func WithSurface(ctx context.Context, surface string) context.Context {
	return context.WithValue(ctx, surfaceContextKey{}, surface)
}

func surfaceFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	surface, _ := ctx.Value(surfaceContextKey{}).(string)
	return surface
}
