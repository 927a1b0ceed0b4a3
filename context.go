package goBearer

import "context"

type requestIDContextKey struct{}

// WithRequestID attaches a correlation identifier to ctx. The Transport stamps
// it onto audit events so a harvest, refresh, and retry triggered by the same
// request can be tied together. When absent, the Transport generates one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
