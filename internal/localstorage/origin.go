package localstorage

import "context"

type originKey struct{}

// WithOrigin tags writes performed with ctx so the resulting storage events
// can be attributed to the writer.
func WithOrigin(ctx context.Context, origin string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, originKey{}, origin)
}

// OriginFrom returns the origin attached by WithOrigin, if any.
func OriginFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	origin, _ := ctx.Value(originKey{}).(string)
	return origin
}
