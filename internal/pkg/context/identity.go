package context

import "context"

const (
	profileIDKey contextKey = "profile_id"
	anonIDKey    contextKey = "anon_id"
)

// WithProfileID stores the authenticated profile id.
func WithProfileID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, profileIDKey, id)
}

func GetProfileID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(profileIDKey).(string); ok {
		return id
	}
	return ""
}

// WithAnonID stores the anonymous visitor id issued by the anon-id middleware.
func WithAnonID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, anonIDKey, id)
}

func GetAnonID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(anonIDKey).(string); ok {
		return id
	}
	return ""
}
