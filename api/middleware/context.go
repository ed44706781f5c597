package middleware

import "context"

type merchantIDKey struct{}

type sessionIDKey struct{}

// WithMerchantID injects the authenticated merchant identifier.
func WithMerchantID(ctx context.Context, merchantID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, merchantIDKey{}, merchantID)
}

// WithSessionID injects the guest session identifier.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

func MerchantIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(merchantIDKey{}).(string)
	return v
}

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(sessionIDKey{}).(string)
	return v
}
