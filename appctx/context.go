// Package appctx holds the request-scoped context keys. It has no imports of its own
// so config and utils can both depend on it.
package appctx

import "context"

type ContextKey string

func (c ContextKey) String() string { return "kitchen." + string(c) }

var (
	ContextKeyBusinessId    = ContextKey("BusinessId")
	ContextKeyCorrelationId = ContextKey("CorrelationId")
	// set while a request works on a POS cart
	ContextKeyCartId = ContextKey("CartId")

	// ContextKeySkipTenantScope lets background workers read rows of every business.
	ContextKeySkipTenantScope = ContextKey("SkipTenantScope")
)

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

func GetBool(ctx context.Context, key ContextKey) (bool, bool) {
	if ctx == nil {
		return false, false
	}
	v, ok := ctx.Value(key).(bool)
	return v, ok
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}
