package interceptors

import "context"

type contextKey struct{ name string }

var tenantIDKey = contextKey{"tenant_id"}

// WithTenant returns a context carrying the authenticated tenant id.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// GetTenantID returns the tenant id from context and true if set; otherwise "", false.
func GetTenantID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tenantIDKey).(string)
	return v, ok && v != ""
}

// TenantActor returns the tenant id or "". It matches audit.ActorExtractor.
func TenantActor(ctx context.Context) string {
	v, _ := GetTenantID(ctx)
	return v
}
