package interceptors

import (
	"context"
	"testing"
)

func TestGetTenantID(t *testing.T) {
	if _, ok := GetTenantID(context.Background()); ok {
		t.Error("empty context should have no tenant")
	}
	if _, ok := GetTenantID(WithTenant(context.Background(), "")); ok {
		t.Error("empty tenant id should report false")
	}
	ctx := WithTenant(context.Background(), "T1")
	if id, ok := GetTenantID(ctx); !ok || id != "T1" {
		t.Errorf("GetTenantID = %q, %v", id, ok)
	}
	if TenantActor(ctx) != "T1" || TenantActor(context.Background()) != "" {
		t.Error("TenantActor mismatch")
	}
}
