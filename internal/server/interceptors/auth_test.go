package interceptors

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Peixotim/sales-bot/internal/security"
)

func newTokens(t *testing.T) *security.TokenProvider {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	return tokens
}

func bearerCtx(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
}

func TestAuthUnary(t *testing.T) {
	tokens := newTokens(t)
	valid, _, err := tokens.IssueAccess("T1", "Ana")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	tests := []struct {
		name       string
		ctx        context.Context
		method     string
		wantCode   codes.Code
		wantTenant string
	}{
		{"public without token", context.Background(), "/svc/Public", codes.OK, ""},
		{"public with bad token", bearerCtx("garbage"), "/svc/Public", codes.OK, ""},
		{"public with valid token", bearerCtx(valid), "/svc/Public", codes.OK, "T1"},
		{"protected without token", context.Background(), "/svc/Private", codes.Unauthenticated, ""},
		{"protected with bad token", bearerCtx("garbage"), "/svc/Private", codes.Unauthenticated, ""},
		{"protected with valid token", bearerCtx(valid), "/svc/Private", codes.OK, "T1"},
	}
	interceptor := AuthUnary(tokens, map[string]bool{"/svc/Public": true})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotTenant string
			handler := func(ctx context.Context, req any) (any, error) {
				gotTenant, _ = GetTenantID(ctx)
				return "ok", nil
			}
			_, err := interceptor(tt.ctx, nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, handler)
			if status.Code(err) != tt.wantCode {
				t.Fatalf("code = %v, want %v", status.Code(err), tt.wantCode)
			}
			if gotTenant != tt.wantTenant {
				t.Errorf("tenant = %q, want %q", gotTenant, tt.wantTenant)
			}
		})
	}
}

type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeStream) Context() context.Context { return f.ctx }

func TestAuthStream(t *testing.T) {
	tokens := newTokens(t)
	valid, _, _ := tokens.IssueAccess("T2", "")
	interceptor := AuthStream(tokens, nil)
	info := &grpc.StreamServerInfo{FullMethod: "/svc/Subscribe", IsServerStream: true}

	var gotTenant string
	handler := func(srv any, ss grpc.ServerStream) error {
		gotTenant, _ = GetTenantID(ss.Context())
		return nil
	}
	if err := interceptor(nil, &fakeStream{ctx: bearerCtx(valid)}, info, handler); err != nil {
		t.Fatalf("valid token: %v", err)
	}
	if gotTenant != "T2" {
		t.Errorf("tenant = %q, want T2", gotTenant)
	}
	err := interceptor(nil, &fakeStream{ctx: context.Background()}, info, handler)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("missing token code = %v", status.Code(err))
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":    "abc",
		"bearer  abc ":  "abc",
		"BEARER x.y.z":  "x.y.z",
		"Basic abc":     "",
		"Bearer":        "",
		"":              "",
	}
	for in, want := range tests {
		if got := BearerToken(in); got != want {
			t.Errorf("BearerToken(%q) = %q, want %q", in, got, want)
		}
	}
}
