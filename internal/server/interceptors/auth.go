package interceptors

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Peixotim/sales-bot/internal/security"
)

const bearerPrefix = "bearer "

var errUnauthenticated = status.Error(codes.Unauthenticated, "missing or invalid authorization")

// AuthUnary returns a unary server interceptor that validates the Bearer access token from
// gRPC metadata and puts the tenant id (the token subject) in context.
// publicMethods lists full method names that may be called without a token (e.g. health checks).
func AuthUnary(validator security.AccessValidator, publicMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, err := authenticate(ctx, validator, publicMethods[info.FullMethod])
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// AuthStream is the streaming counterpart of AuthUnary.
func AuthStream(validator security.AccessValidator, publicMethods map[string]bool) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := authenticate(ss.Context(), validator, publicMethods[info.FullMethod])
		if err != nil {
			return err
		}
		return handler(srv, &tenantStream{ServerStream: ss, ctx: ctx})
	}
}

func authenticate(ctx context.Context, validator security.AccessValidator, public bool) (context.Context, error) {
	token := extractBearer(ctx)
	if token == "" {
		if public {
			return ctx, nil
		}
		return nil, errUnauthenticated
	}
	tenantID, err := validator.ValidateAccess(token)
	if err != nil {
		if public {
			return ctx, nil
		}
		return nil, errUnauthenticated
	}
	return WithTenant(ctx, tenantID), nil
}

// tenantStream overrides Context so stream handlers see the authenticated tenant.
type tenantStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *tenantStream) Context() context.Context { return s.ctx }

// extractBearer returns the Bearer token from ctx metadata, or "" if missing or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	return BearerToken(vals[0])
}

// BearerToken strips a case-insensitive "Bearer " prefix from an Authorization value.
// It returns "" when the prefix is absent.
func BearerToken(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
