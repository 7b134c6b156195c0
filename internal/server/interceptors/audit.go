package interceptors

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/Peixotim/sales-bot/internal/audit"
	"github.com/Peixotim/sales-bot/internal/audit/domain"
	auditrepo "github.com/Peixotim/sales-bot/internal/audit/repository"
)

// AuditUnary returns a unary server interceptor that records an audit entry after each
// state-changing RPC made by an authenticated tenant. Reads are not audited.
// Create is best-effort: failures are logged and do not fail the RPC.
func AuditUnary(repo auditrepo.Repository, skipMethods map[string]bool, logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if repo == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		tenantID, ok := GetTenantID(ctx)
		if !ok {
			return resp, err
		}
		ar := audit.ParseFullMethod(info.FullMethod)
		if !ar.Mutating() {
			return resp, err
		}
		entry := &domain.AuditLog{
			ID:        uuid.New().String(),
			TenantID:  tenantID,
			Actor:     tenantID,
			Action:    ar.Action,
			Resource:  ar.Resource,
			IP:        ClientIP(ctx),
			Metadata:  `{"code":"` + status.Code(err).String() + `"}`,
			CreatedAt: time.Now().UTC(),
		}
		if createErr := repo.Create(ctx, entry); createErr != nil {
			logger.Warn("audit: failed to create audit log", "method", info.FullMethod, "error", createErr)
		}
		return resp, err
	}
}

// ClientIP returns the client IP from gRPC metadata (x-forwarded-for, x-real-ip) or peer, or "unknown".
func ClientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("x-forwarded-for"); len(vals) > 0 {
			if s, _, _ := strings.Cut(vals[0], ","); strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		if vals := md.Get("x-real-ip"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				return s
			}
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return "unknown"
}
