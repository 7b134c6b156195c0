package handler

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	sessionv1 "github.com/Peixotim/sales-bot/api/session/v1"
	"github.com/Peixotim/sales-bot/internal/notifier"
	"github.com/Peixotim/sales-bot/internal/server/interceptors"
	"github.com/Peixotim/sales-bot/internal/session/domain"
	"github.com/Peixotim/sales-bot/internal/session/lifecycle"
)

// Lifecycle is the part of lifecycle.Controller the service drives.
type Lifecycle interface {
	Status(tenantID string) (domain.Status, string)
	PairingCode(ctx context.Context, tenantID string) (lifecycle.PairingState, error)
	Logout(ctx context.Context, tenantID string) error
}

// Subscriber attaches already authenticated realtime transports.
type Subscriber interface {
	Attach(tenantID string, t notifier.Transport) *notifier.Subscription
}

// Server implements SessionService for the authenticated tenant.
type Server struct {
	sessionv1.UnimplementedSessionServiceServer
	lifecycle Lifecycle
	hub       Subscriber
	logger    *slog.Logger
}

// NewServer returns a new Session gRPC server. If lc is nil, all RPCs return Unimplemented;
// if hub is nil, Subscribe does.
func NewServer(lc Lifecycle, hub Subscriber, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{lifecycle: lc, hub: hub, logger: logger}
}

func tenantFrom(ctx context.Context) (string, error) {
	tenantID, ok := interceptors.GetTenantID(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "tenant context required")
	}
	return tenantID, nil
}

// GetStatus returns the tenant's connection status and, when connected, the paired account.
func (s *Server) GetStatus(ctx context.Context, req *sessionv1.GetStatusRequest) (*sessionv1.GetStatusResponse, error) {
	if s.lifecycle == nil {
		return nil, status.Error(codes.Unimplemented, "method GetStatus not implemented")
	}
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	st, own := s.lifecycle.Status(tenantID)
	return &sessionv1.GetStatusResponse{Status: st.String(), ConnectedIdentity: own}, nil
}

// GetPairingCode returns the outstanding pairing code, starting a connection when the tenant
// is disconnected.
func (s *Server) GetPairingCode(ctx context.Context, req *sessionv1.GetPairingCodeRequest) (*sessionv1.GetPairingCodeResponse, error) {
	if s.lifecycle == nil {
		return nil, status.Error(codes.Unimplemented, "method GetPairingCode not implemented")
	}
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.lifecycle.PairingCode(ctx, tenantID)
	if err != nil {
		if errors.Is(err, lifecycle.ErrShutdown) {
			return nil, status.Error(codes.Unavailable, "service is shutting down")
		}
		s.logger.Error("session: pairing code failed", "tenant_id", tenantID, "error", err)
		return nil, status.Error(codes.Internal, "failed to get pairing code")
	}
	return &sessionv1.GetPairingCodeResponse{Status: st.Status, PairingCode: st.Code, Message: st.Message}, nil
}

// Logout disconnects the tenant and removes its stored credentials.
func (s *Server) Logout(ctx context.Context, req *sessionv1.LogoutRequest) (*sessionv1.LogoutResponse, error) {
	if s.lifecycle == nil {
		return nil, status.Error(codes.Unimplemented, "method Logout not implemented")
	}
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.lifecycle.Logout(ctx, tenantID); err != nil {
		s.logger.Error("session: logout failed", "tenant_id", tenantID, "error", err)
		return nil, status.Error(codes.Internal, "failed to clear credentials")
	}
	return &sessionv1.LogoutResponse{Message: lifecycle.MessageLoggedOut}, nil
}

// Subscribe streams status and pairing code events until the client goes away.
func (s *Server) Subscribe(req *sessionv1.SubscribeRequest, stream grpc.ServerStreamingServer[sessionv1.Event]) error {
	if s.hub == nil {
		return status.Error(codes.Unimplemented, "method Subscribe not implemented")
	}
	ctx := stream.Context()
	tenantID, err := tenantFrom(ctx)
	if err != nil {
		return err
	}
	sub := s.hub.Attach(tenantID, &streamTransport{stream: stream})
	select {
	case <-ctx.Done():
		sub.Close()
		<-sub.Done()
		return nil
	case <-sub.Done():
		return status.Error(codes.Unavailable, "subscription closed")
	}
}

// streamTransport writes hub messages to a server stream. The stream ends when Subscribe
// returns, so Close has nothing to release.
type streamTransport struct {
	stream grpc.ServerStreamingServer[sessionv1.Event]
}

func (t *streamTransport) Send(ctx context.Context, msg notifier.Message) error {
	return t.stream.Send(&sessionv1.Event{Event: msg.Event, Payload: msg.Payload})
}

func (t *streamTransport) Close() error { return nil }
