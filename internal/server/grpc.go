package server

import (
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	contactsv1 "github.com/Peixotim/sales-bot/api/contacts/v1"
	conversationv1 "github.com/Peixotim/sales-bot/api/conversation/v1"
	sessionv1 "github.com/Peixotim/sales-bot/api/session/v1"

	contactshandler "github.com/Peixotim/sales-bot/internal/contacts/handler"
	conversationhandler "github.com/Peixotim/sales-bot/internal/conversation/handler"
	sessionhandler "github.com/Peixotim/sales-bot/internal/session/handler"
)

// Deps holds optional service dependencies for gRPC handlers.
type Deps struct {
	// Lifecycle drives tenant sessions for SessionService. If nil, session RPCs return Unimplemented.
	Lifecycle sessionhandler.Lifecycle
	// Notifier fans session events out to SessionService/Subscribe streams.
	Notifier sessionhandler.Subscriber
	// Blocklist backs ContactService. If nil, contact RPCs return Unimplemented.
	Blocklist contactshandler.Blocklist
	// History backs ConversationService. If nil, conversation RPCs return Unimplemented.
	History conversationhandler.History
	// Health is the standard gRPC health server. If nil, the health service is not registered.
	Health *health.Server
	Logger *slog.Logger
}

// RegisterServices registers all gRPC services with the given server.
//
// Service → handler mapping:
//   - SessionService      → internal/session/handler
//   - ContactService      → internal/contacts/handler
//   - ConversationService → internal/conversation/handler
//   - grpc.health.v1      → google.golang.org/grpc/health
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sessionv1.RegisterSessionServiceServer(s, sessionhandler.NewServer(deps.Lifecycle, deps.Notifier, logger))
	contactsv1.RegisterContactServiceServer(s, contactshandler.NewServer(deps.Blocklist, logger))
	conversationv1.RegisterConversationServiceServer(s, conversationhandler.NewServer(deps.History, logger))
	if deps.Health != nil {
		healthpb.RegisterHealthServer(s, deps.Health)
	}
}
