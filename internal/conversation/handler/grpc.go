package handler

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	conversationv1 "github.com/Peixotim/sales-bot/api/conversation/v1"
	contactsdomain "github.com/Peixotim/sales-bot/internal/contacts/domain"
	"github.com/Peixotim/sales-bot/internal/conversation/domain"
	"github.com/Peixotim/sales-bot/internal/ingest"
	"github.com/Peixotim/sales-bot/internal/server/interceptors"
)

// History reads stored conversations.
type History interface {
	ListChats(ctx context.Context, tenantID string) ([]*domain.Chat, error)
	History(ctx context.Context, key ingest.ConversationKey) (*domain.Chat, error)
}

// Server implements ConversationService for the calling tenant.
type Server struct {
	conversationv1.UnimplementedConversationServiceServer
	history History
	logger  *slog.Logger
}

// NewServer returns a new Conversation gRPC server. If history is nil, all RPCs return Unimplemented.
func NewServer(history History, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{history: history, logger: logger}
}

// ListChats returns the tenant's conversations, most recently active first.
func (s *Server) ListChats(ctx context.Context, req *conversationv1.ListChatsRequest) (*conversationv1.ListChatsResponse, error) {
	if s.history == nil {
		return nil, status.Error(codes.Unimplemented, "method ListChats not implemented")
	}
	tenantID, ok := interceptors.GetTenantID(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "tenant context required")
	}
	chats, err := s.history.ListChats(ctx, tenantID)
	if err != nil {
		s.logger.Error("conversation: list chats failed", "tenant_id", tenantID, "error", err)
		return nil, status.Error(codes.Internal, "failed to list chats")
	}
	out := make([]*conversationv1.Chat, 0, len(chats))
	for _, c := range chats {
		out = append(out, &conversationv1.Chat{ChatID: c.ChatID, Contact: c.Contact, UpdatedAt: c.UpdatedAt})
	}
	return &conversationv1.ListChatsResponse{Chats: out}, nil
}

// GetHistory returns the text turns exchanged with one contact. The contact may be a number
// or a JID.
func (s *Server) GetHistory(ctx context.Context, req *conversationv1.GetHistoryRequest) (*conversationv1.GetHistoryResponse, error) {
	if s.history == nil {
		return nil, status.Error(codes.Unimplemented, "method GetHistory not implemented")
	}
	tenantID, ok := interceptors.GetTenantID(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "tenant context required")
	}
	jid, err := contactsdomain.NormalizeJID(req.GetContact(), "")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "contact is required")
	}
	key := ingest.ConversationKey{TenantID: tenantID, Contact: contactsdomain.UserPart(jid)}
	chat, err := s.history.History(ctx, key)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, status.Error(codes.Canceled, "request canceled")
		}
		s.logger.Error("conversation: get history failed", "chat_id", key.String(), "error", err)
		return nil, status.Error(codes.Internal, "failed to get history")
	}
	turns := make([]*conversationv1.Turn, 0, len(chat.Turns))
	for _, t := range chat.Turns {
		turns = append(turns, &conversationv1.Turn{Role: t.Role, Text: t.Text})
	}
	return &conversationv1.GetHistoryResponse{ChatID: chat.ChatID, Turns: turns}, nil
}
