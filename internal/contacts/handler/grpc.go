package handler

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	contactsv1 "github.com/Peixotim/sales-bot/api/contacts/v1"
	"github.com/Peixotim/sales-bot/internal/contacts/domain"
)

// Blocklist is the blocklist service the handler exposes.
type Blocklist interface {
	List(ctx context.Context) ([]*domain.BlockedContact, error)
	Get(ctx context.Context, number string) (*domain.BlockedContact, error)
	Block(ctx context.Context, number, name string) (*domain.BlockedContact, error)
	Unblock(ctx context.Context, number string) error
}

// Messages returned on success.
const (
	MessageUnblocked = "Contato desbloqueado com sucesso."
)

// Server implements ContactService. The blocklist is shared by every tenant.
type Server struct {
	contactsv1.UnimplementedContactServiceServer
	blocklist Blocklist
	logger    *slog.Logger
}

// NewServer returns a new Contact gRPC server. If blocklist is nil, all RPCs return Unimplemented.
func NewServer(blocklist Blocklist, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{blocklist: blocklist, logger: logger}
}

func toProto(c *domain.BlockedContact) *contactsv1.BlockedContact {
	if c == nil {
		return nil
	}
	return &contactsv1.BlockedContact{JID: c.JID, Name: c.Name, CreatedAt: c.CreatedAt}
}

func (s *Server) toStatus(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidNumber):
		return status.Error(codes.InvalidArgument, "invalid number")
	case errors.Is(err, domain.ErrAlreadyBlocked):
		return status.Error(codes.AlreadyExists, "contact already blocked")
	case errors.Is(err, domain.ErrNotBlocked):
		return status.Error(codes.NotFound, "contact not blocked")
	}
	s.logger.Error("contacts: "+op+" failed", "error", err)
	return status.Error(codes.Internal, "failed to "+op)
}

// ListBlocked returns every blocked contact, newest first.
func (s *Server) ListBlocked(ctx context.Context, req *contactsv1.ListBlockedRequest) (*contactsv1.ListBlockedResponse, error) {
	if s.blocklist == nil {
		return nil, status.Error(codes.Unimplemented, "method ListBlocked not implemented")
	}
	list, err := s.blocklist.List(ctx)
	if err != nil {
		return nil, s.toStatus("list blocked contacts", err)
	}
	out := make([]*contactsv1.BlockedContact, 0, len(list))
	for _, c := range list {
		out = append(out, toProto(c))
	}
	return &contactsv1.ListBlockedResponse{Contacts: out}, nil
}

// GetBlocked returns one blocked contact.
func (s *Server) GetBlocked(ctx context.Context, req *contactsv1.GetBlockedRequest) (*contactsv1.GetBlockedResponse, error) {
	if s.blocklist == nil {
		return nil, status.Error(codes.Unimplemented, "method GetBlocked not implemented")
	}
	if req.GetNumber() == "" {
		return nil, status.Error(codes.InvalidArgument, "number required")
	}
	c, err := s.blocklist.Get(ctx, req.GetNumber())
	if err != nil {
		return nil, s.toStatus("get blocked contact", err)
	}
	return &contactsv1.GetBlockedResponse{Contact: toProto(c)}, nil
}

// Block adds a number to the blocklist.
func (s *Server) Block(ctx context.Context, req *contactsv1.BlockRequest) (*contactsv1.BlockResponse, error) {
	if s.blocklist == nil {
		return nil, status.Error(codes.Unimplemented, "method Block not implemented")
	}
	if req.GetNumber() == "" {
		return nil, status.Error(codes.InvalidArgument, "number required")
	}
	c, err := s.blocklist.Block(ctx, req.GetNumber(), req.GetName())
	if err != nil {
		return nil, s.toStatus("block contact", err)
	}
	return &contactsv1.BlockResponse{Contact: toProto(c)}, nil
}

// Unblock removes a number from the blocklist.
func (s *Server) Unblock(ctx context.Context, req *contactsv1.UnblockRequest) (*contactsv1.UnblockResponse, error) {
	if s.blocklist == nil {
		return nil, status.Error(codes.Unimplemented, "method Unblock not implemented")
	}
	if req.GetNumber() == "" {
		return nil, status.Error(codes.InvalidArgument, "number required")
	}
	if err := s.blocklist.Unblock(ctx, req.GetNumber()); err != nil {
		return nil, s.toStatus("unblock contact", err)
	}
	return &contactsv1.UnblockResponse{Message: MessageUnblocked}, nil
}
