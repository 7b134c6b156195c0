// Package conversationv1 holds the messages and service descriptor of
// salesbot.conversation.v1.ConversationService.
package conversationv1

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	_ "github.com/Peixotim/sales-bot/api/codec"
)

const (
	ConversationService_ListChats_FullMethodName  = "/salesbot.conversation.v1.ConversationService/ListChats"
	ConversationService_GetHistory_FullMethodName = "/salesbot.conversation.v1.ConversationService/GetHistory"
)

type Chat struct {
	ChatID    string    `json:"chat_id"`
	Contact   string    `json:"contact"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type ListChatsRequest struct{}

type ListChatsResponse struct {
	Chats []*Chat `json:"chats"`
}

type GetHistoryRequest struct {
	Contact string `json:"contact"`
}

func (x *GetHistoryRequest) GetContact() string {
	if x == nil {
		return ""
	}
	return x.Contact
}

type GetHistoryResponse struct {
	ChatID string  `json:"chat_id"`
	Turns  []*Turn `json:"turns"`
}

// ConversationServiceServer is the server API for ConversationService.
type ConversationServiceServer interface {
	ListChats(context.Context, *ListChatsRequest) (*ListChatsResponse, error)
	GetHistory(context.Context, *GetHistoryRequest) (*GetHistoryResponse, error)
}

// UnimplementedConversationServiceServer must be embedded to have forward compatible implementations.
type UnimplementedConversationServiceServer struct{}

func (UnimplementedConversationServiceServer) ListChats(context.Context, *ListChatsRequest) (*ListChatsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListChats not implemented")
}

func (UnimplementedConversationServiceServer) GetHistory(context.Context, *GetHistoryRequest) (*GetHistoryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetHistory not implemented")
}

// RegisterConversationServiceServer registers srv on s.
func RegisterConversationServiceServer(s grpc.ServiceRegistrar, srv ConversationServiceServer) {
	s.RegisterService(&ConversationService_ServiceDesc, srv)
}

func _ConversationService_ListChats_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListChatsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConversationServiceServer).ListChats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ConversationService_ListChats_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConversationServiceServer).ListChats(ctx, req.(*ListChatsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ConversationService_GetHistory_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetHistoryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConversationServiceServer).GetHistory(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ConversationService_GetHistory_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConversationServiceServer).GetHistory(ctx, req.(*GetHistoryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ConversationService_ServiceDesc is the grpc.ServiceDesc for ConversationService.
var ConversationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "salesbot.conversation.v1.ConversationService",
	HandlerType: (*ConversationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListChats", Handler: _ConversationService_ListChats_Handler},
		{MethodName: "GetHistory", Handler: _ConversationService_GetHistory_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/conversation/v1/conversation.go",
}
