// Package contactsv1 holds the messages and service descriptor of salesbot.contacts.v1.ContactService.
package contactsv1

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	_ "github.com/Peixotim/sales-bot/api/codec"
)

const (
	ContactService_ListBlocked_FullMethodName = "/salesbot.contacts.v1.ContactService/ListBlocked"
	ContactService_GetBlocked_FullMethodName  = "/salesbot.contacts.v1.ContactService/GetBlocked"
	ContactService_Block_FullMethodName       = "/salesbot.contacts.v1.ContactService/Block"
	ContactService_Unblock_FullMethodName     = "/salesbot.contacts.v1.ContactService/Unblock"
)

type BlockedContact struct {
	JID       string    `json:"jid"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type ListBlockedRequest struct{}

type ListBlockedResponse struct {
	Contacts []*BlockedContact `json:"contacts"`
}

type GetBlockedRequest struct {
	Number string `json:"number"`
}

func (x *GetBlockedRequest) GetNumber() string {
	if x == nil {
		return ""
	}
	return x.Number
}

type GetBlockedResponse struct {
	Contact *BlockedContact `json:"contact"`
}

type BlockRequest struct {
	Number string `json:"number"`
	Name   string `json:"name,omitempty"`
}

func (x *BlockRequest) GetNumber() string {
	if x == nil {
		return ""
	}
	return x.Number
}

func (x *BlockRequest) GetName() string {
	if x == nil {
		return ""
	}
	return x.Name
}

type BlockResponse struct {
	Contact *BlockedContact `json:"contact"`
}

type UnblockRequest struct {
	Number string `json:"number"`
}

func (x *UnblockRequest) GetNumber() string {
	if x == nil {
		return ""
	}
	return x.Number
}

type UnblockResponse struct {
	Message string `json:"message"`
}

// ContactServiceServer is the server API for ContactService.
type ContactServiceServer interface {
	ListBlocked(context.Context, *ListBlockedRequest) (*ListBlockedResponse, error)
	GetBlocked(context.Context, *GetBlockedRequest) (*GetBlockedResponse, error)
	Block(context.Context, *BlockRequest) (*BlockResponse, error)
	Unblock(context.Context, *UnblockRequest) (*UnblockResponse, error)
}

// UnimplementedContactServiceServer must be embedded to have forward compatible implementations.
type UnimplementedContactServiceServer struct{}

func (UnimplementedContactServiceServer) ListBlocked(context.Context, *ListBlockedRequest) (*ListBlockedResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListBlocked not implemented")
}

func (UnimplementedContactServiceServer) GetBlocked(context.Context, *GetBlockedRequest) (*GetBlockedResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetBlocked not implemented")
}

func (UnimplementedContactServiceServer) Block(context.Context, *BlockRequest) (*BlockResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Block not implemented")
}

func (UnimplementedContactServiceServer) Unblock(context.Context, *UnblockRequest) (*UnblockResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Unblock not implemented")
}

// RegisterContactServiceServer registers srv on s.
func RegisterContactServiceServer(s grpc.ServiceRegistrar, srv ContactServiceServer) {
	s.RegisterService(&ContactService_ServiceDesc, srv)
}

func _ContactService_ListBlocked_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListBlockedRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ContactServiceServer).ListBlocked(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ContactService_ListBlocked_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ContactServiceServer).ListBlocked(ctx, req.(*ListBlockedRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ContactService_GetBlocked_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetBlockedRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ContactServiceServer).GetBlocked(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ContactService_GetBlocked_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ContactServiceServer).GetBlocked(ctx, req.(*GetBlockedRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ContactService_Block_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(BlockRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ContactServiceServer).Block(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ContactService_Block_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ContactServiceServer).Block(ctx, req.(*BlockRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ContactService_Unblock_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UnblockRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ContactServiceServer).Unblock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ContactService_Unblock_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ContactServiceServer).Unblock(ctx, req.(*UnblockRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ContactService_ServiceDesc is the grpc.ServiceDesc for ContactService.
var ContactService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "salesbot.contacts.v1.ContactService",
	HandlerType: (*ContactServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListBlocked", Handler: _ContactService_ListBlocked_Handler},
		{MethodName: "GetBlocked", Handler: _ContactService_GetBlocked_Handler},
		{MethodName: "Block", Handler: _ContactService_Block_Handler},
		{MethodName: "Unblock", Handler: _ContactService_Unblock_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/contacts/v1/contacts.go",
}
