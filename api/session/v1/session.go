// Package sessionv1 holds the messages and service descriptor of salesbot.session.v1.SessionService.
// Messages travel with the JSON codec registered by package api/codec.
package sessionv1

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	_ "github.com/Peixotim/sales-bot/api/codec"
)

const (
	SessionService_GetStatus_FullMethodName      = "/salesbot.session.v1.SessionService/GetStatus"
	SessionService_GetPairingCode_FullMethodName = "/salesbot.session.v1.SessionService/GetPairingCode"
	SessionService_Logout_FullMethodName         = "/salesbot.session.v1.SessionService/Logout"
	SessionService_Subscribe_FullMethodName      = "/salesbot.session.v1.SessionService/Subscribe"
)

type GetStatusRequest struct{}

type GetStatusResponse struct {
	Status            string `json:"status"`
	ConnectedIdentity string `json:"connected_identity,omitempty"`
}

type GetPairingCodeRequest struct{}

type GetPairingCodeResponse struct {
	Status      string `json:"status"`
	PairingCode string `json:"pairing_code,omitempty"`
	Message     string `json:"message"`
}

type LogoutRequest struct{}

type LogoutResponse struct {
	Message string `json:"message"`
}

type SubscribeRequest struct{}

// Event is one realtime notification pushed on the Subscribe stream.
type Event struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (x *Event) GetEvent() string {
	if x == nil {
		return ""
	}
	return x.Event
}

// SessionServiceServer is the server API for SessionService. The tenant is always the
// authenticated token subject.
type SessionServiceServer interface {
	GetStatus(context.Context, *GetStatusRequest) (*GetStatusResponse, error)
	GetPairingCode(context.Context, *GetPairingCodeRequest) (*GetPairingCodeResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[Event]) error
}

// UnimplementedSessionServiceServer must be embedded to have forward compatible implementations.
type UnimplementedSessionServiceServer struct{}

func (UnimplementedSessionServiceServer) GetStatus(context.Context, *GetStatusRequest) (*GetStatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetStatus not implemented")
}

func (UnimplementedSessionServiceServer) GetPairingCode(context.Context, *GetPairingCodeRequest) (*GetPairingCodeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPairingCode not implemented")
}

func (UnimplementedSessionServiceServer) Logout(context.Context, *LogoutRequest) (*LogoutResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Logout not implemented")
}

func (UnimplementedSessionServiceServer) Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[Event]) error {
	return status.Error(codes.Unimplemented, "method Subscribe not implemented")
}

// RegisterSessionServiceServer registers srv on s.
func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&SessionService_ServiceDesc, srv)
}

func _SessionService_GetStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SessionService_GetStatus_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServiceServer).GetStatus(ctx, req.(*GetStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SessionService_GetPairingCode_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetPairingCodeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).GetPairingCode(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SessionService_GetPairingCode_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServiceServer).GetPairingCode(ctx, req.(*GetPairingCodeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SessionService_Logout_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(LogoutRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).Logout(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SessionService_Logout_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServiceServer).Logout(ctx, req.(*LogoutRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SessionService_Subscribe_Handler(srv any, stream grpc.ServerStream) error {
	m := new(SubscribeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(SessionServiceServer).Subscribe(m, &grpc.GenericServerStream[SubscribeRequest, Event]{ServerStream: stream})
}

// SessionService_ServiceDesc is the grpc.ServiceDesc for SessionService.
var SessionService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "salesbot.session.v1.SessionService",
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStatus", Handler: _SessionService_GetStatus_Handler},
		{MethodName: "GetPairingCode", Handler: _SessionService_GetPairingCode_Handler},
		{MethodName: "Logout", Handler: _SessionService_Logout_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: _SessionService_Subscribe_Handler, ServerStreams: true},
	},
	Metadata: "api/session/v1/session.go",
}
