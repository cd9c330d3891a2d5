package api

import (
	"context"

	grpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	sessionServiceName = "vinom.claimmaze.Session"

	Session_NewGame_FullMethodName     = "/" + sessionServiceName + "/NewGame"
	Session_SessionInfo_FullMethodName = "/" + sessionServiceName + "/SessionInfo"
	Session_Snapshot_FullMethodName    = "/" + sessionServiceName + "/Snapshot"
	Session_Deposit_FullMethodName     = "/" + sessionServiceName + "/Deposit"
	Session_Connect_FullMethodName     = "/" + sessionServiceName + "/ConnectAccount"
)

// SessionServer is the server API for the Session service. Requests and
// responses are free-form structs so clients need no generated code.
type SessionServer interface {
	NewGame(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SessionInfo(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Snapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Deposit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ConnectAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// SessionClient is the client API for the Session service.
type SessionClient interface {
	NewGame(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	SessionInfo(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Snapshot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Deposit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ConnectAccount(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type sessionClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionClient(cc grpc.ClientConnInterface) SessionClient {
	return &sessionClient{cc}
}

func (c *sessionClient) NewGame(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Session_NewGame_FullMethodName, in, opts...)
}

func (c *sessionClient) SessionInfo(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Session_SessionInfo_FullMethodName, in, opts...)
}

func (c *sessionClient) Snapshot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Session_Snapshot_FullMethodName, in, opts...)
}

func (c *sessionClient) Deposit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Session_Deposit_FullMethodName, in, opts...)
}

func (c *sessionClient) ConnectAccount(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, Session_Connect_FullMethodName, in, opts...)
}

func (c *sessionClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterSessionServer(s grpc.ServiceRegistrar, srv SessionServer) {
	s.RegisterService(&Session_ServiceDesc, srv)
}

// unaryHandler adapts one SessionServer method to a grpc.MethodDesc handler.
func unaryHandler(fullMethod string, call func(SessionServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SessionServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SessionServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Session_ServiceDesc is the grpc.ServiceDesc for the Session service.
var Session_ServiceDesc = grpc.ServiceDesc{
	ServiceName: sessionServiceName,
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "NewGame",
			Handler:    unaryHandler(Session_NewGame_FullMethodName, SessionServer.NewGame),
		},
		{
			MethodName: "SessionInfo",
			Handler:    unaryHandler(Session_SessionInfo_FullMethodName, SessionServer.SessionInfo),
		},
		{
			MethodName: "Snapshot",
			Handler:    unaryHandler(Session_Snapshot_FullMethodName, SessionServer.Snapshot),
		},
		{
			MethodName: "Deposit",
			Handler:    unaryHandler(Session_Deposit_FullMethodName, SessionServer.Deposit),
		},
		{
			MethodName: "ConnectAccount",
			Handler:    unaryHandler(Session_Connect_FullMethodName, SessionServer.ConnectAccount),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "session.proto",
}
