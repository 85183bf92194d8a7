package client

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service of the identity backend.
// Requests and responses are google.protobuf.Struct documents.
const ServiceName = "mapfriends.identity.v1.IdentityService"

const (
	MethodPing                 = "Ping"
	MethodSignInPassword       = "SignInPassword"
	MethodSignUpPassword       = "SignUpPassword"
	MethodSignInWithCredential = "SignInWithCredential"
	MethodRefreshToken         = "RefreshToken"
	MethodSendPasswordReset    = "SendPasswordReset"
	MethodUpdateDisplayName    = "UpdateDisplayName"
	MethodSignOut              = "SignOut"
	MethodGetProfile           = "GetProfile"
	MethodGetHandleOwner       = "GetHandleOwner"
)

var methods = []string{
	MethodPing,
	MethodSignInPassword,
	MethodSignUpPassword,
	MethodSignInWithCredential,
	MethodRefreshToken,
	MethodSendPasswordReset,
	MethodUpdateDisplayName,
	MethodSignOut,
	MethodGetProfile,
	MethodGetHandleOwner,
}

// FullMethod returns the gRPC path of method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// identityAPI performs one unary identity call.
type identityAPI interface {
	Call(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error)
}

type identityStub struct {
	cc grpc.ClientConnInterface
}

func (s identityStub) Call(ctx context.Context, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := s.cc.Invoke(ctx, FullMethod(method), in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// IdentityServer serves every identity method through one entry point.
type IdentityServer interface {
	Handle(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterIdentityServer registers srv on s under ServiceName.
func RegisterIdentityServer(s grpc.ServiceRegistrar, srv IdentityServer) {
	s.RegisterService(serviceDesc(), srv)
}

func serviceDesc() *grpc.ServiceDesc {
	md := make([]grpc.MethodDesc, 0, len(methods))
	for _, m := range methods {
		md = append(md, grpc.MethodDesc{
			MethodName: m,
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				in := &structpb.Struct{}
				if err := dec(in); err != nil {
					return nil, err
				}
				h := srv.(IdentityServer)
				if interceptor == nil {
					return h.Handle(ctx, m, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(m)}
				return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
					return h.Handle(ctx, m, req.(*structpb.Struct))
				})
			},
		})
	}
	return &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*IdentityServer)(nil),
		Methods:     md,
		Streams:     []grpc.StreamDesc{},
		Metadata:    "mapfriends/identity/v1/identity.proto",
	}
}
