// Package v1 gRPC-сервис scanlink.v1.Edge для внутренних потребителей:
// edge-прокси (разрешение сканов) и биллинга (сброс счётчиков, смена тарифа).
//
// Сообщения построены на well-known типах protobuf, поэтому описание сервиса
// задано вручную и не требует сгенерированного кода.
package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "scanlink.v1.Edge"

	ResolveMethod           = "/" + ServiceName + "/Resolve"
	ResetMonthlyScansMethod = "/" + ServiceName + "/ResetMonthlyScans"
	SetTierMethod           = "/" + ServiceName + "/SetTier"
)

// EdgeServer серверная часть сервиса.
type EdgeServer interface {
	// Resolve учитывает скан и возвращает {outcome, destination}.
	Resolve(ctx context.Context, shortID *wrapperspb.StringValue) (*structpb.Struct, error)
	ResetMonthlyScans(ctx context.Context, ownerID *wrapperspb.StringValue) (*emptypb.Empty, error)
	// SetTier принимает {owner_id, tier}.
	SetTier(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
}

// RegisterEdgeServer регистрирует реализацию на gRPC-сервере.
func RegisterEdgeServer(s grpc.ServiceRegistrar, srv EdgeServer) {
	s.RegisterService(&EdgeServiceDesc, srv)
}

func resolveHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EdgeServer).Resolve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ResolveMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(EdgeServer).Resolve(ctx, req.(*wrapperspb.StringValue))
	})
}

func resetMonthlyScansHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EdgeServer).ResetMonthlyScans(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ResetMonthlyScansMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(EdgeServer).ResetMonthlyScans(ctx, req.(*wrapperspb.StringValue))
	})
}

func setTierHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EdgeServer).SetTier(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SetTierMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(EdgeServer).SetTier(ctx, req.(*structpb.Struct))
	})
}

// EdgeServiceDesc описание сервиса для grpc.Server.
var EdgeServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EdgeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Resolve", Handler: resolveHandler},
		{MethodName: "ResetMonthlyScans", Handler: resetMonthlyScansHandler},
		{MethodName: "SetTier", Handler: setTierHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scanlink/v1/edge.proto",
}

// EdgeClient клиент сервиса.
type EdgeClient struct {
	cc grpc.ClientConnInterface
}

func NewEdgeClient(cc grpc.ClientConnInterface) *EdgeClient {
	return &EdgeClient{cc: cc}
}

func (c *EdgeClient) Resolve(ctx context.Context, shortID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ResolveMethod, wrapperspb.String(shortID), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *EdgeClient) ResetMonthlyScans(ctx context.Context, ownerID string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, ResetMonthlyScansMethod, wrapperspb.String(ownerID), new(emptypb.Empty), opts...)
}

func (c *EdgeClient) SetTier(ctx context.Context, ownerID, tier string, opts ...grpc.CallOption) error {
	req, err := structpb.NewStruct(map[string]any{"owner_id": ownerID, "tier": tier})
	if err != nil {
		return err
	}
	return c.cc.Invoke(ctx, SetTierMethod, req, new(emptypb.Empty), opts...)
}
