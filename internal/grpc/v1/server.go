package v1

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Totarae/scanlink/internal/model"
	"github.com/Totarae/scanlink/internal/service"
	"github.com/Totarae/scanlink/internal/util"
)

// ScanResolver атомарное разрешение ссылки.
type ScanResolver interface {
	ResolveAndCount(ctx context.Context, shortID string) (model.Resolution, error)
}

// GRPCServer реализация EdgeServer поверх сервисного слоя.
type GRPCServer struct {
	Resolver ScanResolver
	Accounts *service.AccountService
	Logger   *zap.Logger
}

func NewGRPCServer(resolver ScanResolver, accounts *service.AccountService, logger *zap.Logger) *GRPCServer {
	return &GRPCServer{Resolver: resolver, Accounts: accounts, Logger: logger}
}

func (s *GRPCServer) Resolve(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	shortID := req.GetValue()
	if shortID == "" {
		return nil, status.Error(codes.InvalidArgument, "short id is required")
	}
	if !util.ValidShortID(shortID) {
		return nil, status.Errorf(codes.InvalidArgument, "invalid short id %q", shortID)
	}

	res, err := s.Resolver.ResolveAndCount(ctx, shortID)
	if err != nil {
		return nil, status.Error(codes.Internal, "resolve failed")
	}
	out, err := structpb.NewStruct(map[string]any{
		"outcome":     res.Outcome.String(),
		"destination": res.Destination,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func (s *GRPCServer) ResetMonthlyScans(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "owner id is required")
	}
	if err := s.Accounts.ResetMonthlyScans(ctx, req.GetValue()); err != nil {
		return nil, s.toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) SetTier(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	fields := req.GetFields()
	ownerID := fields["owner_id"].GetStringValue()
	if ownerID == "" {
		return nil, status.Error(codes.InvalidArgument, "owner_id is required")
	}
	if err := s.Accounts.SetTier(ctx, ownerID, fields["tier"].GetStringValue()); err != nil {
		return nil, s.toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidTier):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		s.Logger.Error("Ошибка gRPC-вызова", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}
