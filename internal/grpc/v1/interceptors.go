package v1

import (
	"context"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor пишет в лог метод, код ответа и длительность вызова.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("gRPC Request",
			zap.String("method", info.FullMethod),
			zap.Stringer("code", status.Code(err)),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}

// clientIP адрес из метаданных x-real-ip, иначе адрес пира.
func clientIP(ctx context.Context) net.IP {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("x-real-ip"); len(vals) > 0 {
			if ip := net.ParseIP(strings.TrimSpace(vals[0])); ip != nil {
				return ip
			}
		}
	}
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return nil
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		host = p.Addr.String()
	}
	return net.ParseIP(host)
}

// TrustedSubnetInterceptor пропускает только клиентов из доверенной подсети.
// Пустая подсеть закрывает сервис полностью.
func TrustedSubnetInterceptor(cidr string, logger *zap.Logger) grpc.UnaryServerInterceptor {
	var subnet *net.IPNet
	if cidr != "" {
		if _, n, err := net.ParseCIDR(cidr); err == nil {
			subnet = n
		} else {
			logger.Error("Некорректная доверенная подсеть", zap.String("cidr", cidr), zap.Error(err))
		}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ip := clientIP(ctx)
		if subnet == nil || ip == nil || !subnet.Contains(ip) {
			logger.Warn("gRPC-вызов из недоверенной сети",
				zap.String("method", info.FullMethod),
				zap.Stringer("ip", ip))
			return nil, status.Error(codes.PermissionDenied, "untrusted network")
		}
		return handler(ctx, req)
	}
}

// NewServer gRPC-сервер со всеми перехватчиками и зарегистрированным Edge.
func NewServer(srv EdgeServer, trustedSubnet string, logger *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		LoggingInterceptor(logger),
		TrustedSubnetInterceptor(trustedSubnet, logger),
	))
	s := grpc.NewServer(opts...)
	RegisterEdgeServer(s, srv)
	return s
}
