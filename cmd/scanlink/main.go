package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/Totarae/scanlink/internal/auth"
	"github.com/Totarae/scanlink/internal/config"
	"github.com/Totarae/scanlink/internal/database"
	grpcv1 "github.com/Totarae/scanlink/internal/grpc/v1"
	"github.com/Totarae/scanlink/internal/handlers"
	"github.com/Totarae/scanlink/internal/logger"
	"github.com/Totarae/scanlink/internal/ratelimit"
	"github.com/Totarae/scanlink/internal/repositories"
	"github.com/Totarae/scanlink/internal/router"
	"github.com/Totarae/scanlink/internal/service"
	"github.com/Totarae/scanlink/internal/storage"
	"github.com/Totarae/scanlink/internal/storage/memory"
	"github.com/Totarae/scanlink/internal/storage/sqlite"
	"github.com/Totarae/scanlink/internal/verification"
)

var (
	buildVersion = "N/A"
	buildDate    = "N/A"
	buildCommit  = "N/A"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		logger.MustNew().Fatal("Ошибка конфигурации", zap.Error(err))
	}

	log := logger.MustNew(
		logger.WithProduction(cfg.Production()),
		logger.WithField("service", "scanlink"),
	)
	defer func() { _ = log.Sync() }()

	log.Info("Build info",
		zap.String("version", buildVersion),
		zap.String("date", buildDate),
		zap.String("commit", buildCommit))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("Сервер остановлен с ошибкой", zap.Error(err))
	}
	log.Info("Сервер остановлен")
}

// openStorage выбирает хранилище по режиму конфигурации.
func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Storage, error) {
	switch cfg.Mode {
	case config.ModeDatabase:
		db, err := database.NewDB(ctx, cfg.DatabaseDSN, log)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return repositories.NewRepository(db), nil
	case config.ModeSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		log.Info("Хранилище SQLite открыто", zap.String("driver", sqlite.DriverFor(cfg.SQLitePath)))
		return s, nil
	default:
		log.Warn("Используется хранилище в памяти, данные не сохраняются между запусками")
		return memory.New(), nil
	}
}

// app собранные зависимости сервера.
type app struct {
	store      storage.Storage
	httpServer *http.Server
	grpcServer *grpc.Server
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, func(), error) {
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	redisClient, err := ratelimit.NewClient(cfg.RedisURL)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	if redisClient == nil {
		log.Info("REDIS_URL не задан, ограничение частоты верификации отключено")
	}
	limiter := ratelimit.New(redisClient, "verify:", cfg.VerifyRateLimit, time.Minute)

	engine := verification.NewEngine(verification.NewNetResolver(cfg.DNSServer), cfg.VerificationPrefix, cfg.DNSTimeout, log)
	resolver := service.NewResolver(store, log)
	links := service.NewLinkService(store, log, cfg.BaseURL)
	domains := service.NewDomainService(store, engine, limiter, log, cfg.PrimaryHost)
	accounts := service.NewAccountService(store, log)

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET не задан, API владельцев будет отклонять все токены")
	}
	h := handlers.NewHandler(store, resolver, links, domains, accounts, log)
	r := router.NewRouter(h, resolver, auth.New(cfg.JWTSecret), router.Options{
		PrimaryHost:   cfg.PrimaryHost,
		BaseURL:       cfg.BaseURL,
		TrustedSubnet: cfg.TrustedSubnet,
	}, log)

	a := &app{
		store: store,
		httpServer: &http.Server{
			Addr:              cfg.ServerAddress,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
	if cfg.GRPCAddress != "" {
		a.grpcServer = grpcv1.NewServer(grpcv1.NewGRPCServer(resolver, accounts, log), cfg.TrustedSubnet, log)
	}

	cleanup := func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		if err := store.Close(); err != nil {
			log.Error("Ошибка закрытия хранилища", zap.Error(err))
		}
	}
	return a, cleanup, nil
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	a, cleanup, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	errCh := make(chan error, 2)

	if a.grpcServer != nil {
		lis, listenErr := net.Listen("tcp", cfg.GRPCAddress)
		if listenErr != nil {
			return fmt.Errorf("listen grpc: %w", listenErr)
		}
		go func() {
			log.Info("gRPC-сервер запущен", zap.String("address", cfg.GRPCAddress))
			if err := a.grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	go func() {
		log.Info("Сервер запущен",
			zap.String("address", cfg.ServerAddress),
			zap.String("primary_host", cfg.PrimaryHost),
			zap.String("mode", cfg.Mode),
			zap.Bool("https", cfg.EnableHTTPS))
		var err error
		if cfg.EnableHTTPS {
			err = a.httpServer.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = a.httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Получен сигнал завершения")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.grpcServer != nil {
		a.grpcServer.GracefulStop()
	}
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
