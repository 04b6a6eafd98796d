package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/lot-ledger/internal/adapter/handler"
	"github.com/rl1809/lot-ledger/internal/adapter/handler/rpc"
	"github.com/rl1809/lot-ledger/internal/adapter/notifier"
	"github.com/rl1809/lot-ledger/internal/adapter/storage"
	"github.com/rl1809/lot-ledger/internal/config"
	"github.com/rl1809/lot-ledger/internal/core/service"
	"github.com/rl1809/lot-ledger/internal/port"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg.Log)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	adapter, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer adapter.Close()
	logger.Info("connected to database", zap.String("driver", adapter.Driver()))

	opts := []service.Option{service.WithLogger(logger)}
	notifiers := []port.Notifier{notifier.NewLogNotifier(logger)}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))

		opts = append(opts, service.WithCache(storage.NewRedisAdapter(rdb)))
		notifiers = append(notifiers, notifier.NewRedisNotifier(rdb, cfg.Redis.AlertChannel, logger))
	}

	inventoryService := service.NewInventoryService(adapter, cfg.Inventory.LowStockThreshold, cfg.Alerts.QueueSize, opts...)

	dispatcher := notifier.NewDispatcher(logger, cfg.Alerts.Timeout, notifiers...)
	dispatcher.Start(cfg.Alerts.Workers, inventoryService.GetAlertQueue())

	// gRPC
	grpcServer := grpc.NewServer()
	rpc.RegisterInventoryServiceServer(grpcServer, handler.NewGRPCHandler(inventoryService, logger))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.GRPCAddr, err)
	}

	// HTTP
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: handler.NewHTTPHandler(inventoryService, logger).Router(),
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.Server.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errCh:
		logger.Error("server failed, shutting down", zap.Error(runErr))
	}

	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// In-flight requests are done; drain the alerts they raised.
	inventoryService.Close()
	dispatcher.Wait()
	logger.Info("alert workers stopped")

	return runErr
}
