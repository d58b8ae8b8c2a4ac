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

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/rl1809/marketplace/internal/adapter/handler"
	"github.com/rl1809/marketplace/internal/adapter/storage"
	"github.com/rl1809/marketplace/internal/core/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := storage.ConnectMySQL(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		log.Info("connected to mysql", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Name))

		cache, closeCache, err := storage.OpenCache(ctx, cfg.Cache)
		if err != nil {
			return err
		}
		defer closeCache()
		log.Info("cache ready", zap.String("driver", cfg.Cache.Driver))

		coordinator := service.NewCacheCoordinator(cache, log.Named("cache"), cfg.Cache.Timeout)
		svc := service.NewMarketplaceService(storage.NewMySQLAdapter(db), coordinator, log.Named("service"), cfg.Database.Timeout)

		grpcServer := grpc.NewServer()
		handler.RegisterMarketplaceServer(grpcServer, handler.NewGRPCHandler(svc, log.Named("grpc")))

		httpServer := &http.Server{
			Addr:    cfg.Server.HTTPAddr,
			Handler: handler.NewHTTPHandler(svc, log.Named("http")).Routes(),
		}

		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			log.Info("gRPC server listening", zap.String("addr", cfg.Server.GRPCAddr))
			return grpcServer.Serve(lis)
		})

		g.Go(func() error {
			log.Info("HTTP server listening", zap.String("addr", cfg.Server.HTTPAddr))
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			log.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			err := httpServer.Shutdown(shutdownCtx)
			grpcServer.GracefulStop()
			log.Info("servers stopped")
			return err
		})

		return g.Wait()
	},
}
