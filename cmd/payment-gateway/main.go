package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/LavaJover/shvark-payment-gateway/internal/app/setup"
	"github.com/LavaJover/shvark-payment-gateway/internal/config"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	logger.Setup(cfg.LogConfig)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.InitializeDependencies(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to init dependencies: %v", err)
	}
	defer deps.Close()

	uc := setup.InitializeUseCases(deps)

	// rebuild the pending-check set from the ledger before anything polls it
	if added, removed, err := uc.ReconcileUsecase.SyncPendingChecks(ctx); err != nil {
		slog.Error("pending check sync failed", "error", err.Error())
	} else {
		slog.Info("pending checks synced", "added", added, "removed", removed)
	}

	scheduler, err := setup.InitializeScheduler(deps, uc)
	if err != nil {
		log.Fatalf("failed to init scheduler: %v", err)
	}
	if scheduler != nil {
		scheduler.Start()
	} else {
		slog.Warn("scheduler disabled")
	}

	// gRPC health
	grpcServer := grpc.NewServer()
	health := setup.InitializeHealth(uc)
	health.Register(grpcServer)
	go health.Run(ctx)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	go func() {
		slog.Info("gRPC server started", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("gRPC server stopped", "error", err.Error())
			stop()
		}
	}()

	// HTTP API
	srv := setup.InitializeHTTPServer(deps, setup.InitializeRouter(deps, uc, scheduler))
	go func() {
		slog.Info("HTTP server started", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown", "error", err.Error())
	}
	grpcServer.GracefulStop()
	if scheduler != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := scheduler.Stop(stopCtx); err != nil {
			slog.Error("scheduler stop", "error", err.Error())
		}
		stopCancel()
	}
	slog.Info("stopped")
}
