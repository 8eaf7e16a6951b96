package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/codecollab/relay/server/internal/api"
	"github.com/codecollab/relay/server/internal/auth"
	"github.com/codecollab/relay/server/internal/config"
	"github.com/codecollab/relay/server/internal/health"
	"github.com/codecollab/relay/server/internal/registry"
	"github.com/codecollab/relay/server/internal/rooms"
	"github.com/codecollab/relay/server/internal/router"
	"github.com/codecollab/relay/server/internal/stats"
	"github.com/codecollab/relay/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	slog.Info("relay starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("config file not found, using defaults", "config", *configPath)
		cfg = config.Defaults()
	case err != nil:
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Server.Level())

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"grpc_port", cfg.Server.GRPCPort,
		"ws_path", cfg.Server.WSPath,
		"heartbeat_interval", cfg.Server.Heartbeat.Interval,
		"stats_interval", cfg.Server.Stats.Interval,
		"admin_auth_mode", cfg.Server.AdminAuth.Mode,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Hot reload applies the log level; everything else needs a restart.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			level.Set(updated.Server.Level())
			slog.Info("config hot-reloaded", "log_level", updated.Server.LogLevel)
		}); err != nil {
			slog.Warn("config watcher stopped", "err", err)
		}
	}()

	conns := registry.New()
	directory := rooms.New()
	rt := router.New(directory)

	relay := ws.NewServer(conns, rt, ws.Options{
		HeartbeatInterval: cfg.Server.Heartbeat.Interval,
		WriteTimeout:      cfg.Server.Transport.WriteTimeout,
		SendBuffer:        cfg.Server.Transport.SendBuffer,
		MaxMessageSize:    cfg.Server.Transport.MaxMessageSize,
	})

	reporter := stats.New(conns, directory, rt, cfg.Server.Stats.Interval)
	go reporter.Run(ctx)

	adminAuth := cfg.Server.AdminAuth
	guard := func(h http.Handler) http.Handler {
		return auth.APIKeyMiddleware(adminAuth.Mode, adminAuth.EffectiveHeader(), adminAuth.Key(), h)
	}

	// gRPC health service for orchestrator probes.
	var healthSvc *health.Service
	if cfg.Server.GRPCPort != 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			slog.Error("failed to listen on gRPC port", "port", cfg.Server.GRPCPort, "err", err)
			os.Exit(1)
		}
		healthSvc = health.New(auth.APIKeyInterceptor(
			adminAuth.Mode, adminAuth.EffectiveHeader(), adminAuth.Key()))
		go func() {
			slog.Info("gRPC health service listening", "port", cfg.Server.GRPCPort)
			if err := healthSvc.Serve(lis); err != nil {
				slog.Error("gRPC server stopped", "err", err)
			}
		}()
	}

	// Combined HTTP server: relay socket + admin API + metrics on HTTPPort.
	httpMux := http.NewServeMux()
	httpMux.Handle(cfg.Server.WSPath, relay)
	httpMux.Handle("/api/", guard(api.New(conns, directory)))
	httpMux.Handle("/metrics", guard(reporter))

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           httpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort, "ws_path", cfg.Server.WSPath)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("relay shutting down")

	if healthSvc != nil {
		healthSvc.SetServing(false)
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	// Shutdown does not touch hijacked sockets; close them explicitly.
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	relay.Shutdown()

	if healthSvc != nil {
		healthSvc.Stop()
	}
}
