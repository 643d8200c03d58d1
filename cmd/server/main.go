// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tomtom215/qrpulse/internal/api"
	"github.com/tomtom215/qrpulse/internal/auth"
	"github.com/tomtom215/qrpulse/internal/authz"
	"github.com/tomtom215/qrpulse/internal/backend"
	"github.com/tomtom215/qrpulse/internal/config"
	"github.com/tomtom215/qrpulse/internal/live"
	"github.com/tomtom215/qrpulse/internal/logging"
	"github.com/tomtom215/qrpulse/internal/qr"
	"github.com/tomtom215/qrpulse/internal/store"
	"github.com/tomtom215/qrpulse/internal/supervisor"
	"github.com/tomtom215/qrpulse/internal/supervisor/services"
	ws "github.com/tomtom215/qrpulse/internal/websocket"
)

func main() {
	// .env is optional; real environment variables still win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	logging.Info().
		Str("backend", cfg.Backend.BaseURL).
		Dur("poll_interval", cfg.Live.PollInterval).
		Int("failure_threshold", cfg.Live.FailureThreshold).
		Msg("Starting QRPulse")

	if _, err := authz.Default(); err != nil {
		logging.Fatal().Err(err).Msg("Failed to load plan policy")
	}

	st, err := store.Open(store.Config{
		Path:       cfg.Store.Path,
		SyncWrites: cfg.Store.SyncWrites,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open notification state store")
	}

	platform := backend.NewClient(cfg.Backend)

	manager := live.NewManager(platform, live.ManagerConfig{
		Backing: st,
		Poller: live.PollerConfig{
			Interval:         cfg.Live.PollInterval,
			FetchTimeout:     cfg.Live.FetchTimeout,
			FailureThreshold: cfg.Live.FailureThreshold,
			Retention:        cfg.Live.Retention,
			MaxBuffer:        cfg.Live.MaxBuffer,
		},
	})
	hub := ws.NewHub()
	renderer := qr.NewRenderer(cfg.QR)

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	handler := api.NewHandler(cfg, platform, manager, hub, renderer)
	router := api.NewRouter(
		handler,
		auth.NewMiddleware(jwtManager),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(cfg.Security)),
	)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddLiveService(manager)
	if cfg.QR.CacheTTL > 0 {
		tree.AddLiveService(services.NewPeriodicService("render-cache-sweeper", cfg.QR.CacheTTL, func(context.Context) int {
			return renderer.SweepCache()
		}))
	}
	if cfg.Store.GCInterval > 0 {
		tree.AddLiveService(services.NewPeriodicService("store-gc", cfg.Store.GCInterval, func(context.Context) int {
			n, err := st.RunGC()
			if err != nil {
				logging.Warn().Err(err).Msg("Notification store GC failed")
			}
			return n
		}))
	}
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, draining services")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree stopped unexpectedly")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	if err := st.Close(); err != nil {
		logging.Error().Err(err).Msg("Failed to close notification state store")
	}

	logging.Info().Msg("QRPulse stopped")
}
