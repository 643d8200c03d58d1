// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package api

import (
	"context"
	"time"

	"github.com/tomtom215/qrpulse/internal/config"
	"github.com/tomtom215/qrpulse/internal/dashboard"
	"github.com/tomtom215/qrpulse/internal/live"
	"github.com/tomtom215/qrpulse/internal/models"
	"github.com/tomtom215/qrpulse/internal/qr"
	ws "github.com/tomtom215/qrpulse/internal/websocket"
)

// Platform is the slice of the platform API client the handlers call
// directly. Live feed polling goes through the live.Manager.
type Platform interface {
	GetQRCode(ctx context.Context, userID, qrID string) (*models.QRCode, error)
	ListQRCodes(ctx context.Context, userID string) ([]models.QRCodeSummary, error)
	GetAnalyticsSummary(ctx context.Context, userID, qrID, period string) (*models.AnalyticsSummary, error)
	BreakerState() string
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handler.go: Handler struct, constructor, live wiring (this file)
//   - handlers_health.go: health
//   - handlers_live.go: live snapshot and WebSocket
//   - handlers_notifications.go: notification tray
//   - handlers_qr.go: QR rendering
//   - handlers_analytics.go: analytics summary proxy
type Handler struct {
	config    *config.Config
	platform  Platform
	live      *live.Manager
	hub       *ws.Hub
	renderer  *qr.Renderer
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates the handler and installs the live publisher and hub
// hooks, so poller updates reach the user's WebSocket clients.
func NewHandler(cfg *config.Config, platform Platform, manager *live.Manager, hub *ws.Hub, renderer *qr.Renderer) *Handler {
	h := &Handler{
		config:    cfg,
		platform:  platform,
		live:      manager,
		hub:       hub,
		renderer:  renderer,
		startTime: time.Now(),
		now:       time.Now,
	}
	manager.SetPublisher(h.publish)
	hub.SetHooks(ws.Hooks{
		OnConnect:    h.onConnect,
		OnDisconnect: h.onDisconnect,
		OnMessage:    h.onMessage,
	})
	return h
}

// panelOptions builds dashboard options from the live config. counters may
// be nil for one-shot renders.
func (h *Handler) panelOptions(counters *dashboard.Counters) dashboard.PanelOptions {
	return dashboard.PanelOptions{
		FeedItems:    h.config.Live.FeedItems,
		TopCountries: h.config.Live.TopCountries,
		Retention:    h.config.Live.Retention,
		Counters:     counters,
	}
}
