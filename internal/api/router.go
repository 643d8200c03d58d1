// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/qrpulse/internal/auth"
	"github.com/tomtom215/qrpulse/internal/middleware"
)

// Router binds handlers to routes.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	chiMiddleware *ChiMiddleware
}

func NewRouter(handler *Handler, authMiddleware *auth.Middleware, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, auth: authMiddleware, chiMiddleware: chiMW}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflights succeed

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/api/v1/health", router.handler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(router.auth.Authenticate)

		r.Route("/live", func(r chi.Router) {
			r.Get("/snapshot", router.handler.LiveSnapshot)
			r.Get("/ws", router.handler.LiveWebSocket)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", router.handler.ListNotifications)
			r.Delete("/", router.handler.ClearNotifications)
			r.Post("/read-all", router.handler.MarkAllNotificationsRead)
			r.Post("/{id}/read", router.handler.MarkNotificationRead)
		})

		r.Route("/qr", func(r chi.Router) {
			r.Get("/", router.handler.ListQRCodes)

			render := router.chiMiddleware.RenderRateLimit()
			r.With(render).Post("/render", router.handler.RenderQR)
			r.With(render).Get("/{id}/image", router.handler.QRImage)
		})

		r.Get("/analytics/summary", router.handler.AnalyticsSummary)
	})

	return r
}
