// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the response of GET /api/v1/health.
type HealthStatus struct {
	Status        string  `json:"status"`
	Uptime        float64 `json:"uptime"`
	Breaker       string  `json:"breaker"`
	ActivePollers int     `json:"activePollers"`
	WSClients     int     `json:"wsClients"`
	RenderCache   struct {
		Hits   int64 `json:"hits"`
		Misses int64 `json:"misses"`
		Size   int   `json:"size"`
	} `json:"renderCache"`
}

// Health reports liveness. The service is degraded, not down, while the
// platform circuit breaker is open: rendering still works.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	hs := HealthStatus{
		Status:        "healthy",
		Uptime:        time.Since(h.startTime).Seconds(),
		Breaker:       h.platform.BreakerState(),
		ActivePollers: h.live.Active(),
		WSClients:     h.hub.GetClientCount(),
	}
	if hs.Breaker == "open" {
		hs.Status = "degraded"
	}
	cs := h.renderer.CacheStats()
	hs.RenderCache.Hits, hs.RenderCache.Misses, hs.RenderCache.Size = cs.Hits, cs.Misses, cs.Size

	WriteSuccess(w, r, hs)
}
