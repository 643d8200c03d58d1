// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package api

import (
	"net/http"

	"github.com/tomtom215/qrpulse/internal/auth"
	"github.com/tomtom215/qrpulse/internal/dashboard"
	"github.com/tomtom215/qrpulse/internal/models"
	"github.com/tomtom215/qrpulse/internal/validation"
)

// SummaryRequest holds the analytics summary query parameters.
type SummaryRequest struct {
	QRCodeID string `json:"qrCodeId" validate:"omitempty,max=128"`
	Period   string `json:"period" validate:"omitempty,oneof=24h 7d 30d 90d 1y all"`
}

// SummaryResponse is the platform summary plus ready-to-render breakdowns.
type SummaryResponse struct {
	Summary   *models.AnalyticsSummary `json:"summary"`
	Devices   []dashboard.Row          `json:"devices"`
	Countries []dashboard.Row          `json:"countries"`
	Browsers  []dashboard.Row          `json:"browsers"`
	OS        []dashboard.Row          `json:"os"`
}

// AnalyticsSummary proxies the server-authoritative summary. Its totals are
// the platform's, not recomputed from the live buffer.
func (h *Handler) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()
	req := SummaryRequest{QRCodeID: q.Get("qrCodeId"), Period: q.Get("period")}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	s, err := h.platform.GetAnalyticsSummary(r.Context(), auth.UserIDFromContext(r.Context()), req.QRCodeID, req.Period)
	if err != nil {
		h.platformError(rw, err, "qr code not found")
		return
	}

	rw.Success(SummaryResponse{
		Summary:   s,
		Devices:   dashboard.BreakdownMap(s.ByDevice, s.TotalScans),
		Countries: dashboard.BreakdownMap(s.ByCountry, s.TotalScans),
		Browsers:  dashboard.BreakdownMap(s.ByBrowser, s.TotalScans),
		OS:        dashboard.BreakdownMap(s.ByOS, s.TotalScans),
	})
}
