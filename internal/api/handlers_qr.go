// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package api

import (
	"cmp"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/vincent-petithory/dataurl"

	"github.com/tomtom215/qrpulse/internal/auth"
	"github.com/tomtom215/qrpulse/internal/backend"
	"github.com/tomtom215/qrpulse/internal/dashboard"
	"github.com/tomtom215/qrpulse/internal/models"
	"github.com/tomtom215/qrpulse/internal/qr"
	"github.com/tomtom215/qrpulse/internal/validation"
)

// maxRenderBody caps render request bodies; logos are inline data URLs.
const maxRenderBody = 1 << 20

// RenderedQR is the JSON form of a render, returned for ?format=json.
type RenderedQR struct {
	Payload string `json:"payload"`
	DataURL string `json:"dataUrl"`
	ETag    string `json:"etag"`
	Size    int    `json:"size"`
}

// RenderQR renders a QR code from a request body. Validation runs before
// rendering; logos require a plan that includes them.
func (h *Handler) RenderQR(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.QRRenderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRenderBody))
	if err := dec.Decode(&req); err != nil {
		rw.BadRequest("invalid request body: " + err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}
	if !h.gateStyling(rw, planFrom(r), &req) {
		return
	}

	h.renderAndWrite(w, r, &req)
}

// QRCodeList is the user's codes, most scanned first.
type QRCodeList struct {
	Codes      []models.QRCodeSummary `json:"codes"`
	Total      int                    `json:"total"`
	EmptyState dashboard.EmptyState   `json:"emptyState,omitempty"`
}

// ListQRCodes proxies the platform's code list. An empty list carries the
// no_qr_codes empty state.
func (h *Handler) ListQRCodes(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	codes, err := h.platform.ListQRCodes(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.platformError(rw, err, "qr codes not found")
		return
	}

	slices.SortStableFunc(codes, func(a, b models.QRCodeSummary) int {
		if c := cmp.Compare(b.TotalScans, a.TotalScans); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	out := QRCodeList{Codes: codes, Total: len(codes)}
	if out.Codes == nil {
		out.Codes = []models.QRCodeSummary{}
	}
	if out.Total == 0 {
		out.EmptyState = dashboard.EmptyNoQRCodes
	}
	rw.Success(out)
}

// QRImage renders a stored QR code using its saved settings. ?size=
// overrides the stored size.
func (h *Handler) QRImage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	var size int
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			rw.ValidationError("Validation failed", map[string]any{"fields": map[string]string{"size": "size must be an integer"}})
			return
		}
		size = n
	}

	code, err := h.platform.GetQRCode(r.Context(), auth.UserIDFromContext(r.Context()), id)
	if err != nil {
		h.platformError(rw, err, "qr code not found")
		return
	}

	req := qr.RequestFromSettings(code)
	if size != 0 {
		req.Size = size
	}
	h.renderAndWrite(w, r, req)
}

// gateStyling rejects plan-gated styling with 403 and the upsell gate.
func (h *Handler) gateStyling(rw *ResponseWriter, plan dashboard.Plan, req *models.QRRenderRequest) bool {
	check := func(feature dashboard.Feature) bool {
		g := dashboard.CheckGate(plan, feature)
		if g.Allowed {
			return true
		}
		rw.UpgradeRequired(g)
		return false
	}
	if req.Logo != nil && !check(dashboard.FeatureLogo) {
		return false
	}
	if req.Frame != nil && !check(dashboard.FeatureFrames) {
		return false
	}
	return true
}

func (h *Handler) renderAndWrite(w http.ResponseWriter, r *http.Request, req *models.QRRenderRequest) {
	rw := NewResponseWriter(w, r)
	res, err := h.renderer.Render(r.Context(), req)
	if err != nil {
		if qr.IsRequestError(err) {
			rw.ValidationError(err.Error(), nil)
			return
		}
		rw.InternalError(err)
		return
	}

	w.Header().Set("ETag", res.ETag)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if etagMatch(r.Header.Get("If-None-Match"), res.ETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		rw.Success(RenderedQR{
			Payload: res.Payload,
			DataURL: dataurl.New(res.PNG, "image/png").String(),
			ETag:    res.ETag,
			Size:    res.Size,
		})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(res.PNG)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.PNG)
}

// etagMatch implements the weak comparison If-None-Match uses.
func etagMatch(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// platformError maps platform client errors onto the envelope.
func (h *Handler) platformError(rw *ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, backend.ErrNotFound):
		rw.NotFound(notFound)
	case errors.Is(err, backend.ErrCircuitOpen), errors.Is(err, backend.ErrRateLimited):
		rw.ServiceUnavailable("platform temporarily unavailable")
	case backend.IsClientError(err):
		rw.BadRequest("platform rejected the request")
	default:
		rw.ExternalServiceError("platform", err)
	}
}
