// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package qr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/qrpulse/internal/cache"
	"github.com/tomtom215/qrpulse/internal/config"
	"github.com/tomtom215/qrpulse/internal/logging"
	"github.com/tomtom215/qrpulse/internal/metrics"
	"github.com/tomtom215/qrpulse/internal/models"
)

// Result is a rendered QR code.
type Result struct {
	PNG     []byte
	Payload string
	// ETag is a strong validator derived from the normalised request.
	ETag string
	Size int
}

// Renderer renders requests and caches the PNGs.
type Renderer struct {
	defaultSize int
	maxSize     int
	cache       *cache.LRU[*Result]
}

func NewRenderer(cfg config.QRConfig) *Renderer {
	size := cfg.CacheSize
	if size <= 0 {
		size = 512
	}
	return &Renderer{
		defaultSize: cfg.DefaultSize,
		maxSize:     cfg.MaxSize,
		cache:       cache.NewLRU[*Result](size, cfg.CacheTTL),
	}
}

// Render returns the PNG for req. The request is not modified. Results for
// equal requests are shared and must be treated as read-only.
func (r *Renderer) Render(ctx context.Context, req *models.QRRenderRequest) (*Result, error) {
	typ := string(req.Type)
	payload, err := EncodePayload(req)
	if err != nil {
		metrics.RecordQRRender(typ, "error", 0)
		return nil, err
	}

	norm := *req
	if norm.Size == 0 && r.defaultSize > 0 {
		norm.Size = r.defaultSize
	}
	etag, err := ETag(&norm, payload)
	if err != nil {
		metrics.RecordQRRender(typ, "error", 0)
		return nil, err
	}

	if res, ok := r.cache.Get(etag); ok {
		metrics.RecordQRRender(typ, "cache_hit", 0)
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	img, err := RenderImage(&norm, payload, r.maxSize)
	if err != nil {
		metrics.RecordQRRender(typ, "error", 0)
		return nil, err
	}
	png, err := EncodePNG(img)
	if err != nil {
		metrics.RecordQRRender(typ, "error", 0)
		return nil, err
	}
	elapsed := time.Since(start)
	metrics.RecordQRRender(typ, "rendered", elapsed)

	res := &Result{PNG: png, Payload: payload, ETag: etag, Size: img.Bounds().Dx()}
	r.cache.Set(etag, res)

	logging.Ctx(ctx).Debug().
		Str("type", typ).
		Int("size", res.Size).
		Int("bytes", len(png)).
		Dur("elapsed", elapsed).
		Msg("rendered qr code")
	return res, nil
}

// SweepCache drops expired renders and returns how many were removed.
func (r *Renderer) SweepCache() int {
	return r.cache.Sweep()
}

// CacheStats exposes the render cache counters.
func (r *Renderer) CacheStats() cache.Stats {
	return r.cache.Stats()
}

// canonical is the hashed form of a request: the payload plus styling with
// colours lower-cased.
type canonical struct {
	Payload string          `json:"p"`
	Level   int             `json:"l"`
	Size    int             `json:"s"`
	Color   models.QRColor  `json:"c"`
	Frame   *models.QRFrame `json:"f,omitempty"`
	Logo    *models.QRLogo  `json:"g,omitempty"`
}

// ETag returns the quoted strong ETag for a request and its payload.
func ETag(req *models.QRRenderRequest, payload string) (string, error) {
	c := canonical{
		Payload: payload,
		Level:   int(Level(req)),
		Size:    req.Size,
		Color: models.QRColor{
			Dark:  strings.ToLower(req.Color.Dark),
			Light: strings.ToLower(req.Color.Light),
		},
		Logo: req.Logo,
	}
	if req.Frame != nil {
		f := *req.Frame
		f.Color = strings.ToLower(f.Color)
		c.Frame = &f
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("qr: etag: %w", err)
	}
	sum := sha256.Sum256(b)
	return `"` + hex.EncodeToString(sum[:16]) + `"`, nil
}

// RequestFromSettings builds the render request for a stored QR code.
// Dynamic codes encode their short URL so the destination can change without
// reprinting.
func RequestFromSettings(q *models.QRCode) *models.QRRenderRequest {
	req := &models.QRRenderRequest{
		Type:    q.Type,
		Content: q.Content,
		Size:    q.Settings.Size,
		Color:   q.Settings.Color,
		Frame:   q.Settings.Frame,
		Logo:    q.Settings.Logo,
	}
	if q.IsDynamic && q.ShortURL != "" {
		req.Type = models.PayloadURL
		req.Content = models.QRContent{Text: q.ShortURL}
	}
	return req
}
