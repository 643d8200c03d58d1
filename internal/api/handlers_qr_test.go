// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package api

import (
	"bytes"
	"errors"
	"image/png"
	"net/http"
	"strings"
	"testing"

	"github.com/tomtom215/qrpulse/internal/backend"
	"github.com/tomtom215/qrpulse/internal/dashboard"
	"github.com/tomtom215/qrpulse/internal/models"
)

const wifiBody = `{"type":"wifi","content":{"ssid":"Net","password":"pass123","security":"WPA"},"size":256}`

func TestRenderQRPNG(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)
	tok := e.token(t, "user-q", "free")

	rec := e.do(t, http.MethodPost, "/api/v1/qr/render", tok, wifiBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if img.Bounds().Dx() != 256 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}

	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	again := e.do(t, http.MethodPost, "/api/v1/qr/render", tok, wifiBody, "If-None-Match", etag)
	if again.Code != http.StatusNotModified {
		t.Errorf("conditional status = %d", again.Code)
	}
}

func TestRenderQRJSON(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)
	rec := e.do(t, http.MethodPost, "/api/v1/qr/render?format=json", e.token(t, "u", "free"), wifiBody)
	var out RenderedQR
	envelope(t, rec, &out)

	if out.Payload != "WIFI:T:WPA;S:Net;P:pass123;;" {
		t.Errorf("payload = %q", out.Payload)
	}
	if !strings.HasPrefix(out.DataURL, "data:image/png;base64,") || out.Size != 256 {
		t.Errorf("out = %+v", out)
	}
}

func TestRenderQRRejections(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)
	free := e.token(t, "u", "free")
	pro := e.token(t, "u", "pro")

	tests := []struct {
		name   string
		token  string
		body   string
		status int
		code   string
	}{
		{"malformed json", free, `{"type":`, http.StatusBadRequest, ErrCodeBadRequest},
		{"object content for url", free, `{"type":"url","content":{"x":1}}`, http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown type", free, `{"type":"sms","content":"hi"}`, http.StatusBadRequest, ErrCodeValidationFailed},
		{"empty content", free, `{"type":"text","content":""}`, http.StatusBadRequest, ErrCodeValidationFailed},
		{"bad colour", free, `{"type":"text","content":"hi","color":{"dark":"blue"}}`, http.StatusBadRequest, ErrCodeValidationFailed},
		{"low contrast", free, `{"type":"text","content":"hi","color":{"dark":"#ffffff","light":"#fefefe"}}`, http.StatusBadRequest, ErrCodeValidationFailed},
		{"size too large", free, `{"type":"text","content":"hi","size":4096}`, http.StatusBadRequest, ErrCodeValidationFailed},
		{"logo on free plan", free, `{"type":"text","content":"hi","logo":{"dataUrl":"data:image/png;base64,AA=="}}`, http.StatusForbidden, ErrCodeUpgradeRequired},
		{"undecodable logo", pro, `{"type":"text","content":"hi","logo":{"dataUrl":"data:image/png;base64,AA=="}}`, http.StatusBadRequest, ErrCodeValidationFailed},
	}
	for _, tt := range tests {
		rec := e.do(t, http.MethodPost, "/api/v1/qr/render", tt.token, tt.body)
		env := envelope(t, rec, nil)
		if rec.Code != tt.status || env.Error == nil || env.Error.Code != tt.code {
			t.Errorf("%s: status = %d error = %+v", tt.name, rec.Code, env.Error)
		}
	}
}

func TestQRImage(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)
	tok := e.token(t, "u", "pro")
	e.platform.codes["qr1"] = &models.QRCode{
		ID:        "qr1",
		Type:      models.PayloadURL,
		Content:   models.QRContent{Text: "https://example.test/menu"},
		Settings:  models.QRSettings{Size: 300, Color: models.QRColor{Dark: "#112233", Light: "#ffffff"}},
		IsDynamic: true,
		ShortURL:  "https://qr.test/abc",
	}

	rec := e.do(t, http.MethodGet, "/api/v1/qr/qr1/image", tok, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil || img.Bounds().Dx() != 300 {
		t.Fatalf("decode: %v", err)
	}

	rec = e.do(t, http.MethodGet, "/api/v1/qr/qr1/image?size=128", tok, "")
	img, err = png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil || img.Bounds().Dx() != 128 {
		t.Errorf("size override: err = %v", err)
	}

	etag := rec.Header().Get("ETag")
	if rec := e.do(t, http.MethodGet, "/api/v1/qr/qr1/image?size=128", tok, "", "If-None-Match", "W/"+etag); rec.Code != http.StatusNotModified {
		t.Errorf("weak conditional status = %d", rec.Code)
	}

	if rec := e.do(t, http.MethodGet, "/api/v1/qr/qr1/image?size=big", tok, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad size status = %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/api/v1/qr/missing/image", tok, ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing status = %d", rec.Code)
	}
}

func TestQRImagePlatformErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
	}{
		{backend.ErrCircuitOpen, http.StatusServiceUnavailable},
		{backend.ErrRateLimited, http.StatusServiceUnavailable},
		{&backend.HTTPError{Endpoint: "qr_code", StatusCode: http.StatusForbidden}, http.StatusBadRequest},
		{errors.New("connection refused"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		e := newTestEnv(t, nil)
		e.platform.err = tt.err
		rec := e.do(t, http.MethodGet, "/api/v1/qr/any/image", e.token(t, "u", "pro"), "")
		if rec.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.status)
		}
	}
}

func TestEtagMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"x", "abc"`, true},
		{"*", true},
		{`"abcd"`, false},
	}
	for _, tt := range tests {
		if got := etagMatch(tt.header, `"abc"`); got != tt.want {
			t.Errorf("etagMatch(%q) = %v", tt.header, got)
		}
	}
}

func TestListQRCodes(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)
	tok := e.token(t, "u", "free")

	var empty QRCodeList
	rec := e.do(t, http.MethodGet, "/api/v1/qr", tok, "")
	if env := envelope(t, rec, &empty); !env.Success {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if empty.Total != 0 || empty.EmptyState != dashboard.EmptyNoQRCodes || empty.Codes == nil {
		t.Errorf("empty list = %+v", empty)
	}

	e.platform.codes["b"] = &models.QRCode{ID: "b", Name: "Menu", Type: models.PayloadURL}
	e.platform.codes["a"] = &models.QRCode{ID: "a", Name: "Flyer", Type: models.PayloadText}

	var list QRCodeList
	envelope(t, e.do(t, http.MethodGet, "/api/v1/qr", tok, ""), &list)
	if list.Total != 2 || list.EmptyState != "" {
		t.Fatalf("list = %+v", list)
	}
	if list.Codes[0].Name != "Flyer" || list.Codes[1].Name != "Menu" {
		t.Errorf("order = %s, %s", list.Codes[0].Name, list.Codes[1].Name)
	}
}
