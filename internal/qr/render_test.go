// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package qr

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/makiuchi-d/gozxing"
	gzqrcode "github.com/makiuchi-d/gozxing/qrcode"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/tomtom215/qrpulse/internal/config"
	"github.com/tomtom215/qrpulse/internal/models"
)

func decodePNG(t *testing.T, b []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	return img
}

func scanImage(t *testing.T, img image.Image) string {
	t.Helper()
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		t.Fatalf("NewBinaryBitmapFromImage() error = %v", err)
	}
	res, err := gzqrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return res.GetText()
}

func wifiRequest() *models.QRRenderRequest {
	return &models.QRRenderRequest{
		Type: models.PayloadWiFi,
		Content: models.QRContent{
			WiFi: &models.WiFiContent{SSID: "Net", Password: "pass123", Security: "WPA"},
		},
		Size: 256,
	}
}

func newTestRenderer() *Renderer {
	return NewRenderer(config.QRConfig{DefaultSize: 256, MaxSize: 1024, CacheSize: 16, CacheTTL: time.Minute})
}

func TestWiFiRoundTrip(t *testing.T) {
	t.Parallel()

	res, err := newTestRenderer().Render(context.Background(), wifiRequest())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := scanImage(t, decodePNG(t, res.PNG)); got != "WIFI:T:WPA;S:Net;P:pass123;;" {
		t.Errorf("decoded %q", got)
	}
}

func TestRenderFramesKeepSizeAndScan(t *testing.T) {
	t.Parallel()

	for _, style := range []string{models.FrameSquare, models.FrameRounded, models.FrameCircle, models.FrameDashed} {
		t.Run(style, func(t *testing.T) {
			t.Parallel()
			req := &models.QRRenderRequest{
				Type:    models.PayloadURL,
				Content: models.QRContent{Text: "https://example.com"},
				Size:    320,
				Color:   models.QRColor{Dark: "#1a237e", Light: "#fff"},
				Frame:   &models.QRFrame{Style: style, Color: "#c62828", Size: 16},
			}
			img, err := RenderImage(req, "https://example.com", 0)
			if err != nil {
				t.Fatalf("RenderImage() error = %v", err)
			}
			if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 320 {
				t.Fatalf("bounds = %v", b)
			}
			if style == models.FrameSquare || style == models.FrameCircle {
				if got := scanImage(t, img); got != "https://example.com" {
					t.Errorf("decoded %q", got)
				}
			}
		})
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	t.Parallel()

	req := wifiRequest()
	req.Frame = &models.QRFrame{Style: models.FrameRounded}
	payload, _ := EncodePayload(req)

	a, err := RenderImage(req, payload, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := RenderImage(req, payload, 0)
	pa, _ := EncodePNG(a)
	pb, _ := EncodePNG(b)
	if !bytes.Equal(pa, pb) {
		t.Error("identical requests rendered different bytes")
	}
}

func TestRenderColours(t *testing.T) {
	t.Parallel()

	req := &models.QRRenderRequest{
		Type:    models.PayloadText,
		Content: models.QRContent{Text: "hi"},
		Size:    200,
		Color:   models.QRColor{Dark: "#ff0000", Light: "#00ff00"},
	}
	img, err := RenderImage(req, "hi", 0)
	if err != nil {
		t.Fatal(err)
	}
	// corner is quiet zone
	r, g, b, _ := img.At(1, 1).RGBA()
	if r>>8 != 0 || g>>8 != 0xff || b>>8 != 0 {
		t.Errorf("corner = %d,%d,%d, want light colour", r>>8, g>>8, b>>8)
	}
}

func TestRenderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mod  func(*models.QRRenderRequest)
		want error
	}{
		{"too small", func(r *models.QRRenderRequest) { r.Size = 10 }, ErrInvalidSize},
		{"too large", func(r *models.QRRenderRequest) { r.Size = 5000 }, ErrInvalidSize},
		{"low contrast", func(r *models.QRRenderRequest) { r.Color = models.QRColor{Dark: "#fefefe", Light: "#ffffff"} }, ErrLowContrast},
		{"bad logo", func(r *models.QRRenderRequest) { r.Logo = &models.QRLogo{DataURL: "data:text/plain;base64,aGk="} }, ErrInvalidLogo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := wifiRequest()
			tt.mod(req)
			if _, err := RenderImage(req, "x", 0); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := RenderImage(wifiRequest(), "", 0); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("empty payload error = %v", err)
	}
	if _, err := RenderImage(&models.QRRenderRequest{Color: models.QRColor{Dark: "#zzzzzz"}}, "x", 0); err == nil {
		t.Error("expected colour parse error")
	}
}

func redLogoURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: 0xff, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestRenderLogo(t *testing.T) {
	t.Parallel()

	req := wifiRequest()
	req.Logo = &models.QRLogo{DataURL: redLogoURL(t), Size: 1000}
	if Level(req) != qrcode.Highest {
		t.Errorf("Level() = %v, want Highest with a logo", Level(req))
	}

	img, err := RenderImage(req, "WIFI:T:WPA;S:Net;P:pass123;;", 0)
	if err != nil {
		t.Fatalf("RenderImage() error = %v", err)
	}
	r, g, _, _ := img.At(128, 128).RGBA()
	if r>>8 < 0xf0 || g>>8 > 0x10 {
		t.Errorf("centre pixel = %d,%d, want logo red", r>>8, g>>8)
	}
	// clamped to 30% of 256
	edge := 128 + 256*3/10/2 + 20
	r, g, _, _ = img.At(edge, 128).RGBA()
	if r>>8 == 0xff && g>>8 == 0 {
		t.Error("logo exceeds the 30% clamp")
	}
}

func TestLogoSide(t *testing.T) {
	t.Parallel()

	tests := []struct{ requested, symbol, want int }{
		{0, 200, 40},
		{50, 200, 50},
		{100, 200, 60},
	}
	for _, tt := range tests {
		if got := logoSide(tt.requested, tt.symbol); got != tt.want {
			t.Errorf("logoSide(%d, %d) = %d, want %d", tt.requested, tt.symbol, got, tt.want)
		}
	}
}

func TestParseColor(t *testing.T) {
	t.Parallel()

	c, err := parseColor("#abc", DefaultDark)
	if err != nil || c != (color.NRGBA{R: 0xaa, G: 0xbb, B: 0xcc, A: 0xff}) {
		t.Errorf("parseColor(#abc) = %v, %v", c, err)
	}
	c, err = parseColor("", DefaultLight)
	if err != nil || c != (color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}) {
		t.Errorf("fallback = %v, %v", c, err)
	}
	if _, err := parseColor("#12345", DefaultDark); err == nil {
		t.Error("expected error for 5 digit colour")
	}
}

func TestRendererCachesByETag(t *testing.T) {
	t.Parallel()

	r := newTestRenderer()
	ctx := context.Background()

	a, err := r.Render(ctx, wifiRequest())
	if err != nil {
		t.Fatal(err)
	}
	req := wifiRequest()
	req.Color = models.QRColor{Dark: "", Light: ""}
	b, err := r.Render(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if a != b || a.ETag == "" {
		t.Error("equal requests did not share a cached result")
	}
	if s := r.CacheStats(); s.Hits != 1 {
		t.Errorf("cache hits = %d, want 1", s.Hits)
	}

	other := wifiRequest()
	other.Color.Dark = "#333333"
	c, err := r.Render(ctx, other)
	if err != nil {
		t.Fatal(err)
	}
	if c.ETag == a.ETag {
		t.Error("different styling produced the same ETag")
	}
}

func TestETagIgnoresColourCase(t *testing.T) {
	t.Parallel()

	a := wifiRequest()
	a.Color.Dark = "#ABCDEF"
	b := wifiRequest()
	b.Color.Dark = "#abcdef"
	ea, _ := ETag(a, "p")
	eb, _ := ETag(b, "p")
	if ea != eb {
		t.Errorf("%s != %s", ea, eb)
	}
}

func TestRendererRejectsEmptyContent(t *testing.T) {
	t.Parallel()

	_, err := newTestRenderer().Render(context.Background(), &models.QRRenderRequest{Type: models.PayloadURL})
	if !errors.Is(err, ErrEmptyContent) {
		t.Errorf("error = %v", err)
	}
}

func TestRequestFromSettings(t *testing.T) {
	t.Parallel()

	q := &models.QRCode{
		Type:     models.PayloadText,
		Content:  models.QRContent{Text: "static"},
		Settings: models.QRSettings{Size: 300, Color: models.QRColor{Dark: "#111111"}, Frame: &models.QRFrame{Style: "circle"}},
	}
	req := RequestFromSettings(q)
	if req.Size != 300 || req.Content.Text != "static" || req.Frame.Style != "circle" {
		t.Errorf("static request = %+v", req)
	}

	q.IsDynamic = true
	q.ShortURL = "https://qr.example/abc"
	req = RequestFromSettings(q)
	if req.Type != models.PayloadURL || req.Content.Text != "https://qr.example/abc" {
		t.Errorf("dynamic request = %+v", req)
	}
}

func TestIsRequestError(t *testing.T) {
	t.Parallel()

	long := make([]byte, 4000)
	for i := range long {
		long[i] = 'a' + byte(i%26)
	}
	_, tooBig := RenderImage(&models.QRRenderRequest{Type: models.PayloadText}, string(long), 0)
	_, badColor := RenderImage(&models.QRRenderRequest{Type: models.PayloadText, Color: models.QRColor{Dark: "#zzzzzz"}}, "hi", 0)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"content too big", tooBig, true},
		{"bad colour", badColor, true},
		{"wrapped size", errors.Join(errors.New("ctx"), ErrInvalidSize), true},
		{"logo", ErrInvalidLogo, true},
		{"context", context.Canceled, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		if got := IsRequestError(tt.err); got != tt.want {
			t.Errorf("%s: IsRequestError(%v) = %v", tt.name, tt.err, got)
		}
	}
	if !errors.Is(tooBig, ErrContentTooBig) || !errors.Is(badColor, ErrInvalidColor) {
		t.Errorf("tooBig = %v, badColor = %v", tooBig, badColor)
	}
}
