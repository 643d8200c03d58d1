// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/qrpulse/internal/auth"
	"github.com/tomtom215/qrpulse/internal/backend"
	"github.com/tomtom215/qrpulse/internal/config"
	"github.com/tomtom215/qrpulse/internal/live"
	"github.com/tomtom215/qrpulse/internal/models"
	"github.com/tomtom215/qrpulse/internal/qr"
	ws "github.com/tomtom215/qrpulse/internal/websocket"
)

const testSecret = "api-test-secret-with-at-least-32-characters"

// fakeFeed serves the same page on every poll; the buffer de-duplicates.
type fakeFeed struct {
	mu    sync.Mutex
	scans []models.ScanEvent
	notes []models.Notification
	total *int64
	calls int
}

func (f *fakeFeed) FetchFeed(_ context.Context, _, _ string) (*backend.FeedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	count := 3
	return &backend.FeedResult{
		Scans:         append([]models.ScanEvent(nil), f.scans...),
		Notifications: append([]models.Notification(nil), f.notes...),
		TotalScans:    f.total,
		QRCodeCount:   &count,
		Cursor:        "cursor",
	}, nil
}

type fakePlatform struct {
	codes   map[string]*models.QRCode
	summary *models.AnalyticsSummary
	err     error
	breaker string

	mu         sync.Mutex
	lastPeriod string
}

func (p *fakePlatform) GetQRCode(_ context.Context, _, qrID string) (*models.QRCode, error) {
	if p.err != nil {
		return nil, p.err
	}
	c, ok := p.codes[qrID]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return c, nil
}

func (p *fakePlatform) ListQRCodes(context.Context, string) ([]models.QRCodeSummary, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make([]models.QRCodeSummary, 0, len(p.codes))
	for id, c := range p.codes {
		out = append(out, models.QRCodeSummary{ID: id, Name: c.Name, Type: c.Type})
	}
	return out, nil
}

func (p *fakePlatform) GetAnalyticsSummary(_ context.Context, _, _, period string) (*models.AnalyticsSummary, error) {
	p.mu.Lock()
	p.lastPeriod = period
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.summary, nil
}

func (p *fakePlatform) BreakerState() string {
	if p.breaker == "" {
		return "closed"
	}
	return p.breaker
}

type testEnv struct {
	router   http.Handler
	handler  *Handler
	manager  *live.Manager
	hub      *ws.Hub
	feed     *fakeFeed
	platform *fakePlatform
	jwt      *auth.JWTManager
}

func testConfig() *config.Config {
	return &config.Config{
		Live: config.LiveConfig{
			PollInterval:     20 * time.Millisecond,
			FetchTimeout:     time.Second,
			FailureThreshold: 3,
			Retention:        24 * time.Hour,
			MaxBuffer:        100,
			FeedItems:        10,
			TopCountries:     5,
		},
		QR: config.QRConfig{
			DefaultSize: 256,
			MaxSize:     1024,
			CacheSize:   16,
			CacheTTL:    time.Minute,
		},
		Security: config.SecurityConfig{
			JWTSecret:       testSecret,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   1000,
			RateLimitWindow: time.Minute,
		},
	}
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	now := time.Now()
	total := int64(42)
	feed := &fakeFeed{
		scans: []models.ScanEvent{
			{ID: "s1", Timestamp: now.Add(-time.Minute), QRCodeID: "qr1", QRCodeName: "Menu",
				Device: models.Device{Type: models.DeviceMobile, Browser: "Safari", OS: "iOS"},
				Location: models.Location{Country: "DE", City: "Berlin"}, VisitorID: "v1", ReceivedAt: now},
			{ID: "s2", Timestamp: now.Add(-2 * time.Minute), QRCodeID: "qr1", QRCodeName: "Menu",
				Device: models.Device{Type: models.DeviceDesktop, Browser: "Chrome", OS: "Windows"},
				Location: models.Location{Country: "FR", City: "Paris"}, VisitorID: "v2", ReceivedAt: now},
		},
		notes: []models.Notification{
			{ID: "n1", Type: models.NotificationMilestone, Title: "100 scans", Priority: models.PriorityHigh, Timestamp: now},
			{ID: "n2", Type: models.NotificationTip, Title: "Try frames", Priority: models.PriorityNormal, Timestamp: now.Add(-time.Hour)},
		},
		total: &total,
	}
	platform := &fakePlatform{codes: map[string]*models.QRCode{}}

	manager := live.NewManager(feed, live.ManagerConfig{Poller: live.PollerConfig{
		Interval:         cfg.Live.PollInterval,
		FetchTimeout:     cfg.Live.FetchTimeout,
		FailureThreshold: cfg.Live.FailureThreshold,
		Retention:        cfg.Live.Retention,
		MaxBuffer:        cfg.Live.MaxBuffer,
	}})
	hub := ws.NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = manager.Serve(ctx) }()
	go func() { defer wg.Done(); _ = hub.RunWithContext(ctx) }()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(cfg, platform, manager, hub, qr.NewRenderer(cfg.QR))
	router := NewRouter(h, auth.NewMiddleware(jwtManager), NewChiMiddleware(ChiMiddlewareConfigFromSecurity(cfg.Security)))

	return &testEnv{
		router:   router.SetupChi(),
		handler:  h,
		manager:  manager,
		hub:      hub,
		feed:     feed,
		platform: platform,
		jwt:      jwtManager,
	}
}

func (e *testEnv) token(t *testing.T, userID, plan string) string {
	t.Helper()
	tok, err := e.jwt.GenerateToken(userID, plan, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// envelope decodes a JSON response with data into out.
func envelope(t *testing.T, rec *httptest.ResponseRecorder, out any) APIResponse {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("bad envelope %q: %v", rec.Body.String(), err)
	}
	if out != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, out); err != nil {
			t.Fatalf("bad data %s: %v", raw.Data, err)
		}
	}
	return APIResponse{Success: raw.Success, Error: raw.Error}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
