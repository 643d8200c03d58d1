// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package backend

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/qrpulse/internal/models"
)

var recv = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func TestCoerceScanDefaults(t *testing.T) {
	t.Parallel()

	e := CoerceScan(map[string]any{}, recv)

	if e.Device.Type != models.DeviceUnknown || e.Device.Browser != models.UnknownBrowser || e.Device.OS != models.UnknownOS {
		t.Errorf("device not defaulted: %+v", e.Device)
	}
	if e.Location.Country != models.UnknownCountry || e.Location.City != models.UnknownCity {
		t.Errorf("location not defaulted: %+v", e.Location)
	}
	if e.HasTimestamp() {
		t.Error("missing timestamp should be zero")
	}
	if !strings.HasPrefix(e.ID, "anon:") || e.VisitorID == "" {
		t.Errorf("id=%q visitor=%q", e.ID, e.VisitorID)
	}
	if !e.ReceivedAt.Equal(recv) {
		t.Errorf("ReceivedAt = %v", e.ReceivedAt)
	}
}

func TestCoerceScanTimestamps(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		value any
		valid bool
	}{
		{"rfc3339", "2024-01-15T09:00:00Z", true},
		{"offset", "2024-01-15T10:00:00+01:00", true},
		{"space separated", "2024-01-15 09:00:00", true},
		{"unix seconds", float64(want.Unix()), true},
		{"unix millis", float64(want.UnixMilli()), true},
		{"unix string", "1705309200", true},
		{"garbage", "last tuesday", false},
		{"bool", true, false},
		{"zero", float64(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := CoerceScan(map[string]any{"id": "x", "timestamp": tt.value}, recv)
			if e.HasTimestamp() != tt.valid {
				t.Fatalf("HasTimestamp = %v, want %v", e.HasTimestamp(), tt.valid)
			}
			if tt.valid && !e.Timestamp.Equal(want) {
				t.Errorf("Timestamp = %v, want %v", e.Timestamp, want)
			}
		})
	}
}

func TestNormalizeDeviceType(t *testing.T) {
	t.Parallel()

	tests := map[string]models.DeviceType{
		"Mobile":     models.DeviceMobile,
		"smartphone": models.DeviceMobile,
		"iPad":       models.DeviceTablet,
		"tablet":     models.DeviceTablet,
		"Desktop":    models.DeviceDesktop,
		"laptop":     models.DeviceDesktop,
		"smart-tv":   models.DeviceUnknown,
		"":           models.DeviceUnknown,
	}
	for in, want := range tests {
		if got := normalizeDeviceType(in); got != want {
			t.Errorf("normalizeDeviceType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalCountry(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"US":           "United States",
		"usa":          "United States",
		"Germany":      "Germany",
		"DE":           "Germany",
		"":             models.UnknownCountry,
		"unknown":      models.UnknownCountry,
		"  Atlantis  ": "Atlantis",
	}
	for in, want := range tests {
		if got := CanonicalCountry(in); got != want {
			t.Errorf("CanonicalCountry(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVisitorKeyPrecedence(t *testing.T) {
	t.Parallel()

	base := map[string]any{"id": "1", "ip": "203.0.113.9"}
	a := CoerceScan(base, recv)
	b := CoerceScan(map[string]any{"id": "2", "ip": "203.0.113.9"}, recv)
	if a.VisitorID != b.VisitorID || !strings.HasPrefix(a.VisitorID, "ip:") || strings.Contains(a.VisitorID, "203.0.113.9") {
		t.Errorf("ip-derived visitor ids: %q %q", a.VisitorID, b.VisitorID)
	}

	withHash := CoerceScan(map[string]any{"id": "3", "ip": "203.0.113.9", "ipHash": "abc"}, recv)
	if withHash.VisitorID != "iph:abc" {
		t.Errorf("VisitorID = %q, want iph:abc", withHash.VisitorID)
	}

	explicit := CoerceScan(map[string]any{"id": "4", "visitorId": "v-9", "ipHash": "abc"}, recv)
	if explicit.VisitorID != "v-9" {
		t.Errorf("VisitorID = %q, want v-9", explicit.VisitorID)
	}
}

func TestCoerceScanStableAnonymousID(t *testing.T) {
	t.Parallel()

	raw := map[string]any{"timestamp": "2024-01-15T09:00:00Z", "qrCodeId": "q1", "device": "mobile"}
	if CoerceScan(raw, recv).ID != CoerceScan(raw, recv.Add(time.Hour)).ID {
		t.Error("anonymous id must not depend on receipt time")
	}
}

func TestCoerceNotification(t *testing.T) {
	t.Parallel()

	n := CoerceNotification(map[string]any{"title": "Tip", "priority": "LOUD", "type": "weird"}, recv)
	if n.Priority != models.PriorityNormal {
		t.Errorf("Priority = %q, want normal", n.Priority)
	}
	if n.Type != models.NotificationSystem {
		t.Errorf("Type = %q, want system", n.Type)
	}
	if !n.Timestamp.Equal(recv) {
		t.Errorf("Timestamp = %v, want receipt time", n.Timestamp)
	}
	if n.ID == "" {
		t.Error("expected generated id")
	}

	h := CoerceNotification(map[string]any{"id": "n1", "priority": "High", "read": true}, recv)
	if h.Priority != models.PriorityHigh || !h.Read || h.ID != "n1" {
		t.Errorf("notification = %+v", h)
	}
}
