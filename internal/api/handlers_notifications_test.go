// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package api

import (
	"net/http"
	"testing"

	"github.com/tomtom215/qrpulse/internal/dashboard"
)

func TestNotificationLifecycle(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil)
	tok := e.token(t, "user-n", "free")

	list := func() dashboard.Tray {
		var tray dashboard.Tray
		rec := e.do(t, http.MethodGet, "/api/v1/notifications", tok, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("list status = %d", rec.Code)
		}
		envelope(t, rec, &tray)
		return tray
	}

	var tray dashboard.Tray
	waitFor(t, "notifications", func() bool {
		tray = list()
		return len(tray.Items) == 2
	})
	if tray.Unread != 2 || tray.Items[0].ID != "n1" || tray.Items[0].Class != "priority-high" {
		t.Fatalf("tray = %+v", tray)
	}

	rec := e.do(t, http.MethodPost, "/api/v1/notifications/n1/read", tok, "")
	var marked struct {
		UnreadCount int `json:"unreadCount"`
	}
	envelope(t, rec, &marked)
	if rec.Code != http.StatusOK || marked.UnreadCount != 1 {
		t.Errorf("mark read: status = %d unread = %d", rec.Code, marked.UnreadCount)
	}

	if rec := e.do(t, http.MethodPost, "/api/v1/notifications/missing/read", tok, ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d", rec.Code)
	}

	rec = e.do(t, http.MethodPost, "/api/v1/notifications/read-all", tok, "")
	if rec.Code != http.StatusOK {
		t.Errorf("read-all status = %d", rec.Code)
	}
	if tray := list(); tray.Unread != 0 {
		t.Errorf("unread after read-all = %d", tray.Unread)
	}

	rec = e.do(t, http.MethodDelete, "/api/v1/notifications", tok, "")
	var cleared struct {
		Cleared int `json:"cleared"`
	}
	envelope(t, rec, &cleared)
	if cleared.Cleared != 2 {
		t.Errorf("cleared = %d", cleared.Cleared)
	}

	// cleared notifications do not come back on later polls
	e.feed.mu.Lock()
	before := e.feed.calls
	e.feed.mu.Unlock()
	waitFor(t, "another poll", func() bool {
		e.feed.mu.Lock()
		defer e.feed.mu.Unlock()
		return e.feed.calls > before+1
	})
	if tray := list(); len(tray.Items) != 0 {
		t.Errorf("items after clear = %d", len(tray.Items))
	}
}
