// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/qrpulse/internal/auth"
	"github.com/tomtom215/qrpulse/internal/dashboard"
	"github.com/tomtom215/qrpulse/internal/live"
)

// notificationStore returns the user's store, starting a poller if needed so
// the list fills on the next poll.
func (h *Handler) notificationStore(w http.ResponseWriter, r *http.Request) (*live.NotificationStore, string, bool) {
	userID := auth.UserIDFromContext(r.Context())
	p, err := h.live.Touch(userID)
	if err != nil {
		WriteError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return nil, "", false
	}
	return p.Notifications(), userID, true
}

// ListNotifications returns the tray, newest first, with the unread count.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	store, _, ok := h.notificationStore(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, r, dashboard.NotificationTray(store.List()))
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	store, userID, ok := h.notificationStore(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if !store.MarkRead(id) {
		NewResponseWriter(w, r).NotFound("notification not found")
		return
	}
	h.pushState(userID)
	WriteSuccess(w, r, map[string]any{"id": id, "unreadCount": store.UnreadCount()})
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	store, userID, ok := h.notificationStore(w, r)
	if !ok {
		return
	}
	n := store.MarkAllRead()
	if n > 0 {
		h.pushState(userID)
	}
	WriteSuccess(w, r, map[string]any{"marked": n, "unreadCount": 0})
}

func (h *Handler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	store, userID, ok := h.notificationStore(w, r)
	if !ok {
		return
	}
	n := store.Clear()
	if n > 0 {
		h.pushState(userID)
	}
	WriteSuccess(w, r, map[string]any{"cleared": n})
}
