// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package dashboard

import "github.com/tomtom215/qrpulse/internal/models"

// TrayItem is a notification with its emphasis class.
type TrayItem struct {
	models.Notification
	Class string `json:"class,omitempty"`
}

// Tray is the notification dropdown view-model.
type Tray struct {
	Items  []TrayItem `json:"items"`
	Unread int        `json:"unread"`
}

// PriorityClass maps a priority to its CSS class. Normal and unknown
// priorities are unstyled.
func PriorityClass(p models.Priority) string {
	switch p {
	case models.PriorityUrgent:
		return "priority-urgent"
	case models.PriorityHigh:
		return "priority-high"
	default:
		return ""
	}
}

// NotificationTray decorates list in its given order.
func NotificationTray(list []models.Notification) Tray {
	t := Tray{Items: make([]TrayItem, 0, len(list))}
	for _, n := range list {
		if !n.Read {
			t.Unread++
		}
		t.Items = append(t.Items, TrayItem{Notification: n, Class: PriorityClass(n.Priority)})
	}
	return t
}
