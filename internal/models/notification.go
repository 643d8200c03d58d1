// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package models

import "time"

// Priority only affects presentation. It never changes ordering or retention.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
)

// Notification types sent by the platform.
const (
	NotificationMilestone = "milestone"
	NotificationUsage     = "usage"
	NotificationTip       = "tip"
	NotificationSystem    = "system"
)

// Notification is a user-facing event such as a scan milestone or usage alert.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Priority  Priority  `json:"priority"`
	Read      bool      `json:"read"`
	Timestamp time.Time `json:"timestamp"`
}
