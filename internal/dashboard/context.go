// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package dashboard

import (
	"fmt"
	"time"
)

// RenderContext carries everything a view-model may depend on besides data.
type RenderContext struct {
	// Mounted is false for the first, non-interactive render.
	Mounted bool
	// Now is the reference time. It is only consulted when Mounted.
	Now  time.Time
	Plan Plan
}

// relativeTime formats t against now, e.g. "just now", "5m ago", "3h ago".
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "unknown time"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}
