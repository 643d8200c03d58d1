// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package models

import "time"

// Count is one row of a breakdown.
type Count struct {
	Key   string `json:"key"`
	Label string `json:"label,omitempty"`
	Count int    `json:"count"`
}

// Totals are the headline counters.
type Totals struct {
	TotalScans     int64 `json:"totalScans"`
	ScansToday     int   `json:"scansToday"`
	ScansThisHour  int   `json:"scansThisHour"`
	UniqueVisitors int   `json:"uniqueVisitors"`
}

// LiveAggregateView is derived from a live buffer snapshot and a reference
// time. It is recomputed on every buffer change and never stored.
type LiveAggregateView struct {
	Hourly [24]int `json:"hourly"`

	// CurrentHour is -1 until the consumer is mounted.
	CurrentHour int `json:"currentHour"`

	// Daily is indexed by time.Weekday, 0 = Sunday.
	Daily [7]int `json:"daily"`

	Devices   []Count `json:"devices"`
	Countries []Count `json:"countries"`
	Browsers  []Count `json:"browsers"`
	TopCodes  []Count `json:"topCodes"`

	Totals Totals `json:"totals"`

	// ServerAuthoritative is set when Totals.TotalScans came from the platform.
	ServerAuthoritative bool `json:"serverAuthoritative"`

	// BufferedScans is the number of events the view was computed from.
	BufferedScans int `json:"bufferedScans"`

	GeneratedAt time.Time `json:"generatedAt"`
}
