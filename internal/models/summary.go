// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package models

// TimePoint is one bucket of a server-side time series.
type TimePoint struct {
	Date  string `json:"date"`
	Scans int64  `json:"scans"`
}

// AnalyticsSummary is precomputed by the platform. It is served as-is and
// does not go through the aggregation engine.
type AnalyticsSummary struct {
	QRCodeID       string           `json:"qrCodeId,omitempty"`
	Period         string           `json:"period"`
	TotalScans     int64            `json:"totalScans"`
	UniqueVisitors int64            `json:"uniqueVisitors"`
	ByDevice       map[string]int64 `json:"byDevice"`
	ByCountry      map[string]int64 `json:"byCountry"`
	ByBrowser      map[string]int64 `json:"byBrowser"`
	ByOS           map[string]int64 `json:"byOS"`
	TimeSeries     []TimePoint      `json:"timeSeries"`
}
