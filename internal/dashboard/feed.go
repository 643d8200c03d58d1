// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package dashboard

import (
	"time"

	"github.com/tomtom215/qrpulse/internal/analytics"
	"github.com/tomtom215/qrpulse/internal/live"
	"github.com/tomtom215/qrpulse/internal/models"
)

// DefaultFeedItems is the activity feed length.
const DefaultFeedItems = 10

// EmptyState explains why a feed has no items.
type EmptyState string

const (
	EmptyNone             EmptyState = ""
	EmptyNoQRCodes        EmptyState = "no_qr_codes"
	EmptyNoScansYet       EmptyState = "no_scans_yet"
	EmptyNoRecentActivity EmptyState = "no_recent_activity"
)

var emptyMessages = map[EmptyState]string{
	EmptyNoQRCodes:        "Create your first QR code to start tracking scans.",
	EmptyNoScansYet:       "No QR codes scanned yet. Share a code and scans will appear here.",
	EmptyNoRecentActivity: "No scan activity in the last 24 hours.",
}

// FeedItem is one row of the activity feed.
type FeedItem struct {
	ID           string            `json:"id"`
	QRCodeID     string            `json:"qrCodeId"`
	QRCodeName   string            `json:"qrCodeName"`
	DeviceType   models.DeviceType `json:"deviceType"`
	Browser      string            `json:"browser"`
	Country      string            `json:"country"`
	City         string            `json:"city"`
	Timestamp    time.Time         `json:"timestamp"`
	RelativeTime string            `json:"relativeTime,omitempty"`
	IsNew        bool              `json:"isNew"`
}

// Feed is the activity feed view-model.
type Feed struct {
	Items        []FeedItem `json:"items"`
	Total        int        `json:"total"`
	Empty        EmptyState `json:"emptyState,omitempty"`
	EmptyMessage string     `json:"emptyMessage,omitempty"`
}

// ActivityFeed lists the newest maxItems scans of snap, newest first, with
// the first flagged as new. When mounted, scans older than the retention
// window relative to rc.Now are hidden and relative times are filled in.
func ActivityFeed(snap *live.Snapshot, maxItems int, rc RenderContext) Feed {
	if maxItems <= 0 {
		maxItems = DefaultFeedItems
	}
	if snap == nil {
		snap = &live.Snapshot{}
	}

	var cutoff time.Time
	if rc.Mounted && !rc.Now.IsZero() {
		cutoff = rc.Now.Add(-analytics.DefaultRetention)
	}

	feed := Feed{Items: make([]FeedItem, 0, maxItems)}
	for i := range snap.Scans {
		e := &snap.Scans[i]
		if !cutoff.IsZero() && e.EffectiveTime().Before(cutoff) {
			continue
		}
		feed.Total++
		if len(feed.Items) == maxItems {
			continue
		}
		item := FeedItem{
			ID:         e.ID,
			QRCodeID:   e.QRCodeID,
			QRCodeName: e.QRCodeName,
			DeviceType: e.Device.Type,
			Browser:    e.Device.Browser,
			Country:    e.Location.Country,
			City:       e.Location.City,
			Timestamp:  e.Timestamp,
			IsNew:      len(feed.Items) == 0,
		}
		if rc.Mounted {
			item.RelativeTime = relativeTime(e.Timestamp, rc.Now)
		}
		feed.Items = append(feed.Items, item)
	}

	if feed.Total == 0 {
		feed.Empty = emptyStateFor(snap)
		feed.EmptyMessage = emptyMessages[feed.Empty]
	}
	return feed
}

// emptyStateFor tells a user who has nothing to scan apart from one whose
// codes have never been scanned and one whose scans are simply not recent.
func emptyStateFor(snap *live.Snapshot) EmptyState {
	switch {
	case snap.QRCodeCount != nil && *snap.QRCodeCount == 0:
		return EmptyNoQRCodes
	case !snap.HasEverScanned:
		return EmptyNoScansYet
	default:
		return EmptyNoRecentActivity
	}
}
