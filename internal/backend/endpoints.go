// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package backend

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/qrpulse/internal/logging"
	"github.com/tomtom215/qrpulse/internal/metrics"
	"github.com/tomtom215/qrpulse/internal/models"
)

// FeedResult is one page of the live feed.
type FeedResult struct {
	Scans         []models.ScanEvent
	Notifications []models.Notification

	// TotalScans is the platform's lifetime count, when it sends one.
	TotalScans *int64

	// QRCodeCount is how many codes the user owns, when known.
	QRCodeCount *int

	// Cursor is passed back as "since" on the next fetch.
	Cursor string
}

// rawFeed defers every field so one bad element or mistyped counter cannot
// reject the whole page.
type rawFeed struct {
	Scans         json.RawMessage `json:"scans"`
	Notifications json.RawMessage `json:"notifications"`
	TotalScans    any             `json:"totalScans"`
	QRCodeCount   any             `json:"qrCodeCount"`
	Cursor        any             `json:"cursor"`
}

// FetchFeed returns scans and notifications newer than since. An empty
// since requests the platform's default recent window.
func (c *Client) FetchFeed(ctx context.Context, userID, since string) (*FeedResult, error) {
	return execute(c.breaker, func() (*FeedResult, error) {
		q := url.Values{"userId": {userID}}
		if since != "" {
			q.Set("since", since)
		}
		var raw rawFeed
		if err := c.getJSON(ctx, "feed", "/api/live/feed", q, &raw); err != nil {
			return nil, err
		}

		now := c.now()
		scans := records("scan", raw.Scans)
		notes := records("notification", raw.Notifications)
		res := &FeedResult{
			Scans:         make([]models.ScanEvent, 0, len(scans)),
			Notifications: make([]models.Notification, 0, len(notes)),
			TotalScans:    coerceCount(raw.TotalScans),
			Cursor:        coerceCursor(raw.Cursor),
		}
		if n := coerceCount(raw.QRCodeCount); n != nil {
			count := int(*n)
			res.QRCodeCount = &count
		}

		var newest time.Time
		for _, s := range scans {
			ev := CoerceScan(s, now)
			if ev.Timestamp.After(newest) {
				newest = ev.Timestamp
			}
			res.Scans = append(res.Scans, ev)
		}
		for _, n := range notes {
			res.Notifications = append(res.Notifications, CoerceNotification(n, now))
		}

		if res.Cursor == "" {
			res.Cursor = since
			if !newest.IsZero() {
				// A skewed future timestamp must not hide scans that arrive
				// before the wall clock catches up.
				if newest.After(now) {
					newest = now
				}
				res.Cursor = newest.Format(time.RFC3339Nano)
			}
		}
		return res, nil
	})
}

// GetQRCode fetches one QR entity with its rendering settings.
func (c *Client) GetQRCode(ctx context.Context, userID, qrID string) (*models.QRCode, error) {
	return execute(c.breaker, func() (*models.QRCode, error) {
		var qr models.QRCode
		path := "/api/qr-codes/" + url.PathEscape(qrID)
		if err := c.getJSON(ctx, "qr_code", path, url.Values{"userId": {userID}}, &qr); err != nil {
			return nil, err
		}
		if qr.ID == "" {
			qr.ID = qrID
		}
		return &qr, nil
	})
}

// ListQRCodes returns the user's QR codes.
func (c *Client) ListQRCodes(ctx context.Context, userID string) ([]models.QRCodeSummary, error) {
	res, err := execute(c.breaker, func() (*[]models.QRCodeSummary, error) {
		var body struct {
			QRCodes []models.QRCodeSummary `json:"qrCodes"`
		}
		if err := c.getJSON(ctx, "qr_codes", "/api/qr-codes", url.Values{"userId": {userID}}, &body); err != nil {
			return nil, err
		}
		return &body.QRCodes, nil
	})
	if err != nil {
		return nil, err
	}
	return *res, nil
}

// GetAnalyticsSummary returns the platform's precomputed summary. qrID may
// be empty for an account-wide summary.
func (c *Client) GetAnalyticsSummary(ctx context.Context, userID, qrID, period string) (*models.AnalyticsSummary, error) {
	if period == "" {
		period = "30d"
	}
	return execute(c.breaker, func() (*models.AnalyticsSummary, error) {
		q := url.Values{"userId": {userID}, "period": {period}}
		if qrID != "" {
			q.Set("qrCodeId", qrID)
		}
		var s models.AnalyticsSummary
		if err := c.getJSON(ctx, "analytics_summary", "/api/analytics/summary", q, &s); err != nil {
			return nil, fmt.Errorf("analytics summary: %w", err)
		}
		if s.Period == "" {
			s.Period = period
		}
		return &s, nil
	})
}

// records splits a raw JSON array into objects. Elements that are not
// objects are skipped and counted; null elements are skipped silently.
func records(kind string, data json.RawMessage) []map[string]any {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		logging.Debug().Err(err).Str("kind", kind).Msg("feed field is not an array")
		metrics.MalformedFeedRecords.WithLabelValues(kind).Inc()
		return nil
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		var m map[string]any
		if err := json.Unmarshal(item, &m); err != nil {
			logging.Debug().Err(err).Str("kind", kind).Msg("skipping malformed feed record")
			metrics.MalformedFeedRecords.WithLabelValues(kind).Inc()
			continue
		}
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// coerceCount accepts a non-negative number or numeric string.
func coerceCount(v any) *int64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || f < 0 || f >= math.MaxInt64 {
		return nil
	}
	n := int64(f)
	return &n
}

func coerceCursor(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
