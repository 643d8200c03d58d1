// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package backend

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/biter777/countries"

	"github.com/tomtom215/qrpulse/internal/models"
)

// timestampLayouts are tried in order for string timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// CoerceScan converts one raw scan record into a ScanEvent. It never fails:
// absent or mistyped fields become "unknown" placeholders, and an
// unparsable timestamp leaves Timestamp zero.
func CoerceScan(raw map[string]any, receivedAt time.Time) models.ScanEvent {
	e := models.ScanEvent{
		QRCodeID:   firstString(raw, "qrCodeId", "qr_code_id", "qrId"),
		QRCodeName: firstString(raw, "qrCodeName", "qr_code_name", "qrName"),
		ReceivedAt: receivedAt,
	}

	tsRaw := firstValue(raw, "timestamp", "scannedAt", "scanned_at", "createdAt")
	e.Timestamp, e.RawTimestamp = parseTimestamp(tsRaw)

	e.Device = coerceDevice(raw)
	e.Location = coerceLocation(raw)

	if e.QRCodeID == "" {
		e.QRCodeID = "unknown"
	}
	if e.QRCodeName == "" {
		e.QRCodeName = models.UnknownCodeName
	}

	e.VisitorID = visitorKey(raw, e.Device, e.Location)

	e.ID = firstString(raw, "id", "_id", "scanId")
	if e.ID == "" {
		// Stable across polls so the same anonymous record dedupes.
		e.ID = "anon:" + digest(e.RawTimestamp, e.QRCodeID, e.VisitorID, string(e.Device.Type))
	}
	return e
}

// CoerceNotification converts one raw notification record.
func CoerceNotification(raw map[string]any, receivedAt time.Time) models.Notification {
	n := models.Notification{
		ID:      firstString(raw, "id", "_id"),
		Type:    strings.ToLower(firstString(raw, "type", "kind")),
		Title:   firstString(raw, "title"),
		Message: firstString(raw, "message", "body"),
	}
	if read, ok := raw["read"].(bool); ok {
		n.Read = read
	}

	switch p := models.Priority(strings.ToLower(firstString(raw, "priority"))); p {
	case models.PriorityUrgent, models.PriorityHigh:
		n.Priority = p
	default:
		n.Priority = models.PriorityNormal
	}

	switch n.Type {
	case models.NotificationMilestone, models.NotificationUsage, models.NotificationTip, models.NotificationSystem:
	default:
		n.Type = models.NotificationSystem
	}

	ts, tsRaw := parseTimestamp(firstValue(raw, "timestamp", "createdAt"))
	if ts.IsZero() {
		ts = receivedAt
	}
	n.Timestamp = ts

	if n.ID == "" {
		n.ID = "anon:" + digest(n.Type, n.Title, n.Message, tsRaw)
	}
	return n
}

func coerceDevice(raw map[string]any) models.Device {
	d := models.Device{}
	switch v := raw["device"].(type) {
	case map[string]any:
		d.Type = normalizeDeviceType(firstString(v, "type", "deviceType"))
		d.Browser = firstString(v, "browser")
		d.OS = firstString(v, "os")
	case string:
		d.Type = normalizeDeviceType(v)
	}
	if d.Type == "" || d.Type == models.DeviceUnknown {
		d.Type = normalizeDeviceType(firstString(raw, "deviceType", "device_type"))
	}
	if d.Browser == "" {
		d.Browser = firstString(raw, "browser")
	}
	if d.OS == "" {
		d.OS = firstString(raw, "os")
	}
	if d.Browser == "" {
		d.Browser = models.UnknownBrowser
	}
	if d.OS == "" {
		d.OS = models.UnknownOS
	}
	return d
}

func normalizeDeviceType(s string) models.DeviceType {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return models.DeviceUnknown
	case strings.Contains(s, "tablet"), strings.Contains(s, "ipad"), strings.HasSuffix(s, "pad"):
		return models.DeviceTablet
	case strings.Contains(s, "mobile"), strings.Contains(s, "phone"), strings.Contains(s, "android"):
		return models.DeviceMobile
	case strings.Contains(s, "desktop"), strings.Contains(s, "laptop"), s == "pc", strings.Contains(s, "computer"):
		return models.DeviceDesktop
	default:
		return models.DeviceUnknown
	}
}

func coerceLocation(raw map[string]any) models.Location {
	l := models.Location{}
	if v, ok := raw["location"].(map[string]any); ok {
		l.Country = firstString(v, "country", "countryName", "countryCode")
		l.City = firstString(v, "city")
	}
	if l.Country == "" {
		l.Country = firstString(raw, "country", "countryCode")
	}
	if l.City == "" {
		l.City = firstString(raw, "city")
	}
	l.Country = CanonicalCountry(l.Country)
	if l.City == "" {
		l.City = models.UnknownCity
	}
	return l
}

// CanonicalCountry maps ISO alpha-2/alpha-3 codes and common spellings to
// one English short name so breakdowns do not split "US", "USA" and
// "United States". Unrecognised input is returned trimmed.
func CanonicalCountry(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "unknown") {
		return models.UnknownCountry
	}
	if c := countries.ByName(s); c.IsValid() {
		return c.String()
	}
	return s
}

// visitorKey picks the most specific identity available. Raw IPs are hashed
// and never stored.
func visitorKey(raw map[string]any, d models.Device, l models.Location) string {
	if v := firstString(raw, "visitorId", "visitor_id"); v != "" {
		return v
	}
	if v := firstString(raw, "ipHash", "ip_hash"); v != "" {
		return "iph:" + v
	}
	if v := firstString(raw, "ip", "ipAddress"); v != "" {
		return "ip:" + digest(v)
	}
	return models.DeviceFingerprint(d, l)
}

func parseTimestamp(v any) (time.Time, string) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), t
			}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromUnix(n), t
		}
		return time.Time{}, t
	case float64:
		raw := strconv.FormatFloat(t, 'f', -1, 64)
		if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
			return time.Time{}, raw
		}
		return fromUnix(int64(t)), raw
	default:
		return time.Time{}, ""
	}
}

// fromUnix accepts seconds or milliseconds.
func fromUnix(n int64) time.Time {
	if n <= 0 {
		return time.Time{}
	}
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// firstString returns the first key holding a non-empty string or number.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func digest(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:12])
}
