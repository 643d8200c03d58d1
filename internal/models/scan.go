// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// DeviceType is the coarse class of the scanning device.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceDesktop DeviceType = "desktop"
	DeviceTablet  DeviceType = "tablet"
	DeviceUnknown DeviceType = "unknown"
)

// Placeholder values used when the platform omits a field.
const (
	UnknownBrowser  = "unknown"
	UnknownOS       = "unknown"
	UnknownCountry  = "Unknown"
	UnknownCity     = "Unknown"
	UnknownCodeName = "Untitled QR code"
)

type Device struct {
	Type    DeviceType `json:"type"`
	Browser string     `json:"browser"`
	OS      string     `json:"os"`
}

type Location struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

// ScanEvent is one observed scan of a QR code.
type ScanEvent struct {
	ID string `json:"id"`

	// Timestamp is the zero time when the platform sent something unparsable.
	// Such events are kept but never land in a time bucket.
	Timestamp    time.Time `json:"timestamp"`
	RawTimestamp string    `json:"rawTimestamp,omitempty"`

	QRCodeID   string   `json:"qrCodeId"`
	QRCodeName string   `json:"qrCodeName"`
	Device     Device   `json:"device"`
	Location   Location `json:"location"`

	// VisitorID is stable for repeat scans from the same visitor.
	VisitorID string `json:"visitorId"`

	// ReceivedAt is when this process first saw the event.
	ReceivedAt time.Time `json:"receivedAt"`
}

// HasTimestamp reports whether the event can be placed in a time bucket.
func (e *ScanEvent) HasTimestamp() bool {
	return !e.Timestamp.IsZero()
}

// EffectiveTime is the timestamp used for retention and ordering: the scan
// time when known, otherwise the receipt time.
func (e *ScanEvent) EffectiveTime() time.Time {
	if e.HasTimestamp() {
		return e.Timestamp
	}
	return e.ReceivedAt
}

// DeviceFingerprint derives a visitor key from device and location when the
// platform supplies no visitor or IP information. Two scans with identical
// attributes collapse into one visitor.
func DeviceFingerprint(d Device, l Location) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		string(d.Type), d.Browser, d.OS, l.Country, l.City,
	}, "|")))
	return "fp:" + hex.EncodeToString(sum[:8])
}
