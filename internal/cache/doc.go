// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

// Package cache provides a bounded, TTL-aware LRU used in two places: the
// live buffer remembers scan ids it has already accepted, and the QR
// renderer keeps recently produced PNGs keyed by request hash.
package cache
