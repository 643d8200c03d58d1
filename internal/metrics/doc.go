// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

// Package metrics declares the Prometheus collectors exported on /metrics.
//
// Collectors are package-level promauto vars registered against the default
// registry. Call sites use the Record* helpers rather than touching label
// values directly so label cardinality stays bounded.
package metrics
