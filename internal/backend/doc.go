// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

// Package backend is the client for the external QR platform REST API.
//
// The platform owns scan events, notifications, QR entities and
// precomputed analytics. This package fetches them and converts the loosely
// typed JSON into strict models at a single boundary (CoerceScan and
// CoerceNotification), so nothing downstream needs to guard against
// missing fields.
//
// Every call goes through the same pipeline:
//
//	circuit breaker -> token bucket -> HTTP with 429 retry -> status mapping -> decode
//
// Errors are typed: ErrNotFound for 404, *HTTPError for other non-2xx
// statuses and ErrCircuitOpen when the breaker is rejecting calls.
package backend
