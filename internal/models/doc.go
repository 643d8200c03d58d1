// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

// Package models holds the data types shared by the live poller, the
// aggregation engine, the dashboard view-models and the QR renderer.
//
// Types in this package are plain values. Boundary parsing of loosely typed
// platform JSON lives in the backend package; by the time a ScanEvent reaches
// a consumer every field has been defaulted.
package models
