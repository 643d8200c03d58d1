// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

// Package analytics turns a snapshot of scan events into a
// models.LiveAggregateView.
//
// Everything here is a pure function of its arguments. The reference time is
// always passed in; nothing reads the wall clock. Inputs are never modified.
package analytics
