// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

// Package services adapts components that do not already implement
// suture.Service.
//
// HTTPServerService binds the listener itself, serves on it and drains the
// server with Shutdown when its context ends. PeriodicService runs a
// housekeeping task on a ticker, used to sweep expired render cache entries.
package services
