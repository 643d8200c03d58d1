// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

// Package logging wraps zerolog behind a small set of global helpers.
//
// Call Init once from main after configuration is loaded. Until then the
// package logs JSON at info level to stderr, so packages can log from init
// paths and tests without setup.
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//	logging.Info().Str("user_id", uid).Msg("poller started")
//	logging.Ctx(ctx).Warn().Err(err).Msg("feed fetch failed")
//
// Components that log a lot take a sub-logger from WithComponent so every
// line carries a "component" field. Suture gets a slog.Logger backed by the
// same zerolog instance through NewSlogLogger.
package logging
