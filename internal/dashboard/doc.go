// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

/*
Package dashboard turns live buffer snapshots and aggregate views into
JSON view-models for the live analytics dashboard.

Everything here is display formatting. Nothing mutates a snapshot and nothing
reads the wall clock: the caller supplies a RenderContext carrying the
reference time and whether the consumer is mounted. Unmounted renders (first
paint, server-side output) never animate and never highlight the current hour.

Access gating is a rendered state. A plan without live analytics gets a Panel
with State "upsell" instead of an error.
*/
package dashboard
