// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

/*
Package api exposes the live dashboard, notifications, QR rendering and
analytics summaries over HTTP.

Every JSON response uses one envelope:

	{"success": true,  "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "VALIDATION_FAILED", "message": "...", "details": {...}}}

Routes:

	GET    /api/v1/health
	GET    /metrics
	GET    /api/v1/live/snapshot          ?mounted=true
	GET    /api/v1/live/ws                WebSocket, token via ?access_token=
	GET    /api/v1/notifications
	POST   /api/v1/notifications/{id}/read
	POST   /api/v1/notifications/read-all
	DELETE /api/v1/notifications
	GET    /api/v1/qr
	POST   /api/v1/qr/render              ?format=json
	GET    /api/v1/qr/{id}/image          ?size=
	GET    /api/v1/analytics/summary      ?qrCodeId=&period=

Everything under /api/v1 except health requires a bearer token.
*/
package api
