// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

/*
Package auth validates the platform's session tokens.

Tokens are HS256 JWTs signed with the shared JWT_SECRET. The subject claim is
the user id that scopes every live feed, notification and QR lookup; the plan
claim drives feature gating in the dashboard.

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	r.Use(auth.NewMiddleware(jwtManager).Authenticate)

Browsers cannot set headers on WebSocket upgrades, so the middleware also
accepts the token in the access_token query parameter.
*/
package auth
