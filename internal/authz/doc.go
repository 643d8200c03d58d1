// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

// Package authz decides plan feature access with Casbin RBAC.
//
// Plans are Casbin roles and features are objects. Higher tiers inherit
// lower ones through "g" rules, so a feature only names its minimum plan:
//
//	g, pro, free
//	g, business, pro
//	p, pro, live_analytics, use
//
// The model and policy are embedded (model.conf, policy.csv). Default returns
// a shared enforcer built from them; the dashboard package calls it for every
// gate check. A feature no policy mentions is open to every plan.
package authz
