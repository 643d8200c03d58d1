// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

/*
Package middleware provides HTTP middleware shared by every route.

Key Components:

  - RequestID: X-Request-ID propagation and logging context
  - PrometheusMetrics: request count, latency and in-flight gauges keyed by
    the chi route pattern rather than the raw path
  - AccessLog: one structured zerolog line per completed request

Middleware Stack:

The router installs them in this order:

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)

Route patterns keep label cardinality bounded: /api/v1/qr/{id}/image is one
series no matter how many QR codes exist.

See Also:

  - internal/auth: token authentication
  - internal/metrics: metric definitions
*/
package middleware
