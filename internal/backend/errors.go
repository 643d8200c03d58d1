// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for HTTP 404.
	ErrNotFound = errors.New("backend: not found")

	// ErrCircuitOpen is returned while the circuit breaker rejects calls.
	ErrCircuitOpen = errors.New("backend: circuit open")

	// ErrRateLimited is returned when 429 responses outlast the retry budget.
	ErrRateLimited = errors.New("backend: rate limited")
)

// HTTPError is a non-2xx response other than 404 and 429.
type HTTPError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// IsClientError reports whether err is a 4xx response, which says nothing
// about backend health and must not trip the breaker.
func IsClientError(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode >= 400 && he.StatusCode < 500
}
