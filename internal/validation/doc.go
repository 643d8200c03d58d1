// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

// Package validation checks API requests with go-playground/validator v10
// before any backend call or render is attempted.
//
// Field names in errors are JSON paths ("color.dark", "content.ssid") so the
// client can attach messages to its form inputs. Render requests also get a
// struct-level check that the content matches the payload type.
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    rw.ValidationError(apiErr.Message, apiErr.Details)
//	    return
//	}
package validation
