// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

/*
Package qr renders QR codes.

A render request is turned into a payload string by EncodePayload, encoded
with github.com/skip2/go-qrcode, rasterised in the requested colours, and
optionally decorated with a frame (github.com/fogleman/gg) and a centred
logo (github.com/vincent-petithory/dataurl, github.com/disintegration/imaging).

Rendering is deterministic: the same request always yields the same PNG
bytes. Renderer relies on this to cache results by a hash of the request and
to serve that hash as an HTTP ETag.

Error correction is Medium, raised to Highest when a logo covers the centre
of the symbol.
*/
package qr
