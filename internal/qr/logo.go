// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/vincent-petithory/dataurl"
)

const (
	// MaxLogoRatio caps the logo side relative to the symbol.
	MaxLogoRatio = 0.3

	defaultLogoRatio = 0.2
	maxLogoBytes     = 512 << 10
)

var ErrInvalidLogo = errors.New("qr: invalid logo")

var logoTypes = map[string]bool{"png": true, "jpeg": true, "jpg": true, "gif": true}

// decodeLogo parses an image data URL.
func decodeLogo(s string) (image.Image, error) {
	du, err := dataurl.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLogo, err)
	}
	if du.MediaType.Type != "image" || !logoTypes[du.MediaType.Subtype] {
		return nil, fmt.Errorf("%w: unsupported media type %s", ErrInvalidLogo, du.MediaType.ContentType())
	}
	if len(du.Data) > maxLogoBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidLogo, len(du.Data), maxLogoBytes)
	}
	img, err := imaging.Decode(bytes.NewReader(du.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLogo, err)
	}
	return img, nil
}

// logoSide clamps the requested logo side to the symbol.
func logoSide(requested, symbol int) int {
	limit := int(float64(symbol) * MaxLogoRatio)
	if requested <= 0 {
		requested = int(float64(symbol) * defaultLogoRatio)
	}
	if requested > limit {
		requested = limit
	}
	if requested < 1 {
		requested = 1
	}
	return requested
}

// drawLogo scales logo so its longer side is the clamped size and centres it
// on a light pad.
func drawLogo(dc *gg.Context, logo image.Image, requested, symbol, size int, light color.Color) {
	side := logoSide(requested, symbol)
	margin := float64(side) / 10
	var scaled *image.NRGBA
	if b := logo.Bounds(); b.Dx() >= b.Dy() {
		scaled = imaging.Resize(logo, side, 0, imaging.Lanczos)
	} else {
		scaled = imaging.Resize(logo, 0, side, imaging.Lanczos)
	}

	c := float64(size) / 2
	b := scaled.Bounds()
	pad(dc, c, c, float64(b.Dx()), float64(b.Dy()), margin, light)
	dc.DrawImageAnchored(scaled, size/2, size/2, 0.5, 0.5)
}
