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
	"image/png"

	"github.com/fogleman/gg"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/tomtom215/qrpulse/internal/models"
)

const (
	DefaultSize = 256
	MinSize     = 64
	MaxSize     = 2048

	// minContrast is the lowest dark/light ratio phone scanners reliably read.
	minContrast = 1.5
)

var (
	ErrInvalidSize   = errors.New("qr: invalid size")
	ErrInvalidColor  = errors.New("qr: invalid colour")
	ErrLowContrast   = errors.New("qr: dark and light colours are too similar")
	ErrContentTooBig = errors.New("qr: content too long to encode")
)

// IsRequestError reports whether err was caused by the request itself
// rather than by the renderer.
func IsRequestError(err error) bool {
	for _, target := range []error{
		ErrEmptyContent, ErrUnknownType, ErrInvalidSize, ErrInvalidColor,
		ErrLowContrast, ErrContentTooBig, ErrInvalidLogo,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Level returns the error-correction level for a request.
func Level(req *models.QRRenderRequest) qrcode.RecoveryLevel {
	if req.Logo != nil && req.Logo.DataURL != "" {
		return qrcode.Highest
	}
	return qrcode.Medium
}

// RenderImage runs the raster pipeline for an already encoded payload.
// The result is always size x size.
func RenderImage(req *models.QRRenderRequest, payload string, maxSize int) (image.Image, error) {
	if payload == "" {
		return nil, ErrEmptyContent
	}
	size, err := normaliseSize(req.Size, maxSize)
	if err != nil {
		return nil, err
	}
	dark, err := parseColor(req.Color.Dark, DefaultDark)
	if err != nil {
		return nil, err
	}
	light, err := parseColor(req.Color.Light, DefaultLight)
	if err != nil {
		return nil, err
	}
	if contrast(dark, light) < minContrast {
		return nil, ErrLowContrast
	}

	code, err := qrcode.New(payload, Level(req))
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes: %v", ErrContentTooBig, len(payload), err)
	}
	code.ForegroundColor = dark
	code.BackgroundColor = light

	dc := gg.NewContext(size, size)
	dc.SetColor(light)
	dc.Clear()

	inner := size
	if req.Frame != nil {
		fc := dark
		if req.Frame.Color != "" {
			if fc, err = parseColor(req.Frame.Color, DefaultDark); err != nil {
				return nil, err
			}
		}
		inner = drawFrame(dc, req.Frame, size, fc, light)
	}

	symbol := code.Image(inner)
	if symbol.Bounds().Dx() > inner {
		return nil, fmt.Errorf("%w: %d px cannot fit a %d module symbol", ErrInvalidSize, inner, symbol.Bounds().Dx())
	}
	offset := (size - symbol.Bounds().Dx()) / 2
	dc.DrawImage(symbol, offset, offset)

	if req.Logo != nil && req.Logo.DataURL != "" {
		logo, err := decodeLogo(req.Logo.DataURL)
		if err != nil {
			return nil, err
		}
		drawLogo(dc, logo, req.Logo.Size, inner, size, light)
	}
	return dc.Image(), nil
}

func normaliseSize(size, maxSize int) (int, error) {
	if maxSize <= 0 || maxSize > MaxSize {
		maxSize = MaxSize
	}
	switch {
	case size == 0:
		return DefaultSize, nil
	case size < MinSize || size > maxSize:
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidSize, size, MinSize, maxSize)
	}
	return size, nil
}

var encoder = png.Encoder{CompressionLevel: png.DefaultCompression}

// EncodePNG writes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("qr: png: %w", err)
	}
	return buf.Bytes(), nil
}

// pad fills a light rectangle centred on (cx, cy) used behind logos.
func pad(dc *gg.Context, cx, cy, w, h, margin float64, light color.Color) {
	dc.SetColor(light)
	dc.DrawRoundedRectangle(cx-w/2-margin, cy-h/2-margin, w+2*margin, h+2*margin, margin)
	dc.Fill()
}
