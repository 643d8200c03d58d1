// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package qr

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/tomtom215/qrpulse/internal/models"
)

// drawFrame paints the frame onto dc and returns the side of the square left
// for the symbol. The band never takes more than a quarter of the image.
func drawFrame(dc *gg.Context, f *models.QRFrame, size int, fg, bg color.Color) int {
	band := f.Size
	if band <= 0 {
		band = size / 16
	}
	if band > size/4 {
		band = size / 4
	}
	s, b := float64(size), float64(band)

	dc.SetColor(fg)
	switch f.Style {
	case models.FrameRounded:
		dc.DrawRoundedRectangle(0, 0, s, s, b*1.5)
		dc.Fill()
		dc.SetColor(bg)
		dc.DrawRoundedRectangle(b, b, s-2*b, s-2*b, b/2)
		dc.Fill()

	case models.FrameCircle:
		r := s / 2
		dc.DrawCircle(r, r, r)
		dc.Fill()
		dc.SetColor(bg)
		dc.DrawCircle(r, r, r-b)
		dc.Fill()
		// largest square inscribed in the inner circle
		return int(math.Floor((s - 2*b) / math.Sqrt2))

	case models.FrameDashed:
		dc.SetLineWidth(b / 2)
		dc.SetDash(b*1.5, b)
		dc.DrawRectangle(b/4, b/4, s-b/2, s-b/2)
		dc.Stroke()
		dc.SetDash()

	default:
		dc.DrawRectangle(0, 0, s, s)
		dc.Fill()
		dc.SetColor(bg)
		dc.DrawRectangle(b, b, s-2*b, s-2*b)
		dc.Fill()
	}
	return size - 2*band
}
